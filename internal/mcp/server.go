package mcp

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// KnownTypes lists all valid type names.
var KnownTypes = []string{"store", "session", "project", "log", "frecency", "journal"}

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"store_overview": {
		def:     overviewToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleOverview },
	},
	"session_list": {
		def:     sessionListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSessionList },
	},
	"session_show": {
		def:     sessionShowToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSessionShow },
	},
	"session_delete": {
		def:     sessionDeleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSessionDelete },
	},
	"session_export": {
		def:     sessionExportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSessionExport },
	},
	"project_list": {
		def:     projectListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleProjectList },
	},
	"project_storage": {
		def:     projectStorageToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleProjectStorage },
	},
	"project_delete": {
		def:     projectDeleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleProjectDelete },
	},
	"project_cleanup": {
		def:     projectCleanupToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleProjectCleanup },
	},
	"log_list": {
		def:     logListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleLogList },
	},
	"log_delete": {
		def:     logDeleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleLogDelete },
	},
	"frecency_clean": {
		def:     frecencyCleanToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFrecencyClean },
	},
	"journal_list": {
		def:     journalListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleJournalList },
	},
	"journal_purge": {
		def:     journalPurgeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleJournalPurge },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// ValidateDisabledTypes returns a list of unknown type names from the given list.
func ValidateDisabledTypes(names []string) []string {
	known := make(map[string]bool, len(KnownTypes))
	for _, t := range KnownTypes {
		known[t] = true
	}

	unknown := make([]string, 0)
	for _, name := range names {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// GetTypeForTool extracts the type name from a tool name.
// Tool names follow the pattern "type_action" (e.g., "session_delete" → "session").
func GetTypeForTool(toolName string) string {
	if idx := strings.Index(toolName, "_"); idx > 0 {
		return toolName[:idx]
	}
	return ""
}

// ExpandTypesToTools returns all tool names belonging to the given types.
func ExpandTypesToTools(types []string) []string {
	if len(types) == 0 {
		return nil
	}

	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}

	tools := make([]string, 0)
	for name := range toolRegistry {
		if typeSet[GetTypeForTool(name)] {
			tools = append(tools, name)
		}
	}
	return tools
}

// NewServer creates a new MCP server with octidy tools registered.
// Tools listed in DisabledTools or belonging to DisabledTypes are excluded
// from registration. Journal tools are only registered when the handlers
// have a journal database.
func NewServer(h *Handlers, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"octidy",
		version,
		server.WithToolCapabilities(true),
	)

	// Build set of disabled tools: first expand types, then add individual tools
	types := h.cfg.DisabledTypes
	if h.db == nil {
		types = append(append([]string{}, types...), "journal")
	}
	disabled := make(map[string]bool)
	for _, tool := range ExpandTypesToTools(types) {
		disabled[tool] = true
	}
	for _, name := range h.cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(h *Handlers, version string) error {
	return server.ServeStdio(NewServer(h, version))
}

// ToolHandlerFunc is the signature for tool handlers.
type ToolHandlerFunc func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
