package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Config holds application configuration.
type Config struct {
	// DataDir overrides the OpenCode data root (default ~/.local/share/opencode).
	// Storage, snapshots and logs are resolved beneath it.
	DataDir string `json:"data_dir,omitempty"`

	// StateDir overrides the OpenCode state root (default ~/.local/state/opencode).
	// The frecency index lives here.
	StateDir string `json:"state_dir,omitempty"`

	// LogLevel is the diagnostic log level: debug, info, warn or error.
	LogLevel string `json:"log_level,omitempty"`

	// Journal records every deletion result in journal.db when true.
	Journal *bool `json:"journal,omitempty"`

	// AllowedPaths lists extra directories transcripts may be exported to,
	// besides <configDir>/exports. Only absolute paths are honored.
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// AllowUnsafePaths lifts the export directory restriction. Symlink
	// checks still apply.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DisabledTypes is a list of type names to disable entirely.
	// All tools belonging to disabled types are excluded from registration.
	// Known types: "store", "session", "project", "log", "frecency", "journal".
	DisabledTypes []string `json:"disabled_types,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	journal := true
	return &Config{
		LogLevel: "warn",
		Journal:  &journal,
	}
}

// JournalEnabled reports whether deletion results should be journaled.
func (c *Config) JournalEnabled() bool {
	return c.Journal == nil || *c.Journal
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.config/octidy.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// DefaultBaseDir returns ~/.config/octidy.
func DefaultBaseDir(home string) string {
	return filepath.Join(home, ".config", "octidy")
}

// ExportsDir returns the default transcript export directory under baseDir.
func ExportsDir(baseDir string) string {
	return filepath.Join(baseDir, "exports")
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.DataDir = firstNonEmpty(overlay.DataDir, base.DataDir)
	result.StateDir = firstNonEmpty(overlay.StateDir, base.StateDir)
	result.LogLevel = firstNonEmpty(overlay.LogLevel, base.LogLevel)

	result.Journal = overlay.Journal
	if result.Journal == nil {
		result.Journal = base.Journal
	}

	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)

	return result
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return strings.TrimSpace(a)
	}
	return strings.TrimSpace(b)
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
