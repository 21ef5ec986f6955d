package main

import (
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/hpungsan/octidy/internal/config"
	"github.com/hpungsan/octidy/internal/db"
	"github.com/hpungsan/octidy/internal/errors"
	"github.com/hpungsan/octidy/internal/mcp"
	"github.com/hpungsan/octidy/internal/ops"
	"github.com/hpungsan/octidy/internal/storage"
)

// appEnv holds what every command works against.
type appEnv struct {
	st         *storage.Store
	db         *sql.DB // nil when the journal is disabled
	cfg        *config.Config
	exportsDir string
	log        *zap.Logger
	now        func() time.Time
}

// handlers builds MCP handlers over the same store and journal.
func (e *appEnv) handlers() *mcp.Handlers {
	return mcp.NewHandlers(e.st, e.db, e.cfg, e.exportsDir, e.log)
}

// load takes a fresh snapshot of the store.
func (e *appEnv) load() *ops.LoadedData {
	return ops.LoadAllData(e.st)
}

func (e *appEnv) timeNow() time.Time {
	if e.now != nil {
		return e.now()
	}
	return time.Now()
}

// record journals deletion results when the journal is enabled.
func (e *appEnv) record(c *cli.Context, entries []db.Deletion) {
	if !e.cfg.JournalEnabled() {
		return
	}
	ops.RecordDeletions(c.Context, e.db, e.log, entries)
}

// newCLIApp creates the CLI application with all commands. env may be nil
// when only help or version output is needed.
func newCLIApp(env *appEnv) *cli.App {
	app := &cli.App{
		Name:    "octidy",
		Usage:   "Inspect and clean up OpenCode session storage",
		Version: Version,
		Commands: []*cli.Command{
			overviewCmd(env),
			projectsCmd(env),
			sessionsCmd(env),
			showCmd(env),
			storageCmd(env),
			logsCmd(env),
			deleteSessionCmd(env),
			deleteProjectCmd(env),
			deleteLogsCmd(env),
			cleanupProjectCmd(env),
			cleanFrecencyCmd(env),
			exportCmd(env),
			historyCmd(env),
			purgeHistoryCmd(env),
			serveCmd(env),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// overviewCmd creates the overview command.
func overviewCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "overview",
		Usage: "Summarize sessions, projects, orphans and logs",
		Action: func(c *cli.Context) error {
			data := env.load()
			return outputJSON(c.App.Writer, map[string]any{
				"totals":  data.Totals,
				"message": ops.FormatOverview(data.Totals),
			})
		},
	}
}

// projectsCmd creates the projects command.
func projectsCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "projects",
		Usage: "List projects, most recently updated first",
		Flags: append([]cli.Flag{
			&cli.BoolFlag{Name: "orphans", Usage: "Only projects whose worktree no longer exists"},
		}, pageFlags()...),
		Action: func(c *cli.Context) error {
			return outputJSON(c.App.Writer, ops.ListProjects(env.load(), ops.ListProjectsInput{
				OrphansOnly: c.Bool("orphans"),
				Limit:       c.Int("limit"),
				Offset:      c.Int("offset"),
			}))
		},
	}
}

// sessionsCmd creates the sessions command.
func sessionsCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "sessions",
		Usage: "List sessions, most recently updated first",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "project", Aliases: []string{"p"}, Usage: "Only sessions of this project"},
			&cli.BoolFlag{Name: "orphans", Usage: "Only sessions whose directory no longer exists"},
		}, pageFlags()...),
		Action: func(c *cli.Context) error {
			return outputJSON(c.App.Writer, ops.ListSessions(env.load(), ops.ListSessionsInput{
				ProjectID:   c.String("project"),
				OrphansOnly: c.Bool("orphans"),
				Limit:       c.Int("limit"),
				Offset:      c.Int("offset"),
			}))
		},
	}
}

// showCmd creates the show command.
func showCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show a session with its messages and todos",
		ArgsUsage: "<session-id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "parts", Usage: "Include message parts"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.ShowSession(env.st, env.load(), ops.ShowSessionInput{
				SessionID:    c.Args().First(),
				IncludeParts: c.Bool("parts"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// storageCmd creates the storage command.
func storageCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "storage",
		Usage:     "Show what a project occupies on disk",
		ArgsUsage: "<project-id>",
		Action: func(c *cli.Context) error {
			id := strings.TrimSpace(c.Args().First())
			if id == "" {
				return outputError(errors.NewInvalidRequest("project id is required"))
			}
			return outputJSON(c.App.Writer, ops.GetProjectStorageInfo(env.st, id))
		},
	}
}

// logsCmd creates the logs command.
func logsCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "logs",
		Usage: "List OpenCode log files, newest first",
		Action: func(c *cli.Context) error {
			return outputJSON(c.App.Writer, ops.LoadLogs(env.st))
		},
	}
}

// deleteSessionCmd creates the delete-session command.
func deleteSessionCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "delete-session",
		Usage:     "Delete sessions with their messages, parts, diffs and todos",
		ArgsUsage: "[session-id...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "orphans", Usage: "Only sessions whose directory no longer exists"},
			&cli.StringFlag{Name: "project", Aliases: []string{"p"}, Usage: "Only sessions of this project"},
			&cli.StringFlag{Name: "older-than", Usage: "Only sessions not updated for N days (e.g., 30d)"},
			&cli.BoolFlag{Name: "cleanup-empty", Usage: "Remove projects left without sessions"},
			&cli.BoolFlag{Name: "dry-run", Usage: "Show what would be deleted"},
		},
		Action: func(c *cli.Context) error {
			days, err := olderThanFlag(c)
			if err != nil {
				return outputError(err)
			}

			selected, err := ops.SelectSessions(env.load(), ops.SelectInput{
				IDs:           c.Args().Slice(),
				ProjectID:     c.String("project"),
				OrphansOnly:   c.Bool("orphans"),
				OlderThanDays: days,
			}, env.timeNow())
			if err != nil {
				return outputError(err)
			}
			if c.Bool("dry-run") {
				return outputJSON(c.App.Writer, ops.PreviewSessions(selected))
			}

			output := ops.DeleteSessions(c.Context, env.st, ops.DeleteSessionsInput{
				Sessions:             selected,
				CleanupEmptyProjects: c.Bool("cleanup-empty"),
			})
			env.record(c, ops.SessionDeletions(selected, output))
			return outputBatch(c.App.Writer, output, output.Failed)
		},
	}
}

// deleteProjectCmd creates the delete-project command.
func deleteProjectCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "delete-project",
		Usage:     "Delete projects with all their sessions, snapshots and frecency entries",
		ArgsUsage: "[project-id...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "orphans", Usage: "Only projects whose worktree no longer exists"},
			&cli.BoolFlag{Name: "dry-run", Usage: "Show what would be deleted"},
		},
		Action: func(c *cli.Context) error {
			selected, err := ops.SelectProjects(env.load(), c.Args().Slice(), c.Bool("orphans"))
			if err != nil {
				return outputError(err)
			}
			if c.Bool("dry-run") {
				return outputJSON(c.App.Writer, ops.PreviewProjects(selected))
			}

			output := ops.DeleteProjects(c.Context, env.st, selected)
			env.record(c, ops.ProjectDeletions(selected, output))
			return outputBatch(c.App.Writer, output, output.Failed)
		},
	}
}

// deleteLogsCmd creates the delete-logs command.
func deleteLogsCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "delete-logs",
		Usage:     "Delete OpenCode log files by name or age",
		ArgsUsage: "[log-name...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "older-than", Usage: "Only logs older than N days (e.g., 7d)"},
			&cli.BoolFlag{Name: "dry-run", Usage: "Show what would be deleted"},
		},
		Action: func(c *cli.Context) error {
			days, err := olderThanFlag(c)
			if err != nil {
				return outputError(err)
			}

			selected, err := ops.SelectLogs(env.load(), c.Args().Slice(), days, env.timeNow())
			if err != nil {
				return outputError(err)
			}
			if c.Bool("dry-run") {
				return outputJSON(c.App.Writer, ops.PreviewLogs(selected))
			}

			output := ops.DeleteLogs(c.Context, env.st, selected)
			env.record(c, ops.LogDeletions(output))
			return outputBatch(c.App.Writer, output, output.Failed)
		},
	}
}

// cleanupProjectCmd creates the cleanup-project command.
func cleanupProjectCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "cleanup-project",
		Usage:     "Remove a project's metadata if no sessions are left",
		ArgsUsage: "<project-id>",
		Action: func(c *cli.Context) error {
			id := c.Args().First()

			worktree := ""
			if p, ok := ops.FindProject(env.load(), id); ok && p.HasRecord {
				worktree = p.Worktree
			}

			cleaned, err := ops.CleanupEmptyProject(env.st, id, worktree)
			if err != nil {
				return outputError(err)
			}
			if cleaned {
				env.record(c, []db.Deletion{{Kind: db.KindCleanup, TargetID: id, Label: worktree, Success: true}})
			}
			return outputJSON(c.App.Writer, map[string]any{"project_id": id, "cleaned": cleaned})
		},
	}
}

// cleanFrecencyCmd creates the clean-frecency command.
func cleanFrecencyCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "clean-frecency",
		Usage:     "Remove frecency entries under a directory",
		ArgsUsage: "<directory>",
		Action: func(c *cli.Context) error {
			dir := c.Args().First()
			if dir == "" {
				return outputError(errors.NewInvalidRequest("directory is required"))
			}

			removed, err := ops.CleanFrecencyForDirectory(env.st, dir)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, map[string]any{"directory": dir, "removed": removed})
		},
	}
}

// exportCmd creates the export command.
func exportCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Export a session transcript as Markdown or HTML",
		ArgsUsage: "<session-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Usage: "Output file (default: ~/.config/octidy/exports)"},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: ops.FormatMarkdown, Usage: "md|html"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.ExportTranscript(c.Context, env.st, env.cfg, ops.ExportTranscriptInput{
				SessionID:  c.Args().First(),
				Path:       c.String("path"),
				Format:     c.String("format"),
				ExportsDir: env.exportsDir,
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// historyCmd creates the history command.
func historyCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recorded deletions, newest first",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "kind", Aliases: []string{"k"}, Usage: "session|project|cleanup|log"},
		}, pageFlags()...),
		Action: func(c *cli.Context) error {
			if env.db == nil {
				return outputError(errors.NewInvalidRequest("journal is disabled"))
			}
			output, err := ops.ListJournal(c.Context, env.db, ops.ListJournalInput{
				Kind:   c.String("kind"),
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// purgeHistoryCmd creates the purge-history command.
func purgeHistoryCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "purge-history",
		Usage: "Drop journal entries (all, or older than N days)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "older-than", Usage: "Only entries older than N days (e.g., 90d)"},
		},
		Action: func(c *cli.Context) error {
			if env.db == nil {
				return outputError(errors.NewInvalidRequest("journal is disabled"))
			}
			days, err := olderThanFlag(c)
			if err != nil {
				return outputError(err)
			}
			n, err := db.PurgeDeletions(c.Context, env.db, days)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, map[string]any{"purged": n})
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the MCP server on stdio",
		Action: func(c *cli.Context) error {
			return mcp.Run(env.handlers(), Version)
		},
	}
}

// Helper functions

func pageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Max items"},
		&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Usage: "Items to skip"},
	}
}

// olderThanFlag reads --older-than as days; unset is zero.
func olderThanFlag(c *cli.Context) (int, error) {
	s := c.String("older-than")
	if s == "" {
		return 0, nil
	}
	days, err := parseDuration(s)
	if err != nil {
		return 0, errors.NewInvalidRequest(err.Error())
	}
	return days, nil
}

// outputJSON marshals result to w as JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputBatch prints a batch result and exits non-zero if any item failed.
func outputBatch(w io.Writer, v any, failed int) error {
	if err := outputJSON(w, v); err != nil {
		return err
	}
	if failed > 0 {
		return cli.Exit(fmt.Sprintf("%d item(s) failed", failed), 2)
	}
	return nil
}

// outputError formats error for CLI.
func outputError(err error) error {
	var e *errors.Error
	if stderrors.As(err, &e) {
		return cli.Exit(fmt.Sprintf("[%s] %s", e.Code, e.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// parseDuration parses "7d" format to days.
func parseDuration(s string) (int, error) {
	if numStr, ok := strings.CutSuffix(s, "d"); ok {
		days, err := strconv.Atoi(numStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		if days < 0 {
			return 0, fmt.Errorf("duration must be non-negative")
		}
		return days, nil
	}
	return 0, fmt.Errorf("duration must end with 'd' (days), e.g., 7d")
}
