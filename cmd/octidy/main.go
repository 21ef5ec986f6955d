package main

import (
	"database/sql"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/hpungsan/octidy/internal/config"
	"github.com/hpungsan/octidy/internal/db"
	"github.com/hpungsan/octidy/internal/logging"
	"github.com/hpungsan/octidy/internal/mcp"
	"github.com/hpungsan/octidy/internal/storage"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"overview": true, "projects": true, "sessions": true, "show": true,
	"storage": true, "logs": true,
	"delete-session": true, "delete-project": true, "delete-logs": true,
	"cleanup-project": true, "clean-frecency": true,
	"export": true, "history": true, "purge-history": true, "serve": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false // Default → MCP server
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
          _   _     _
   ___  _| |_(_) __| |_   _
  / _ \/ __| __| |/ _  | | | |
 | (_) | (__| |_| | (_| | |_| |
  \___/ \___|\__|_|\__,_|\__, |
                         |___/

  Inspect and clean up OpenCode session storage

  Usage: octidy <command> [options]
         octidy --help

  MCP server mode requires piped input.`)
}

// setup loads configuration and opens everything commands work against.
func setup(home, baseDir string) (*appEnv, func(), error) {
	cfg, err := config.Load(baseDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log_level: %w", err)
	}
	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		log.Warn("unknown tools in disabled_tools", zap.Strings("tools", unknown))
	}
	if unknown := mcp.ValidateDisabledTypes(cfg.DisabledTypes); len(unknown) > 0 {
		log.Warn("unknown types in disabled_types", zap.Strings("types", unknown))
	}

	paths := config.ResolvePaths(cfg, home)
	log.Debug("resolved paths",
		zap.String("storage", paths.StorageDir),
		zap.String("logs", paths.LogDir),
		zap.String("frecency", paths.FrecencyFile))

	if err := os.MkdirAll(config.ExportsDir(baseDir), 0700); err != nil {
		return nil, nil, fmt.Errorf("failed to create exports directory: %w", err)
	}

	var database *sql.DB
	if cfg.JournalEnabled() {
		database, err = db.Init(baseDir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize journal: %w", err)
		}
	}

	env := &appEnv{
		st:         storage.NewStore(paths, storage.WithLogger(log)),
		db:         database,
		cfg:        cfg,
		exportsDir: config.ExportsDir(baseDir),
		log:        log,
	}
	cleanup := func() {
		if database != nil {
			database.Close()
		}
		_ = log.Sync()
	}
	return env, cleanup, nil
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before setup (nothing to open)
	if isHelpOrVersion() {
		app := newCLIApp(nil)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}

	env, cleanup, err := setup(homeDir, config.DefaultBaseDir(homeDir))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// CLI mode: known subcommand
	if isCLIMode() {
		app := newCLIApp(env)
		err := app.Run(os.Args)
		cleanup()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		cleanup()
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'octidy --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default)
	err = mcp.Run(env.handlers(), Version)
	cleanup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
