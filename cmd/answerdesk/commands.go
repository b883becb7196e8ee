package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hyperjump/answerdesk/internal/cli"
	"github.com/hyperjump/answerdesk/internal/config"
	"github.com/hyperjump/answerdesk/internal/models"
	"github.com/hyperjump/answerdesk/internal/server"
	"github.com/hyperjump/answerdesk/internal/storage"
	"github.com/hyperjump/answerdesk/internal/watcher"
	"github.com/hyperjump/answerdesk/pkg/utils"
	"go.uber.org/zap"
)

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

// openDirect loads config and opens storage in-process, for commands that do not go through a server.
func openDirect(configPath string) (*config.Config, *Components, *zap.Logger, error) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := utils.NewCLILogger(cfg.Debug)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, nil, err
	}
	return cfg, components, logger, nil
}

func runServer(args []string) error {
	fs := newFlagSet("server")
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (bundle imports, directory changes, etc.)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()

	imp := components.Importer
	exts := cfg.Watch.Extensions
	watchSvc := watcher.New(
		cfg.Watch,
		func(ctx context.Context, path string) {
			if _, err := imp.ImportFile(ctx, path, exts); err != nil {
				logger.Warn("watch import failed", zap.String("path", path), zap.Error(err))
			}
		},
		func(ctx context.Context, path string) {
			if err := imp.RemoveFile(ctx, path); err != nil {
				logger.Warn("watch remove failed", zap.String("path", path), zap.Error(err))
			}
		},
		watcher.WithLogger(logger),
	)
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if err := watchSvc.Start(watchCtx); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer watchSvc.Stop()
	watchSvc.SyncExistingFiles()

	srv := server.NewServer(
		components.Engine,
		components.Messages,
		components.Importer,
		components.Storage,
		cfg,
		logger,
		server.WithWatch(watchSvc, resolvedConfigPath),
		server.WithStateCounter(components.CountState),
	)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigChan:
	case err := <-errCh:
		logger.Error("Server failed", zap.Error(err))
		return err
	}

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(ctx)
}

// printSearchUsage prints search subcommand usage.
func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: answerdesk search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Every term must appear (case-insensitive) in an answer. Answers whose title contains
all terms are listed first; answers matched through their content follow.

Examples:
  answerdesk search star trek
  answerdesk search "star trek"                    # same as above
  answerdesk search --output compact warp drive     # one tab-separated line per result
  answerdesk search --server "" engage              # search the database directly
`)
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting (e.g. "star trek" vs star trek).
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchArgsReorder moves any flags (and their values) that appear after the query
// to the front of the slice so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument, so "answerdesk search trek -output json"
// would otherwise leave -output unparsed.
func searchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runSearch(args []string, stdout io.Writer) error {
	fs := newFlagSet("search")
	configPath := fs.String("config", defaultConfigPath, "config file path (used with --server \"\")")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", string(cli.OutputText), "output format: text, compact or json")
	fs.Usage = func() { printSearchUsage(fs) }
	if err := fs.Parse(searchArgsReorder(args)); err != nil {
		return err
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		return err
	}
	queryText := buildSearchQuery(fs.Args())
	if queryText == "" {
		fs.Usage()
		return errUsage
	}
	query := &models.SearchQuery{Query: queryText}
	if err := query.Validate(); err != nil {
		return err
	}

	var response *models.SearchResponse
	if *serverURL != "" {
		response, err = newAPIClient(*serverURL).search(query)
		if err != nil {
			return err
		}
	} else {
		_, components, logger, err := openDirect(*configPath)
		if err != nil {
			return err
		}
		defer logger.Sync()
		defer components.Close()
		response, err = components.Engine.Search(context.Background(), query)
		if err != nil {
			return err
		}
	}
	return cli.WriteSearchResults(stdout, response, format)
}

func runMessages(args []string, stdout io.Writer) error {
	fs := newFlagSet("messages")
	configPath := fs.String("config", defaultConfigPath, "config file path (used with --server \"\")")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", string(cli.OutputText), "output format: text, compact or json")
	if err := fs.Parse(args); err != nil {
		return err
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		return err
	}

	var resolved []*models.ResolvedMessage
	if *serverURL != "" {
		resolved, err = newAPIClient(*serverURL).messages()
		if err != nil {
			return err
		}
	} else {
		_, components, logger, err := openDirect(*configPath)
		if err != nil {
			return err
		}
		defer logger.Sync()
		defer components.Close()
		resolved, err = components.Messages.ResolveAll(context.Background())
		if err != nil {
			return err
		}
	}
	return cli.WriteMessages(stdout, resolved, format)
}

func runImport(args []string, stdout io.Writer) error {
	fs := newFlagSet("import")
	configPath := fs.String("config", defaultConfigPath, "config file path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: answerdesk import [flags] <file-or-directory>")
		return errUsage
	}
	path := fs.Arg(0)

	cfg, components, logger, err := openDirect(*configPath)
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer components.Close()

	ctx := context.Background()
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat path: %w", err)
	}
	if info.IsDir() {
		n, err := components.Importer.ImportDirectory(ctx, path, cfg.Watch.Extensions)
		if err != nil {
			return fmt.Errorf("import directory: %w", err)
		}
		fmt.Fprintf(stdout, "Imported %d file(s) from %s\n", n, path)
		return nil
	}
	// Single file: no extension filter
	res, err := components.Importer.ImportFile(ctx, path, nil)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Imported %s: %d answer(s), %d message(s), %d state value(s)\n",
		res.Source, res.Answers, res.Messages, res.State)
	return nil
}

func runRemove(args []string, stdout io.Writer) error {
	fs := newFlagSet("remove")
	configPath := fs.String("config", defaultConfigPath, "config file path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: answerdesk remove [flags] <bundle-file>")
		return errUsage
	}
	_, components, logger, err := openDirect(*configPath)
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer components.Close()

	if err := components.Importer.RemoveFile(context.Background(), fs.Arg(0)); err != nil {
		return err
	}
	absPath, _ := filepath.Abs(fs.Arg(0))
	fmt.Fprintf(stdout, "Removed rows imported from %s\n", absPath)
	return nil
}

func runDelete(args []string, stdout io.Writer) error {
	fs := newFlagSet("delete")
	configPath := fs.String("config", defaultConfigPath, "config file path (used with --server \"\")")
	serverURL := fs.String("server", "", "server URL (empty = use direct storage)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: answerdesk delete [flags] <answer-id>")
		return errUsage
	}
	id := fs.Arg(0)

	if *serverURL != "" {
		if err := newAPIClient(*serverURL).deleteAnswer(id); err != nil {
			return err
		}
	} else {
		_, components, logger, err := openDirect(*configPath)
		if err != nil {
			return err
		}
		defer logger.Sync()
		defer components.Close()
		if err := components.Storage.DeleteAnswer(context.Background(), id); err != nil {
			return err
		}
	}
	fmt.Fprintf(stdout, "Answer deleted: %s\n", id)
	return nil
}

func runStatus(args []string, stdout io.Writer) error {
	fs := newFlagSet("status")
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var status *statusResponse
	if *serverURL != "" {
		res, err := newAPIClient(*serverURL).status()
		if err != nil {
			return err
		}
		status = res
	} else {
		cfg, components, logger, err := openDirect(*configPath)
		if err != nil {
			return err
		}
		defer logger.Sync()
		defer components.Close()
		status, err = collectStatus(context.Background(), cfg, components)
		if err != nil {
			return err
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	case "text":
		writeStatusText(stdout, status)
		return nil
	default:
		return fmt.Errorf("unknown output format %q; use text or json", *outputFormat)
	}
}

func collectStatus(ctx context.Context, cfg *config.Config, c *Components) (*statusResponse, error) {
	answers, err := c.Storage.CountAnswers(ctx)
	if err != nil {
		return nil, fmt.Errorf("count answers: %w", err)
	}
	msgs, err := c.Storage.CountMessages(ctx)
	if err != nil {
		return nil, fmt.Errorf("count messages: %w", err)
	}
	stateCount, err := c.CountState(ctx)
	if err != nil {
		return nil, fmt.Errorf("count state: %w", err)
	}
	status := &statusResponse{
		Answers:  answers,
		Messages: msgs,
		State:    stateCount,
		Config: &statusConfigResponse{
			DatabasePath:     cfg.Storage.DatabasePath,
			StateBackend:     cfg.State.Backend,
			OmitKeys:         cfg.Search.OmitKeys,
			WatchDirectories: cfg.Watch.Directories,
		},
	}
	paths := storage.DatabaseFiles(cfg.Storage.DatabasePath)
	if cfg.State.Backend == config.StateBackendBadger {
		paths = append(paths, cfg.State.BadgerPath)
	}
	if diskBytes, err := storage.DiskUsageBytes(paths...); err == nil {
		status.DiskUsageBytes = &diskBytes
	}
	return status, nil
}

func writeStatusText(w io.Writer, status *statusResponse) {
	fmt.Fprintf(w, "answers:            %d   # stored answers\n", status.Answers)
	fmt.Fprintf(w, "messages:           %d   # stored message templates\n", status.Messages)
	fmt.Fprintf(w, "state:              %d   # key-value entries for placeholders\n", status.State)
	if status.DiskUsageBytes != nil {
		fmt.Fprintf(w, "disk_usage:         %s   # database and state store on disk\n",
			humanize.Bytes(uint64(*status.DiskUsageBytes)))
	}
	if status.Config == nil {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "# configuration")
	fmt.Fprintf(w, "database_path:      %s\n", status.Config.DatabasePath)
	fmt.Fprintf(w, "state_backend:      %s\n", status.Config.StateBackend)
	fmt.Fprintf(w, "omit_keys:          %s\n", strings.Join(status.Config.OmitKeys, ", "))
	for _, d := range status.Config.WatchDirectories {
		fmt.Fprintf(w, "watch_directory:    %s\n", d)
	}
}

func runWatch(args []string, stdout io.Writer) error {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: answerdesk watch <add|remove|list> [path]")
		fmt.Fprintln(os.Stderr, "  answerdesk watch add <path>     Add directory to watch (imports existing bundles)")
		fmt.Fprintln(os.Stderr, "  answerdesk watch remove <path>  Remove directory from watch")
		fmt.Fprintln(os.Stderr, "  answerdesk watch list           List watched directories")
		return errUsage
	}
	sub := args[0]
	fs := newFlagSet("watch " + sub)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	syncExisting := fs.Bool("sync", true, "import bundles already in the directory (add only)")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	client := newAPIClient(*serverURL)
	switch sub {
	case "add", "remove":
		if fs.NArg() < 1 {
			fmt.Fprintf(os.Stderr, "Usage: answerdesk watch %s <path>\n", sub)
			return errUsage
		}
		path, err := filepath.Abs(fs.Arg(0))
		if err != nil {
			return err
		}
		if sub == "add" {
			if err := client.addWatchDirectory(path, *syncExisting); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Added: %s\n", path)
			return nil
		}
		if err := client.removeWatchDirectory(path); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Removed: %s\n", path)
		return nil
	case "list":
		dirs, err := client.watchDirectories()
		if err != nil {
			return err
		}
		for _, d := range dirs {
			fmt.Fprintln(stdout, d)
		}
		return nil
	default:
		fmt.Fprintf(os.Stderr, "Unknown watch subcommand: %s\n", sub)
		return errUsage
	}
}
