// Package main is the SmartStudy CLI entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/smartstudy/internal/cli"
	"github.com/hyperjump/smartstudy/internal/config"
	"github.com/hyperjump/smartstudy/internal/history"
	"github.com/hyperjump/smartstudy/internal/models"
	"github.com/hyperjump/smartstudy/internal/pipeline"
	"github.com/hyperjump/smartstudy/internal/server"
	"github.com/hyperjump/smartstudy/internal/speech"
	"github.com/hyperjump/smartstudy/internal/watcher"
	"github.com/hyperjump/smartstudy/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/smartstudy/config.yaml"

// loadConfig loads config from path. When path is the default, a config.yaml in
// the current directory takes precedence so that running from a project checkout
// uses the project's config. Returns the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "analyze":
		runAnalyze()
	case "speak":
		runSpeak()
	case "voices":
		runVoices()
	case "watch":
		runWatch()
	case "history":
		runHistory()
	case "status":
		runStatus()
	case "server":
		runServer()
	case "init":
		runInit()
	case "version", "--version", "-v":
		fmt.Printf("smartstudy version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// setup loads config and builds a logger and the components for a one-shot command.
func setup(configPath string, debug bool) *Components {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	logger, err := utils.NewCLILogger(cfg.Debug || debug)
	if err != nil {
		fatalf("Failed to create logger: %v", err)
	}
	components, err := initializeComponents(context.Background(), cfg, logger)
	if err != nil {
		fatalf("Failed to initialize: %v", err)
	}
	return components
}

// reorderArgs moves any flags (and their values) that appear after positional
// arguments to the front so that flag.Parse sees them. Go's flag package stops
// at the first non-flag argument.
func reorderArgs(args []string) []string {
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

// joinArgs joins positional args with spaces so multi-word text works with or without quotes.
func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// reportPath returns where the export of file goes inside dir, e.g. dir/notes.pdf.
func reportPath(dir, file, ext string) string {
	base := filepath.Base(file)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." {
		base = "study-notes"
	}
	return filepath.Join(dir, base+ext)
}

func parseOutput(s string) cli.OutputFormat {
	f, err := cli.ParseOutputFormat(s)
	if err != nil {
		fatalf("%v", err)
	}
	return f
}

func runAnalyze() {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	summary := fs.String("summary", "short", "summary length: short or long")
	pdfPath := fs.String("pdf", "", "write study notes PDF to this path")
	docxPath := fs.String("docx", "", "write study notes DOCX to this path")
	speak := fs.Bool("speak", false, "read the summary aloud when done")
	lang := fs.String("lang", "", "speech language tag (default from config)")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(reorderArgs(os.Args[2:]))

	if fs.NArg() < 1 {
		fmt.Println("Usage: smartstudy analyze [flags] <file>")
		os.Exit(1)
	}
	format := parseOutput(*output)
	summaryType, err := models.ParseSummaryType(*summary)
	if err != nil {
		fatalf("%v", err)
	}
	path := fs.Arg(0)
	content, err := os.ReadFile(path)
	if err != nil {
		fatalf("Failed to read file: %v", err)
	}

	c := setup(*configPath, *debug)
	defer c.Close()
	defer c.Logger.Sync()

	app := c.newApp(pipeline.WithNotifier(cli.NewNotifier(os.Stderr)))
	app.SelectFile(models.UploadSelection{FileName: filepath.Base(path), Content: content, SummaryType: summaryType})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	out, err := app.SubmitUpload(ctx)
	if err != nil {
		fatalf("Analyze failed: %v", err)
	}
	state := app.State()
	if err := cli.WriteSession(os.Stdout, state, format); err != nil {
		fatalf("Output failed: %v", err)
	}

	if *pdfPath != "" {
		if err := exportPDF(app, *pdfPath); err != nil {
			fmt.Fprintf(os.Stderr, "PDF export failed: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "PDF written: %s\n", *pdfPath)
		}
	}
	if *docxPath != "" {
		if err := app.ExportDOCX(*docxPath); err != nil {
			fmt.Fprintf(os.Stderr, "DOCX export failed: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "DOCX written: %s\n", *docxPath)
		}
	}
	if *speak && state.Summary() != "" {
		language := *lang
		if language == "" {
			language = c.Config.Speech.Language
		}
		if err := app.Speak(ctx, state.Summary(), language); err != nil {
			fmt.Fprintf(os.Stderr, "Speak failed: %v\n", err)
		}
	}

	if r, ok := out.Stage(pipeline.StageUpload); !ok || r.Status != pipeline.StatusOK {
		os.Exit(1)
	}
	if r, ok := out.Stage(pipeline.StageResult); !ok || r.Status != pipeline.StatusOK {
		os.Exit(1)
	}
}

func exportPDF(app *pipeline.App, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := app.ExportPDF(f); err != nil {
		f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}

func runSpeak() {
	fs := flag.NewFlagSet("speak", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	lang := fs.String("lang", "", "language tag (default from config)")
	_ = fs.Parse(reorderArgs(os.Args[2:]))

	text := joinArgs(fs.Args())
	if text == "" {
		fmt.Println("Usage: smartstudy speak [flags] <text>")
		os.Exit(1)
	}
	c := setup(*configPath, false)
	defer c.Close()
	language := *lang
	if language == "" {
		language = c.Config.Speech.Language
	}
	if err := c.Speaker.Speak(context.Background(), text, language); err != nil {
		fatalf("Speak failed: %v", err)
	}
}

func runVoices() {
	fs := flag.NewFlagSet("voices", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format := parseOutput(*output)
	c := setup(*configPath, false)
	defer c.Close()
	if err := cli.WriteVoices(os.Stdout, c.Catalog.Voices(), format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runWatch() {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	dir := fs.String("dir", "", "inbox directory (default from config)")
	outDir := fs.String("out", "", "reports directory (default from config)")
	existing := fs.Bool("existing", false, "also analyze files already in the inbox")
	_ = fs.Parse(os.Args[2:])

	c := setup(*configPath, *debug)
	defer c.Close()
	defer c.Logger.Sync()
	cfg := c.Config
	if *dir == "" {
		*dir = cfg.Watch.Directory
	}
	if *outDir == "" {
		*outDir = cfg.Export.OutputDir
	}
	summaryType, err := models.ParseSummaryType(cfg.Watch.SummaryType)
	if err != nil {
		fatalf("watch.summary_type: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	inbox := newInbox(c, *outDir, summaryType)
	w := watcher.NewWatcher([]string{*dir}, cfg.Watch.Extensions,
		func(path string) { inbox.process(ctx, path) },
		watcher.WithLogger(c.Logger))
	if err := w.Start(ctx); err != nil {
		fatalf("Failed to start watcher: %v", err)
	}
	defer w.Stop()
	if *existing {
		w.SyncExistingFiles()
	}
	fmt.Printf("Watching %s; reports go to %s\n", *dir, *outDir)
	<-ctx.Done()
}

func runHistory() {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	limit := fs.Int("limit", 10, "maximum number of sessions")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(reorderArgs(os.Args[2:]))

	format := parseOutput(*output)
	c := setup(*configPath, false)
	defer c.Close()
	if c.History == nil {
		fatalf("%v", errHistoryDisabled)
	}
	ctx := context.Background()
	var res *history.SearchResult
	if q := joinArgs(fs.Args()); q != "" {
		r, err := c.History.Search(ctx, q, *limit)
		if err != nil {
			fatalf("History search failed: %v", err)
		}
		res = r
	} else {
		recs, err := c.History.List(ctx, *limit)
		if err != nil {
			fatalf("History list failed: %v", err)
		}
		res = &history.SearchResult{Records: recs}
	}
	if err := cli.WriteHistory(os.Stdout, res, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format := parseOutput(*output)
	c := setup(*configPath, false)
	defer c.Close()
	st, err := c.status(context.Background())
	if err != nil {
		fatalf("Status failed: %v", err)
	}
	if err := cli.WriteStatus(os.Stdout, st, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
		zap.Bool("video_search", cfg.VideoSearch.Enabled()),
		zap.Bool("history", cfg.Storage.Enabled),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	if cfg.Speech.VoicesDir != "" {
		vw, err := speech.WatchVoices(ctx, components.Catalog, cfg.Speech.VoicesDir, logger)
		if err != nil {
			logger.Warn("voice directory watch disabled", zap.Error(err))
		} else {
			defer vw.Stop()
		}
	}

	opts := []server.Option{
		server.WithVoices(components.Catalog),
		server.WithDefaultLanguage(cfg.Speech.Language),
		server.WithStatus(func(ctx context.Context) (interface{}, error) {
			return components.status(ctx)
		}),
	}
	if components.History != nil {
		opts = append(opts, server.WithHistory(components.History))
	}
	srv := server.NewServer(
		func(id string) *pipeline.App { return components.newApp(pipeline.WithID(id)) },
		&cfg.Server,
		logger,
		opts...,
	)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}

func runInit() {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	force := fs.Bool("force", false, "overwrite an existing file")
	_ = fs.Parse(reorderArgs(os.Args[2:]))

	path := "config.yaml"
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}
	if err := writeDefaultConfig(path, *force); err != nil {
		fatalf("Init failed: %v", err)
	}
	fmt.Printf("Config written: %s\n", path)
}

// writeDefaultConfig saves a config holding every default to path.
func writeDefaultConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	var cfg config.Config
	config.ApplyDefaults(&cfg)
	return config.Save(path, &cfg)
}

func printUsage() {
	fmt.Println(`smartstudy - Study notes from any document

Usage:
  smartstudy analyze [flags] <file>     Summarize a document, generate Q&A and related videos
  smartstudy speak [flags] <text>       Read text aloud
  smartstudy voices [flags]             List available speech voices
  smartstudy watch [flags]              Analyze files dropped into the inbox directory
  smartstudy history [flags] [query]    List or search past sessions
  smartstudy status [flags]             Show backend, voice and history status
  smartstudy server [flags]             Start the local HTTP API
  smartstudy init [--force] [path]      Write a default config file
  smartstudy version                    Show version
  smartstudy help                       Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/smartstudy/config.yaml,
                     or ./config.yaml when present)

Analyze Flags:
  --summary string   Summary length: short or long (default: short)
  --pdf string       Write study notes PDF to this path
  --docx string      Write study notes DOCX to this path
  --speak            Read the summary aloud when done
  --lang string      Speech language tag (default: speech.language)
  --output string    Output format: text or json (default: text)
  --debug            Enable debug logging

Watch Flags:
  --dir string       Inbox directory (default: watch.directory)
  --out string       Reports directory (default: export.output_dir)
  --existing         Also analyze files already in the inbox

History Flags:
  --limit int        Maximum number of sessions (default: 10)
  --output string    Output format: text or json

The video search API key is read from video_search.api_key or the
SMARTSTUDY_VIDEO_API_KEY environment variable and never leaves this process.

Examples:
  smartstudy analyze --summary long --pdf notes.pdf lecture.pdf
  smartstudy analyze --output json notes.txt
  smartstudy speak --lang fr-FR "Bonjour tout le monde"
  smartstudy history photosynthesis
  smartstudy status --output json`)
}
