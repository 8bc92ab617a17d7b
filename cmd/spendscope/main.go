package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/paveg/spendscope/internal/analytics"
	"github.com/paveg/spendscope/internal/config"
	"github.com/paveg/spendscope/internal/report"
	"github.com/paveg/spendscope/internal/version"
)

const (
	exitOK    = 0
	exitError = 1
)

func customUsage(fs *flag.FlagSet) func() {
	return func() {
		w := fs.Output()
		fmt.Fprintf(w, "spendscope (version %s)\n\n", version.Version)
		fmt.Fprintf(w, "Reports spending per product category from users, purchases and products CSV files.\n\n")
		fmt.Fprintf(w, "Usage: spendscope [options]\n\n")
		fmt.Fprintf(w, "Options:\n")
		fmt.Fprintf(w, "  -config FILE\n\t\tLoad settings from a YAML or JSON file\n")
		fmt.Fprintf(w, "  -v, -version\n\t\tPrint version information and exit\n")
		fmt.Fprintf(w, "  -h, -help\n\t\tShow this help message and exit\n\n")
		fmt.Fprintf(w, "Settings may also be overridden with SPENDSCOPE_* environment variables.\n")
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run parses args, executes the pipeline and renders the report to stdout.
// Logs and errors go to stderr.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("spendscope", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = customUsage(fs)

	versionFlag := fs.Bool("v", false, "Print version and exit")
	fs.BoolVar(versionFlag, "version", false, "Print version and exit") // alias
	configPath := fs.String("config", "", "Configuration file (YAML or JSON)")

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return exitOK
		}
		return exitError
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "unexpected arguments: %v\n", fs.Args())
		fs.Usage()
		return exitError
	}

	if *versionFlag {
		fmt.Fprint(stdout, version.Info().String())
		return exitOK
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "spendscope: %v\n", err)
		return exitError
	}

	level := slog.LevelInfo
	if cfg.VerboseLogging {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	engine, err := analytics.NewEngine(cfg, analytics.WithLogger(logger))
	if err != nil {
		logger.ErrorContext(ctx, "invalid configuration", "err", err)
		return exitError
	}

	rep, err := engine.Run(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "run failed", "run_id", engine.RunID(), "err", err)
		return exitError
	}
	defer rep.Release()

	if err := report.NewRenderer(stdout, cfg.Color).Render(rep); err != nil {
		logger.ErrorContext(ctx, "writing report", "run_id", engine.RunID(), "err", err)
		return exitError
	}
	return exitOK
}

// loadConfig starts from the defaults or the given file and applies
// environment overrides last.
func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.LoadFromEnv(), nil
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return config.Config{}, err
	}
	return config.ApplyEnv(cfg), nil
}
