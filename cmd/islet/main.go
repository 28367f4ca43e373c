package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mattjoyce/islet/internal/config"
	"github.com/mattjoyce/islet/internal/control"
	"github.com/mattjoyce/islet/internal/doctor"
	"github.com/mattjoyce/islet/internal/host"
	"github.com/mattjoyce/islet/internal/lock"
	"github.com/mattjoyce/islet/internal/log"
	"github.com/mattjoyce/islet/internal/tui"
	"github.com/mattjoyce/islet/internal/ui"
)

const version = "0.1.0"

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

type options struct {
	configDir  string
	modulesDir string
	logLevel   string
	logFormat  string
	headless   bool
	lockPath   string
	version    bool
	check      bool
	jsonOut    bool
}

// parseFlags layers command-line flags over env.
func parseFlags(args []string, env config.Env, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("islet", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var o options
	fs.StringVar(&o.configDir, "config-dir", "", "Configuration directory (default: discovered)")
	fs.StringVar(&o.modulesDir, "modules-dir", "", "Directory holding module plugins")
	fs.StringVar(&o.logLevel, "log-level", env.LogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&o.logFormat, "log-format", env.LogFormat, "Log format: json or text")
	fs.BoolVar(&o.headless, "headless", env.Headless, "Run without a terminal panel")
	fs.StringVar(&o.lockPath, "lock", lock.DefaultPath(), "Single-instance lock file")
	fs.BoolVar(&o.version, "version", false, "Print version and exit")
	fs.BoolVar(&o.check, "check", false, "Validate the config directory and exit")
	fs.BoolVar(&o.jsonOut, "json", false, "With --check, print the report as JSON")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return o, nil
}

func run(args []string, stderr io.Writer) int {
	env, err := config.ParseEnv()
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}

	opts, err := parseFlags(args, env, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Failed to parse flags: %v\n", err)
		return 2
	}
	if opts.version {
		fmt.Fprintf(stderr, "islet version %s\n", version)
		return 0
	}

	paths, err := config.Resolve(opts.configDir, opts.modulesDir, env)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to resolve config directory: %v\n", err)
		return 1
	}

	if opts.check {
		return runCheck(paths, opts.jsonOut, os.Stdout, stderr)
	}

	logOut, closeLog, err := logWriter(opts.headless, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to open log file: %v\n", err)
		return 1
	}
	defer closeLog()

	log.Setup(opts.logLevel, opts.logFormat, logOut)
	logger := log.WithComponent("main")
	logger.Info("islet starting",
		"version", version,
		"config_dir", paths.Root,
		"modules_dir", paths.ModulesDir,
		"headless", opts.headless,
	)

	instance, err := lock.Acquire(opts.lockPath)
	if err != nil {
		logger.Error("failed to acquire instance lock", "path", opts.lockPath, "error", err)
		fmt.Fprintf(stderr, "islet: %v\n", err)
		return 1
	}
	defer instance.Release()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var h *host.Host
	var tk ui.Toolkit
	if opts.headless {
		tk = ui.NewEventLoop()
	} else {
		tk = tui.New(tui.Options{
			OnReload: func() { h.RequestReload("key binding") },
		})
	}

	h, err = host.New(host.Options{
		Paths:   paths,
		Toolkit: tk,
		Logger:  log.WithComponent("host"),
	})
	if err != nil {
		logger.Error("failed to build host", "error", err)
		return 1
	}

	errCh := make(chan error, 1)
	startControl(ctx, paths, h, errCh, logger)

	runErr := make(chan error, 1)
	go func() { runErr <- h.Run(ctx) }()

	select {
	case err := <-runErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("panel stopped with error", "error", err)
			return 1
		}
	case err := <-errCh:
		logger.Error("component failed", "error", err)
		stop()
		<-runErr
		return 1
	}

	logger.Info("islet stopped")
	return 0
}

// runCheck validates the config directory. It exits 1 on errors.
func runCheck(paths config.Paths, jsonOut bool, stdout, stderr io.Writer) int {
	result := doctor.New(paths, nil, nil).Validate()
	if jsonOut {
		out, err := doctor.FormatJSON(result)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to format report: %v\n", err)
			return 1
		}
		fmt.Fprintln(stdout, out)
	} else {
		fmt.Fprint(stdout, doctor.FormatHuman(result))
	}
	if !result.Valid {
		return 1
	}
	return 0
}

// startControl serves the control API when the config file enables it.
// The control section is read once at startup.
func startControl(ctx context.Context, paths config.Paths, h *host.Host, errCh chan<- error, logger *slog.Logger) {
	cfg, err := config.Load(paths.ConfigFile)
	if err != nil {
		cfg = config.Defaults()
	}
	if !cfg.Control.Enabled {
		return
	}

	srv := control.New(
		control.Config{Listen: cfg.Control.Listen},
		h,
		h.Events(),
		h.Metrics().Handler(),
		log.WithComponent("control"),
	)
	go func() {
		if err := srv.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("control: %w", err)
		}
	}()
	logger.Info("control API enabled", "listen", cfg.Control.Listen)
}

// logWriter keeps the terminal clean in panel mode by logging to
// $XDG_STATE_HOME/islet/islet.log.
func logWriter(headless bool, stderr io.Writer) (io.Writer, func(), error) {
	if headless {
		return stderr, func() {}, nil
	}
	path, err := logFilePath()
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

func logFilePath() (string, error) {
	state := os.Getenv("XDG_STATE_HOME")
	if state == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		state = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(state, "islet", "islet.log"), nil
}
