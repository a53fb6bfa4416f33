// Package main is the CLI entrypoint for the Wox plugin host. It parses
// the three mandated positional arguments, initializes the log sink,
// starts the liveness supervisor against the Wox process, wires the wire
// layer/correlation map/registry/dispatch engine together, and runs until
// the process exits or Wox dies (spec.md §4.2, §6).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Wox-launcher/wox-plugin-host/internal/config"
	"github.com/Wox-launcher/wox-plugin-host/internal/correlation"
	"github.com/Wox-launcher/wox-plugin-host/internal/debugserver"
	"github.com/Wox-launcher/wox-plugin-host/internal/dispatch"
	"github.com/Wox-launcher/wox-plugin-host/internal/hostlog"
	"github.com/Wox-launcher/wox-plugin-host/internal/registry"
	"github.com/Wox-launcher/wox-plugin-host/internal/rpcmethods"
	"github.com/Wox-launcher/wox-plugin-host/internal/supervisor"
	"github.com/Wox-launcher/wox-plugin-host/internal/wire"
)

// Build-time variable set via ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run parses args, wires the host's components, and blocks until shutdown.
// It returns a non-nil error only for startup failures (malformed args,
// an unreadable or invalid config, a log sink that cannot be created),
// which main turns into exit 1 (spec.md §6). A Wox-death verdict or a
// fatal component error exits 1 here via os.Exit; a clean signal-driven
// shutdown returns nil, so the process exits 0.
func run() error {
	args, err := supervisor.ParseArgs(os.Args[1:])
	if err != nil {
		return fmt.Errorf("parsing arguments: %w", err)
	}

	cfg, err := config.Load(configPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	sink, err := hostlog.New(args.LogDirectory, parseLevel(cfg.Logging.Level))
	if err != nil {
		return fmt.Errorf("initializing log sink: %w", err)
	}
	defer sink.Close()

	logger := sink.Logger()
	logger.Info("starting wox plugin host",
		slog.String("version", version),
		slog.Int("port", args.Port),
		slog.Int("wox_pid", args.WoxPid))

	reg := registry.New(logger)
	if dw, dwErr := registry.NewDevWatcher(logger); dwErr != nil {
		logger.Warn("dev plugin-directory watch unavailable", slog.String("error", dwErr.Error()))
	} else {
		reg.SetDevWatcher(dw)
		defer dw.Close()
	}

	corr := correlation.New()

	hardening := rpcmethods.Hardening{
		ActionConcurrencyLimit: cfg.Hardening.ActionConcurrencyLimit,
		OutboundCallTimeoutMs:  cfg.Hardening.OutboundCallTimeoutMs,
	}
	router := rpcmethods.New(reg, corr, logger, hardening)
	engine := dispatch.New(router, corr, logger)
	wireServer := wire.New(args.Port, logger, engine, sink)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		if err := wireServer.ListenAndServe(ctx); err != nil {
			errCh <- fmt.Errorf("wire server: %w", err)
		}
	}()

	var debugSrv *debugserver.Server
	if cfg.DebugServer.Enabled {
		debugSrv = debugserver.New(cfg.DebugServer.Listen, reg, logger)
		go func() {
			if err := debugSrv.Start(); err != nil {
				errCh <- fmt.Errorf("debug server: %w", err)
			}
		}()
	}

	woxDeadCh := make(chan struct{})
	go func() {
		supervisor.Watch(args.WoxPid, logger)
		close(woxDeadCh)
	}()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Error("fatal component error", slog.String("error", err.Error()))
		os.Exit(1)
	case <-woxDeadCh:
		// spec.md §4.2: a "dead" verdict is intentionally fatal to the host,
		// distinct from every other error path.
		logger.Error("exiting: wox process is no longer alive")
		shutdown(cancel, debugSrv)
		os.Exit(1)
	case sig := <-shutdownCh:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdown(cancel, debugSrv)
	}

	return nil
}

// shutdown cancels the wire server's context and, if present, stops the
// debug server. The registry/correlation map need no explicit teardown —
// neither persists anything across process lifetime (§1 Non-goals).
func shutdown(cancel context.CancelFunc, debugSrv *debugserver.Server) {
	cancel()
	if debugSrv != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		debugSrv.Shutdown(shutdownCtx)
	}
}

// configPath returns the config file path from WOXHOST_CONFIG_PATH env var
// or the default "wox-plugin-host.toml". The three mandated CLI args are
// always positional and never sourced from here (§10).
func configPath() string {
	if p := os.Getenv("WOXHOST_CONFIG_PATH"); p != "" {
		return p
	}
	return "wox-plugin-host.toml"
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
