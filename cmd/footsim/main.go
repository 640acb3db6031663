// Command footsim emulates the footswitch controller's HTTP API so footctl
// can be run without hardware.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/five82/footctl/internal/devicesim"
	"github.com/five82/footctl/internal/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	listen := flag.String("listen", "127.0.0.1:8080", "address to serve the device API on")
	statePath := flag.String("state", "", "JSON file to persist device state in (optional)")
	latency := flag.Duration("latency", 0, "artificial delay added to every request")
	failEvery := flag.Int("fail-every", 0, "reject every Nth POST with 503 (0 disables)")
	logLevel := flag.String("log-level", "info", "debug, info, warn or error")
	flag.Parse()

	logger, closeLog, err := logging.New(logging.Options{Service: "footsim", Level: *logLevel})
	if err != nil {
		fmt.Fprintf(os.Stderr, "footsim: %v\n", err)
		return 1
	}
	defer func() { _ = closeLog() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := serve(ctx, logger, *listen, *statePath, devicesim.ServerOptions{
		Latency:   *latency,
		FailEvery: *failEvery,
		Logger:    logger,
	}); err != nil {
		logger.Error("footsim failed", "error", err)
		return 1
	}
	return 0
}

func serve(ctx context.Context, logger *slog.Logger, addr, statePath string, opts devicesim.ServerOptions) error {
	st := devicesim.DefaultState()
	var store *devicesim.FileStore
	if statePath != "" {
		store = devicesim.NewFileStore(statePath, 0, logger)
		loaded, err := store.Load()
		if err != nil {
			return fmt.Errorf("load state: %w", err)
		}
		st = loaded
	}

	dev := devicesim.New(st)
	if store != nil {
		dev.OnChange(store.Save)
		defer func() {
			if err := store.Flush(); err != nil {
				logger.Error("write state failed", "path", store.Path(), "error", err)
			}
		}()
		go func() {
			err := store.Watch(ctx, func(st devicesim.State) {
				logger.Info("state file changed; reloading", "path", store.Path())
				dev.Replace(st)
			})
			if err != nil {
				logger.Warn("state file watch stopped", "path", store.Path(), "error", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           devicesim.NewServer(dev, opts).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving device API", "addr", addr, "state", statePath)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("stopped")
	return nil
}
