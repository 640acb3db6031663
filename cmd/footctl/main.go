package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/footctl/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override config path (optional)")
	deviceAddr := flag.String("device", "", "controller address, e.g. 192.168.4.1 or http://localhost:8080 (optional)")
	poll := flag.Duration("poll", 0, "hardware bank poll interval (optional, defaults to config)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		Device:     *deviceAddr,
		PollEvery:  *poll,
	}
	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "footctl: %v\n", err)
		return 1
	}
	return 0
}
