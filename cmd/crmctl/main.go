package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"

	"github.com/garnizeh/crm/internal/cli"
	"github.com/garnizeh/crm/internal/config"
	"github.com/garnizeh/crm/internal/session"
	"github.com/garnizeh/crm/pkg/client"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	level := slog.LevelWarn
	if os.Getenv("CRM_DEBUG") != "" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	client.SetLogger(logger)

	if err := config.LoadEnvFile(os.Getenv("CRM_ENV_FILE")); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	cfg, err := config.LoadConfig(os.Getenv("CRM_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading config: %v\n", err)
		return 1
	}
	if err := cfg.ValidateClient(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	sessionPath := cfg.Client.SessionFile
	if sessionPath == "" {
		if sessionPath, err = session.DefaultPath(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	c, err := client.NewDefaultClient(client.Config{
		BaseURL:   cfg.Client.APIURL,
		Timeout:   cfg.Client.Timeout,
		UserAgent: "crmctl/" + version,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer c.Close()

	styled := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	app := cli.NewApp(c, session.FileStore{Path: sessionPath}, styled, nil, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return cli.Run(ctx, app, os.Args[1:], os.Stdout, os.Stderr)
}
