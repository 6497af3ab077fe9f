package main

import (
	"context"
	"fmt"
	"os"

	"github.com/garnizeh/crm/api"
	dbfs "github.com/garnizeh/crm/db"
	"github.com/garnizeh/crm/internal/config"
	"github.com/garnizeh/crm/internal/db"
	"github.com/garnizeh/crm/internal/repository/sqlite"
)

func main() {
	ctx := context.Background()
	if err := config.LoadEnvFile(""); err != nil {
		fmt.Fprintf(os.Stderr, "Env error: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.LoadConfig("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	database, err := db.New(ctx, cfg.DatabasePath, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "DB init error: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.Migrate(ctx, database, dbfs.Migrations); err != nil {
		fmt.Fprintf(os.Stderr, "Migration runner error: %v\n", err)
		os.Exit(1)
	}

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		created, err := api.EnsureAdmin(ctx, sqlite.New(database, nil), cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Admin bootstrap error: %v\n", err)
			os.Exit(1)
		}
		if created {
			fmt.Printf("Admin user %s created.\n", cfg.AdminEmail)
		}
	}

	fmt.Println("Database initialized successfully.")
}
