package main

import (
	"embed"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"sharescope/internal/app"
)

// Embedded dashboard frontend files
//go:embed all:web
var frontendFiles embed.FS

func main() {
	// Optional .env next to the executable; real env wins
	if err := godotenv.Load(); err == nil {
		slog.Info("Loaded environment from .env file")
	}

	var frontendFS fs.FS
	if sub, err := fs.Sub(frontendFiles, "web"); err == nil {
		frontendFS = sub
		slog.Info("Frontend embedded successfully")
	} else {
		slog.Warn("Frontend embedding failed", slog.String("error", err.Error()))
	}

	application, err := app.NewApplication(frontendFS)
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
