package main

import (
	"log/slog"
	"os"

	"github.com/abcfood/fingerprint-mw/internal/app"
	"github.com/abcfood/fingerprint-mw/internal/config"
)

// buildApp loads settings from the environment and constructs an App ready
// for Start, or for direct use of its Facade/Pool/Cache by the one-shot CLI
// commands that never call Start themselves.
func buildApp() (*app.App, error) {
	settings, err := config.Load()
	if err != nil {
		return nil, err
	}
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return app.New(settings, logger)
}
