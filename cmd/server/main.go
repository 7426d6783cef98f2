package main

import (
	"log/slog"
	"os"

	"code2deploy-console/internal/app"
	"code2deploy-console/internal/logger"
)

func main() {
	// Until config is loaded, log with the pretty handler at info level.
	slog.SetDefault(slog.New(logger.NewPrettyHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	application, err := app.New()
	if err != nil {
		slog.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("application run failed", "error", err)
		os.Exit(1)
	}
}
