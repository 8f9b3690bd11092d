package main

import (
	"log/slog"
	"os"

	"fertpulse/internal/app"
)

func main() {
	// The frontend is served from the web directory next to the executable
	application, err := app.NewApplication(nil)
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
