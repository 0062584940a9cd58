package main

import (
	"log/slog"
	"os"
)

var (
	theLog = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(),
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
)

func logLevel() slog.Level {
	if os.Getenv("DELTADOC_VERBOSE") != "" {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}
