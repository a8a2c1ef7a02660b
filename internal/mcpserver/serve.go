package mcpserver

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ferrand/raido/internal"
	"github.com/ferrand/raido/internal/blob"
	"github.com/ferrand/raido/internal/projectservice"
	"github.com/ferrand/raido/internal/store"
)

// Serve opens the store and blob directories from cfg and runs the MCP server
// on stdin/stdout until the stream closes. Stdout carries the protocol, so
// logging is discarded.
func Serve(ctx context.Context, cfg *internal.Config) error {
	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()

	if err := os.MkdirAll(cfg.Uploads.Path, 0o755); err != nil {
		return fmt.Errorf("create uploads dir: %w", err)
	}
	blobs, err := blob.NewStore(cfg.Uploads.Path)
	if err != nil {
		return fmt.Errorf("init blob store: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	svc := projectservice.New(db.Projects, blobs, logger,
		projectservice.WithMaxFeedbackRounds(cfg.Pipeline.MaxFeedbackRounds))

	return New(svc).ServeStdio()
}
