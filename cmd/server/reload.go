package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/churbro/backend/internal/usecase"
)

// reloadOnSignal drops the cached dataset each time a signal arrives, so the
// next request rereads what the CLI last published.
func reloadOnSignal(ctx context.Context, signals <-chan os.Signal, datasets *usecase.DatasetService, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-signals:
			if err := datasets.Invalidate(ctx); err != nil {
				logger.Error("failed to invalidate dataset cache", "signal", sig.String(), "error", err)
				continue
			}
			logger.Info("dataset cache invalidated", "signal", sig.String())
		}
	}
}
