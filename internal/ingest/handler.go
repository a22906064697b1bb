// Package ingest is the downstream seam of the webhook pipeline: validated
// article batches are handed to a Handler and what happens next (CMS sync,
// search indexing, cache busting) is someone else's problem.
package ingest

import (
	"context"
	"log/slog"

	"github.com/novantia/pressgate/internal/log"
	"github.com/novantia/pressgate/internal/metrics"
	"github.com/novantia/pressgate/internal/webhook"
)

// Handler consumes a validated article batch.
type Handler interface {
	Ingest(ctx context.Context, articles []webhook.Article) error
}

// LogHandler is the default sink: it records the batch and counts it.
// Useful in development and as a stand-in until a real consumer exists.
type LogHandler struct {
	logger *slog.Logger
}

func NewLogHandler(logger *slog.Logger) *LogHandler {
	return &LogHandler{logger: logger}
}

func (h *LogHandler) Ingest(_ context.Context, articles []webhook.Article) error {
	for _, a := range articles {
		h.logger.Info("article ingested",
			"id", log.Sanitize(a.ID),
			"slug", log.Sanitize(a.Slug),
			"title", log.Sanitize(a.Title),
			"tags", len(a.Tags),
		)
	}
	metrics.ArticlesIngestedTotal.Add(float64(len(articles)))
	return nil
}
