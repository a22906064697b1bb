package webhook

import (
	"context"
	"log/slog"
)

// ArticleHandler is the downstream seam. internal/ingest provides the
// implementations; this package only needs the contract.
type ArticleHandler interface {
	Ingest(ctx context.Context, articles []Article) error
}

// Dispatcher routes an envelope-validated event by type. Only
// publish_articles has a defined transition; everything else terminates
// in UnsupportedEventType.
type Dispatcher struct {
	handler ArticleHandler
	logger  *slog.Logger
}

func NewDispatcher(handler ArticleHandler, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{handler: handler, logger: logger}
}

// Dispatch validates the batch items and hands them to the handler,
// returning the processed count.
func (d *Dispatcher) Dispatch(ctx context.Context, env *Envelope) (int, *Error) {
	if env.EventType != EventTypePublishArticles {
		return 0, reject(KindUnsupportedEventType)
	}

	articles, verr := ValidateArticles(env)
	if verr != nil {
		return 0, verr
	}

	if err := d.handler.Ingest(ctx, articles); err != nil {
		d.logger.Error("article ingest failed", "count", len(articles), "error", err)
		return 0, reject(KindInternal)
	}
	return len(articles), nil
}
