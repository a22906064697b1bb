package webhook

import (
	"fmt"
	"net/http"
)

// Kind enumerates every way the pipeline can reject a request.
type Kind int

const (
	KindPayloadTooLarge Kind = iota
	KindUnauthenticated
	KindRateLimitExceeded
	KindMalformedEnvelope
	KindInvalidTimestamp
	KindReplayDetected
	KindInvalidArticles
	KindEmptyBatch
	KindBatchTooLarge
	KindInvalidArticle
	KindUnsupportedEventType
	KindInternal
)

// Error is a pipeline rejection. Index is only meaningful for
// KindInvalidArticle, where it names the first offending batch element.
type Error struct {
	Kind  Kind
	Index int
}

func reject(kind Kind) *Error {
	return &Error{Kind: kind}
}

func rejectArticle(index int) *Error {
	return &Error{Kind: KindInvalidArticle, Index: index}
}

func (e *Error) Error() string {
	if e.Kind == KindInvalidArticle {
		return fmt.Sprintf("%s at index %d", e.Outcome(), e.Index)
	}
	return e.Outcome()
}

// Outcome is the short label used for logs and metrics.
func (e *Error) Outcome() string {
	switch e.Kind {
	case KindPayloadTooLarge:
		return "payload_too_large"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindRateLimitExceeded:
		return "rate_limit_exceeded"
	case KindMalformedEnvelope:
		return "malformed_envelope"
	case KindInvalidTimestamp:
		return "invalid_timestamp"
	case KindReplayDetected:
		return "replay_detected"
	case KindInvalidArticles:
		return "invalid_articles"
	case KindEmptyBatch:
		return "empty_batch"
	case KindBatchTooLarge:
		return "batch_too_large"
	case KindInvalidArticle:
		return "invalid_article"
	case KindUnsupportedEventType:
		return "unsupported_event_type"
	default:
		return "internal_error"
	}
}

// Status maps the rejection to its HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindRateLimitExceeded:
		return http.StatusTooManyRequests
	case KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// Message is the client-facing text. Minimal and non-identifying: no
// internal error detail ever leaks through here.
func (e *Error) Message() string {
	switch e.Kind {
	case KindPayloadTooLarge:
		return "payload too large"
	case KindUnauthenticated:
		return "unauthorized"
	case KindRateLimitExceeded:
		return "rate limit exceeded"
	case KindMalformedEnvelope:
		return "malformed request envelope"
	case KindInvalidTimestamp:
		return "invalid or expired timestamp"
	case KindReplayDetected:
		return "duplicate event"
	case KindInvalidArticles:
		return "articles must be a non-empty array"
	case KindEmptyBatch:
		return "articles array is empty"
	case KindBatchTooLarge:
		return "too many articles in batch"
	case KindInvalidArticle:
		return fmt.Sprintf("invalid article at index %d", e.Index)
	case KindUnsupportedEventType:
		return "unsupported event type"
	default:
		return "internal server error"
	}
}
