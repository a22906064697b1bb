package webhook

// EventTypePublishArticles is the only event type with a defined
// transition; everything else is rejected at dispatch.
const EventTypePublishArticles = "publish_articles"

// Article is a fully-typed, validated batch element. Validation never
// hands a partially-typed article downstream: either every field checked
// out or the whole request was rejected.
type Article struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	ContentMarkdown string   `json:"content_markdown"`
	ContentHTML     string   `json:"content_html"`
	MetaDescription string   `json:"meta_description"`
	CreatedAt       string   `json:"created_at"`
	ImageURL        string   `json:"image_url"`
	Slug            string   `json:"slug"`
	Tags            []string `json:"tags"`
}

// SuccessResponse is the 200 body for accepted batches.
type SuccessResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Processed Processed `json:"processed"`
}

// Processed reports what the ingest sink received.
type Processed struct {
	Count     int    `json:"count"`
	ReceiptID string `json:"receipt_id"`
}

// ErrorResponse is the JSON body for every rejection.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Introspection is the GET /webhook payload.
type Introspection struct {
	EventTypes          []string           `json:"event_types"`
	MaxBatchSize        int                `json:"max_batch_size"`
	RateLimit           IntrospectionLimit `json:"rate_limit"`
	TimestampToleranceS int                `json:"timestamp_tolerance_seconds"`
	StoreBackend        string             `json:"store_backend"`
}

// IntrospectionLimit reports the enforced rate limit.
type IntrospectionLimit struct {
	MaxRequests   int `json:"max_requests"`
	WindowSeconds int `json:"window_seconds"`
}
