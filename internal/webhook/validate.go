package webhook

import "encoding/json"

// Envelope is the decoded, envelope-validated request. Articles are kept
// raw here; per-item validation happens at dispatch so the replay guard
// can run on the envelope alone.
type Envelope struct {
	EventType string
	Timestamp string

	rawArticles []json.RawMessage
	articleIDs  []string // lenient extraction, for fingerprinting only
}

// ArticleIDs returns up to the first ten article ids for fingerprinting.
// Items without a string id contribute an empty entry, which still keeps
// the digest positional.
func (e *Envelope) ArticleIDs() []string {
	return e.articleIDs
}

// ParseEnvelope decodes and structurally validates the request body.
// Batch bounds are enforced here for publish_articles events; per-article
// field validation is deferred to dispatch.
func ParseEnvelope(body []byte, maxBatch int) (*Envelope, *Error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, reject(KindMalformedEnvelope)
	}

	eventType, ok := asString(top["event_type"])
	if !ok {
		return nil, reject(KindMalformedEnvelope)
	}
	timestamp, ok := asString(top["timestamp"])
	if !ok {
		return nil, reject(KindMalformedEnvelope)
	}
	dataRaw, present := top["data"]
	if !present {
		return nil, reject(KindMalformedEnvelope)
	}
	var data map[string]json.RawMessage
	if err := json.Unmarshal(dataRaw, &data); err != nil {
		return nil, reject(KindMalformedEnvelope)
	}

	env := &Envelope{EventType: eventType, Timestamp: timestamp}

	if eventType == EventTypePublishArticles {
		articlesRaw, present := data["articles"]
		if !present {
			return nil, reject(KindInvalidArticles)
		}
		var items []json.RawMessage
		if err := json.Unmarshal(articlesRaw, &items); err != nil {
			return nil, reject(KindInvalidArticles)
		}
		if len(items) == 0 {
			return nil, reject(KindEmptyBatch)
		}
		if len(items) > maxBatch {
			return nil, reject(KindBatchTooLarge)
		}
		env.rawArticles = items
		env.articleIDs = extractIDs(items)
	}

	return env, nil
}

// extractIDs pulls string ids from the first ten items without failing:
// a broken item yields an empty id and is caught later by full
// validation.
func extractIDs(items []json.RawMessage) []string {
	n := len(items)
	if n > fingerprintIDLimit {
		n = fingerprintIDLimit
	}
	ids := make([]string, 0, n)
	for _, item := range items[:n] {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(item, &fields); err != nil {
			ids = append(ids, "")
			continue
		}
		id, ok := asString(fields["id"])
		if !ok {
			id = ""
		}
		ids = append(ids, id)
	}
	return ids
}

// requiredArticleFields in validation order; error messages report the
// first offending index, not field, so order only affects fail-fast cost.
var requiredArticleFields = []string{
	"id", "title", "content_markdown", "content_html",
	"meta_description", "created_at", "image_url", "slug",
}

// ValidateArticles runs per-item validation over the raw batch, failing
// fast on the first offending element. On success every article is fully
// typed; nothing partially-decoded survives.
func ValidateArticles(env *Envelope) ([]Article, *Error) {
	articles := make([]Article, 0, len(env.rawArticles))
	for i, item := range env.rawArticles {
		a, verr := validateArticle(item, i)
		if verr != nil {
			return nil, verr
		}
		articles = append(articles, a)
	}
	return articles, nil
}

func validateArticle(item json.RawMessage, index int) (Article, *Error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(item, &fields); err != nil {
		return Article{}, rejectArticle(index)
	}

	values := make(map[string]string, len(requiredArticleFields))
	for _, name := range requiredArticleFields {
		s, ok := asString(fields[name])
		if !ok {
			return Article{}, rejectArticle(index)
		}
		values[name] = s
	}

	tagsRaw, present := fields["tags"]
	if !present {
		return Article{}, rejectArticle(index)
	}
	var tagItems []json.RawMessage
	if err := json.Unmarshal(tagsRaw, &tagItems); err != nil {
		return Article{}, rejectArticle(index)
	}
	tags := make([]string, 0, len(tagItems))
	for _, t := range tagItems {
		s, ok := asString(t)
		if !ok {
			return Article{}, rejectArticle(index)
		}
		tags = append(tags, s)
	}

	return Article{
		ID:              values["id"],
		Title:           values["title"],
		ContentMarkdown: values["content_markdown"],
		ContentHTML:     values["content_html"],
		MetaDescription: values["meta_description"],
		CreatedAt:       values["created_at"],
		ImageURL:        values["image_url"],
		Slug:            values["slug"],
		Tags:            tags,
	}, nil
}

// asString reports whether raw is a JSON string, returning its value.
// A missing key arrives as nil and fails the check.
func asString(raw json.RawMessage) (string, bool) {
	if raw == nil {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}
