package webhook

import (
	"encoding/json"
	"fmt"
	"testing"
)

func articleJSON(id string) string {
	return fmt.Sprintf(`{
		"id": %q,
		"title": "Title %s",
		"content_markdown": "# Body",
		"content_html": "<h1>Body</h1>",
		"meta_description": "desc",
		"created_at": "2026-08-28T09:00:00Z",
		"image_url": "https://cdn.example.com/%s.jpg",
		"slug": "title-%s",
		"tags": ["news", "release"]
	}`, id, id, id, id)
}

func envelopeJSON(eventType, timestamp string, articles []string) []byte {
	body := fmt.Sprintf(`{
		"event_type": %q,
		"timestamp": %q,
		"data": {"articles": [%s]}
	}`, eventType, timestamp, joinJSON(articles))
	return []byte(body)
}

func joinJSON(items []string) string {
	out := ""
	for i, it := range items {
		if i > 0 {
			out += ","
		}
		out += it
	}
	return out
}

func TestParseEnvelopeValid(t *testing.T) {
	body := envelopeJSON("publish_articles", "2026-08-28T10:00:00Z",
		[]string{articleJSON("a1"), articleJSON("a2")})

	env, verr := ParseEnvelope(body, 100)
	if verr != nil {
		t.Fatalf("unexpected error: %v", verr)
	}
	if env.EventType != "publish_articles" {
		t.Errorf("EventType = %q", env.EventType)
	}
	if env.Timestamp != "2026-08-28T10:00:00Z" {
		t.Errorf("Timestamp = %q", env.Timestamp)
	}
	ids := env.ArticleIDs()
	if len(ids) != 2 || ids[0] != "a1" || ids[1] != "a2" {
		t.Errorf("ArticleIDs = %v", ids)
	}
}

func TestParseEnvelopeRejections(t *testing.T) {
	tests := []struct {
		name string
		body string
		kind Kind
	}{
		{"not json", `{{{`, KindMalformedEnvelope},
		{"json scalar", `42`, KindMalformedEnvelope},
		{"missing event_type", `{"timestamp":"t","data":{}}`, KindMalformedEnvelope},
		{"missing timestamp", `{"event_type":"publish_articles","data":{}}`, KindMalformedEnvelope},
		{"missing data", `{"event_type":"publish_articles","timestamp":"t"}`, KindMalformedEnvelope},
		{"event_type not string", `{"event_type":7,"timestamp":"t","data":{}}`, KindMalformedEnvelope},
		{"data not object", `{"event_type":"publish_articles","timestamp":"t","data":[]}`, KindMalformedEnvelope},
		{"articles missing", `{"event_type":"publish_articles","timestamp":"t","data":{}}`, KindInvalidArticles},
		{"articles not array", `{"event_type":"publish_articles","timestamp":"t","data":{"articles":"x"}}`, KindInvalidArticles},
		{"articles empty", `{"event_type":"publish_articles","timestamp":"t","data":{"articles":[]}}`, KindEmptyBatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, verr := ParseEnvelope([]byte(tt.body), 100)
			if verr == nil {
				t.Fatal("expected rejection")
			}
			if verr.Kind != tt.kind {
				t.Errorf("kind = %v, want %v", verr.Outcome(), (&Error{Kind: tt.kind}).Outcome())
			}
		})
	}
}

func TestParseEnvelopeBatchBounds(t *testing.T) {
	makeBatch := func(n int) []byte {
		items := make([]string, n)
		for i := range items {
			items[i] = articleJSON(fmt.Sprintf("a%d", i))
		}
		return envelopeJSON("publish_articles", "2026-08-28T10:00:00Z", items)
	}

	if _, verr := ParseEnvelope(makeBatch(100), 100); verr != nil {
		t.Errorf("batch of exactly 100 should be accepted, got %v", verr)
	}
	if _, verr := ParseEnvelope(makeBatch(101), 100); verr == nil || verr.Kind != KindBatchTooLarge {
		t.Errorf("batch of 101 should be rejected as too large, got %v", verr)
	}
}

func TestParseEnvelopeUnknownEventSkipsBatchChecks(t *testing.T) {
	// Batch bounds only bind publish_articles; other types reach the
	// dispatcher, which rejects them there.
	body := []byte(`{"event_type":"ping","timestamp":"t","data":{}}`)
	env, verr := ParseEnvelope(body, 100)
	if verr != nil {
		t.Fatalf("unexpected error: %v", verr)
	}
	if env.EventType != "ping" {
		t.Errorf("EventType = %q", env.EventType)
	}
}

func TestValidateArticlesValid(t *testing.T) {
	body := envelopeJSON("publish_articles", "2026-08-28T10:00:00Z",
		[]string{articleJSON("a1")})
	env, verr := ParseEnvelope(body, 100)
	if verr != nil {
		t.Fatalf("parse: %v", verr)
	}

	articles, verr := ValidateArticles(env)
	if verr != nil {
		t.Fatalf("unexpected error: %v", verr)
	}
	if len(articles) != 1 {
		t.Fatalf("len = %d", len(articles))
	}
	a := articles[0]
	if a.ID != "a1" || a.Slug != "title-a1" || len(a.Tags) != 2 {
		t.Errorf("article not fully decoded: %+v", a)
	}
}

func TestValidateArticlesFirstOffendingIndex(t *testing.T) {
	broken := `{"id":"a1","title":7}`

	tests := []struct {
		name      string
		items     []string
		wantIndex int
	}{
		{"first item broken", []string{broken, articleJSON("a2")}, 0},
		{"second item broken", []string{articleJSON("a1"), broken, broken}, 1},
		{"third item broken", []string{articleJSON("a1"), articleJSON("a2"), broken}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := envelopeJSON("publish_articles", "2026-08-28T10:00:00Z", tt.items)
			env, verr := ParseEnvelope(body, 100)
			if verr != nil {
				t.Fatalf("parse: %v", verr)
			}
			_, verr = ValidateArticles(env)
			if verr == nil || verr.Kind != KindInvalidArticle {
				t.Fatalf("expected invalid article, got %v", verr)
			}
			if verr.Index != tt.wantIndex {
				t.Errorf("Index = %d, want %d", verr.Index, tt.wantIndex)
			}
		})
	}
}

func TestValidateArticleFieldErrors(t *testing.T) {
	valid := articleJSON("a1")

	mutate := func(field string, value any) string {
		var m map[string]any
		if err := json.Unmarshal([]byte(valid), &m); err != nil {
			t.Fatalf("bad fixture: %v", err)
		}
		if value == nil {
			delete(m, field)
		} else {
			m[field] = value
		}
		out, _ := json.Marshal(m)
		return string(out)
	}

	tests := []struct {
		name string
		item string
	}{
		{"missing id", mutate("id", nil)},
		{"missing slug", mutate("slug", nil)},
		{"missing tags", mutate("tags", nil)},
		{"title not string", mutate("title", 12)},
		{"missing content_html", mutate("content_html", nil)},
		{"tags not array", mutate("tags", "news")},
		{"tag not string", mutate("tags", []any{"news", 7})},
		{"item not object", `"just a string"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := envelopeJSON("publish_articles", "2026-08-28T10:00:00Z", []string{tt.item})
			env, verr := ParseEnvelope(body, 100)
			if verr != nil {
				t.Fatalf("parse: %v", verr)
			}
			_, verr = ValidateArticles(env)
			if verr == nil || verr.Kind != KindInvalidArticle || verr.Index != 0 {
				t.Errorf("expected invalid article at 0, got %v", verr)
			}
		})
	}
}

func TestValidateArticleEmptyTagsAllowed(t *testing.T) {
	var m map[string]any
	if err := json.Unmarshal([]byte(articleJSON("a1")), &m); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	m["tags"] = []any{}
	item, _ := json.Marshal(m)

	body := envelopeJSON("publish_articles", "2026-08-28T10:00:00Z", []string{string(item)})
	env, verr := ParseEnvelope(body, 100)
	if verr != nil {
		t.Fatalf("parse: %v", verr)
	}
	articles, verr := ValidateArticles(env)
	if verr != nil {
		t.Fatalf("empty tags should be valid: %v", verr)
	}
	if len(articles[0].Tags) != 0 {
		t.Errorf("Tags = %v", articles[0].Tags)
	}
}
