package watch

import (
	"encoding/json"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/novantia/pressgate/internal/webhook"
)

// --- Message types ---

type pollMsg struct {
	info    *webhook.Introspection
	status  int
	latency time.Duration
	err     error
	at      time.Time
}

type tickMsg time.Time

// --- Commands ---

// pollEndpoint hits GET /webhook with the configured credential and
// reports what came back.
func pollEndpoint(baseURL, secret string) tea.Cmd {
	return func() tea.Msg {
		client := &http.Client{Timeout: 3 * time.Second}

		req, err := http.NewRequest("GET", baseURL+"/webhook", nil)
		if err != nil {
			return pollMsg{err: err, at: time.Now()}
		}
		req.Header.Set("Authorization", "Bearer "+secret)

		start := time.Now()
		resp, err := client.Do(req)
		latency := time.Since(start)
		if err != nil {
			return pollMsg{err: err, latency: latency, at: time.Now()}
		}
		defer resp.Body.Close()

		msg := pollMsg{status: resp.StatusCode, latency: latency, at: time.Now()}
		if resp.StatusCode == http.StatusOK {
			var info webhook.Introspection
			if err := json.NewDecoder(resp.Body).Decode(&info); err == nil {
				msg.info = &info
			}
		}
		return msg
	}
}

func tickEvery() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}
