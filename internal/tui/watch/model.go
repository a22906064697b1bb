package watch

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/novantia/pressgate/internal/webhook"
)

const historySize = 10

type pollRecord struct {
	at      time.Time
	status  int
	latency time.Duration
	err     error
}

// Model is the main BubbleTea model for the watch TUI.
type Model struct {
	baseURL string
	secret  string

	width  int
	height int

	info    *webhook.Introspection
	history []pollRecord
	polling bool

	spinner spinner.Model
	theme   Theme
}

// New creates a new watch TUI model.
func New(baseURL, secret string) *Model {
	theme := NewDefaultTheme()
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Highlight

	return &Model{
		baseURL: baseURL,
		secret:  secret,
		spinner: sp,
		theme:   theme,
	}
}

// Run starts the watch TUI (blocking until quit).
func Run(baseURL, secret string) error {
	p := tea.NewProgram(New(baseURL, secret))
	_, err := p.Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		pollEndpoint(m.baseURL, m.secret),
		tickEvery(),
		tea.EnterAltScreen,
	)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		var cmd tea.Cmd
		if !m.polling {
			m.polling = true
			cmd = pollEndpoint(m.baseURL, m.secret)
		}
		return m, tea.Batch(cmd, tickEvery())

	case pollMsg:
		m.polling = false
		if msg.info != nil {
			m.info = msg.info
		}
		m.history = append([]pollRecord{{
			at:      msg.at,
			status:  msg.status,
			latency: msg.latency,
			err:     msg.err,
		}}, m.history...)
		if len(m.history) > historySize {
			m.history = m.history[:historySize]
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.theme.Title.Render("pressgate watch"))
	b.WriteString("  ")
	b.WriteString(m.theme.Dim.Render(m.baseURL))
	b.WriteString("\n\n")

	b.WriteString(m.statusLine())
	b.WriteString("\n\n")

	if m.info != nil {
		b.WriteString(m.theme.Header.Render("Enforced limits"))
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("  event types          %s\n", strings.Join(m.info.EventTypes, ", ")))
		b.WriteString(fmt.Sprintf("  max batch size       %d\n", m.info.MaxBatchSize))
		b.WriteString(fmt.Sprintf("  rate limit           %d req / %ds\n",
			m.info.RateLimit.MaxRequests, m.info.RateLimit.WindowSeconds))
		b.WriteString(fmt.Sprintf("  timestamp tolerance  %ds\n", m.info.TimestampToleranceS))
		b.WriteString(fmt.Sprintf("  store backend        %s\n", m.info.StoreBackend))
		b.WriteString("\n")
	}

	b.WriteString(m.theme.Header.Render("Recent polls"))
	b.WriteString("\n")
	if len(m.history) == 0 {
		b.WriteString(m.theme.Dim.Render("  waiting for first poll...\n"))
	}
	for _, rec := range m.history {
		b.WriteString("  ")
		b.WriteString(m.renderRecord(rec))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.theme.Dim.Render("q to quit"))

	content := m.theme.Border.Padding(0, 1).Render(b.String())
	if m.width > 0 {
		content = lipgloss.Place(m.width, m.height, lipgloss.Left, lipgloss.Top, content)
	}
	return content
}

func (m *Model) statusLine() string {
	if len(m.history) == 0 {
		return m.spinner.View() + " connecting"
	}
	last := m.history[0]
	switch {
	case last.err != nil:
		return m.theme.StatusFailed.Render("● DOWN") + "  " + m.theme.Dim.Render(last.err.Error())
	case last.status == 200:
		return m.theme.StatusOK.Render("● OK") + fmt.Sprintf("  %dms", last.latency.Milliseconds())
	case last.status == 401:
		return m.theme.StatusWarn.Render("● UNAUTHORIZED") + "  " + m.theme.Dim.Render("check the configured secret")
	default:
		return m.theme.StatusWarn.Render(fmt.Sprintf("● HTTP %d", last.status))
	}
}

func (m *Model) renderRecord(rec pollRecord) string {
	ts := rec.at.Format("15:04:05")
	if rec.err != nil {
		return fmt.Sprintf("%s  %s", ts, m.theme.StatusFailed.Render("unreachable"))
	}
	style := m.theme.StatusOK
	if rec.status != 200 {
		style = m.theme.StatusWarn
	}
	return fmt.Sprintf("%s  %s  %dms", ts, style.Render(fmt.Sprintf("%d", rec.status)), rec.latency.Milliseconds())
}
