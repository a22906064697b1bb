package log

import (
	"strings"
	"testing"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello world", "hello world"},
		{"newline stripped", "line1\nline2", "line1line2"},
		{"carriage return stripped", "a\r\nb", "ab"},
		{"ansi color stripped", "\x1b[31mred\x1b[0m", "red"},
		{"ansi cursor stripped", "x\x1b[2Jy", "xy"},
		{"control bytes stripped", "a\x00b\x07c", "abc"},
		{"tab kept", "a\tb", "a\tb"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.in); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeCapsLength(t *testing.T) {
	long := strings.Repeat("x", MaxFieldLen*2)
	got := Sanitize(long)
	if len(got) != MaxFieldLen {
		t.Errorf("len = %d, want %d", len(got), MaxFieldLen)
	}
}

func TestSanitizeLogInjectionAttempt(t *testing.T) {
	// A title crafted to fake a second log record.
	title := "Real Title\n{\"level\":\"INFO\",\"msg\":\"forged\"}"
	got := Sanitize(title)
	if strings.Contains(got, "\n") {
		t.Errorf("sanitized output still contains newline: %q", got)
	}
}
