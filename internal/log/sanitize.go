package log

import "strings"

// MaxFieldLen caps attacker-influenced log fields. Long enough for any
// legitimate article title or tag, short enough to keep log lines bounded.
const MaxFieldLen = 256

// Sanitize makes an untrusted string safe to log. Newlines, carriage
// returns and ANSI escape sequences are stripped so a hostile article
// title cannot forge log records or restyle an operator's terminal, and
// the result is capped at MaxFieldLen bytes.
func Sanitize(s string) string {
	if s == "" {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	inEscape := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inEscape {
			// CSI sequences end on a byte in @-~.
			if c >= 0x40 && c <= 0x7e {
				inEscape = false
			}
			continue
		}
		switch {
		case c == 0x1b:
			inEscape = true
		case c == '\n' || c == '\r':
			// drop
		case c < 0x20 && c != '\t':
			// other control bytes dropped too
		default:
			b.WriteByte(c)
		}
	}

	out := b.String()
	if len(out) > MaxFieldLen {
		out = out[:MaxFieldLen]
	}
	return out
}
