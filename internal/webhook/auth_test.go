package webhook

import "testing"

func TestValidateBearer(t *testing.T) {
	secret := "s3cret-token-value"

	tests := []struct {
		name   string
		header string
		secret string
		want   bool
	}{
		{"valid", "Bearer s3cret-token-value", secret, true},
		{"valid with surrounding space", "Bearer  s3cret-token-value ", secret, true},
		{"missing header", "", secret, false},
		{"wrong scheme", "Basic s3cret-token-value", secret, false},
		{"no scheme", "s3cret-token-value", secret, false},
		{"lowercase scheme", "bearer s3cret-token-value", secret, false},
		{"empty token", "Bearer ", secret, false},
		{"whitespace token", "Bearer    ", secret, false},
		{"wrong token same length", "Bearer s3cret-token-valuX", secret, false},
		{"wrong token different length", "Bearer nope", secret, false},
		{"token is prefix of secret", "Bearer s3cret-token", secret, false},
		{"secret is prefix of token", "Bearer s3cret-token-value-extra", secret, false},
		{"empty configured secret denies", "Bearer anything", "", false},
		{"empty secret and empty header", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateBearer(tt.header, tt.secret); got != tt.want {
				t.Errorf("ValidateBearer(%q) = %v, want %v", tt.header, got, tt.want)
			}
		})
	}
}

// Misconfiguration must read as "deny all", never "allow all": even a
// caller that guesses the empty string gets refused.
func TestValidateBearerEmptySecretNeverMatches(t *testing.T) {
	if ValidateBearer("Bearer ", "") {
		t.Fatal("empty secret must deny")
	}
	if ValidateBearer("Bearer \t", "") {
		t.Fatal("empty secret must deny whitespace tokens")
	}
}
