package configs

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateCookieKey(t *testing.T) {
	key := func(n int) string { return base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", n))) }

	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{name: "empty disables encryption", key: ""},
		{name: "aes-128", key: key(16)},
		{name: "aes-192", key: key(24)},
		{name: "aes-256", key: key(32)},
		{name: "plain passphrase", key: "my-session-secret", wantErr: true},
		{name: "wrong length", key: key(20), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCookieKey(tt.key)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestLoadSeedUserEmails(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("SEED_USER_EMAILS", " a@example.com, ,b@example.com")

	cfg := Load()
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.SeedUserEmails)
}
