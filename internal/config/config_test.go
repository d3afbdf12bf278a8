// AngelaMos | 2026
// config_test.go

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveProvider(t *testing.T) {
	tests := []struct {
		name     string
		cfg      GeminiConfig
		expected string
	}{
		{
			name:     "auto with key",
			cfg:      GeminiConfig{Provider: "auto", APIKey: "k"},
			expected: ProviderGemini,
		},
		{
			name:     "auto without key",
			cfg:      GeminiConfig{Provider: "auto"},
			expected: ProviderNone,
		},
		{
			name:     "explicit none ignores key",
			cfg:      GeminiConfig{Provider: "none", APIKey: "k"},
			expected: ProviderNone,
		},
		{
			name:     "explicit gemini",
			cfg:      GeminiConfig{Provider: "gemini"},
			expected: ProviderGemini,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.cfg.ResolveProvider())
		})
	}
}

func TestKeyPreview(t *testing.T) {
	cfg := GeminiConfig{APIKey: "AIzaSyTest1234567890"}
	assert.Equal(t, "AIzaSyTe...", cfg.KeyPreview())

	cfg.APIKey = ""
	assert.Empty(t, cfg.KeyPreview())

	cfg.APIKey = "short"
	assert.Equal(t, "*****", cfg.KeyPreview())
}

func TestServerAddress(t *testing.T) {
	cfg := ServerConfig{Host: "0.0.0.0", Port: 8000}
	assert.Equal(t, "0.0.0.0:8000", cfg.Address())
}
