package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidURL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"https with path", "https://example.com/a/very/long/path", true},
		{"http with query", "http://example.com/page?foo=bar", true},
		{"port and fragment", "https://example.com:8080/page#top", true},
		{"ftp scheme", "ftp://files.example.com/pub", true},
		{"ip host", "http://127.0.0.1:3000", true},
		{"empty string", "", false},
		{"plain words", "not a url", false},
		{"missing scheme", "example.com/page", false},
		{"protocol relative", "//example.com/page", false},
		{"scheme without authority", "mailto:someone@example.com", false},
		{"empty authority", "https://", false},
		{"space in host", "http://exa mple.com", false},
		{"bad escape", "https://example.com/%zz", false},
		{"trailing space", "https://example.com ", true},
		{"leading space", " https://example.com", true},
		{"surrounding tab and newline", "\thttps://example.com/page\n", true},
		{"only whitespace", "  \t ", false},
		{"highest port", "http://example.com:65535", true},
		{"port out of range", "http://example.com:99999", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidURL(tt.input), "IsValidURL(%q)", tt.input)
		})
	}
}
