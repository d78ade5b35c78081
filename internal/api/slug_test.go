package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Acme", "acme"},
		{"Acme Corp", "acme-corp"},
		{"  Spaced  Out  ", "spaced-out"},
		{"Already-Slugged", "already-slugged"},
		{"Weird__chars!!42", "weird-chars-42"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Slugify(tt.input))
		})
	}
}

func TestProjectID(t *testing.T) {
	assert.Equal(t, "wizbi-acme-web", ProjectID("acme", "web"))
	assert.Equal(t, "wizbi-acme-corp-mobile-app", ProjectID("Acme Corp", "Mobile App"))
}
