package database

import "testing"

func TestNormalizeLocale(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "en"},
		{"en-us", "en-US"},
		{"ru_RU", "ru-RU"},
		{"", ""},
		{"not a locale", "not a locale"},
	}

	for _, tt := range tests {
		if got := normalizeLocale(tt.input); got != tt.expected {
			t.Errorf("normalizeLocale(%q): expected %q, got %q", tt.input, got, tt.expected)
		}
	}
}
