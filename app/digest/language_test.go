package digest

import (
	"testing"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		title    string
		expected string
	}{
		{"OpenAI announces new model", "en"},
		{"ひらがなを含むタイトル", "ja"},
		{"カタカナ ニュース", "ja"},
		{"漢字だけ", "ja"},
		{"Mostly English with 日本語", "ja"},
		{"", "en"},
		{"1234 !?", "en"},
	}

	for _, tt := range tests {
		if got := DetectLanguage(tt.title); got != tt.expected {
			t.Errorf("DetectLanguage(%q) = %q, expected %q", tt.title, got, tt.expected)
		}
	}
}

func TestDefaultCategories_IsACopy(t *testing.T) {
	categories := DefaultCategories()
	categories[0] = "mutated"

	if DefaultCategories()[0] != "llm" {
		t.Errorf("Expected DefaultCategories to return an independent copy")
	}
}
