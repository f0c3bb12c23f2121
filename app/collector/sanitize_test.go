package collector

import (
	"strings"
	"testing"
)

func TestSanitizeText_StripsMarkup(t *testing.T) {
	result := SanitizeText("<p>Hello <b>world</b></p>")
	if result != "Hello world" {
		t.Errorf("Expected 'Hello world', got %q", result)
	}
}

func TestSanitizeText_DecodesEntities(t *testing.T) {
	result := SanitizeText("Q&amp;A about &lt;models&gt;")
	if result != "Q&A about <models>" {
		t.Errorf("Expected entities decoded, got %q", result)
	}
}

func TestSanitizeText_CollapsesWhitespace(t *testing.T) {
	result := SanitizeText("too   much\n\nspace\t here")
	if result != "too much space here" {
		t.Errorf("Expected collapsed whitespace, got %q", result)
	}
}

func TestSanitizeText_CapsLength(t *testing.T) {
	long := strings.Repeat("あ", 600)
	result := SanitizeText(long)

	if got := len([]rune(result)); got != 500 {
		t.Errorf("Expected 500 runes, got %d", got)
	}
}

func TestSanitizeText_Empty(t *testing.T) {
	if result := SanitizeText("   "); result != "" {
		t.Errorf("Expected empty string, got %q", result)
	}
}
