package parser

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestParseSidecar(t *testing.T) {
	input := []byte("name: Beach Day\nduration: 12.5\nthumbnail: /media/beach.jpg\ntags:\n  - summer\n  - ' summer '\n  - ''\n")
	m, err := ParseSidecar(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Name != "Beach Day" {
		t.Errorf("name = %q", m.Name)
	}
	if m.Duration == nil || *m.Duration != 12.5 {
		t.Errorf("duration = %v, want 12.5", m.Duration)
	}
	if m.Thumbnail != "/media/beach.jpg" {
		t.Errorf("thumbnail = %q", m.Thumbnail)
	}
	if len(m.Tags) != 1 || m.Tags[0] != "summer" {
		t.Errorf("tags = %v, want [summer]", m.Tags)
	}
}

func TestParseSidecar_Empty(t *testing.T) {
	m, err := ParseSidecar([]byte("  \n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Name != "" || m.Duration != nil {
		t.Errorf("expected empty metadata, got %+v", m)
	}
}

func TestParseSidecar_NonPositiveDurationDropped(t *testing.T) {
	m, err := ParseSidecar([]byte("duration: 0\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Duration != nil {
		t.Errorf("duration = %v, want nil", *m.Duration)
	}
}

func TestParseSidecar_Invalid(t *testing.T) {
	if _, err := ParseSidecar([]byte(": invalid: yaml: {{{")); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestParseText_Frontmatter(t *testing.T) {
	m, text := ParseText([]byte("---\nname: Intro card\nduration: 3\n---\n  Welcome to the show  \n"))
	if m.Name != "Intro card" || m.Duration == nil || *m.Duration != 3 {
		t.Errorf("metadata = %+v", m)
	}
	if text != "Welcome to the show" {
		t.Errorf("text = %q", text)
	}
}

func TestParseText_Plain(t *testing.T) {
	m, text := ParseText([]byte("\n  Just words.\n"))
	if m.Name != "" {
		t.Errorf("unexpected name %q", m.Name)
	}
	if text != "Just words." {
		t.Errorf("text = %q", text)
	}
}

func TestParseText_InvalidYAMLFallback(t *testing.T) {
	input := "---\n: invalid: yaml: {{{\n---\nBody\n"
	_, text := ParseText([]byte(input))
	if text != strings.TrimSpace(input) {
		t.Errorf("text = %q, want whole input", text)
	}
}

func TestParseText_Clipped(t *testing.T) {
	_, text := ParseText([]byte(strings.Repeat("é", MaxTextRunes+20)))
	if n := utf8.RuneCountInString(text); n != MaxTextRunes {
		t.Errorf("runes = %d, want %d", n, MaxTextRunes)
	}
}
