// Package parser reads media metadata: YAML sidecars and the optional
// frontmatter of text assets.
package parser

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// MaxTextRunes caps the text taken from a text asset.
const MaxTextRunes = 500

// Metadata overrides what the library derives from a media file.
type Metadata struct {
	Name string `yaml:"name"`
	// Duration is the authoritative media length in seconds.
	Duration  *float64 `yaml:"duration"`
	Thumbnail string   `yaml:"thumbnail"`
	Tags      []string `yaml:"tags"`
}

// ParseSidecar decodes a sidecar document. Empty input yields empty
// metadata. Non-positive durations are dropped.
func ParseSidecar(data []byte) (Metadata, error) {
	var m Metadata
	if len(bytes.TrimSpace(data)) == 0 {
		return m, nil
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Metadata{}, fmt.Errorf("parser: sidecar: %w", err)
	}
	return m.normalize(), nil
}

// ParseText splits a text asset into its frontmatter metadata and the text
// itself. Without frontmatter, or with invalid YAML, the whole input is text.
func ParseText(data []byte) (Metadata, string) {
	fm, body := splitFrontmatter(data)
	var m Metadata
	if fm != nil {
		if err := yaml.Unmarshal(fm, &m); err != nil {
			return Metadata{}, clipText(string(data))
		}
	}
	return m.normalize(), clipText(body)
}

func (m Metadata) normalize() Metadata {
	m.Name = strings.TrimSpace(m.Name)
	m.Thumbnail = strings.TrimSpace(m.Thumbnail)
	if m.Duration != nil && *m.Duration <= 0 {
		m.Duration = nil
	}
	tags := m.Tags[:0:0]
	seen := make(map[string]struct{}, len(m.Tags))
	for _, t := range m.Tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
	}
	m.Tags = tags
	return m
}

// splitFrontmatter separates a leading YAML block between --- delimiters
// from the rest. fm is nil when there is no complete block.
func splitFrontmatter(data []byte) (fm []byte, body string) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data)
	}
	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data)
	}
	return rest[:idx], string(rest[idx+1+len(delim):])
}

// clipText trims s and cuts it to MaxTextRunes.
func clipText(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= MaxTextRunes {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:MaxTextRunes]))
}
