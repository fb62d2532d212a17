// Package prompts provides the document understanding prompt templates.
// Templates are stored as JSON files and embedded at compile time. A
// placeholder has the form {{.Name}}.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"
	"sync"
)

//go:embed *.json
var promptFiles embed.FS

// Extraction prompt file and keys
const (
	ExtractionFile  = "extraction.json"
	KeyAnalyzeForm  = "analyze-form"
	KeyExtractFacts = "extract-facts"
)

var placeholderRe = regexp.MustCompile(`\{\{\.([A-Za-z][A-Za-z0-9_]*)\}\}`)

// Set is a parsed prompt file.
type Set struct {
	name      string
	templates map[string]string
}

var extraction = sync.OnceValues(func() (*Set, error) {
	return Load(ExtractionFile)
})

// Extraction returns the embedded extraction prompts, parsed once.
func Extraction() (*Set, error) {
	return extraction()
}

// Load parses an embedded prompt file. Every "{{" in a template must open a
// well-formed placeholder.
func Load(filename string) (*Set, error) {
	data, err := promptFiles.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", filename, err)
	}

	var templates map[string]string
	if err := json.Unmarshal(data, &templates); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", filename, err)
	}
	for key, tmpl := range templates {
		if strings.Count(tmpl, "{{") != len(placeholderRe.FindAllString(tmpl, -1)) {
			return nil, fmt.Errorf("prompt %s in %s has a malformed placeholder", key, filename)
		}
	}
	return &Set{name: filename, templates: templates}, nil
}

// Placeholders returns the distinct placeholder names in a template, sorted.
func (s *Set) Placeholders(key string) ([]string, error) {
	tmpl, err := s.template(key)
	if err != nil {
		return nil, err
	}
	return placeholders(tmpl), nil
}

// Get returns a template that takes no placeholders.
func (s *Set) Get(key string) (string, error) {
	return s.Render(key, nil)
}

// Render fills a template. Every placeholder must have a value in data;
// missing names are reported together.
func (s *Set) Render(key string, data map[string]string) (string, error) {
	tmpl, err := s.template(key)
	if err != nil {
		return "", err
	}

	var missing []string
	for _, name := range placeholders(tmpl) {
		if _, ok := data[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("prompt %s: no value for %s", key, strings.Join(missing, ", "))
	}

	return placeholderRe.ReplaceAllStringFunc(tmpl, func(m string) string {
		return data[placeholderRe.FindStringSubmatch(m)[1]]
	}), nil
}

func (s *Set) template(key string) (string, error) {
	tmpl, ok := s.templates[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, s.name)
	}
	return tmpl, nil
}

func placeholders(tmpl string) []string {
	var names []string
	for _, m := range placeholderRe.FindAllStringSubmatch(tmpl, -1) {
		if !slices.Contains(names, m[1]) {
			names = append(names, m[1])
		}
	}
	sort.Strings(names)
	return names
}
