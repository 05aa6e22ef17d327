// Package assemble renders resolved category profiles into phase-specific
// prompt context. Rendering is driven entirely by an external YAML template,
// so new phases and blocks are configuration changes, never code changes.
package assemble

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Block is one renderable unit inside a phase section.
type Block struct {
	Key         string `yaml:"key"`
	Label       string `yaml:"label"`
	Format      string `yaml:"format"`
	Instruction string `yaml:"instruction,omitempty"`
}

// Section configures one consultation phase. A nil Enabled means enabled.
type Section struct {
	Enabled *bool   `yaml:"enabled,omitempty"`
	Header  string  `yaml:"header,omitempty"`
	Blocks  []Block `yaml:"blocks"`
}

func (s Section) enabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// FormatSpec carries the label overrides for a named formatter.
type FormatSpec struct {
	Labels map[string]string `yaml:"labels,omitempty"`
}

// Template is the parsed phase-template document.
type Template struct {
	Sections map[string]Section    `yaml:"sections"`
	Formats  map[string]FormatSpec `yaml:"formats,omitempty"`
}

// knownFieldKeys is the closed set of profile fields a template block may
// reference. Checked at template load so a typo in the template fails fast
// instead of silently rendering nothing for every request.
var knownFieldKeys = map[string]bool{
	"aliases":               true,
	"pain_points":           true,
	"recommended_functions": true,
	"integrations":          true,
	"faq":                   true,
	"objections":            true,
	"success_benchmarks":    true,
	"market_trends":         true,
	"learnings":             true,
	"locale":                true,
	"sales_scripts":         true,
	"competitors":           true,
	"pricing_context":       true,
	"market_context":        true,
}

// knownFormats lists the formatter names the renderer dispatches on. Unknown
// names only warn here; at render time they produce empty output so one bad
// block cannot take down a whole phase.
var knownFormats = map[string]bool{
	"bullets":              true,
	"severity_bullets":     true,
	"priority_bullets":     true,
	"integration_examples": true,
	"qa_pairs":             true,
	"objection_pairs":      true,
	"kpi_bullets":          true,
	"locale_summary":       true,
	"learning_list":        true,
	"script_list":          true,
	"competitor_list":      true,
	"pricing_summary":      true,
	"market_summary":       true,
}

// LoadTemplate parses and validates the phase template. A malformed template
// is the one startup error that must not degrade: it would affect every
// subsequent request, so the error is returned to fail fast.
func LoadTemplate(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	var template Template
	if err := yaml.Unmarshal(data, &template); err != nil {
		return nil, fmt.Errorf("parse template %s: %w", path, err)
	}
	if len(template.Sections) == 0 {
		return nil, fmt.Errorf("template %s declares no sections", path)
	}
	if err := template.validate(); err != nil {
		return nil, fmt.Errorf("template %s: %w", path, err)
	}
	return &template, nil
}

func (t *Template) validate() error {
	phases := make([]string, 0, len(t.Sections))
	for phase := range t.Sections {
		phases = append(phases, phase)
	}
	sort.Strings(phases)
	for _, phase := range phases {
		for i, block := range t.Sections[phase].Blocks {
			if strings.TrimSpace(block.Key) == "" {
				return fmt.Errorf("sections.%s.blocks[%d]: missing key", phase, i)
			}
			if !knownFieldKeys[block.Key] {
				return fmt.Errorf("sections.%s.blocks[%d]: unknown field key %q", phase, i, block.Key)
			}
		}
	}
	return nil
}

// labels returns the label map configured for a format name.
func (t *Template) labels(format string) map[string]string {
	if spec, ok := t.Formats[format]; ok {
		return spec.Labels
	}
	return nil
}

// covers reports whether the phase's template already renders the field key.
// The assembler uses it to keep phase extras from duplicating template blocks.
func (t *Template) covers(phase, key string) bool {
	for _, block := range t.Sections[phase].Blocks {
		if block.Key == key {
			return true
		}
	}
	return false
}
