// Package detect applies an ordered, data-driven rule table to a normalized
// text corpus to infer deployed security technologies and compliance
// frameworks.
package detect

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValueRule assigns Value to its parent field when the corpus contains any
// of the Any terms and, if present, every All term. Matching is plain
// substring matching: short terms can hit inside unrelated words, which
// mirrors how operators actually tag records in the registry and is accepted.
type ValueRule struct {
	Value string   `yaml:"value"`
	Any   []string `yaml:"any"`
	All   []string `yaml:"all,omitempty"`
}

// FieldRules is the ordered rule list for one form field. The first matching
// rule wins; later rules for the field are never consulted once one matched.
type FieldRules struct {
	Field string      `yaml:"field"`
	Rules []ValueRule `yaml:"rules"`
}

// TagRule marks a compliance framework as in scope. Tags are independent of
// each other: a corpus may yield zero, one or many.
type TagRule struct {
	Tag string   `yaml:"tag"`
	Any []string `yaml:"any"`
	All []string `yaml:"all,omitempty"`
}

// RuleSet is the full detection table. It is configuration, not code:
// operators extend coverage by editing the YAML form of this structure
// without touching the matching algorithm.
type RuleSet struct {
	Fields []FieldRules `yaml:"fields"`
	Tags   []TagRule    `yaml:"tags"`
}

// Load reads an operator-edited rule table from a YAML file.
func Load(path string) (RuleSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, fmt.Errorf("read rules file: %w", err)
	}

	var set RuleSet
	if err := yaml.Unmarshal(raw, &set); err != nil {
		return RuleSet{}, fmt.Errorf("parse rules file: %w", err)
	}
	if err := set.Validate(); err != nil {
		return RuleSet{}, fmt.Errorf("rules file %s: %w", path, err)
	}
	return set, nil
}

// Validate rejects tables the engine cannot evaluate deterministically:
// empty names, rules without terms, duplicate field blocks.
func (s RuleSet) Validate() error {
	seenFields := make(map[string]bool, len(s.Fields))
	for i, field := range s.Fields {
		name := strings.TrimSpace(field.Field)
		if name == "" {
			return fmt.Errorf("fields[%d]: empty field name", i)
		}
		if seenFields[name] {
			return fmt.Errorf("fields[%d]: duplicate field %q", i, name)
		}
		seenFields[name] = true
		if len(field.Rules) == 0 {
			return fmt.Errorf("field %q: no rules", name)
		}
		for j, rule := range field.Rules {
			if strings.TrimSpace(rule.Value) == "" {
				return fmt.Errorf("field %q rules[%d]: empty value", name, j)
			}
			if err := validateTerms(rule.Any, rule.All); err != nil {
				return fmt.Errorf("field %q rules[%d]: %w", name, j, err)
			}
		}
	}

	seenTags := make(map[string]bool, len(s.Tags))
	for i, tag := range s.Tags {
		name := strings.TrimSpace(tag.Tag)
		if name == "" {
			return fmt.Errorf("tags[%d]: empty tag name", i)
		}
		if seenTags[name] {
			return fmt.Errorf("tags[%d]: duplicate tag %q", i, name)
		}
		seenTags[name] = true
		if err := validateTerms(tag.Any, tag.All); err != nil {
			return fmt.Errorf("tag %q: %w", name, err)
		}
	}
	return nil
}

func validateTerms(anyTerms, allTerms []string) error {
	if len(anyTerms) == 0 {
		return fmt.Errorf("no match terms")
	}
	for _, term := range anyTerms {
		if strings.TrimSpace(term) == "" {
			return fmt.Errorf("empty term in any list")
		}
	}
	for _, term := range allTerms {
		if strings.TrimSpace(term) == "" {
			return fmt.Errorf("empty term in all list")
		}
	}
	return nil
}
