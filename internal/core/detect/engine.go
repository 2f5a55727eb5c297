package detect

import (
	"sort"
	"strings"
)

// Result is the sparse detection outcome. Fields holds only detected fields;
// a field with no matching rule is simply absent, never a sentinel value.
type Result struct {
	Fields map[string]string
	Tags   []string
}

// Engine evaluates a RuleSet against a corpus. The engine itself is
// stateless between calls; identical input always yields identical output.
type Engine struct {
	set RuleSet
}

// NewEngine validates and normalizes the table once so Detect is pure
// matching. Terms are lower-cased here because the corpus arrives already
// lower-cased.
func NewEngine(set RuleSet) (*Engine, error) {
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return &Engine{set: lowerTerms(set)}, nil
}

// Detect walks each field's rules in declared order and stops at the first
// match. An empty corpus produces an empty result, not an error.
func (e *Engine) Detect(corpusText string) Result {
	result := Result{
		Fields: make(map[string]string),
		Tags:   []string{},
	}
	if corpusText == "" {
		return result
	}

	for _, field := range e.set.Fields {
		for _, rule := range field.Rules {
			if matches(corpusText, rule.Any, rule.All) {
				result.Fields[field.Field] = rule.Value
				break
			}
		}
	}

	for _, tag := range e.set.Tags {
		if matches(corpusText, tag.Any, tag.All) {
			result.Tags = append(result.Tags, tag.Tag)
		}
	}
	sort.Strings(result.Tags)

	return result
}

// FieldNames lists the fields the table can populate, in declared order.
func (e *Engine) FieldNames() []string {
	names := make([]string, 0, len(e.set.Fields))
	for _, field := range e.set.Fields {
		names = append(names, field.Field)
	}
	return names
}

func matches(corpusText string, anyTerms, allTerms []string) bool {
	for _, term := range allTerms {
		if !strings.Contains(corpusText, term) {
			return false
		}
	}
	for _, term := range anyTerms {
		if strings.Contains(corpusText, term) {
			return true
		}
	}
	return false
}

func lowerTerms(set RuleSet) RuleSet {
	out := RuleSet{
		Fields: make([]FieldRules, len(set.Fields)),
		Tags:   make([]TagRule, len(set.Tags)),
	}
	for i, field := range set.Fields {
		rules := make([]ValueRule, len(field.Rules))
		for j, rule := range field.Rules {
			rules[j] = ValueRule{
				Value: rule.Value,
				Any:   lowerAll(rule.Any),
				All:   lowerAll(rule.All),
			}
		}
		out.Fields[i] = FieldRules{Field: field.Field, Rules: rules}
	}
	for i, tag := range set.Tags {
		out.Tags[i] = TagRule{
			Tag: tag.Tag,
			Any: lowerAll(tag.Any),
			All: lowerAll(tag.All),
		}
	}
	return out
}

func lowerAll(terms []string) []string {
	if terms == nil {
		return nil
	}
	out := make([]string, len(terms))
	for i, term := range terms {
		out[i] = strings.ToLower(strings.TrimSpace(term))
	}
	return out
}
