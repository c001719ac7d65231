// Package prompt turns a short free-text prompt into starter copy for a flyer.
// Rules are expr-lang expressions evaluated against the prompt; the first rule
// that matches supplies the text.
package prompt

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

var ErrEmptyPrompt = errors.New("prompt is empty")

// Rule yields Text when When evaluates to true. When sees two variables:
// prompt (lower-cased) and raw (as typed).
type Rule struct {
	Name string
	When string
	Text string
}

// DefaultRules match on keywords, checked in order.
var DefaultRules = []Rule{
	{
		Name: "sale",
		When: `prompt contains "sale" || prompt contains "discount"`,
		Text: "SPECIAL SALE EVENT\n\n50% OFF ALL ITEMS\n\nLimited Time Offer\nJuly 10-15, 2025\n\nVisit our store today!",
	},
	{
		Name: "event",
		When: `prompt contains "event" || prompt contains "conference"`,
		Text: "ANNUAL TECH CONFERENCE\n\nJoin industry leaders for a day of innovation\n\nJuly 15, 2025\n9:00 AM - 6:00 PM\n\nRegister now at example.com",
	},
	{
		Name: "business",
		When: `prompt contains "business" || prompt contains "service"`,
		Text: "PROFESSIONAL CONSULTING SERVICES\n\nStrategic Solutions for Business Growth\n\nContact us today:\nemail@example.com\n(555) 123-4567",
	},
}

// DefaultFallback builds text from the prompt itself when no rule matches.
const DefaultFallback = `upper(raw) + "\n\nSpecial announcement\n\nJoin us on July 15, 2025\n\nContact: info@example.com"`

type compiledRule struct {
	name string
	when *vm.Program
	text string
	expr string
}

type Generator struct {
	rules    []compiledRule
	fallback *vm.Program
}

func environment(prompt string) map[string]any {
	return map[string]any{
		"prompt": strings.ToLower(prompt),
		"raw":    prompt,
	}
}

// NewGenerator compiles every rule up front so a bad expression fails at
// startup rather than on the first request.
func NewGenerator(rules []Rule, fallback string) (*Generator, error) {
	env := environment("")
	g := &Generator{rules: make([]compiledRule, 0, len(rules))}
	for _, r := range rules {
		program, err := expr.Compile(r.When, expr.Env(env), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", r.Name, err)
		}
		g.rules = append(g.rules, compiledRule{name: r.Name, when: program, text: r.Text, expr: r.When})
	}

	program, err := expr.Compile(fallback, expr.Env(env), expr.AsKind(reflect.String))
	if err != nil {
		return nil, fmt.Errorf("fallback: %w", err)
	}
	g.fallback = program
	return g, nil
}

// Default returns a generator over DefaultRules and DefaultFallback.
func Default() *Generator {
	g, err := NewGenerator(DefaultRules, DefaultFallback)
	if err != nil {
		panic(err)
	}
	return g
}

// Generate returns the text for prompt and the name of the rule that produced
// it, or "fallback".
func (g *Generator) Generate(prompt string) (text, rule string, err error) {
	if strings.TrimSpace(prompt) == "" {
		return "", "", ErrEmptyPrompt
	}
	env := environment(prompt)
	for _, r := range g.rules {
		out, err := expr.Run(r.when, env)
		if err != nil {
			return "", "", fmt.Errorf("rule %q (%s): %w", r.name, r.expr, err)
		}
		if ok, _ := out.(bool); ok {
			return r.text, r.name, nil
		}
	}

	out, err := expr.Run(g.fallback, env)
	if err != nil {
		return "", "", fmt.Errorf("fallback: %w", err)
	}
	s, _ := out.(string)
	return s, "fallback", nil
}
