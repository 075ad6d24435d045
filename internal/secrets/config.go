package secrets

import (
	"fmt"
	"regexp"
)

// DefaultRedaction replaces every finding.
const DefaultRedaction = "[REDACTED]"

// Config configures the scrubber.
type Config struct {
	// Enabled turns scrubbing on. A disabled scrubber returns its input.
	Enabled bool

	// Rules are regular expression rules checked before gitleaks.
	Rules []Rule

	// Redaction replaces each finding (default "[REDACTED]").
	Redaction string

	// AllowList holds patterns whose matches are never redacted.
	AllowList []string

	// SkipGitleaks disables the gitleaks rule set.
	SkipGitleaks bool

	compiledRules     []*compiledRule
	compiledAllowList []*regexp.Regexp
}

// Rule is a single pattern rule.
type Rule struct {
	ID          string
	Description string
	Pattern     string

	// Keywords, when set, must appear (case-insensitive) somewhere in the
	// input for the rule to run.
	Keywords []string
}

type compiledRule struct {
	Rule
	pattern  *regexp.Regexp
	keywords []*regexp.Regexp
}

// DefaultConfig returns an enabled configuration with DefaultRules.
func DefaultConfig() *Config {
	return &Config{
		Enabled:   true,
		Rules:     DefaultRules(),
		Redaction: DefaultRedaction,
	}
}

// Validate compiles the rules and allow list.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Redaction == "" {
		c.Redaction = DefaultRedaction
	}

	c.compiledRules = make([]*compiledRule, 0, len(c.Rules))
	for i, rule := range c.Rules {
		if rule.ID == "" {
			return fmt.Errorf("rule %d: id is required", i)
		}
		pattern, err := regexp.Compile(rule.Pattern)
		if err != nil || rule.Pattern == "" {
			return fmt.Errorf("rule %s: invalid pattern %q: %v", rule.ID, rule.Pattern, err)
		}
		compiled := &compiledRule{Rule: rule, pattern: pattern}
		for _, kw := range rule.Keywords {
			compiled.keywords = append(compiled.keywords, regexp.MustCompile("(?i)"+regexp.QuoteMeta(kw)))
		}
		c.compiledRules = append(c.compiledRules, compiled)
	}

	c.compiledAllowList = make([]*regexp.Regexp, 0, len(c.AllowList))
	for i, pattern := range c.AllowList {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("allow list %d: %w", i, err)
		}
		c.compiledAllowList = append(c.compiledAllowList, re)
	}
	return nil
}
