package secrets

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/zricethezav/gitleaks/v8/detect"
)

// Sources of a finding.
const (
	SourcePattern  = "pattern"
	SourceGitleaks = "gitleaks"
)

// Scrubber redacts sensitive values from text.
type Scrubber interface {
	Scrub(text string) *Result
	IsEnabled() bool
}

// Result is the outcome of one Scrub call. Matched values are never kept.
type Result struct {
	Scrubbed string
	Findings []Finding
	ByRule   map[string]int
}

// Finding locates one redacted span in the original text.
type Finding struct {
	RuleID string
	Source string
	Start  int
	End    int
}

// HasFindings reports whether anything was redacted.
func (r *Result) HasFindings() bool { return len(r.Findings) > 0 }

// RuleIDs returns the matched rule IDs in sorted order.
func (r *Result) RuleIDs() []string {
	ids := make([]string, 0, len(r.ByRule))
	for id := range r.ByRule {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

type scrubber struct {
	config *Config

	// gitleaks detectors are not documented as safe for concurrent use.
	mu       sync.Mutex
	detector *detect.Detector
}

// New builds a Scrubber. A nil cfg means DefaultConfig.
func New(cfg *Config) (Scrubber, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		return Noop{}, nil
	}

	s := &scrubber{config: cfg}
	if !cfg.SkipGitleaks {
		d, err := detect.NewDetectorDefaultConfig()
		if err != nil {
			return nil, fmt.Errorf("loading gitleaks rules: %w", err)
		}
		s.detector = d
	}
	return s, nil
}

// Scrub redacts every finding from text.
func (s *scrubber) Scrub(text string) *Result {
	result := &Result{Scrubbed: text, ByRule: map[string]int{}}
	if text == "" {
		return result
	}

	var spans []Finding
	for _, rule := range s.config.compiledRules {
		if !rule.applies(text) {
			continue
		}
		for _, loc := range rule.pattern.FindAllStringIndex(text, -1) {
			if s.allowed(text[loc[0]:loc[1]]) {
				continue
			}
			spans = append(spans, Finding{RuleID: rule.ID, Source: SourcePattern, Start: loc[0], End: loc[1]})
		}
	}
	spans = append(spans, s.gitleaks(text)...)
	if len(spans) == 0 {
		return result
	}

	sort.SliceStable(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
	for _, f := range spans {
		result.ByRule[f.RuleID]++
	}
	result.Findings = spans

	var b strings.Builder
	cursor := 0
	for _, span := range merge(spans) {
		b.WriteString(text[cursor:span.Start])
		b.WriteString(s.config.Redaction)
		cursor = span.End
	}
	b.WriteString(text[cursor:])
	result.Scrubbed = b.String()
	return result
}

// gitleaks reports secrets by value, so each reported value is located by
// searching the input.
func (s *scrubber) gitleaks(text string) []Finding {
	if s.detector == nil {
		return nil
	}
	s.mu.Lock()
	found := s.detector.DetectString(text)
	s.mu.Unlock()

	var out []Finding
	for _, f := range found {
		value := f.Secret
		if value == "" {
			value = f.Match
		}
		if value == "" || s.allowed(value) {
			continue
		}
		for from := 0; from < len(text); {
			i := strings.Index(text[from:], value)
			if i < 0 {
				break
			}
			start := from + i
			out = append(out, Finding{RuleID: f.RuleID, Source: SourceGitleaks, Start: start, End: start + len(value)})
			from = start + len(value)
		}
	}
	return out
}

func (s *scrubber) allowed(match string) bool {
	for _, re := range s.config.compiledAllowList {
		if re.MatchString(match) {
			return true
		}
	}
	return false
}

func (s *scrubber) IsEnabled() bool { return true }

func (r *compiledRule) applies(text string) bool {
	if len(r.keywords) == 0 {
		return true
	}
	for _, kw := range r.keywords {
		if kw.MatchString(text) {
			return true
		}
	}
	return false
}

// merge collapses overlapping or touching spans. Input must be sorted by
// Start.
func merge(spans []Finding) []Finding {
	merged := []Finding{spans[0]}
	for _, curr := range spans[1:] {
		last := &merged[len(merged)-1]
		if curr.Start <= last.End {
			if curr.End > last.End {
				last.End = curr.End
			}
			continue
		}
		merged = append(merged, curr)
	}
	return merged
}

// Noop passes text through unchanged.
type Noop struct{}

// Scrub returns text unchanged.
func (Noop) Scrub(text string) *Result {
	return &Result{Scrubbed: text, ByRule: map[string]int{}}
}

// IsEnabled returns false.
func (Noop) IsEnabled() bool { return false }

var (
	_ Scrubber = (*scrubber)(nil)
	_ Scrubber = Noop{}
)
