package secrets

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func patternOnly(t *testing.T) Scrubber {
	t.Helper()
	cfg := DefaultConfig()
	cfg.SkipGitleaks = true
	s, err := New(cfg)
	require.NoError(t, err)
	return s
}

func TestScrub_StudentIdentifiers(t *testing.T) {
	s := patternOnly(t)

	tests := []struct {
		name  string
		input string
		want  string
		rules []string
	}{
		{
			name:  "pid",
			input: "my PID is A12345678, what CSE classes fit?",
			want:  "my PID is [REDACTED], what CSE classes fit?",
			rules: []string{"student-pid"},
		},
		{
			name:  "email",
			input: "email triton@ucsd.edu the list",
			want:  "email [REDACTED] the list",
			rules: []string{"email"},
		},
		{
			name:  "phone needs keyword",
			input: "call me at 858-534-2230",
			want:  "call me at [REDACTED]",
			rules: []string{"phone"},
		},
		{
			name:  "course numbers untouched",
			input: "is CSE 110 before 3pm on TuTh in room 1202?",
			want:  "is CSE 110 before 3pm on TuTh in room 1202?",
		},
		{
			name:  "several findings",
			input: "A11111111 and A22222222",
			want:  "[REDACTED] and [REDACTED]",
			rules: []string{"student-pid"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := s.Scrub(tt.input)
			assert.Equal(t, tt.want, res.Scrubbed)
			if tt.rules == nil {
				assert.False(t, res.HasFindings())
				return
			}
			assert.Equal(t, tt.rules, res.RuleIDs())
		})
	}
}

func TestScrub_OverlapsMerge(t *testing.T) {
	cfg := &Config{
		Enabled:      true,
		SkipGitleaks: true,
		Rules: []Rule{
			{ID: "a", Pattern: `abc`},
			{ID: "b", Pattern: `bcd`},
		},
	}
	s, err := New(cfg)
	require.NoError(t, err)

	res := s.Scrub("xabcdx")
	assert.Equal(t, "x[REDACTED]x", res.Scrubbed)
	assert.Len(t, res.Findings, 2)
}

func TestScrub_AllowList(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SkipGitleaks = true
	cfg.AllowList = []string{`@example\.com$`}
	s, err := New(cfg)
	require.NoError(t, err)

	res := s.Scrub("write to advisor@example.com or me@ucsd.edu")
	assert.Equal(t, "write to advisor@example.com or [REDACTED]", res.Scrubbed)
}

func TestScrub_Gitleaks(t *testing.T) {
	s, err := New(nil)
	require.NoError(t, err)

	token := "ghp_" + "aBcDeFgHiJkLmNoPqRsTuVwXyZ0123456789"
	res := s.Scrub("here is my token " + token + " please help")
	assert.NotContains(t, res.Scrubbed, token)
	assert.Contains(t, res.Scrubbed, "[REDACTED]")
}

func TestNew_Disabled(t *testing.T) {
	s, err := New(&Config{Enabled: false})
	require.NoError(t, err)
	assert.False(t, s.IsEnabled())
	assert.Equal(t, "A12345678", s.Scrub("A12345678").Scrubbed)
}

func TestValidate_RejectsBadRules(t *testing.T) {
	_, err := New(&Config{Enabled: true, Rules: []Rule{{ID: "", Pattern: "x"}}})
	assert.Error(t, err)

	_, err = New(&Config{Enabled: true, Rules: []Rule{{ID: "bad", Pattern: "("}}})
	assert.Error(t, err)
}

func TestScrub_Concurrent(t *testing.T) {
	s := patternOnly(t)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, "id [REDACTED]", s.Scrub("id A87654321").Scrubbed)
		}()
	}
	wg.Wait()
}
