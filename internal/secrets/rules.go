package secrets

// DefaultRules returns the identifier rules applied ahead of gitleaks.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:          "student-pid",
			Description: "UCSD student PID",
			Pattern:     `\b[AaUu]\d{8}\b`,
		},
		{
			ID:          "email",
			Description: "Email address",
			Pattern:     `[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`,
		},
		{
			ID:          "phone",
			Description: "North American phone number",
			Pattern:     `\(?\b\d{3}\)?[\s.\-]\d{3}[\s.\-]\d{4}\b`,
			Keywords:    []string{"call", "phone", "text", "cell", "number"},
		},
		{
			ID:          "openai-api-key",
			Description: "OpenAI API key",
			Pattern:     `sk-(?:proj-)?[A-Za-z0-9_\-]{20,}`,
		},
		{
			ID:          "anthropic-api-key",
			Description: "Anthropic API key",
			Pattern:     `sk-ant-[A-Za-z0-9_\-]{20,}`,
		},
		{
			ID:          "airtable-token",
			Description: "Airtable personal access token",
			Pattern:     `\bpat[A-Za-z0-9]{14}\.[a-f0-9]{64}\b`,
		},
	}
}
