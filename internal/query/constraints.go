package query

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/sitin/internal/vectorindex"
)

// SizeOrder asks for results to be reordered by seat limit.
type SizeOrder int

const (
	// SizeOrderNone keeps relevance order.
	SizeOrderNone SizeOrder = iota
	// SizeOrderDescending puts the largest classes first.
	SizeOrderDescending
	// SizeOrderAscending puts the smallest classes first.
	SizeOrderAscending
)

var (
	largeWords = []string{"biggest", "largest", "large", "big"}
	smallWords = []string{"small", "tiny"}
)

// Constraints is everything extracted from one question.
type Constraints struct {
	Time      TimeConstraint
	Size      SizePreference
	TimeOfDay string
	Day       string
	Order     SizeOrder
}

// Extract runs every extractor over q.
func Extract(q string) Constraints {
	return Constraints{
		Time:      ExtractTimeConstraints(q),
		Size:      ExtractSizePreference(q),
		TimeOfDay: ExtractTimeOfDay(q),
		Day:       ExtractDayOfWeek(q),
		Order:     extractOrder(q),
	}
}

// extractOrder lets small wording win when both kinds appear, since the
// ascending reorder is applied last.
func extractOrder(q string) SizeOrder {
	lower := strings.ToLower(q)
	for _, w := range smallWords {
		if strings.Contains(lower, w) {
			return SizeOrderAscending
		}
	}
	for _, w := range largeWords {
		if strings.Contains(lower, w) {
			return SizeOrderDescending
		}
	}
	return SizeOrderNone
}

// Conflicting reports whether the time bounds cannot both hold, i.e. the
// lecture would have to end before it starts.
func (c Constraints) Conflicting() bool {
	return c.Time.Before != nil && c.Time.After != nil && *c.Time.Before < *c.Time.After
}

// Enrich builds the text that is embedded in place of the raw question.
func (c Constraints) Enrich(raw string) string {
	var b strings.Builder
	b.WriteString("Find courses that match the following criteria:\n")
	b.WriteString("Query: " + raw)

	if c.TimeOfDay != "" {
		b.WriteString("\nTime of day: " + c.TimeOfDay)
	}
	if c.Day != "" {
		b.WriteString("\nDay of week: " + c.Day)
	}
	if c.Time.Before != nil {
		b.WriteString("\nEnds before: " + clock(*c.Time.Before))
	}
	if c.Time.After != nil {
		b.WriteString("\nStarts after: " + clock(*c.Time.After))
	}
	if c.Size.Min != nil {
		fmt.Fprintf(&b, "\nMinimum class size: %d", *c.Size.Min)
	}
	if c.Size.Max != nil {
		fmt.Fprintf(&b, "\nMaximum class size: %d", *c.Size.Max)
	}
	return b.String()
}

func clock(minutes int) string {
	return fmt.Sprintf("%d:%02d", minutes/60, minutes%60)
}

// Filter maps the constraints onto index metadata fields.
func (c Constraints) Filter() vectorindex.Filter {
	return vectorindex.Filter{
		Day:        c.Day,
		TimeOfDay:  c.TimeOfDay,
		EndBefore:  c.Time.Before,
		StartAfter: c.Time.After,
		MinSeats:   c.Size.Min,
		MaxSeats:   c.Size.Max,
	}
}
