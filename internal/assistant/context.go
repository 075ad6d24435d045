package assistant

import (
	"fmt"
	"math"
	"strings"

	"github.com/fyrsmithlabs/sitin/internal/vectorindex"
)

// Block renders one match as the context block the chat model reads.
func Block(m vectorindex.Match) string {
	md := m.Metadata
	prereqs := md.Prerequisites
	if prereqs == "" {
		prereqs = "None"
	}
	lines := []string{
		fmt.Sprintf("Course: %s: %s", md.Code, md.Title),
		fmt.Sprintf("Schedule: Meets on %s at %s", meetingDays(md), md.Time),
		fmt.Sprintf("Location: %s %s", md.Building, md.Room),
		"Instructor: " + md.Instructor,
		fmt.Sprintf("Class Size: %d seats", md.SeatLimit),
		"Description: " + md.Description,
		"Prerequisites: " + prereqs,
		"Department: " + md.Department,
		"Units: " + md.Units,
		fmt.Sprintf("Relevance Score: %d%%", relevance(m.Score)),
	}
	return strings.Join(lines, "\n")
}

// Blocks renders matches separated by blank lines.
func Blocks(matches []vectorindex.Match) string {
	blocks := make([]string, len(matches))
	for i, m := range matches {
		blocks[i] = Block(m)
	}
	return strings.Join(blocks, "\n\n")
}

func meetingDays(md vectorindex.Metadata) string {
	if len(md.ExpandedDays) > 0 {
		return strings.Join(md.ExpandedDays, ", ")
	}
	return md.Days
}

func relevance(score float32) int {
	return int(math.Round(float64(score) * 100))
}
