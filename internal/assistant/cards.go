package assistant

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/fyrsmithlabs/sitin/internal/vectorindex"
)

// Card is the structured form of one recommended course.
type Card struct {
	Code          string `json:"code"`
	Title         string `json:"title"`
	Schedule      string `json:"schedule"`
	Location      string `json:"location"`
	Instructor    string `json:"instructor"`
	ClassSize     string `json:"classSize"`
	Description   string `json:"description,omitempty"`
	Prerequisites string `json:"prerequisites,omitempty"`
	Department    string `json:"department,omitempty"`
	Units         string `json:"units,omitempty"`
	Relevance     int    `json:"relevance"`
}

// Detail labels as they appear in replies.
const (
	LabelSchedule      = "Schedule"
	LabelLocation      = "Location"
	LabelInstructor    = "Instructor"
	LabelClassSize     = "Class Size"
	LabelDescription   = "Description"
	LabelPrerequisites = "Prerequisites"
	LabelDepartment    = "Department"
	LabelUnits         = "Units"
)

// CardFromMatch builds a card from index metadata.
func CardFromMatch(m vectorindex.Match) Card {
	md := m.Metadata
	prereqs := md.Prerequisites
	if prereqs == "" {
		prereqs = "None"
	}
	return Card{
		Code:          md.Code,
		Title:         md.Title,
		Schedule:      fmt.Sprintf("%s at %s", meetingDays(md), md.Time),
		Location:      strings.TrimSpace(md.Building + " " + md.Room),
		Instructor:    md.Instructor,
		ClassSize:     fmt.Sprintf("%d seats", md.SeatLimit),
		Description:   md.Description,
		Prerequisites: prereqs,
		Department:    md.Department,
		Units:         md.Units,
		Relevance:     relevance(m.Score),
	}
}

// FormatCard renders c in the numbered-list form the chat model is asked to
// produce.
func FormatCard(n int, c Card) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d. **%s: %s**\n", n, c.Code, c.Title)
	for _, d := range c.details() {
		if d.Value == "" {
			continue
		}
		fmt.Fprintf(&b, "\n- **%s**: %s", d.Label, d.Value)
	}
	return b.String()
}

func (c Card) details() []Detail {
	return []Detail{
		{LabelSchedule, c.Schedule},
		{LabelLocation, c.Location},
		{LabelInstructor, c.Instructor},
		{LabelClassSize, c.ClassSize},
		{LabelDescription, c.Description},
		{LabelPrerequisites, c.Prerequisites},
		{LabelDepartment, c.Department},
		{LabelUnits, c.Units},
	}
}

// Detail is one labelled line of a course block.
type Detail struct {
	Label string
	Value string
}

// ReplyBlock is one paragraph of a reply. Course blocks carry a title and
// details; everything else is plain text.
type ReplyBlock struct {
	Course  bool
	Title   string
	Details []Detail
	Text    string
}

// Get returns the value for label, or "".
func (r ReplyBlock) Get(label string) string {
	for _, d := range r.Details {
		if d.Label == label {
			return d.Value
		}
	}
	return ""
}

var (
	courseStart = regexp.MustCompile(`^\d+\.\s+\*\*`)
	boldSpan    = regexp.MustCompile(`\*\*(.*?)\*\*`)
	detailStart = regexp.MustCompile(`^-\s+\*\*`)
	blankLines  = regexp.MustCompile(`\n\s*\n`)
)

// ParseReply splits reply text on blank lines. The model separates a course
// heading from its details with a blank line, so detail paragraphs that
// follow a course heading are folded into it.
func ParseReply(text string) []ReplyBlock {
	var out []ReplyBlock
	for _, para := range blankLines.Split(strings.TrimSpace(text), -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if courseStart.MatchString(para) {
			out = append(out, ParseCard(para))
			continue
		}
		if n := len(out); n > 0 && out[n-1].Course && strings.HasPrefix(para, "-") {
			out[n-1].Details = append(out[n-1].Details, parseDetails(para)...)
			continue
		}
		out = append(out, ReplyBlock{Text: para})
	}
	return out
}

// ParseCard parses one course block.
func ParseCard(block string) ReplyBlock {
	rb := ReplyBlock{Course: true}
	if m := boldSpan.FindStringSubmatch(block); m != nil {
		rb.Title = m[1]
	}
	rb.Details = parseDetails(block)
	return rb
}

func parseDetails(block string) []Detail {
	var details []Detail
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "-") {
			continue
		}
		line = detailStart.ReplaceAllString(line, "")
		label, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		details = append(details, Detail{
			Label: strings.TrimSpace(strings.ReplaceAll(label, "**", "")),
			Value: strings.TrimSpace(value),
		})
	}
	return details
}

// ToCard maps a parsed course block back onto a Card. Code and Title are
// split at the first ": " of the heading.
func (r ReplyBlock) ToCard() Card {
	code, title, ok := strings.Cut(r.Title, ": ")
	if !ok {
		title = r.Title
		code = ""
	}
	return Card{
		Code:          code,
		Title:         title,
		Schedule:      r.Get(LabelSchedule),
		Location:      r.Get(LabelLocation),
		Instructor:    r.Get(LabelInstructor),
		ClassSize:     r.Get(LabelClassSize),
		Description:   r.Get(LabelDescription),
		Prerequisites: r.Get(LabelPrerequisites),
		Department:    r.Get(LabelDepartment),
		Units:         r.Get(LabelUnits),
	}
}
