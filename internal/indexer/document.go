package indexer

import (
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/fyrsmithlabs/sitin/internal/catalog"
	"github.com/fyrsmithlabs/sitin/internal/schedule"
	"github.com/fyrsmithlabs/sitin/internal/vectorindex"
)

// namespace seeds document IDs so the same lecture always maps to the same
// point across runs and backends.
var namespace = uuid.MustParse("6f0b8f3e-5c1a-4d8e-9a57-2f3c6b1d7e40")

// Document is a lecture ready to embed.
type Document struct {
	ID       string
	Content  string
	Metadata vectorindex.Metadata
}

// DocumentID derives the stable point ID of a lecture.
func DocumentID(item catalog.ClassItem) string {
	key := strings.Join([]string{item.CourseCode, item.Professor, item.Building, item.Room, item.Time, item.Days}, "|")
	return uuid.NewSHA1(namespace, []byte(key)).String()
}

// BuildDocument joins a lecture with its description. It fails when the
// lecture's times do not parse, since such a document could never satisfy
// time filters correctly.
func BuildDocument(item catalog.ClassItem, desc catalog.Description) (Document, error) {
	startToken, endToken := schedule.SplitRange(item.Time)
	start, err := schedule.ParseClock(startToken)
	if err != nil {
		return Document{}, fmt.Errorf("%s: start time: %w", item.CourseCode, err)
	}
	end, err := schedule.ParseClock(endToken)
	if err != nil {
		return Document{}, fmt.Errorf("%s: end time: %w", item.CourseCode, err)
	}

	title := cmp.Or(desc.Title, item.CourseName)
	md := vectorindex.Metadata{
		Code:          item.CourseCode,
		Title:         title,
		Days:          item.Days,
		ExpandedDays:  schedule.ExpandDays(item.Days),
		Time:          item.Time,
		TimeStart:     int(start),
		TimeEnd:       int(end),
		TimeOfDay:     schedule.TimeOfDay(start),
		Building:      item.Building,
		Room:          item.Room,
		Instructor:    item.Professor,
		SeatLimit:     item.Capacity,
		Description:   desc.Description,
		Prerequisites: desc.Prerequisites,
		Department:    cmp.Or(desc.Department, item.Department),
		Units:         cmp.Or(desc.Units, item.Units),
	}
	return Document{ID: DocumentID(item), Content: content(md), Metadata: md}, nil
}

// content is the text that is embedded. It mirrors the enriched query
// wording so that constraint phrases land near matching lectures.
func content(md vectorindex.Metadata) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Course: %s: %s\n", md.Code, md.Title)
	fmt.Fprintf(&b, "Schedule: Meets on %s at %s (%s)\n", strings.Join(md.ExpandedDays, ", "), md.Time, md.TimeOfDay)
	fmt.Fprintf(&b, "Location: %s %s\n", md.Building, md.Room)
	fmt.Fprintf(&b, "Instructor: %s\n", md.Instructor)
	fmt.Fprintf(&b, "Class Size: %d seats\n", md.SeatLimit)
	if md.Department != "" {
		fmt.Fprintf(&b, "Department: %s\n", md.Department)
	}
	if md.Units != "" {
		fmt.Fprintf(&b, "Units: %s\n", md.Units)
	}
	if md.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", md.Description)
	}
	if md.Prerequisites != "" {
		fmt.Fprintf(&b, "Prerequisites: %s\n", md.Prerequisites)
	}
	return strings.TrimSpace(b.String())
}

// Hash fingerprints a document for the given embedding model.
func (d Document) Hash(model string) string {
	raw, _ := json.Marshal(d.Metadata.Map())
	sum := sha256.New()
	sum.Write([]byte(model))
	sum.Write([]byte{0})
	sum.Write([]byte(d.Content))
	sum.Write([]byte{0})
	sum.Write(raw)
	return hex.EncodeToString(sum.Sum(nil))
}

// Record pairs the document with its vector.
func (d Document) Record(values []float32) vectorindex.Record {
	return vectorindex.Record{ID: d.ID, Values: values, Content: d.Content, Metadata: d.Metadata}
}
