// Package vectorindex stores course documents as vectors and answers
// filtered nearest-neighbor queries against them.
//
// Three backends implement Index: a Pinecone data plane client (the
// production index), Qdrant over gRPC, and an embedded chromem database for
// local development.
package vectorindex

import (
	"context"
	"errors"
	"strconv"
	"strings"
)

var (
	// ErrInvalidConfig is returned when a backend is misconfigured.
	ErrInvalidConfig = errors.New("invalid vector index config")

	// ErrEmptyInput is returned for empty vectors or record batches.
	ErrEmptyInput = errors.New("empty input")

	// ErrNotFound is returned when the index or collection does not exist.
	ErrNotFound = errors.New("index not found")
)

// Index is a vector index of course documents.
type Index interface {
	// Query returns up to k matches nearest to vector that satisfy f,
	// ordered by descending score, with metadata populated.
	Query(ctx context.Context, vector []float32, k int, f Filter) ([]Match, error)

	// Upsert inserts or replaces records by ID.
	Upsert(ctx context.Context, records []Record) error

	// Close releases backend resources.
	Close() error
}

// Match is a single query result.
type Match struct {
	ID       string
	Score    float32
	Metadata Metadata
}

// Record is a document ready for upsert.
type Record struct {
	ID       string
	Values   []float32
	Content  string
	Metadata Metadata
}

// Metadata is the per-course payload stored with each vector. Field names in
// the map form are the keys used by filters.
type Metadata struct {
	Code          string
	Title         string
	Days          string
	ExpandedDays  []string
	Time          string
	TimeStart     int
	TimeEnd       int
	TimeOfDay     string
	Building      string
	Room          string
	Instructor    string
	SeatLimit     int
	Description   string
	Prerequisites string
	Department    string
	Units         string
}

// Metadata keys.
const (
	KeyCode          = "code"
	KeyTitle         = "title"
	KeyDays          = "days"
	KeyExpandedDays  = "expandedDays"
	KeyTime          = "time"
	KeyTimeStart     = "timeStart"
	KeyTimeEnd       = "timeEnd"
	KeyTimeOfDay     = "timeOfDay"
	KeyBuilding      = "building"
	KeyRoom          = "room"
	KeyInstructor    = "instructor"
	KeySeatLimit     = "seatLimit"
	KeyDescription   = "description"
	KeyPrerequisites = "prerequisites"
	KeyDepartment    = "department"
	KeyUnits         = "units"
)

// Map returns the metadata keyed by its index field names.
func (m Metadata) Map() map[string]any {
	days := m.ExpandedDays
	if days == nil {
		days = []string{}
	}
	return map[string]any{
		KeyCode:          m.Code,
		KeyTitle:         m.Title,
		KeyDays:          m.Days,
		KeyExpandedDays:  days,
		KeyTime:          m.Time,
		KeyTimeStart:     m.TimeStart,
		KeyTimeEnd:       m.TimeEnd,
		KeyTimeOfDay:     m.TimeOfDay,
		KeyBuilding:      m.Building,
		KeyRoom:          m.Room,
		KeyInstructor:    m.Instructor,
		KeySeatLimit:     m.SeatLimit,
		KeyDescription:   m.Description,
		KeyPrerequisites: m.Prerequisites,
		KeyDepartment:    m.Department,
		KeyUnits:         m.Units,
	}
}

// MetadataFromMap reads metadata decoded from any backend. Numbers may
// arrive as float64 (JSON), int64 (gRPC) or strings (chromem); lists as
// []any, []string or a comma-joined string.
func MetadataFromMap(raw map[string]any) Metadata {
	return Metadata{
		Code:          asString(raw[KeyCode]),
		Title:         asString(raw[KeyTitle]),
		Days:          asString(raw[KeyDays]),
		ExpandedDays:  asStrings(raw[KeyExpandedDays]),
		Time:          asString(raw[KeyTime]),
		TimeStart:     asInt(raw[KeyTimeStart]),
		TimeEnd:       asInt(raw[KeyTimeEnd]),
		TimeOfDay:     asString(raw[KeyTimeOfDay]),
		Building:      asString(raw[KeyBuilding]),
		Room:          asString(raw[KeyRoom]),
		Instructor:    asString(raw[KeyInstructor]),
		SeatLimit:     asInt(raw[KeySeatLimit]),
		Description:   asString(raw[KeyDescription]),
		Prerequisites: asString(raw[KeyPrerequisites]),
		Department:    asString(raw[KeyDepartment]),
		Units:         asString(raw[KeyUnits]),
	}
}

func asString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return ""
	}
}

func asInt(v any) int {
	switch val := v.(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		return int(val)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return int(f)
		}
	}
	return 0
}

func asStrings(v any) []string {
	switch val := v.(type) {
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if val == "" {
			return nil
		}
		parts := strings.Split(val, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	default:
		return nil
	}
}
