package vectorindex

import "slices"

// Filter restricts a query to documents whose metadata satisfies every set
// clause. Nil pointers and empty strings leave a clause out.
type Filter struct {
	// Day keeps documents whose expandedDays contains this weekday name.
	Day string
	// TimeOfDay keeps documents in this morning/afternoon/evening bucket.
	TimeOfDay string
	// EndBefore keeps documents with timeEnd <= this minute of day.
	EndBefore *int
	// StartAfter keeps documents with timeStart >= this minute of day.
	StartAfter *int
	// MinSeats keeps documents with seatLimit >= this value.
	MinSeats *int
	// MaxSeats keeps documents with seatLimit <= this value.
	MaxSeats *int
}

// IsEmpty reports whether no clause is set.
func (f Filter) IsEmpty() bool {
	return f.Day == "" && f.TimeOfDay == "" &&
		f.EndBefore == nil && f.StartAfter == nil &&
		f.MinSeats == nil && f.MaxSeats == nil
}

// Matches evaluates the filter against metadata in process.
func (f Filter) Matches(m Metadata) bool {
	if f.Day != "" && !slices.Contains(m.ExpandedDays, f.Day) {
		return false
	}
	if f.TimeOfDay != "" && m.TimeOfDay != f.TimeOfDay {
		return false
	}
	if f.EndBefore != nil && m.TimeEnd > *f.EndBefore {
		return false
	}
	if f.StartAfter != nil && m.TimeStart < *f.StartAfter {
		return false
	}
	if f.MinSeats != nil && m.SeatLimit < *f.MinSeats {
		return false
	}
	if f.MaxSeats != nil && m.SeatLimit > *f.MaxSeats {
		return false
	}
	return true
}

// Document renders the filter in the Mongo-style operator form used by
// Pinecone: {"timeEnd": {"$lte": 840}, ...}. Returns nil when empty.
func (f Filter) Document() map[string]any {
	if f.IsEmpty() {
		return nil
	}
	doc := make(map[string]any, 6)
	if f.Day != "" {
		doc[KeyExpandedDays] = map[string]any{"$in": []string{f.Day}}
	}
	if f.TimeOfDay != "" {
		doc[KeyTimeOfDay] = map[string]any{"$eq": f.TimeOfDay}
	}
	if f.EndBefore != nil {
		doc[KeyTimeEnd] = map[string]any{"$lte": *f.EndBefore}
	}
	if f.StartAfter != nil {
		doc[KeyTimeStart] = map[string]any{"$gte": *f.StartAfter}
	}
	switch {
	case f.MinSeats != nil && f.MaxSeats != nil:
		doc[KeySeatLimit] = map[string]any{"$gte": *f.MinSeats, "$lte": *f.MaxSeats}
	case f.MinSeats != nil:
		doc[KeySeatLimit] = map[string]any{"$gte": *f.MinSeats}
	case f.MaxSeats != nil:
		doc[KeySeatLimit] = map[string]any{"$lte": *f.MaxSeats}
	}
	return doc
}
