// Package catalog joins raw section and course records into lecture items
// and classifies them as live, upcoming or merely scheduled.
package catalog

// Meeting types as stored in the sections table.
const (
	MeetingLecture    = "Lecture"
	MeetingDiscussion = "Discussion"
)

// Section is one row of the sections table.
type Section struct {
	ID          string
	SubjectCode string
	// CourseLink is the linked course record ID. The store may return a
	// list of links; only the first is kept.
	CourseLink     string
	MeetingType    string
	Building       string
	Room           string
	Instructor     string
	Time           string
	Days           string
	SeatLimit      int
	AvailableSeats int
}

// Course is one row of the courses table.
type Course struct {
	ID           string
	CourseNumber string
	SubjectCode  string
	Name         string
	Units        string
	Department   string
	SectionIDs   []string
}

// Description is one row of the optional course descriptions table, keyed
// by course code ("CSE 110").
type Description struct {
	CourseCode    string
	Title         string
	Description   string
	Prerequisites string
	Department    string
	Units         string
}

// ClassItem is a lecture section joined with its course.
type ClassItem struct {
	ID          string `json:"id"`
	CourseID    string `json:"courseId"`
	CourseCode  string `json:"courseCode"`
	CourseName  string `json:"courseName"`
	Professor   string `json:"professor"`
	Building    string `json:"building"`
	Room        string `json:"room"`
	Capacity    int    `json:"capacity"`
	Time        string `json:"time"`
	Days        string `json:"days"`
	MeetingType string `json:"meetingType"`
	Department  string `json:"department,omitempty"`
	Units       string `json:"units,omitempty"`
}

// dedupeKey identifies the same lecture listed more than once.
func (c ClassItem) dedupeKey() string {
	return c.CourseCode + "\x00" + c.Professor + "\x00" + c.Building + "\x00" + c.Room + "\x00" + c.Time
}
