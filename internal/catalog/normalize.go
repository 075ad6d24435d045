package catalog

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/sitin/internal/logging"
)

// excludedBuilding marks remote/recorded sections with no physical room.
const excludedBuilding = "RCLAS"

// Normalize joins lecture sections with their courses:
//
//   - only Lecture sections outside RCLAS are kept
//   - sections without a resolvable course link are logged and skipped
//   - courses whose name mentions "lab" are dropped
//   - a zero seat limit falls back to the sum over the course's discussions
//   - duplicates of (code, professor, building, room, time) keep the first
func Normalize(ctx context.Context, sections []Section, courses []Course, logger *logging.Logger) []ClassItem {
	if logger == nil {
		logger = logging.NewNop()
	}

	byID := make(map[string]Course, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}

	items := make([]ClassItem, 0, len(sections))
	seen := make(map[string]struct{}, len(sections))
	var missingLink, missingCourse int

	for _, s := range sections {
		if s.MeetingType != MeetingLecture || strings.Contains(s.Building, excludedBuilding) {
			continue
		}
		if s.CourseLink == "" {
			missingLink++
			logger.Debug(ctx, "section missing course link", zap.String("section.id", s.ID))
			continue
		}
		course, ok := byID[s.CourseLink]
		if !ok {
			missingCourse++
			logger.Debug(ctx, "course not found for link",
				zap.String("section.id", s.ID),
				zap.String("course.link", s.CourseLink),
			)
			continue
		}
		if strings.Contains(strings.ToLower(course.Name), "lab") {
			continue
		}

		capacity := s.SeatLimit
		if capacity == 0 {
			capacity = discussionSeats(sections, s.SubjectCode, s.CourseLink)
		}

		item := ClassItem{
			ID:          s.ID,
			CourseID:    course.ID,
			CourseCode:  s.SubjectCode + " " + course.CourseNumber,
			CourseName:  course.Name,
			Professor:   s.Instructor,
			Building:    s.Building,
			Room:        s.Room,
			Capacity:    capacity,
			Time:        s.Time,
			Days:        s.Days,
			MeetingType: s.MeetingType,
			Department:  course.Department,
			Units:       course.Units,
		}
		key := item.dedupeKey()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		items = append(items, item)
	}

	if missingLink+missingCourse > 0 {
		logger.Info(ctx, "skipped sections with unresolved courses",
			zap.Int("missing_link", missingLink),
			zap.Int("missing_course", missingCourse),
		)
	}
	return items
}

func discussionSeats(sections []Section, subject, link string) int {
	total := 0
	for _, s := range sections {
		if s.MeetingType == MeetingDiscussion && s.SubjectCode == subject && s.CourseLink == link {
			total += s.SeatLimit
		}
	}
	return total
}
