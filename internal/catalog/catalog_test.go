package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/sitin/internal/logging"
	"github.com/fyrsmithlabs/sitin/internal/schedule"
)

var courses = []Course{
	{ID: "recCSE110", CourseNumber: "110", SubjectCode: "CSE", Name: "Software Engineering"},
	{ID: "recCSE120", CourseNumber: "120", SubjectCode: "CSE", Name: "Principles of Computer Operating Systems", Department: "CSE", Units: "4"},
	{ID: "recBILD1L", CourseNumber: "1L", SubjectCode: "BILD", Name: "Biology Laboratory"},
	{ID: "recMATH20", CourseNumber: "20A", SubjectCode: "MATH", Name: "Calculus for Science and Engineering"},
}

func lecture(id, link, subject, time, days string, seats int) Section {
	return Section{
		ID: id, SubjectCode: subject, CourseLink: link, MeetingType: MeetingLecture,
		Building: "CENTR", Room: "115", Instructor: "Staff", Time: time, Days: days, SeatLimit: seats,
	}
}

func TestNormalize_SeatFallbackSumsDiscussions(t *testing.T) {
	sections := []Section{
		lecture("l1", "recCSE120", "CSE", "6:00p-7:20p", "TuTh", 0),
		{ID: "d1", SubjectCode: "CSE", CourseLink: "recCSE120", MeetingType: MeetingDiscussion, SeatLimit: 15},
		{ID: "d2", SubjectCode: "CSE", CourseLink: "recCSE120", MeetingType: MeetingDiscussion, SeatLimit: 20},
		{ID: "d3", SubjectCode: "MATH", CourseLink: "recCSE120", MeetingType: MeetingDiscussion, SeatLimit: 99},
	}

	items := Normalize(context.Background(), sections, courses, nil)
	require.Len(t, items, 1)
	assert.Equal(t, 35, items[0].Capacity)
	assert.Equal(t, "CSE 120", items[0].CourseCode)
	assert.Equal(t, "recCSE120", items[0].CourseID)
	assert.Equal(t, "CSE", items[0].Department)
	assert.Equal(t, "4", items[0].Units)
}

func TestNormalize_Filters(t *testing.T) {
	log := logging.NewTestLogger()

	remote := lecture("rclas", "recCSE110", "CSE", "9:00a-9:50a", "MWF", 100)
	remote.Building = "RCLAS"
	noLink := lecture("nolink", "", "CSE", "9:00a-9:50a", "MWF", 100)
	dangling := lecture("dangling", "recGONE", "CSE", "9:00a-9:50a", "MWF", 100)
	lab := lecture("lab", "recBILD1L", "BILD", "2:00p-4:50p", "Tu", 24)
	seminar := lecture("sem", "recCSE110", "CSE", "9:00a-9:50a", "MWF", 200)
	seminar.MeetingType = "Seminar"
	keep := lecture("keep", "recCSE110", "CSE", "9:00a-9:50a", "MWF", 200)

	items := Normalize(context.Background(), []Section{remote, noLink, dangling, lab, seminar, keep}, courses, log.Logger)
	require.Len(t, items, 1)
	assert.Equal(t, "keep", items[0].ID)

	log.AssertLogged(t, zapcore.DebugLevel, "section missing course link")
	log.AssertLogged(t, zapcore.DebugLevel, "course not found for link")
	log.AssertField(t, "skipped sections with unresolved courses", "missing_course", int64(1))
}

func TestNormalize_DedupeKeepsFirst(t *testing.T) {
	first := lecture("a", "recCSE110", "CSE", "9:00a-9:50a", "MWF", 200)
	second := lecture("b", "recCSE110", "CSE", "9:00a-9:50a", "MWF", 200)
	other := lecture("c", "recCSE110", "CSE", "11:00a-11:50a", "MWF", 200)

	items := Normalize(context.Background(), []Section{first, second, other}, courses, nil)
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].ID)
	assert.Equal(t, "c", items[1].ID)
}

// 2025-01-08 is a Wednesday.
func wednesdayAt(hour, minute int) time.Time {
	return time.Date(2025, time.January, 8, hour, minute, 0, 0, schedule.Pacific)
}

func items() []ClassItem {
	return []ClassItem{
		{ID: "short", CourseCode: "cse 110", Time: "6:00p-6:50p", Days: "MWF"},
		{ID: "long", CourseCode: "CSE 120", Time: "6:00p-7:20p", Days: "MWF"},
		{ID: "tuth", CourseCode: "MATH 20A", Time: "6:00p-7:20p", Days: "TuTh"},
		{ID: "soon", CourseCode: "CSE 100", Time: "7:00p-7:50p", Days: "MWF"},
		{ID: "later", CourseCode: "CSE 101", Time: "8:00p-8:50p", Days: "W"},
		{ID: "far", CourseCode: "CSE 105", Time: "9:00p-9:50p", Days: "W"},
		{ID: "bad", CourseCode: "CSE 110", Time: "TBA", Days: "MWF"},
	}
}

func TestLive(t *testing.T) {
	live := Live(items(), wednesdayAt(18, 30))
	require.Len(t, live, 2)
	assert.Equal(t, "long", live[0].ID)
	assert.Equal(t, 50, live[0].Remaining)
	assert.Equal(t, 30, live[0].Elapsed)
	assert.Equal(t, "short", live[1].ID)
	assert.InDelta(t, 30.0/80.0, live[0].Progress(), 1e-9)
}

func TestUpcoming(t *testing.T) {
	up := Upcoming(items(), 2*time.Hour, wednesdayAt(18, 30))
	require.Len(t, up, 2)
	assert.Equal(t, "soon", up[0].ID)
	assert.Equal(t, 30, up[0].Until)
	assert.Equal(t, "later", up[1].ID)
}

func TestUpcoming_OnlyStartMustParse(t *testing.T) {
	list := []ClassItem{
		{ID: "no-end", CourseCode: "CSE 11", Time: "7:30p-bogus", Days: "W"},
		{ID: "open", CourseCode: "CSE 12", Time: "7:45p", Days: "W"},
		{ID: "bad-start", CourseCode: "CSE 15L", Time: "bogus-8:00p", Days: "W"},
	}
	now := wednesdayAt(18, 30)

	up := Upcoming(list, 2*time.Hour, now)
	require.Len(t, up, 2)
	assert.Equal(t, "no-end", up[0].ID)
	assert.Equal(t, 60, up[0].Until)
	assert.True(t, up[0].End.IsZero())
	assert.Zero(t, up[0].Progress())
	assert.Equal(t, "open", up[1].ID)

	assert.Empty(t, Live(list, wednesdayAt(19, 40)), "live still needs both ends")
}

func TestCatalog(t *testing.T) {
	all := Catalog(items())
	codes := make([]string, len(all))
	for i, it := range all {
		codes[i] = it.ID
	}
	assert.Equal(t, []string{"soon", "later", "far", "short", "bad", "long", "tuth"}, codes)
}

func TestUnclassifiable(t *testing.T) {
	bad := Unclassifiable(items())
	require.Len(t, bad, 1)
	assert.Equal(t, "bad", bad[0].ID)
}

type fakeSource struct {
	sections []Section
	err      error
	descErr  error
}

func (f *fakeSource) Sections(context.Context) ([]Section, error) { return f.sections, f.err }
func (f *fakeSource) Courses(context.Context) ([]Course, error)   { return courses, nil }
func (f *fakeSource) Descriptions(context.Context) ([]Description, error) {
	if f.descErr != nil {
		return nil, f.descErr
	}
	return []Description{{CourseCode: "CSE 110", Prerequisites: "CSE 12"}}, nil
}

func TestStore_RefreshKeepsSnapshotOnFailure(t *testing.T) {
	src := &fakeSource{sections: []Section{lecture("keep", "recCSE110", "CSE", "9:00a-9:50a", "MWF", 200)}}
	log := logging.NewTestLogger()
	store := NewStore(src, log.Logger)

	assert.Empty(t, store.Items())
	assert.True(t, store.RefreshedAt().IsZero())

	require.NoError(t, store.Refresh(context.Background()))
	require.Len(t, store.Items(), 1)
	refreshed := store.RefreshedAt()
	assert.False(t, refreshed.IsZero())

	d, ok := store.Description("cse 110")
	require.True(t, ok)
	assert.Equal(t, "CSE 12", d.Prerequisites)

	src.err = errors.New("airtable down")
	err := store.Refresh(context.Background())
	require.Error(t, err)
	assert.Len(t, store.Items(), 1)
	assert.Equal(t, refreshed, store.RefreshedAt())
}

func TestStore_DescriptionsAreOptional(t *testing.T) {
	src := &fakeSource{
		sections: []Section{lecture("x", "recCSE110", "CSE", "TBA", "MWF", 200)},
		descErr:  errors.New("table not found"),
	}
	log := logging.NewTestLogger()
	store := NewStore(src, log.Logger)

	require.NoError(t, store.Refresh(context.Background()))
	log.AssertLogged(t, zapcore.WarnLevel, "descriptions unavailable")
	log.AssertLogged(t, zapcore.WarnLevel, "unparseable lecture time")
	assert.Equal(t, 1.0, testutil.ToFloat64(Records))
}

func TestStore_Reclassify(t *testing.T) {
	store := NewStore(&fakeSource{sections: []Section{
		lecture("a", "recCSE110", "CSE", "6:00p-7:20p", "MWF", 200),
		lecture("b", "recCSE120", "CSE", "7:00p-7:50p", "MWF", 200),
	}}, nil)
	require.NoError(t, store.Refresh(context.Background()))

	live, upcoming := store.Reclassify(wednesdayAt(18, 30), 2*time.Hour)
	assert.Equal(t, 1, live)
	assert.Equal(t, 1, upcoming)
	assert.Equal(t, 1.0, testutil.ToFloat64(LiveLectures))
}
