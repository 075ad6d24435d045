package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/sitin/internal/logging"
)

// Source fetches raw records from the tabular store.
type Source interface {
	Sections(ctx context.Context) ([]Section, error)
	Courses(ctx context.Context) ([]Course, error)
	// Descriptions may return nil when no descriptions table is configured.
	Descriptions(ctx context.Context) ([]Description, error)
}

// Snapshot is one successful fetch.
type Snapshot struct {
	Items        []ClassItem
	Descriptions map[string]Description
	RefreshedAt  time.Time
}

// Store holds the latest snapshot. Reads never block a refresh.
type Store struct {
	source Source
	logger *logging.Logger
	now    func() time.Time

	snap atomic.Pointer[Snapshot]
}

// NewStore creates an empty store.
func NewStore(source Source, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Store{source: source, logger: logger, now: time.Now}
	s.snap.Store(&Snapshot{Descriptions: map[string]Description{}})
	return s
}

// Refresh fetches and normalizes all records. On failure the previous
// snapshot stays in place and the error is returned.
func (s *Store) Refresh(ctx context.Context) error {
	start := s.now()
	sections, err := s.source.Sections(ctx)
	if err != nil {
		RefreshTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("fetching sections: %w", err)
	}
	courses, err := s.source.Courses(ctx)
	if err != nil {
		RefreshTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("fetching courses: %w", err)
	}

	descriptions := make(map[string]Description)
	descs, err := s.source.Descriptions(ctx)
	if err != nil {
		s.logger.Warn(ctx, "descriptions unavailable, continuing without them", zap.Error(err))
	}
	for _, d := range descs {
		descriptions[strings.ToUpper(d.CourseCode)] = d
	}

	items := Normalize(ctx, sections, courses, s.logger)
	for _, bad := range Unclassifiable(items) {
		s.logger.Warn(ctx, "unparseable lecture time, excluded from live and upcoming",
			zap.String("section.id", bad.ID),
			zap.String("course", bad.CourseCode),
			zap.String("time", bad.Time),
		)
	}

	s.snap.Store(&Snapshot{Items: items, Descriptions: descriptions, RefreshedAt: s.now()})
	RefreshTotal.WithLabelValues("success").Inc()
	RefreshDuration.Observe(s.now().Sub(start).Seconds())
	Records.Set(float64(len(items)))

	s.logger.Info(ctx, "catalog refreshed",
		zap.Int("sections", len(sections)),
		zap.Int("courses", len(courses)),
		zap.Int("lectures", len(items)),
		zap.Int("descriptions", len(descriptions)),
	)
	return nil
}

// Snapshot returns the current snapshot. Callers must not mutate it.
func (s *Store) Snapshot() *Snapshot {
	return s.snap.Load()
}

// Items returns the current lecture items.
func (s *Store) Items() []ClassItem {
	return s.snap.Load().Items
}

// RefreshedAt is the time of the last successful refresh, zero if none.
func (s *Store) RefreshedAt() time.Time {
	return s.snap.Load().RefreshedAt
}

// Description looks up a course description by code, case-insensitively.
func (s *Store) Description(code string) (Description, bool) {
	d, ok := s.snap.Load().Descriptions[strings.ToUpper(code)]
	return d, ok
}

// Reclassify updates the live and upcoming gauges against now without
// refetching.
func (s *Store) Reclassify(now time.Time, window time.Duration) (live, upcoming int) {
	items := s.Items()
	live = len(Live(items, now))
	upcoming = len(Upcoming(items, window, now))
	LiveLectures.Set(float64(live))
	UpcomingLectures.Set(float64(upcoming))
	return live, upcoming
}
