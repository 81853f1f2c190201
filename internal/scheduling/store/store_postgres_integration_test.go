//go:build integration

package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"campus/internal/platform/lock"
	"campus/internal/scheduling/models"
	"campus/internal/scheduling/schedule"
	"campus/internal/scheduling/service"
	"campus/internal/scheduling/store"
	id "campus/pkg/domain"
	dErrors "campus/pkg/domain-errors"
	"campus/pkg/platform/sentinel"
	"campus/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx, "schedule_sessions", "schedules")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	record := newRecord("2024-2025", id.TermFall, now)
	instructor := id.NewInstructorID()
	record.Sessions[0].InstructorID = &instructor

	version, err := s.store.Create(ctx, record)
	s.Require().NoError(err)
	s.Equal(int64(1), version)

	loaded, err := s.store.FindByID(ctx, record.ID)
	s.Require().NoError(err)
	s.Equal(record.AcademicYear, loaded.AcademicYear)
	s.Equal(models.ScheduleStatusDraft, loaded.Status)
	s.Require().Len(loaded.Sessions, 1)
	s.Equal(record.Sessions[0].ID, loaded.Sessions[0].ID)
	s.Require().NotNil(loaded.Sessions[0].InstructorID)
	s.Equal(instructor, *loaded.Sessions[0].InstructorID)
	s.Equal(540, loaded.Sessions[0].StartMinute)

	_, err = s.store.Create(ctx, record)
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestUpdateIsVersioned() {
	ctx := context.Background()
	now := time.Now().UTC()
	record := newRecord("2024-2025", id.TermFall, now)
	version, err := s.store.Create(ctx, record)
	s.Require().NoError(err)

	record.Version = version
	deletedAt := now.Add(time.Minute)
	record.Sessions[0].DeletedAt = &deletedAt
	next, err := s.store.Update(ctx, record)
	s.Require().NoError(err)
	s.Equal(int64(2), next)

	loaded, err := s.store.FindByID(ctx, record.ID)
	s.Require().NoError(err)
	s.Require().Len(loaded.Sessions, 1)
	s.NotNil(loaded.Sessions[0].DeletedAt)

	_, err = s.store.Update(ctx, record)
	s.ErrorIs(err, sentinel.ErrStale)

	_, err = s.store.Update(ctx, newRecord("2024-2025", id.TermFall, now))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListByTerm() {
	ctx := context.Background()
	base := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	earlier := newRecord("2024-2025", id.TermFall, base)
	later := newRecord("2024-2025", id.TermFall, base.Add(time.Hour))
	spring := newRecord("2024-2025", id.TermSpring, base)
	for _, r := range []models.ScheduleRecord{later, earlier, spring} {
		_, err := s.store.Create(ctx, r)
		s.Require().NoError(err)
	}

	list, err := s.store.ListByTerm(ctx, "2024-2025", id.TermFall)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(earlier.ID, list[0].ID)
	s.Equal(later.ID, list[1].ID)
	s.Len(list[0].Sessions, 1)
}

// TestSeparateProcessesCannotDoubleBook runs two services that share only the
// database, as two replicas would without a distributed lock. The version
// check forces the loser to reload and see the winner's session.
func (s *PostgresStoreSuite) TestSeparateProcessesCannotDoubleBook() {
	ctx := context.Background()
	replicas := []*service.Service{
		service.New(s.store, service.WithLocker(lock.NewSharded(0))),
		service.New(s.store, service.WithLocker(lock.NewSharded(0))),
	}
	sched, err := replicas[0].CreateSchedule(ctx, service.CreateScheduleCommand{AcademicYear: "2024-2025", Term: id.TermFall})
	s.Require().NoError(err)

	room := id.NewClassroomID()
	interval, err := schedule.ParseTimeInterval("09:00", "10:00")
	s.Require().NoError(err)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := replicas[i%2].AddSession(ctx, sched.ID(), schedule.SessionSpec{
				CourseID:    id.NewCourseID(),
				ClassroomID: room,
				DayOfWeek:   time.Monday,
				Interval:    interval,
				SessionType: models.SessionTypeLecture,
			})
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		s.True(dErrors.HasCode(err, dErrors.CodeSchedulingConflict) || dErrors.HasCode(err, dErrors.CodeConflict), err.Error())
	}
	s.Equal(1, succeeded)

	stored, err := s.store.FindByID(ctx, sched.ID())
	s.Require().NoError(err)
	s.Len(stored.Sessions, 1)
}
