package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"campus/internal/scheduling/models"
	"campus/internal/scheduling/store"
	id "campus/pkg/domain"
	"campus/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *store.InMemoryStore
	ctx   context.Context
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = store.NewInMemoryStore()
	s.ctx = context.Background()
}

func newRecord(year id.AcademicYear, term id.Term, createdAt time.Time) models.ScheduleRecord {
	scheduleID := id.NewScheduleID()
	return models.ScheduleRecord{
		ID:           scheduleID,
		AcademicYear: year,
		Term:         term,
		Status:       models.ScheduleStatusDraft,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
		Sessions: []models.SessionRecord{{
			ID:          id.NewSessionID(),
			ScheduleID:  scheduleID,
			CourseID:    id.NewCourseID(),
			ClassroomID: id.NewClassroomID(),
			DayOfWeek:   time.Monday,
			StartMinute: 540,
			EndMinute:   600,
			SessionType: models.SessionTypeLecture,
			CreatedAt:   createdAt,
		}},
	}
}

func (s *InMemoryStoreSuite) TestCreateAssignsFirstVersion() {
	record := newRecord("2024-2025", id.TermFall, time.Now())
	version, err := s.store.Create(s.ctx, record)
	s.Require().NoError(err)
	s.Equal(int64(1), version)

	_, err = s.store.Create(s.ctx, record)
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *InMemoryStoreSuite) TestUpdateChecksVersion() {
	record := newRecord("2024-2025", id.TermFall, time.Now())
	version, err := s.store.Create(s.ctx, record)
	s.Require().NoError(err)

	record.Version = version
	record.Status = models.ScheduleStatusPublished
	next, err := s.store.Update(s.ctx, record)
	s.Require().NoError(err)
	s.Equal(int64(2), next)

	// a writer still holding version 1 lost the race
	_, err = s.store.Update(s.ctx, record)
	s.ErrorIs(err, sentinel.ErrStale)

	_, err = s.store.Update(s.ctx, newRecord("2024-2025", id.TermFall, time.Now()))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestFindByIDReturnsCopies() {
	record := newRecord("2024-2025", id.TermFall, time.Now())
	_, err := s.store.Create(s.ctx, record)
	s.Require().NoError(err)

	loaded, err := s.store.FindByID(s.ctx, record.ID)
	s.Require().NoError(err)
	loaded.Sessions[0].StartMinute = 0

	again, err := s.store.FindByID(s.ctx, record.ID)
	s.Require().NoError(err)
	s.Equal(540, again.Sessions[0].StartMinute)

	_, err = s.store.FindByID(s.ctx, id.NewScheduleID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestListByTermSkipsDeletedAndOtherTerms() {
	base := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	later := newRecord("2024-2025", id.TermFall, base.Add(time.Hour))
	earlier := newRecord("2024-2025", id.TermFall, base)
	spring := newRecord("2024-2025", id.TermSpring, base)
	deleted := newRecord("2024-2025", id.TermFall, base)
	deletedAt := base.Add(2 * time.Hour)
	deleted.DeletedAt = &deletedAt

	for _, r := range []models.ScheduleRecord{later, earlier, spring, deleted} {
		_, err := s.store.Create(s.ctx, r)
		s.Require().NoError(err)
	}

	list, err := s.store.ListByTerm(s.ctx, "2024-2025", id.TermFall)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(earlier.ID, list[0].ID)
	s.Equal(later.ID, list[1].ID)
}
