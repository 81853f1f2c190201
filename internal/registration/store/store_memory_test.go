package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"campus/internal/registration/models"
	"campus/internal/registration/store"
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

func newRecord(studentID id.StudentID, createdAt time.Time) models.RegistrationRecord {
	registrationID := id.NewRegistrationID()
	return models.RegistrationRecord{
		ID:           registrationID,
		StudentID:    studentID,
		AcademicYear: "2024-2025",
		Term:         id.TermFall,
		Status:       models.RegistrationStatusDraft,
		TotalCredits: 6,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
		Enrollments: []models.EnrollmentRecord{{
			ID:             id.NewEnrollmentID(),
			RegistrationID: registrationID,
			CourseID:       id.NewCourseID(),
			Credits:        6,
			NationalCredit: 4,
			Status:         models.EnrollmentStatusActive,
			RegisteredAt:   createdAt,
			Attendance: []models.AttendanceRecord{
				{Date: createdAt, Status: models.AttendanceStatusPresent},
			},
		}},
	}
}

func (s *InMemoryStoreSuite) TestCreateAndUpdate() {
	record := newRecord(id.NewStudentID(), time.Now())
	version, err := s.store.Create(s.ctx, record)
	s.Require().NoError(err)
	s.Equal(int64(1), version)

	_, err = s.store.Create(s.ctx, record)
	s.ErrorIs(err, sentinel.ErrConflict)

	record.Version = version
	record.Enrollments = nil
	record.TotalCredits = 0
	next, err := s.store.Update(s.ctx, record)
	s.Require().NoError(err)
	s.Equal(int64(2), next)

	loaded, err := s.store.FindByID(s.ctx, record.ID)
	s.Require().NoError(err)
	s.Empty(loaded.Enrollments)

	_, err = s.store.Update(s.ctx, record)
	s.ErrorIs(err, sentinel.ErrStale)

	_, err = s.store.Update(s.ctx, newRecord(id.NewStudentID(), time.Now()))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestFindByIDReturnsDeepCopies() {
	record := newRecord(id.NewStudentID(), time.Now())
	_, err := s.store.Create(s.ctx, record)
	s.Require().NoError(err)

	loaded, err := s.store.FindByID(s.ctx, record.ID)
	s.Require().NoError(err)
	loaded.Enrollments[0].Attendance[0].Status = models.AttendanceStatusAbsent

	again, err := s.store.FindByID(s.ctx, record.ID)
	s.Require().NoError(err)
	s.Equal(models.AttendanceStatusPresent, again.Enrollments[0].Attendance[0].Status)

	_, err = s.store.FindByID(s.ctx, id.NewRegistrationID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestListByStudent() {
	student := id.NewStudentID()
	base := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	later := newRecord(student, base.Add(time.Hour))
	earlier := newRecord(student, base)
	other := newRecord(id.NewStudentID(), base)
	deleted := newRecord(student, base)
	deletedAt := base
	deleted.DeletedAt = &deletedAt

	for _, r := range []models.RegistrationRecord{later, earlier, other, deleted} {
		_, err := s.store.Create(s.ctx, r)
		s.Require().NoError(err)
	}

	list, err := s.store.ListByStudent(s.ctx, student)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(earlier.ID, list[0].ID)
	s.Equal(later.ID, list[1].ID)
}
