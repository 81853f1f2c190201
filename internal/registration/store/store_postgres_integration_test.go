//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"campus/internal/registration/models"
	"campus/internal/registration/store"
	id "campus/pkg/domain"
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
	err := s.postgres.TruncateTables(ctx, "enrollment_grades", "enrollment_attendance", "course_enrollments", "term_registrations")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) TestRoundTripWithGradesAndAttendance() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	record := newRecord(id.NewStudentID(), now)
	record.Enrollments[0].Attendance = nil

	_, err := s.store.Create(ctx, record)
	s.Require().NoError(err)

	enrollmentID := uuid.UUID(record.Enrollments[0].ID)
	_, err = s.postgres.Exec(ctx, `
		INSERT INTO enrollment_grades (enrollment_id, kind, score, grade_point, recorded_at)
		VALUES ($1, 'midterm', 71.5, 2.5, $2), ($1, 'final', 88, 3.5, $3)
	`, enrollmentID, now, now.Add(time.Hour))
	s.Require().NoError(err)
	_, err = s.postgres.Exec(ctx, `
		INSERT INTO enrollment_attendance (enrollment_id, session_date, status)
		VALUES ($1, '2024-09-02', 'present'), ($1, '2024-09-09', 'absent')
	`, enrollmentID)
	s.Require().NoError(err)

	loaded, err := s.store.FindByID(ctx, record.ID)
	s.Require().NoError(err)
	s.Equal(record.StudentID, loaded.StudentID)
	s.Equal(6, loaded.TotalCredits)
	s.Require().Len(loaded.Enrollments, 1)
	e := loaded.Enrollments[0]
	s.Equal(4, e.NationalCredit)
	s.Nil(e.GradePoint)
	s.Require().Len(e.Grades, 2)
	s.Equal(models.GradeKindFinal, e.Grades[1].Kind)
	s.InDelta(3.5, e.Grades[1].GradePoint, 0.001)
	s.Require().Len(e.Attendance, 2)
	s.Equal(models.AttendanceStatusAbsent, e.Attendance[1].Status)
}

func (s *PostgresStoreSuite) TestUpdateSyncsEnrollments() {
	ctx := context.Background()
	now := time.Now().UTC()
	record := newRecord(id.NewStudentID(), now)
	version, err := s.store.Create(ctx, record)
	s.Require().NoError(err)

	removed := record.Enrollments[0]
	added := models.EnrollmentRecord{
		ID:             id.NewEnrollmentID(),
		RegistrationID: record.ID,
		CourseID:       id.NewCourseID(),
		Credits:        3,
		Status:         models.EnrollmentStatusActive,
		RegisteredAt:   now,
	}
	record.Version = version
	record.Enrollments = []models.EnrollmentRecord{added}
	record.TotalCredits = 3
	next, err := s.store.Update(ctx, record)
	s.Require().NoError(err)
	s.Equal(int64(2), next)

	loaded, err := s.store.FindByID(ctx, record.ID)
	s.Require().NoError(err)
	s.Require().Len(loaded.Enrollments, 1)
	s.Equal(added.ID, loaded.Enrollments[0].ID)
	s.NotEqual(removed.ID, loaded.Enrollments[0].ID)

	// completing persists the grade point
	gp := 3.25
	completedAt := now.Add(time.Hour)
	record.Version = next
	record.Enrollments[0].Status = models.EnrollmentStatusPassed
	record.Enrollments[0].GradePoint = &gp
	record.Enrollments[0].CompletedAt = &completedAt
	_, err = s.store.Update(ctx, record)
	s.Require().NoError(err)

	loaded, err = s.store.FindByID(ctx, record.ID)
	s.Require().NoError(err)
	s.Equal(models.EnrollmentStatusPassed, loaded.Enrollments[0].Status)
	s.Require().NotNil(loaded.Enrollments[0].GradePoint)
	s.InDelta(3.25, *loaded.Enrollments[0].GradePoint, 0.001)

	_, err = s.store.Update(ctx, record)
	s.ErrorIs(err, sentinel.ErrStale)
}

func (s *PostgresStoreSuite) TestListByStudent() {
	ctx := context.Background()
	student := id.NewStudentID()
	base := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	earlier := newRecord(student, base)
	later := newRecord(student, base.Add(time.Hour))
	for _, r := range []models.RegistrationRecord{later, earlier, newRecord(id.NewStudentID(), base)} {
		_, err := s.store.Create(ctx, r)
		s.Require().NoError(err)
	}

	list, err := s.store.ListByStudent(ctx, student)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(earlier.ID, list[0].ID)
	s.Len(list[1].Enrollments, 1)
}
