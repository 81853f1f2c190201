package schedule_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"campus/internal/scheduling/models"
	"campus/internal/scheduling/schedule"
	id "campus/pkg/domain"
	dErrors "campus/pkg/domain-errors"
)

type WeeklyScheduleSuite struct {
	suite.Suite
	now        time.Time
	sched      *schedule.WeeklySchedule
	course     id.CourseID
	classroom1 id.ClassroomID
	classroom2 id.ClassroomID
	instructor id.InstructorID
	publisher  id.UserID
}

func TestWeeklyScheduleSuite(t *testing.T) {
	suite.Run(t, new(WeeklyScheduleSuite))
}

func (s *WeeklyScheduleSuite) SetupTest() {
	s.now = time.Date(2024, 9, 2, 8, 0, 0, 0, time.UTC)
	s.course = id.NewCourseID()
	s.classroom1 = id.NewClassroomID()
	s.classroom2 = id.NewClassroomID()
	s.instructor = id.NewInstructorID()
	s.publisher = id.NewUserID()

	sched, err := schedule.New(id.NewScheduleID(), "2024-2025", id.TermFall, nil, nil, s.now)
	s.Require().NoError(err)
	s.sched = sched
}

func (s *WeeklyScheduleSuite) spec(day time.Weekday, start, end string, classroom id.ClassroomID, instructor *id.InstructorID) schedule.SessionSpec {
	i, err := schedule.ParseTimeInterval(start, end)
	s.Require().NoError(err)
	return schedule.SessionSpec{
		CourseID:     id.NewCourseID(),
		InstructorID: instructor,
		ClassroomID:  classroom,
		DayOfWeek:    day,
		Interval:     i,
		SessionType:  models.SessionTypeLecture,
	}
}

func (s *WeeklyScheduleSuite) add(spec schedule.SessionSpec) (schedule.SessionAdded, error) {
	return s.sched.AddSession(id.NewSessionID(), spec, s.now)
}

func (s *WeeklyScheduleSuite) mustAdd(spec schedule.SessionSpec) schedule.CourseSession {
	added, err := s.add(spec)
	s.Require().NoError(err)
	return added.Session
}

func (s *WeeklyScheduleSuite) TestConstructionInvariants() {
	s.Run("rejects malformed academic year", func() {
		_, err := schedule.New(id.NewScheduleID(), "2024", id.TermFall, nil, nil, s.now)
		s.Require().Error(err)
	})

	s.Run("rejects unknown term", func() {
		_, err := schedule.New(id.NewScheduleID(), "2024-2025", id.Term(3), nil, nil, s.now)
		s.Require().Error(err)
	})

	s.Run("rejects inverted date range", func() {
		period := &schedule.DateRange{Start: s.now.AddDate(0, 4, 0), End: s.now}
		_, err := schedule.New(id.NewScheduleID(), "2024-2025", id.TermFall, nil, period, s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidRange))
	})

	s.Run("starts as an empty draft", func() {
		dept := id.NewDepartmentID()
		sched, err := schedule.New(id.NewScheduleID(), "2024-2025", id.TermSpring, &dept, nil, s.now)
		s.Require().NoError(err)
		s.Equal(models.ScheduleStatusDraft, sched.Status())
		s.Equal(0, sched.GetTotalSessionCount())
		s.False(sched.IsUniversityWide())
		s.Nil(sched.PublishedAt())
	})
}

// Scenario A: classroom double-booking is rejected; another classroom is fine.
func (s *WeeklyScheduleSuite) TestClassroomConflict() {
	existing := s.mustAdd(s.spec(time.Tuesday, "09:00", "10:50", s.classroom1, nil))

	_, err := s.add(s.spec(time.Tuesday, "10:00", "11:00", s.classroom1, nil))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeSchedulingConflict))

	var conflict *schedule.SchedulingConflictError
	s.Require().True(errors.As(err, &conflict))
	s.Equal(schedule.DimensionClassroom, conflict.Dimension)
	s.Equal(existing.ID(), conflict.Conflicting.ID())
	s.Equal(1, s.sched.GetTotalSessionCount(), "rejected add must not mutate the schedule")

	_, err = s.add(s.spec(time.Tuesday, "10:00", "11:00", s.classroom2, nil))
	s.Require().NoError(err)
	s.Equal(2, s.sched.GetTotalSessionCount())
}

// Scenario B: touching boundaries are not an instructor conflict.
func (s *WeeklyScheduleSuite) TestInstructorBoundary() {
	s.mustAdd(s.spec(time.Tuesday, "09:00", "10:50", s.classroom1, &s.instructor))

	_, err := s.add(s.spec(time.Tuesday, "10:50", "12:00", s.classroom2, &s.instructor))
	s.Require().NoError(err)

	s.Run("overlap for the same instructor in another room conflicts", func() {
		_, err := s.add(s.spec(time.Tuesday, "11:30", "12:30", id.NewClassroomID(), &s.instructor))
		s.Require().Error(err)
		var conflict *schedule.SchedulingConflictError
		s.Require().True(errors.As(err, &conflict))
		s.Equal(schedule.DimensionInstructor, conflict.Dimension)
	})

	s.Run("different day never conflicts", func() {
		_, err := s.add(s.spec(time.Wednesday, "09:00", "10:50", s.classroom1, &s.instructor))
		s.Require().NoError(err)
	})

	s.Run("sessions without instructor only conflict on classroom", func() {
		_, err := s.add(s.spec(time.Tuesday, "09:30", "10:00", id.NewClassroomID(), nil))
		s.Require().NoError(err)
	})
}

func (s *WeeklyScheduleSuite) TestRemovedSessionsFreeTheirSlot() {
	session := s.mustAdd(s.spec(time.Monday, "13:00", "14:00", s.classroom1, &s.instructor))

	removed, err := s.sched.RemoveSession(session.ID(), s.now)
	s.Require().NoError(err)
	s.Equal(session.ID(), removed.SessionID)

	stored, ok := s.sched.Session(session.ID())
	s.Require().True(ok, "removed sessions are tombstoned, not erased")
	s.True(stored.IsDeleted())

	_, err = s.add(s.spec(time.Monday, "13:00", "14:00", s.classroom1, &s.instructor))
	s.Require().NoError(err)

	_, err = s.sched.RemoveSession(session.ID(), s.now)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *WeeklyScheduleSuite) TestInvalidSpecs() {
	s.Run("missing classroom", func() {
		_, err := s.add(s.spec(time.Monday, "08:00", "09:00", id.ClassroomID{}, nil))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown session type", func() {
		spec := s.spec(time.Monday, "08:00", "09:00", s.classroom1, nil)
		spec.SessionType = "workshop"
		_, err := s.add(spec)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("zero interval", func() {
		spec := s.spec(time.Monday, "08:00", "09:00", s.classroom1, nil)
		spec.Interval = schedule.TimeInterval{}
		_, err := s.add(spec)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidRange))
	})
}

func (s *WeeklyScheduleSuite) TestConflictQueries() {
	first := s.mustAdd(s.spec(time.Friday, "09:00", "11:00", s.classroom1, nil))
	second := s.mustAdd(s.spec(time.Friday, "11:00", "12:00", s.classroom2, &s.instructor))

	probe := s.spec(time.Friday, "10:30", "11:30", s.classroom1, &s.instructor)
	s.True(s.sched.HasConflict(probe))

	conflicts := s.sched.Conflicts(probe)
	s.Require().Len(conflicts, 2)
	s.Equal(first.ID(), conflicts[0].Conflicting.ID())
	s.Equal(schedule.DimensionClassroom, conflicts[0].Dimension)
	s.Equal(second.ID(), conflicts[1].Conflicting.ID())
	s.Equal(schedule.DimensionInstructor, conflicts[1].Dimension)

	s.False(s.sched.HasConflict(s.spec(time.Friday, "12:00", "13:00", s.classroom1, &s.instructor)))
	s.Equal(2, s.sched.GetTotalSessionCount(), "queries must not mutate")
}

func (s *WeeklyScheduleSuite) TestInstructorWorkload() {
	other := id.NewInstructorID()
	s.mustAdd(s.spec(time.Monday, "09:00", "10:40", s.classroom1, &s.instructor))
	s.mustAdd(s.spec(time.Tuesday, "09:00", "09:50", s.classroom1, &s.instructor))
	removed := s.mustAdd(s.spec(time.Wednesday, "09:00", "09:50", s.classroom1, &s.instructor))
	s.mustAdd(s.spec(time.Monday, "09:00", "10:40", s.classroom2, &other))

	_, err := s.sched.RemoveSession(removed.ID(), s.now)
	s.Require().NoError(err)

	s.InDelta(3.0, s.sched.GetInstructorWorkload(s.instructor), 0.0001)
	s.InDelta(2.0, s.sched.GetInstructorWorkload(other), 0.0001)
	s.Zero(s.sched.GetInstructorWorkload(id.NewInstructorID()))
}

func (s *WeeklyScheduleSuite) TestSessionsSnapshotIsOrdered() {
	s.mustAdd(s.spec(time.Wednesday, "09:00", "10:00", s.classroom1, nil))
	s.mustAdd(s.spec(time.Monday, "14:00", "15:00", s.classroom1, nil))
	s.mustAdd(s.spec(time.Monday, "08:00", "09:00", s.classroom1, nil))

	sessions := s.sched.Sessions()
	s.Require().Len(sessions, 3)
	s.Equal(time.Monday, sessions[0].DayOfWeek())
	s.Equal("08:00", sessions[0].TimeInterval().Start().String())
	s.Equal("14:00", sessions[1].TimeInterval().Start().String())
	s.Equal(time.Wednesday, sessions[2].DayOfWeek())
	s.Len(s.sched.SessionsOn(time.Monday), 2)
}
