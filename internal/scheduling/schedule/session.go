package schedule

import (
	"time"

	"campus/internal/scheduling/models"
	id "campus/pkg/domain"
)

// CourseSession is one weekly occurrence of a course. Sessions are owned by a
// WeeklySchedule and only created through WeeklySchedule.AddSession, so the
// conflict check cannot be bypassed.
type CourseSession struct {
	id           id.SessionID
	scheduleID   id.ScheduleID
	courseID     id.CourseID
	instructorID *id.InstructorID
	classroomID  id.ClassroomID
	day          time.Weekday
	interval     TimeInterval
	sessionType  models.SessionType
	createdAt    time.Time
	deletedAt    *time.Time
}

func (s CourseSession) ID() id.SessionID                { return s.id }
func (s CourseSession) ScheduleID() id.ScheduleID       { return s.scheduleID }
func (s CourseSession) CourseID() id.CourseID           { return s.courseID }
func (s CourseSession) ClassroomID() id.ClassroomID     { return s.classroomID }
func (s CourseSession) DayOfWeek() time.Weekday         { return s.day }
func (s CourseSession) TimeInterval() TimeInterval      { return s.interval }
func (s CourseSession) SessionType() models.SessionType { return s.sessionType }
func (s CourseSession) CreatedAt() time.Time            { return s.createdAt }
func (s CourseSession) IsDeleted() bool                 { return s.deletedAt != nil }
func (s CourseSession) InstructorID() (id.InstructorID, bool) {
	if s.instructorID == nil {
		return id.InstructorID{}, false
	}
	return *s.instructorID, true
}

// DeletedAt returns the tombstone time, if any.
func (s CourseSession) DeletedAt() (time.Time, bool) {
	if s.deletedAt == nil {
		return time.Time{}, false
	}
	return *s.deletedAt, true
}

// sharesClassroomSlot reports a classroom double-booking with other.
func (s CourseSession) sharesClassroomSlot(other CourseSession) bool {
	return s.day == other.day &&
		s.classroomID == other.classroomID &&
		s.interval.ConflictsWith(other.interval)
}

// sharesInstructorSlot reports an instructor double-booking with other.
// Sessions without an instructor never collide on this dimension.
func (s CourseSession) sharesInstructorSlot(other CourseSession) bool {
	if s.instructorID == nil || other.instructorID == nil {
		return false
	}
	return s.day == other.day &&
		*s.instructorID == *other.instructorID &&
		s.interval.ConflictsWith(other.interval)
}

// SessionSpec is the caller-supplied input for a new session. Classroom and
// instructor existence is validated upstream.
type SessionSpec struct {
	CourseID     id.CourseID
	InstructorID *id.InstructorID
	ClassroomID  id.ClassroomID
	DayOfWeek    time.Weekday
	Interval     TimeInterval
	SessionType  models.SessionType
}
