package models

import (
	"time"

	id "campus/pkg/domain"
)

// ScheduleStatus is the publication lifecycle state of a weekly schedule.
type ScheduleStatus string

const (
	ScheduleStatusDraft     ScheduleStatus = "draft"
	ScheduleStatusPublished ScheduleStatus = "published"
	ScheduleStatusActive    ScheduleStatus = "active"
	ScheduleStatusSuspended ScheduleStatus = "suspended"
	ScheduleStatusArchived  ScheduleStatus = "archived"
)

func (s ScheduleStatus) IsValid() bool {
	switch s {
	case ScheduleStatusDraft, ScheduleStatusPublished, ScheduleStatusActive,
		ScheduleStatusSuspended, ScheduleStatusArchived:
		return true
	}
	return false
}

func (s ScheduleStatus) String() string { return string(s) }

// SessionType classifies a weekly course session.
type SessionType string

const (
	SessionTypeLecture SessionType = "lecture"
	SessionTypeLab     SessionType = "lab"
	SessionTypeSeminar SessionType = "seminar"
)

func (t SessionType) String() string { return string(t) }

// ParseSessionType validates external input.
func ParseSessionType(raw string) (SessionType, bool) {
	t := SessionType(raw)
	switch t {
	case SessionTypeLecture, SessionTypeLab, SessionTypeSeminar:
		return t, true
	}
	return "", false
}

// ScheduleRecord is the persistence shape of a weekly schedule.
// Times of day are minutes since midnight.
type ScheduleRecord struct {
	ID           id.ScheduleID
	AcademicYear id.AcademicYear
	Term         id.Term
	DepartmentID *id.DepartmentID
	Status       ScheduleStatus
	StartDate    *time.Time
	EndDate      *time.Time
	PublishedAt  *time.Time
	PublishedBy  *id.UserID
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
	Version      int64
	Sessions     []SessionRecord
}

// SessionRecord is the persistence shape of one weekly course session.
type SessionRecord struct {
	ID           id.SessionID
	ScheduleID   id.ScheduleID
	CourseID     id.CourseID
	InstructorID *id.InstructorID
	ClassroomID  id.ClassroomID
	DayOfWeek    time.Weekday
	StartMinute  int
	EndMinute    int
	SessionType  SessionType
	CreatedAt    time.Time
	DeletedAt    *time.Time
}
