package termreg

import (
	"time"

	"campus/internal/registration/models"
	id "campus/pkg/domain"
)

// Effect is an outcome of a successful mutation. Callers publish effects only
// after the mutation has been persisted.
type Effect interface {
	EffectName() string
	AggregateID() id.RegistrationID
}

// CourseAdded is returned by AddCourse.
type CourseAdded struct {
	Enrollment   CourseEnrollment
	TotalCredits int
}

// CourseRemoved is returned by RemoveCourse when a course was present.
type CourseRemoved struct {
	RegistrationID id.RegistrationID
	EnrollmentID   id.EnrollmentID
	CourseID       id.CourseID
	Credits        int
	TotalCredits   int
	At             time.Time
}

// CourseDropped is returned by DropCourse.
type CourseDropped struct {
	RegistrationID id.RegistrationID
	CourseID       id.CourseID
	TotalCredits   int
	At             time.Time
}

// CourseCompleted is returned by CompleteCourse.
type CourseCompleted struct {
	RegistrationID id.RegistrationID
	CourseID       id.CourseID
	GradePoint     float64
	Outcome        models.EnrollmentStatus
	At             time.Time
}

// StatusChanged is returned by every lifecycle transition. By is set for
// advisor decisions; Reason only for rejections.
type StatusChanged struct {
	RegistrationID id.RegistrationID
	From           models.RegistrationStatus
	To             models.RegistrationStatus
	At             time.Time
	By             *id.AdvisorID
	Reason         string
}

// Deleted is returned by SoftDelete.
type Deleted struct {
	RegistrationID id.RegistrationID
	At             time.Time
}

func (e CourseAdded) EffectName() string                 { return "registration.course_added" }
func (e CourseAdded) AggregateID() id.RegistrationID     { return e.Enrollment.RegistrationID() }
func (e CourseRemoved) EffectName() string               { return "registration.course_removed" }
func (e CourseRemoved) AggregateID() id.RegistrationID   { return e.RegistrationID }
func (e CourseDropped) EffectName() string               { return "registration.course_dropped" }
func (e CourseDropped) AggregateID() id.RegistrationID   { return e.RegistrationID }
func (e CourseCompleted) EffectName() string             { return "registration.course_completed" }
func (e CourseCompleted) AggregateID() id.RegistrationID { return e.RegistrationID }
func (e StatusChanged) EffectName() string               { return "registration.status_changed" }
func (e StatusChanged) AggregateID() id.RegistrationID   { return e.RegistrationID }
func (e Deleted) EffectName() string                     { return "registration.deleted" }
func (e Deleted) AggregateID() id.RegistrationID         { return e.RegistrationID }
