package audit

import "time"

// Event is emitted from services to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp     time.Time
	Action        string
	AggregateType string
	AggregateID   string
	// ActorID is the authenticated user, advisor or publisher behind the command.
	ActorID   string
	Reason    string
	RequestID string
}

// Audit actions.
const (
	ActionScheduleCreated   = "schedule_created"
	ActionSessionAdded      = "schedule_session_added"
	ActionSessionRemoved    = "schedule_session_removed"
	ActionScheduleStatus    = "schedule_status_changed"
	ActionScheduleDeleted   = "schedule_deleted"
	ActionRegistrationNew   = "registration_created"
	ActionCourseAdded       = "registration_course_added"
	ActionCourseRemoved     = "registration_course_removed"
	ActionCourseDropped     = "registration_course_dropped"
	ActionCourseCompleted   = "registration_course_completed"
	ActionRegistrationState = "registration_status_changed"
	ActionRegistrationGone  = "registration_deleted"
)
