package schedule

import (
	"time"

	"campus/internal/scheduling/models"
	id "campus/pkg/domain"
)

// Effect is an outcome of a successful mutation. Callers publish effects only
// after the mutation has been persisted.
type Effect interface {
	EffectName() string
	AggregateID() id.ScheduleID
}

// SessionAdded is returned by AddSession.
type SessionAdded struct {
	Session CourseSession
}

// SessionRemoved is returned by RemoveSession.
type SessionRemoved struct {
	ScheduleID id.ScheduleID
	SessionID  id.SessionID
	CourseID   id.CourseID
	RemovedAt  time.Time
}

// StatusChanged is returned by every lifecycle transition.
type StatusChanged struct {
	ScheduleID id.ScheduleID
	From       models.ScheduleStatus
	To         models.ScheduleStatus
	At         time.Time
	By         *id.UserID
}

// Deleted is returned by SoftDelete.
type Deleted struct {
	ScheduleID id.ScheduleID
	At         time.Time
}

func (e SessionAdded) EffectName() string           { return "schedule.session_added" }
func (e SessionAdded) AggregateID() id.ScheduleID   { return e.Session.ScheduleID() }
func (e SessionRemoved) EffectName() string         { return "schedule.session_removed" }
func (e SessionRemoved) AggregateID() id.ScheduleID { return e.ScheduleID }
func (e StatusChanged) EffectName() string          { return "schedule.status_changed" }
func (e StatusChanged) AggregateID() id.ScheduleID  { return e.ScheduleID }
func (e Deleted) EffectName() string                { return "schedule.deleted" }
func (e Deleted) AggregateID() id.ScheduleID        { return e.ScheduleID }
