package service

import (
	"fmt"
	"time"

	"campus/internal/platform/events"
	"campus/internal/scheduling/schedule"
)

const aggregateType = "schedule"

type sessionPayload struct {
	ScheduleID   string  `json:"schedule_id"`
	SessionID    string  `json:"session_id"`
	CourseID     string  `json:"course_id"`
	ClassroomID  string  `json:"classroom_id"`
	InstructorID *string `json:"instructor_id,omitempty"`
	DayOfWeek    string  `json:"day_of_week"`
	Start        string  `json:"start"`
	End          string  `json:"end"`
	SessionType  string  `json:"session_type"`
}

type sessionRemovedPayload struct {
	ScheduleID string `json:"schedule_id"`
	SessionID  string `json:"session_id"`
	CourseID   string `json:"course_id"`
}

type statusPayload struct {
	ScheduleID string  `json:"schedule_id"`
	From       string  `json:"from"`
	To         string  `json:"to"`
	By         *string `json:"by,omitempty"`
}

type deletedPayload struct {
	ScheduleID string `json:"schedule_id"`
}

func toEnvelope(effect schedule.Effect) (events.Envelope, error) {
	var (
		payload any
		at      time.Time
	)
	switch e := effect.(type) {
	case schedule.SessionAdded:
		session := e.Session
		p := sessionPayload{
			ScheduleID:  session.ScheduleID().String(),
			SessionID:   session.ID().String(),
			CourseID:    session.CourseID().String(),
			ClassroomID: session.ClassroomID().String(),
			DayOfWeek:   session.DayOfWeek().String(),
			Start:       session.TimeInterval().Start().String(),
			End:         session.TimeInterval().End().String(),
			SessionType: session.SessionType().String(),
		}
		if instructor, ok := session.InstructorID(); ok {
			v := instructor.String()
			p.InstructorID = &v
		}
		payload, at = p, session.CreatedAt()
	case schedule.SessionRemoved:
		payload = sessionRemovedPayload{
			ScheduleID: e.ScheduleID.String(),
			SessionID:  e.SessionID.String(),
			CourseID:   e.CourseID.String(),
		}
		at = e.RemovedAt
	case schedule.StatusChanged:
		p := statusPayload{ScheduleID: e.ScheduleID.String(), From: e.From.String(), To: e.To.String()}
		if e.By != nil {
			v := e.By.String()
			p.By = &v
		}
		payload, at = p, e.At
	case schedule.Deleted:
		payload, at = deletedPayload{ScheduleID: e.ScheduleID.String()}, e.At
	default:
		return events.Envelope{}, fmt.Errorf("unknown schedule effect %T", effect)
	}
	return events.NewEnvelope(effect.EffectName(), aggregateType, effect.AggregateID().String(), at, payload)
}
