package schedule

import (
	"fmt"

	dErrors "campus/pkg/domain-errors"
)

// ConflictDimension names the resource that would be double-booked.
type ConflictDimension string

const (
	DimensionClassroom  ConflictDimension = "classroom"
	DimensionInstructor ConflictDimension = "instructor"
)

// SchedulingConflictError reports a classroom or instructor double-booking.
// It unwraps to a CodeSchedulingConflict domain error.
type SchedulingConflictError struct {
	Dimension   ConflictDimension
	Conflicting CourseSession
}

func (e *SchedulingConflictError) Error() string {
	return fmt.Sprintf("%s already booked on %s %s by course %s",
		e.Dimension,
		e.Conflicting.DayOfWeek(),
		e.Conflicting.TimeInterval(),
		e.Conflicting.CourseID(),
	)
}

func (e *SchedulingConflictError) Unwrap() error {
	return dErrors.New(dErrors.CodeSchedulingConflict, e.Error())
}

// Details exposes the conflicting session for API responses.
func (e *SchedulingConflictError) Details() map[string]any {
	return map[string]any{
		"dimension":   string(e.Dimension),
		"session_id":  e.Conflicting.ID().String(),
		"course_id":   e.Conflicting.CourseID().String(),
		"day_of_week": e.Conflicting.DayOfWeek().String(),
		"start":       e.Conflicting.TimeInterval().Start().String(),
		"end":         e.Conflicting.TimeInterval().End().String(),
	}
}

func invalidState(format string, args ...any) error {
	return dErrors.Newf(dErrors.CodeInvalidState, format, args...)
}
