package schedule

import (
	"slices"
	"time"

	"campus/internal/scheduling/models"
)

type action string

const (
	actionPublish  action = "publish"
	actionActivate action = "activate"
	actionSuspend  action = "suspend"
	actionArchive  action = "archive"
)

type transitionRule struct {
	from []models.ScheduleStatus
	to   models.ScheduleStatus
}

// lifecycle is the complete transition table. Any (action, state) pair not
// listed fails with an invalid_state error.
var lifecycle = map[action]transitionRule{
	actionPublish: {
		from: []models.ScheduleStatus{models.ScheduleStatusDraft},
		to:   models.ScheduleStatusPublished,
	},
	actionActivate: {
		from: []models.ScheduleStatus{models.ScheduleStatusPublished, models.ScheduleStatusSuspended},
		to:   models.ScheduleStatusActive,
	},
	actionSuspend: {
		from: []models.ScheduleStatus{models.ScheduleStatusActive},
		to:   models.ScheduleStatusSuspended,
	},
	actionArchive: {
		from: []models.ScheduleStatus{
			models.ScheduleStatusPublished,
			models.ScheduleStatusActive,
			models.ScheduleStatusSuspended,
		},
		to: models.ScheduleStatusArchived,
	},
}

func (s *WeeklySchedule) canTransition(a action) error {
	if err := s.ensureMutable(); err != nil {
		return err
	}
	rule := lifecycle[a]
	if !slices.Contains(rule.from, s.status) {
		return invalidState("cannot %s a schedule in status %s", a, s.status)
	}
	return nil
}

func (s *WeeklySchedule) applyTransition(a action, now time.Time) StatusChanged {
	from := s.status
	s.status = lifecycle[a].to
	s.updatedAt = now
	return StatusChanged{ScheduleID: s.id, From: from, To: s.status, At: now}
}

func (s *WeeklySchedule) transition(a action, now time.Time) (StatusChanged, error) {
	if err := s.canTransition(a); err != nil {
		return StatusChanged{}, err
	}
	return s.applyTransition(a, now), nil
}
