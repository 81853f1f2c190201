package service

import (
	"context"
	"errors"
	"time"

	"campus/internal/audit"
	"campus/internal/scheduling/schedule"
	id "campus/pkg/domain"
	dErrors "campus/pkg/domain-errors"
	"campus/pkg/requestcontext"
)

// CreateScheduleCommand is the input for CreateSchedule.
type CreateScheduleCommand struct {
	AcademicYear id.AcademicYear
	Term         id.Term
	DepartmentID *id.DepartmentID
	Period       *schedule.DateRange
}

// CreateSchedule opens a Draft schedule.
func (s *Service) CreateSchedule(ctx context.Context, cmd CreateScheduleCommand) (*schedule.WeeklySchedule, error) {
	start := time.Now()
	defer s.metrics.ObserveCommand("create", start)
	ctx, span := s.tracer.Start(ctx, "scheduling.create")
	defer span.End()

	sched, err := schedule.New(id.NewScheduleID(), cmd.AcademicYear, cmd.Term, cmd.DepartmentID, cmd.Period, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}
	record := schedule.ToModel(sched)
	version, err := s.store.Create(ctx, record)
	if err != nil {
		return nil, translateStoreError(err, "failed to create schedule")
	}
	record.Version = version
	if sched, err = schedule.FromModel(record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to rebuild saved schedule")
	}

	s.logAudit(ctx, audit.ActionScheduleCreated,
		"schedule_id", sched.ID().String(),
		"academic_year", string(sched.AcademicYear()),
		"term", sched.Term().String(),
	)
	return sched, nil
}

// GetSchedule loads a schedule. Deleted schedules are reported as not found.
func (s *Service) GetSchedule(ctx context.Context, scheduleID id.ScheduleID) (*schedule.WeeklySchedule, error) {
	sched, err := s.load(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if sched.IsDeleted() {
		return nil, dErrors.New(dErrors.CodeNotFound, "schedule not found")
	}
	return sched, nil
}

// ListSchedules returns the live schedules of one academic term.
func (s *Service) ListSchedules(ctx context.Context, academicYear id.AcademicYear, term id.Term) ([]*schedule.WeeklySchedule, error) {
	records, err := s.store.ListByTerm(ctx, academicYear, term)
	if err != nil {
		return nil, translateStoreError(err, "failed to list schedules")
	}
	out := make([]*schedule.WeeklySchedule, 0, len(records))
	for _, record := range records {
		sched, err := schedule.FromModel(record)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "stored schedule is corrupt")
		}
		out = append(out, sched)
	}
	return out, nil
}

// AddSession books a weekly session after checking it against every live
// session of the schedule.
func (s *Service) AddSession(ctx context.Context, scheduleID id.ScheduleID, spec schedule.SessionSpec) (schedule.CourseSession, error) {
	sessionID := id.NewSessionID()
	sched, err := s.mutate(ctx, "add_session", scheduleID, func(sched *schedule.WeeklySchedule, now time.Time) ([]schedule.Effect, error) {
		added, err := sched.AddSession(sessionID, spec, now)
		if err != nil {
			return nil, err
		}
		return []schedule.Effect{added}, nil
	})
	if err != nil {
		var conflict *schedule.SchedulingConflictError
		if errors.As(err, &conflict) {
			s.metrics.IncrementConflict(string(conflict.Dimension))
		}
		return schedule.CourseSession{}, err
	}

	session, _ := sched.Session(sessionID)
	s.metrics.IncrementSessionsAdded()
	s.logAudit(ctx, audit.ActionSessionAdded,
		"schedule_id", scheduleID.String(),
		"session_id", sessionID.String(),
		"course_id", spec.CourseID.String(),
	)
	return session, nil
}

// RemoveSession tombstones a session.
func (s *Service) RemoveSession(ctx context.Context, scheduleID id.ScheduleID, sessionID id.SessionID) error {
	_, err := s.mutate(ctx, "remove_session", scheduleID, func(sched *schedule.WeeklySchedule, now time.Time) ([]schedule.Effect, error) {
		removed, err := sched.RemoveSession(sessionID, now)
		if err != nil {
			return nil, err
		}
		return []schedule.Effect{removed}, nil
	})
	if err != nil {
		return err
	}
	s.metrics.IncrementSessionsRemoved()
	s.logAudit(ctx, audit.ActionSessionRemoved,
		"schedule_id", scheduleID.String(),
		"session_id", sessionID.String(),
	)
	return nil
}

// Publish publishes a Draft schedule on behalf of the authenticated user.
func (s *Service) Publish(ctx context.Context, scheduleID id.ScheduleID) (*schedule.WeeklySchedule, error) {
	publisher := requestcontext.UserID(ctx)
	if publisher.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "publishing requires an authenticated user")
	}
	return s.transition(ctx, "publish", scheduleID, func(sched *schedule.WeeklySchedule, now time.Time) (schedule.StatusChanged, error) {
		return sched.Publish(publisher, now)
	})
}

// Activate puts a Published or Suspended schedule into effect.
func (s *Service) Activate(ctx context.Context, scheduleID id.ScheduleID) (*schedule.WeeklySchedule, error) {
	return s.transition(ctx, "activate", scheduleID, (*schedule.WeeklySchedule).Activate)
}

// Suspend takes an Active schedule out of effect so sessions can be removed.
func (s *Service) Suspend(ctx context.Context, scheduleID id.ScheduleID) (*schedule.WeeklySchedule, error) {
	return s.transition(ctx, "suspend", scheduleID, (*schedule.WeeklySchedule).Suspend)
}

// Archive retires a schedule.
func (s *Service) Archive(ctx context.Context, scheduleID id.ScheduleID) (*schedule.WeeklySchedule, error) {
	return s.transition(ctx, "archive", scheduleID, (*schedule.WeeklySchedule).Archive)
}

func (s *Service) transition(
	ctx context.Context,
	command string,
	scheduleID id.ScheduleID,
	apply func(*schedule.WeeklySchedule, time.Time) (schedule.StatusChanged, error),
) (*schedule.WeeklySchedule, error) {
	var changed schedule.StatusChanged
	sched, err := s.mutate(ctx, command, scheduleID, func(sched *schedule.WeeklySchedule, now time.Time) ([]schedule.Effect, error) {
		effect, err := apply(sched, now)
		if err != nil {
			return nil, err
		}
		changed = effect
		return []schedule.Effect{effect}, nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncrementTransition(changed.To.String())
	s.logAudit(ctx, audit.ActionScheduleStatus,
		"schedule_id", scheduleID.String(),
		"from", changed.From.String(),
		"to", changed.To.String(),
	)
	return sched, nil
}

// Delete tombstones a schedule.
func (s *Service) Delete(ctx context.Context, scheduleID id.ScheduleID) error {
	_, err := s.mutate(ctx, "delete", scheduleID, func(sched *schedule.WeeklySchedule, now time.Time) ([]schedule.Effect, error) {
		deleted, err := sched.SoftDelete(now)
		if err != nil {
			return nil, err
		}
		return []schedule.Effect{deleted}, nil
	})
	if err != nil {
		return err
	}
	s.logAudit(ctx, audit.ActionScheduleDeleted, "schedule_id", scheduleID.String())
	return nil
}

// InstructorWorkload returns the instructor's weekly load in teaching hours.
func (s *Service) InstructorWorkload(ctx context.Context, scheduleID id.ScheduleID, instructorID id.InstructorID) (float64, error) {
	sched, err := s.GetSchedule(ctx, scheduleID)
	if err != nil {
		return 0, err
	}
	return sched.GetInstructorWorkload(instructorID), nil
}

// CheckConflict lists the sessions spec would collide with, without booking it.
func (s *Service) CheckConflict(ctx context.Context, scheduleID id.ScheduleID, spec schedule.SessionSpec) ([]*schedule.SchedulingConflictError, error) {
	sched, err := s.GetSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	return sched.Conflicts(spec), nil
}
