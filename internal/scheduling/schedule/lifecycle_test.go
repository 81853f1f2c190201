package schedule_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus/internal/scheduling/models"
	"campus/internal/scheduling/schedule"
	id "campus/pkg/domain"
	dErrors "campus/pkg/domain-errors"
)

var lifecycleNow = time.Date(2024, 9, 2, 8, 0, 0, 0, time.UTC)

// scheduleIn drives a fresh schedule with one session into the requested status.
func scheduleIn(t *testing.T, status models.ScheduleStatus) *schedule.WeeklySchedule {
	t.Helper()
	sched, err := schedule.New(id.NewScheduleID(), "2024-2025", id.TermFall, nil, nil, lifecycleNow)
	require.NoError(t, err)
	i, err := schedule.ParseTimeInterval("09:00", "10:00")
	require.NoError(t, err)
	_, err = sched.AddSession(id.NewSessionID(), schedule.SessionSpec{
		CourseID:    id.NewCourseID(),
		ClassroomID: id.NewClassroomID(),
		DayOfWeek:   time.Monday,
		Interval:    i,
		SessionType: models.SessionTypeLab,
	}, lifecycleNow)
	require.NoError(t, err)

	steps := map[models.ScheduleStatus][]func() error{
		models.ScheduleStatusDraft: nil,
		models.ScheduleStatusPublished: {
			func() error { _, err := sched.Publish(id.NewUserID(), lifecycleNow); return err },
		},
		models.ScheduleStatusActive: {
			func() error { _, err := sched.Publish(id.NewUserID(), lifecycleNow); return err },
			func() error { _, err := sched.Activate(lifecycleNow); return err },
		},
		models.ScheduleStatusSuspended: {
			func() error { _, err := sched.Publish(id.NewUserID(), lifecycleNow); return err },
			func() error { _, err := sched.Activate(lifecycleNow); return err },
			func() error { _, err := sched.Suspend(lifecycleNow); return err },
		},
		models.ScheduleStatusArchived: {
			func() error { _, err := sched.Publish(id.NewUserID(), lifecycleNow); return err },
			func() error { _, err := sched.Archive(lifecycleNow); return err },
		},
	}
	for _, step := range steps[status] {
		require.NoError(t, step())
	}
	require.Equal(t, status, sched.Status())
	return sched
}

var allStatuses = []models.ScheduleStatus{
	models.ScheduleStatusDraft,
	models.ScheduleStatusPublished,
	models.ScheduleStatusActive,
	models.ScheduleStatusSuspended,
	models.ScheduleStatusArchived,
}

// TestLifecycleTable checks every (action, state) pair: either the documented
// next state or an invalid_state error, never a silent no-op.
func TestLifecycleTable(t *testing.T) {
	type act func(*schedule.WeeklySchedule) (schedule.StatusChanged, error)
	actions := map[string]act{
		"publish":  func(s *schedule.WeeklySchedule) (schedule.StatusChanged, error) { return s.Publish(id.NewUserID(), lifecycleNow) },
		"activate": func(s *schedule.WeeklySchedule) (schedule.StatusChanged, error) { return s.Activate(lifecycleNow) },
		"suspend":  func(s *schedule.WeeklySchedule) (schedule.StatusChanged, error) { return s.Suspend(lifecycleNow) },
		"archive":  func(s *schedule.WeeklySchedule) (schedule.StatusChanged, error) { return s.Archive(lifecycleNow) },
	}
	allowed := map[string]map[models.ScheduleStatus]models.ScheduleStatus{
		"publish": {
			models.ScheduleStatusDraft: models.ScheduleStatusPublished,
		},
		"activate": {
			models.ScheduleStatusPublished: models.ScheduleStatusActive,
			models.ScheduleStatusSuspended: models.ScheduleStatusActive,
		},
		"suspend": {
			models.ScheduleStatusActive: models.ScheduleStatusSuspended,
		},
		"archive": {
			models.ScheduleStatusPublished: models.ScheduleStatusArchived,
			models.ScheduleStatusActive:    models.ScheduleStatusArchived,
			models.ScheduleStatusSuspended: models.ScheduleStatusArchived,
		},
	}

	for name, fn := range actions {
		for _, from := range allStatuses {
			t.Run(name+" from "+string(from), func(t *testing.T) {
				sched := scheduleIn(t, from)
				effect, err := fn(sched)
				if to, ok := allowed[name][from]; ok {
					require.NoError(t, err)
					assert.Equal(t, to, sched.Status())
					assert.Equal(t, from, effect.From)
					assert.Equal(t, to, effect.To)
					return
				}
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
				assert.Equal(t, from, sched.Status(), "failed transition must not change status")
			})
		}
	}
}

// Scenario D: publishing an empty schedule fails, then succeeds once a session exists.
func TestPublishRequiresSessions(t *testing.T) {
	sched, err := schedule.New(id.NewScheduleID(), "2024-2025", id.TermFall, nil, nil, lifecycleNow)
	require.NoError(t, err)
	publisher := id.NewUserID()

	_, err = sched.Publish(publisher, lifecycleNow)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeEmptySchedule))
	assert.Equal(t, models.ScheduleStatusDraft, sched.Status())

	i, err := schedule.ParseTimeInterval("09:00", "10:00")
	require.NoError(t, err)
	_, err = sched.AddSession(id.NewSessionID(), schedule.SessionSpec{
		CourseID:    id.NewCourseID(),
		ClassroomID: id.NewClassroomID(),
		DayOfWeek:   time.Thursday,
		Interval:    i,
		SessionType: models.SessionTypeSeminar,
	}, lifecycleNow)
	require.NoError(t, err)

	later := lifecycleNow.Add(time.Hour)
	effect, err := sched.Publish(publisher, later)
	require.NoError(t, err)
	assert.Equal(t, models.ScheduleStatusPublished, sched.Status())
	require.NotNil(t, sched.PublishedAt())
	assert.Equal(t, later, *sched.PublishedAt())
	assert.Equal(t, publisher, *sched.PublishedBy())
	assert.Equal(t, publisher, *effect.By)
}

func TestRemoveSessionGuards(t *testing.T) {
	for _, status := range allStatuses {
		t.Run(string(status), func(t *testing.T) {
			sched := scheduleIn(t, status)
			session := sched.Sessions()[0]
			_, err := sched.RemoveSession(session.ID(), lifecycleNow)
			switch status {
			case models.ScheduleStatusActive, models.ScheduleStatusArchived:
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
				assert.Equal(t, 1, sched.GetTotalSessionCount())
			default:
				require.NoError(t, err)
				assert.Equal(t, 0, sched.GetTotalSessionCount())
			}
		})
	}
}

func TestAddSessionRefusedWhenArchived(t *testing.T) {
	sched := scheduleIn(t, models.ScheduleStatusArchived)
	i, err := schedule.ParseTimeInterval("15:00", "16:00")
	require.NoError(t, err)
	_, err = sched.AddSession(id.NewSessionID(), schedule.SessionSpec{
		CourseID:    id.NewCourseID(),
		ClassroomID: id.NewClassroomID(),
		DayOfWeek:   time.Monday,
		Interval:    i,
		SessionType: models.SessionTypeLecture,
	}, lifecycleNow)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func TestSoftDelete(t *testing.T) {
	for _, status := range allStatuses {
		t.Run(string(status), func(t *testing.T) {
			sched := scheduleIn(t, status)
			_, err := sched.SoftDelete(lifecycleNow)
			if status == models.ScheduleStatusActive {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
				assert.False(t, sched.IsDeleted())
				return
			}
			require.NoError(t, err)
			assert.True(t, sched.IsDeleted())

			_, err = sched.SoftDelete(lifecycleNow)
			require.Error(t, err, "deleted schedules are terminal")
			_, err = sched.Activate(lifecycleNow)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
		})
	}
}
