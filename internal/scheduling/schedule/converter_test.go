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

func TestModelRoundTrip(t *testing.T) {
	sched := scheduleIn(t, models.ScheduleStatusPublished)
	instructor := id.NewInstructorID()
	i, err := schedule.ParseTimeInterval("13:00", "14:30")
	require.NoError(t, err)
	added, err := sched.AddSession(id.NewSessionID(), schedule.SessionSpec{
		CourseID:     id.NewCourseID(),
		InstructorID: &instructor,
		ClassroomID:  id.NewClassroomID(),
		DayOfWeek:    time.Thursday,
		Interval:     i,
		SessionType:  models.SessionTypeLecture,
	}, lifecycleNow)
	require.NoError(t, err)
	_, err = sched.RemoveSession(sched.Sessions()[0].ID(), lifecycleNow)
	require.NoError(t, err)

	record := schedule.ToModel(sched)
	require.Len(t, record.Sessions, 2, "tombstoned sessions are persisted")

	restored, err := schedule.FromModel(record)
	require.NoError(t, err)
	assert.Equal(t, sched.Status(), restored.Status())
	assert.Equal(t, sched.PublishedBy(), restored.PublishedBy())
	assert.Equal(t, 1, restored.GetTotalSessionCount())
	assert.InDelta(t, 1.8, restored.GetInstructorWorkload(instructor), 0.0001)

	session, ok := restored.Session(added.Session.ID())
	require.True(t, ok)
	got, ok := session.InstructorID()
	require.True(t, ok)
	assert.Equal(t, instructor, got)
}

func TestFromModelRejectsDoubleBooking(t *testing.T) {
	scheduleID := id.NewScheduleID()
	classroom := id.NewClassroomID()
	session := func() models.SessionRecord {
		return models.SessionRecord{
			ID:          id.NewSessionID(),
			ScheduleID:  scheduleID,
			CourseID:    id.NewCourseID(),
			ClassroomID: classroom,
			DayOfWeek:   time.Monday,
			StartMinute: 9 * 60,
			EndMinute:   10 * 60,
			SessionType: models.SessionTypeLecture,
			CreatedAt:   lifecycleNow,
		}
	}
	record := models.ScheduleRecord{
		ID:           scheduleID,
		AcademicYear: "2024-2025",
		Term:         id.TermFall,
		Status:       models.ScheduleStatusDraft,
		CreatedAt:    lifecycleNow,
		UpdatedAt:    lifecycleNow,
		Sessions:     []models.SessionRecord{session(), session()},
	}

	_, err := schedule.FromModel(record)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeSchedulingConflict))

	deleted := lifecycleNow
	record.Sessions[1].DeletedAt = &deleted
	restored, err := schedule.FromModel(record)
	require.NoError(t, err, "a tombstoned duplicate is not a double-booking")
	assert.Equal(t, 1, restored.GetTotalSessionCount())
}
