package schedule

import (
	"campus/internal/scheduling/models"
	dErrors "campus/pkg/domain-errors"
)

// ToModel converts the aggregate, tombstoned sessions included, into its
// persistence record.
func ToModel(s *WeeklySchedule) models.ScheduleRecord {
	record := models.ScheduleRecord{
		ID:           s.id,
		AcademicYear: s.academicYear,
		Term:         s.term,
		DepartmentID: copyPtr(s.departmentID),
		Status:       s.status,
		PublishedAt:  copyPtr(s.publishedAt),
		PublishedBy:  copyPtr(s.publishedBy),
		CreatedAt:    s.createdAt,
		UpdatedAt:    s.updatedAt,
		DeletedAt:    copyPtr(s.deletedAt),
		Version:      s.version,
		Sessions:     make([]models.SessionRecord, 0, len(s.order)),
	}
	if s.period != nil {
		start, end := s.period.Start, s.period.End
		record.StartDate = &start
		record.EndDate = &end
	}
	for _, sessionID := range s.order {
		session := s.sessions[sessionID]
		record.Sessions = append(record.Sessions, models.SessionRecord{
			ID:           session.id,
			ScheduleID:   s.id,
			CourseID:     session.courseID,
			InstructorID: copyPtr(session.instructorID),
			ClassroomID:  session.classroomID,
			DayOfWeek:    session.day,
			StartMinute:  int(session.interval.start),
			EndMinute:    int(session.interval.end),
			SessionType:  session.sessionType,
			CreatedAt:    session.createdAt,
			DeletedAt:    copyPtr(session.deletedAt),
		})
	}
	return record
}

// FromModel rebuilds the aggregate from a persistence record. Live sessions are
// replayed through the conflict check so a corrupted record cannot smuggle a
// double-booking back into memory.
func FromModel(m models.ScheduleRecord) (*WeeklySchedule, error) {
	if !m.Status.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "unknown schedule status %q", m.Status)
	}
	var period *DateRange
	if m.StartDate != nil && m.EndDate != nil {
		period = &DateRange{Start: *m.StartDate, End: *m.EndDate}
	}
	s, err := New(m.ID, m.AcademicYear, m.Term, copyPtr(m.DepartmentID), period, m.CreatedAt)
	if err != nil {
		return nil, err
	}

	for _, r := range m.Sessions {
		interval, err := NewTimeInterval(TimeOfDay(r.StartMinute), TimeOfDay(r.EndMinute))
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "stored session has an invalid interval")
		}
		session, err := s.newSession(r.ID, SessionSpec{
			CourseID:     r.CourseID,
			InstructorID: r.InstructorID,
			ClassroomID:  r.ClassroomID,
			DayOfWeek:    r.DayOfWeek,
			Interval:     interval,
			SessionType:  r.SessionType,
		}, r.CreatedAt)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "stored session is invalid")
		}
		if r.DeletedAt == nil {
			if conflict := s.firstConflict(session); conflict != nil {
				return nil, dErrors.Wrap(conflict, dErrors.CodeInvariantViolation, "stored schedule contains a double-booking")
			}
		} else {
			session.deletedAt = copyPtr(r.DeletedAt)
		}
		s.sessions[session.id] = &session
		s.order = append(s.order, session.id)
	}

	s.status = m.Status
	s.publishedAt = copyPtr(m.PublishedAt)
	s.publishedBy = copyPtr(m.PublishedBy)
	s.updatedAt = m.UpdatedAt
	s.deletedAt = copyPtr(m.DeletedAt)
	s.version = m.Version
	return s, nil
}
