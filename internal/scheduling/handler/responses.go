package handler

import (
	"time"

	"campus/internal/scheduling/schedule"
)

// ScheduleResponse is the JSON view of a weekly schedule.
type ScheduleResponse struct {
	ID               string            `json:"id"`
	AcademicYear     string            `json:"academic_year"`
	Term             int               `json:"term"`
	DepartmentID     *string           `json:"department_id,omitempty"`
	Status           string            `json:"status"`
	StartDate        *string           `json:"start_date,omitempty"`
	EndDate          *string           `json:"end_date,omitempty"`
	PublishedAt      *time.Time        `json:"published_at,omitempty"`
	PublishedBy      *string           `json:"published_by,omitempty"`
	TotalSessions    int               `json:"total_sessions"`
	Sessions         []SessionResponse `json:"sessions"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
	Version          int64             `json:"version"`
	IsUniversityWide bool              `json:"is_university_wide"`
}

// SessionResponse is the JSON view of one course session.
type SessionResponse struct {
	ID           string    `json:"id"`
	CourseID     string    `json:"course_id"`
	InstructorID *string   `json:"instructor_id,omitempty"`
	ClassroomID  string    `json:"classroom_id"`
	DayOfWeek    string    `json:"day_of_week"`
	StartTime    string    `json:"start_time"`
	EndTime      string    `json:"end_time"`
	SessionType  string    `json:"session_type"`
	CreatedAt    time.Time `json:"created_at"`
}

// WorkloadResponse is the body of GET /schedules/{id}/workload/{instructorID}.
type WorkloadResponse struct {
	InstructorID  string  `json:"instructor_id"`
	TeachingHours float64 `json:"teaching_hours"`
}

// ConflictsResponse lists the sessions a candidate would collide with.
type ConflictsResponse struct {
	HasConflict bool             `json:"has_conflict"`
	Conflicts   []map[string]any `json:"conflicts"`
}

func toScheduleResponse(s *schedule.WeeklySchedule) ScheduleResponse {
	resp := ScheduleResponse{
		ID:               s.ID().String(),
		AcademicYear:     s.AcademicYear().String(),
		Term:             int(s.Term()),
		Status:           s.Status().String(),
		PublishedAt:      s.PublishedAt(),
		TotalSessions:    s.GetTotalSessionCount(),
		CreatedAt:        s.CreatedAt(),
		UpdatedAt:        s.UpdatedAt(),
		Version:          s.Version(),
		IsUniversityWide: s.IsUniversityWide(),
	}
	if department := s.DepartmentID(); department != nil {
		v := department.String()
		resp.DepartmentID = &v
	}
	if by := s.PublishedBy(); by != nil {
		v := by.String()
		resp.PublishedBy = &v
	}
	if period, ok := s.Period(); ok {
		start, end := period.Start.Format(dateLayout), period.End.Format(dateLayout)
		resp.StartDate, resp.EndDate = &start, &end
	}
	sessions := s.Sessions()
	resp.Sessions = make([]SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		resp.Sessions = append(resp.Sessions, toSessionResponse(session))
	}
	return resp
}

func toSessionResponse(session schedule.CourseSession) SessionResponse {
	resp := SessionResponse{
		ID:          session.ID().String(),
		CourseID:    session.CourseID().String(),
		ClassroomID: session.ClassroomID().String(),
		DayOfWeek:   session.DayOfWeek().String(),
		StartTime:   session.TimeInterval().Start().String(),
		EndTime:     session.TimeInterval().End().String(),
		SessionType: session.SessionType().String(),
		CreatedAt:   session.CreatedAt(),
	}
	if instructor, ok := session.InstructorID(); ok {
		v := instructor.String()
		resp.InstructorID = &v
	}
	return resp
}
