package handler

import (
	"strings"
	"time"

	"campus/internal/scheduling/models"
	"campus/internal/scheduling/schedule"
	"campus/internal/scheduling/service"
	id "campus/pkg/domain"
	dErrors "campus/pkg/domain-errors"
)

const dateLayout = "2006-01-02"

// CreateScheduleRequest is the body of POST /schedules.
type CreateScheduleRequest struct {
	AcademicYear string  `json:"academic_year" validate:"required"`
	Term         int     `json:"term" validate:"required,oneof=1 2"`
	DepartmentID *string `json:"department_id,omitempty" validate:"omitempty,uuid"`
	StartDate    *string `json:"start_date,omitempty" validate:"required_with=EndDate,omitempty,datetime=2006-01-02"`
	EndDate      *string `json:"end_date,omitempty" validate:"required_with=StartDate,omitempty,datetime=2006-01-02"`

	command service.CreateScheduleCommand
}

// Validate parses the request into a command.
func (r *CreateScheduleRequest) Validate() error {
	year, err := id.ParseAcademicYear(r.AcademicYear)
	if err != nil {
		return err
	}
	term, err := id.ParseTerm(r.Term)
	if err != nil {
		return err
	}
	r.command = service.CreateScheduleCommand{AcademicYear: year, Term: term}
	if r.DepartmentID != nil {
		department, err := id.ParseDepartmentID(*r.DepartmentID)
		if err != nil {
			return err
		}
		r.command.DepartmentID = &department
	}
	if r.StartDate != nil && r.EndDate != nil {
		start, _ := time.Parse(dateLayout, *r.StartDate)
		end, _ := time.Parse(dateLayout, *r.EndDate)
		r.command.Period = &schedule.DateRange{Start: start, End: end}
	}
	return nil
}

// Command returns the parsed command.
func (r *CreateScheduleRequest) Command() service.CreateScheduleCommand {
	return r.command
}

// SessionRequest is the body of POST /schedules/{id}/sessions and
// POST /schedules/{id}/conflicts.
type SessionRequest struct {
	CourseID     string  `json:"course_id" validate:"required,uuid"`
	InstructorID *string `json:"instructor_id,omitempty" validate:"omitempty,uuid"`
	ClassroomID  string  `json:"classroom_id" validate:"required,uuid"`
	DayOfWeek    string  `json:"day_of_week" validate:"required"`
	StartTime    string  `json:"start_time" validate:"required,len=5"`
	EndTime      string  `json:"end_time" validate:"required,len=5"`
	SessionType  string  `json:"session_type" validate:"required,oneof=lecture lab seminar"`

	spec schedule.SessionSpec
}

// Validate parses the request into a session spec.
func (r *SessionRequest) Validate() error {
	courseID, err := id.ParseCourseID(r.CourseID)
	if err != nil {
		return err
	}
	classroomID, err := id.ParseClassroomID(r.ClassroomID)
	if err != nil {
		return err
	}
	day, ok := parseWeekday(r.DayOfWeek)
	if !ok {
		return dErrors.Newf(dErrors.CodeValidation, "day_of_week %q is not a weekday name", r.DayOfWeek)
	}
	interval, err := schedule.ParseTimeInterval(r.StartTime, r.EndTime)
	if err != nil {
		return err
	}
	sessionType, ok := models.ParseSessionType(r.SessionType)
	if !ok {
		return dErrors.Newf(dErrors.CodeValidation, "unknown session_type %q", r.SessionType)
	}
	r.spec = schedule.SessionSpec{
		CourseID:    courseID,
		ClassroomID: classroomID,
		DayOfWeek:   day,
		Interval:    interval,
		SessionType: sessionType,
	}
	if r.InstructorID != nil {
		instructorID, err := id.ParseInstructorID(*r.InstructorID)
		if err != nil {
			return err
		}
		r.spec.InstructorID = &instructorID
	}
	return nil
}

// Spec returns the parsed session spec.
func (r *SessionRequest) Spec() schedule.SessionSpec {
	return r.spec
}

func parseWeekday(raw string) (time.Weekday, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.ToLower(d.String()) == raw {
			return d, true
		}
	}
	return 0, false
}
