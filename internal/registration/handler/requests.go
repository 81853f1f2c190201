package handler

import (
	"campus/internal/registration/service"
	"campus/internal/registration/termreg"
	id "campus/pkg/domain"
)

// CreateRegistrationRequest is the body of POST /registrations.
type CreateRegistrationRequest struct {
	StudentID    string `json:"student_id" validate:"required,uuid"`
	AcademicYear string `json:"academic_year" validate:"required"`
	Term         int    `json:"term" validate:"required,oneof=1 2"`

	command service.CreateRegistrationCommand
}

// Validate parses the request into a command.
func (r *CreateRegistrationRequest) Validate() error {
	studentID, err := id.ParseStudentID(r.StudentID)
	if err != nil {
		return err
	}
	year, err := id.ParseAcademicYear(r.AcademicYear)
	if err != nil {
		return err
	}
	term, err := id.ParseTerm(r.Term)
	if err != nil {
		return err
	}
	r.command = service.CreateRegistrationCommand{StudentID: studentID, AcademicYear: year, Term: term}
	return nil
}

func (r *CreateRegistrationRequest) Command() service.CreateRegistrationCommand {
	return r.command
}

// AddCourseRequest is the body of POST /registrations/{id}/courses.
// Credit values come from the course catalog.
type AddCourseRequest struct {
	CourseID       string  `json:"course_id" validate:"required,uuid"`
	InstructorID   *string `json:"instructor_id,omitempty" validate:"omitempty,uuid"`
	Credits        int     `json:"credits" validate:"required,gt=0"`
	NationalCredit int     `json:"national_credit" validate:"gte=0"`

	spec termreg.CourseSpec
}

// Validate parses the request into a course spec.
func (r *AddCourseRequest) Validate() error {
	courseID, err := id.ParseCourseID(r.CourseID)
	if err != nil {
		return err
	}
	r.spec = termreg.CourseSpec{CourseID: courseID, Credits: r.Credits, NationalCredit: r.NationalCredit}
	if r.InstructorID != nil {
		instructorID, err := id.ParseInstructorID(*r.InstructorID)
		if err != nil {
			return err
		}
		r.spec.InstructorID = &instructorID
	}
	return nil
}

func (r *AddCourseRequest) Spec() termreg.CourseSpec {
	return r.spec
}

// CompleteCourseRequest is the body of POST /registrations/{id}/courses/{courseID}/complete.
type CompleteCourseRequest struct {
	GradePoint *float64 `json:"grade_point" validate:"required,gte=0,lte=4"`
}

func (r *CompleteCourseRequest) Validate() error { return nil }

// RejectRequest is the body of POST /registrations/{id}/reject.
type RejectRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

func (r *RejectRequest) Validate() error { return nil }
