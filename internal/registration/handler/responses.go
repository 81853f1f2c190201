package handler

import (
	"time"

	"campus/internal/registration/termreg"
)

// RegistrationResponse is the JSON view of a term registration.
type RegistrationResponse struct {
	ID                   string               `json:"id"`
	StudentID            string               `json:"student_id"`
	AcademicYear         string               `json:"academic_year"`
	Term                 int                  `json:"term"`
	Status               string               `json:"status"`
	TotalCredits         int                  `json:"total_credits"`
	TotalNationalCredits int                  `json:"total_national_credits"`
	Enrollments          []EnrollmentResponse `json:"enrollments"`
	SubmittedAt          *time.Time           `json:"submitted_at,omitempty"`
	ApprovedAt           *time.Time           `json:"approved_at,omitempty"`
	ApprovedBy           *string              `json:"approved_by,omitempty"`
	RejectedAt           *time.Time           `json:"rejected_at,omitempty"`
	RejectedBy           *string              `json:"rejected_by,omitempty"`
	RejectionReason      string               `json:"rejection_reason,omitempty"`
	CancelledAt          *time.Time           `json:"cancelled_at,omitempty"`
	CreatedAt            time.Time            `json:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at"`
	Version              int64                `json:"version"`
}

// EnrollmentResponse is the JSON view of one course enrollment.
type EnrollmentResponse struct {
	ID             string     `json:"id"`
	CourseID       string     `json:"course_id"`
	InstructorID   *string    `json:"instructor_id,omitempty"`
	Credits        int        `json:"credits"`
	NationalCredit int        `json:"national_credit"`
	Status         string     `json:"status"`
	GradePoint     *float64   `json:"grade_point,omitempty"`
	AttendanceRate float64    `json:"attendance_rate"`
	RegisteredAt   time.Time  `json:"registered_at"`
	DroppedAt      *time.Time `json:"dropped_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

func toRegistrationResponse(r *termreg.TermRegistration) RegistrationResponse {
	resp := RegistrationResponse{
		ID:                   r.ID().String(),
		StudentID:            r.StudentID().String(),
		AcademicYear:         r.AcademicYear().String(),
		Term:                 int(r.Term()),
		Status:               r.Status().String(),
		TotalCredits:         r.TotalCredits(),
		TotalNationalCredits: r.TotalNationalCredits(),
		SubmittedAt:          r.SubmittedAt(),
		ApprovedAt:           r.ApprovedAt(),
		RejectedAt:           r.RejectedAt(),
		RejectionReason:      r.RejectionReason(),
		CancelledAt:          r.CancelledAt(),
		CreatedAt:            r.CreatedAt(),
		UpdatedAt:            r.UpdatedAt(),
		Version:              r.Version(),
	}
	if by := r.ApprovedBy(); by != nil {
		v := by.String()
		resp.ApprovedBy = &v
	}
	if by := r.RejectedBy(); by != nil {
		v := by.String()
		resp.RejectedBy = &v
	}
	enrollments := r.Enrollments()
	resp.Enrollments = make([]EnrollmentResponse, 0, len(enrollments))
	for _, e := range enrollments {
		resp.Enrollments = append(resp.Enrollments, toEnrollmentResponse(e))
	}
	return resp
}

func toEnrollmentResponse(e termreg.CourseEnrollment) EnrollmentResponse {
	resp := EnrollmentResponse{
		ID:             e.ID().String(),
		CourseID:       e.CourseID().String(),
		Credits:        e.Credits(),
		NationalCredit: e.NationalCredit(),
		Status:         e.Status().String(),
		GradePoint:     e.GradePoint(),
		AttendanceRate: e.AttendanceRate(),
		RegisteredAt:   e.RegisteredAt(),
		DroppedAt:      e.DroppedAt(),
		CompletedAt:    e.CompletedAt(),
	}
	if instructor := e.InstructorID(); instructor != nil {
		v := instructor.String()
		resp.InstructorID = &v
	}
	return resp
}
