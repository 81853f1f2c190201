package models

import (
	"time"

	id "campus/pkg/domain"
)

// RegistrationStatus is the approval lifecycle state of a term registration.
type RegistrationStatus string

const (
	RegistrationStatusDraft     RegistrationStatus = "draft"
	RegistrationStatusSubmitted RegistrationStatus = "submitted"
	RegistrationStatusApproved  RegistrationStatus = "approved"
	RegistrationStatusRejected  RegistrationStatus = "rejected"
	RegistrationStatusCancelled RegistrationStatus = "cancelled"
)

func (s RegistrationStatus) IsValid() bool {
	switch s {
	case RegistrationStatusDraft, RegistrationStatusSubmitted, RegistrationStatusApproved,
		RegistrationStatusRejected, RegistrationStatusCancelled:
		return true
	}
	return false
}

func (s RegistrationStatus) String() string { return string(s) }

// EnrollmentStatus is the per-course lifecycle state.
type EnrollmentStatus string

const (
	EnrollmentStatusActive  EnrollmentStatus = "active"
	EnrollmentStatusDropped EnrollmentStatus = "dropped"
	EnrollmentStatusPassed  EnrollmentStatus = "passed"
	EnrollmentStatusFailed  EnrollmentStatus = "failed"
)

func (s EnrollmentStatus) IsValid() bool {
	switch s {
	case EnrollmentStatusActive, EnrollmentStatusDropped, EnrollmentStatusPassed, EnrollmentStatusFailed:
		return true
	}
	return false
}

func (s EnrollmentStatus) String() string { return string(s) }

// GradeKind classifies a grade record.
type GradeKind string

const (
	GradeKindMidterm    GradeKind = "midterm"
	GradeKindFinal      GradeKind = "final"
	GradeKindAssignment GradeKind = "assignment"
	GradeKindQuiz       GradeKind = "quiz"
)

// AttendanceStatus is the outcome of one attendance roll call.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusLate    AttendanceStatus = "late"
	AttendanceStatusAbsent  AttendanceStatus = "absent"
	AttendanceStatusExcused AttendanceStatus = "excused"
)

// Attended reports whether the status counts toward the attendance rate.
func (s AttendanceStatus) Attended() bool {
	return s == AttendanceStatusPresent || s == AttendanceStatusLate
}

// GradeRecord is a grade entered outside this service and read with an enrollment.
type GradeRecord struct {
	Kind       GradeKind
	Score      float64
	GradePoint float64
	RecordedAt time.Time
}

// AttendanceRecord is one roll call entry read with an enrollment.
type AttendanceRecord struct {
	Date   time.Time
	Status AttendanceStatus
}

// RegistrationRecord is the persistence shape of a term registration.
type RegistrationRecord struct {
	ID              id.RegistrationID
	StudentID       id.StudentID
	AcademicYear    id.AcademicYear
	Term            id.Term
	Status          RegistrationStatus
	TotalCredits    int
	SubmittedAt     *time.Time
	ApprovedAt      *time.Time
	ApprovedBy      *id.AdvisorID
	RejectedAt      *time.Time
	RejectedBy      *id.AdvisorID
	RejectionReason string
	CancelledAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       *time.Time
	Version         int64
	Enrollments     []EnrollmentRecord
}

// EnrollmentRecord is the persistence shape of one course enrollment.
type EnrollmentRecord struct {
	ID             id.EnrollmentID
	RegistrationID id.RegistrationID
	CourseID       id.CourseID
	InstructorID   *id.InstructorID
	Credits        int
	NationalCredit int
	Status         EnrollmentStatus
	GradePoint     *float64
	RegisteredAt   time.Time
	DroppedAt      *time.Time
	CompletedAt    *time.Time

	Grades     []GradeRecord
	Attendance []AttendanceRecord
}
