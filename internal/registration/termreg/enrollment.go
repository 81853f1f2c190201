package termreg

import (
	"slices"
	"time"

	"campus/internal/registration/models"
	id "campus/pkg/domain"
	dErrors "campus/pkg/domain-errors"
)

const (
	// PassingGradePoint is the lowest grade point that completes a course as Passed.
	PassingGradePoint = 2.0
	// MaxGradePoint is the top of the grade point scale.
	MaxGradePoint = 4.0
)

// CourseEnrollment is one student's registration in one course. Enrollments are
// owned by a TermRegistration and only created through TermRegistration.AddCourse.
type CourseEnrollment struct {
	id             id.EnrollmentID
	registrationID id.RegistrationID
	courseID       id.CourseID
	instructorID   *id.InstructorID
	credits        int
	nationalCredit int
	status         models.EnrollmentStatus
	gradePoint     *float64
	registeredAt   time.Time
	droppedAt      *time.Time
	completedAt    *time.Time

	grades     []models.GradeRecord
	attendance []models.AttendanceRecord
}

func (e CourseEnrollment) ID() id.EnrollmentID                   { return e.id }
func (e CourseEnrollment) RegistrationID() id.RegistrationID     { return e.registrationID }
func (e CourseEnrollment) CourseID() id.CourseID                 { return e.courseID }
func (e CourseEnrollment) Credits() int                          { return e.credits }
func (e CourseEnrollment) NationalCredit() int                   { return e.nationalCredit }
func (e CourseEnrollment) Status() models.EnrollmentStatus       { return e.status }
func (e CourseEnrollment) RegisteredAt() time.Time               { return e.registeredAt }
func (e CourseEnrollment) InstructorID() *id.InstructorID        { return copyPtr(e.instructorID) }
func (e CourseEnrollment) GradePoint() *float64                  { return copyPtr(e.gradePoint) }
func (e CourseEnrollment) DroppedAt() *time.Time                 { return copyPtr(e.droppedAt) }
func (e CourseEnrollment) CompletedAt() *time.Time               { return copyPtr(e.completedAt) }
func (e CourseEnrollment) Grades() []models.GradeRecord          { return slices.Clone(e.grades) }
func (e CourseEnrollment) Attendance() []models.AttendanceRecord { return slices.Clone(e.attendance) }

// CountsTowardCredits reports whether the enrollment is part of the term load.
// Dropped courses free their credits.
func (e CourseEnrollment) CountsTowardCredits() bool {
	return e.status != models.EnrollmentStatusDropped
}

// AttendanceRate is the percentage of roll calls attended (present or late).
// It is 0 when no attendance has been recorded.
func (e CourseEnrollment) AttendanceRate() float64 {
	if len(e.attendance) == 0 {
		return 0
	}
	attended := 0
	for _, a := range e.attendance {
		if a.Status.Attended() {
			attended++
		}
	}
	return float64(attended) * 100 / float64(len(e.attendance))
}

// FinalGrade returns the most recent grade record of kind final.
func (e CourseEnrollment) FinalGrade() (models.GradeRecord, bool) {
	var (
		final models.GradeRecord
		found bool
	)
	for _, g := range e.grades {
		if g.Kind != models.GradeKindFinal {
			continue
		}
		if !found || g.RecordedAt.After(final.RecordedAt) {
			final, found = g, true
		}
	}
	return final, found
}

// drop moves an Active enrollment to Dropped.
func (e *CourseEnrollment) drop(now time.Time) error {
	if e.status != models.EnrollmentStatusActive {
		return invalidState("cannot drop course %s in status %s", e.courseID, e.status)
	}
	droppedAt := now
	e.status = models.EnrollmentStatusDropped
	e.droppedAt = &droppedAt
	return nil
}

// complete grades an Active enrollment as Passed or Failed.
func (e *CourseEnrollment) complete(gradePoint float64, now time.Time) error {
	if e.status != models.EnrollmentStatusActive {
		return invalidState("cannot complete course %s in status %s", e.courseID, e.status)
	}
	if gradePoint < 0 || gradePoint > MaxGradePoint {
		return dErrors.Newf(dErrors.CodeValidation, "grade point must be between 0.0 and %.1f, got %.2f", MaxGradePoint, gradePoint)
	}
	e.status = models.EnrollmentStatusFailed
	if gradePoint >= PassingGradePoint {
		e.status = models.EnrollmentStatusPassed
	}
	completedAt := now
	e.gradePoint = &gradePoint
	e.completedAt = &completedAt
	return nil
}

// CourseSpec is the caller-supplied input for a new enrollment. Credit values
// come from the course catalog.
type CourseSpec struct {
	CourseID       id.CourseID
	InstructorID   *id.InstructorID
	Credits        int
	NationalCredit int
}

func (c CourseSpec) validate() error {
	if c.CourseID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "course_id is required")
	}
	if c.InstructorID != nil && c.InstructorID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "instructor_id cannot be nil when set")
	}
	if c.Credits <= 0 {
		return dErrors.Newf(dErrors.CodeValidation, "credits must be positive, got %d", c.Credits)
	}
	if c.NationalCredit < 0 {
		return dErrors.Newf(dErrors.CodeValidation, "national credit must not be negative, got %d", c.NationalCredit)
	}
	return nil
}
