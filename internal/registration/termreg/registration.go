package termreg

import (
	"strings"
	"time"
	"unicode/utf8"

	"campus/internal/registration/models"
	id "campus/pkg/domain"
	dErrors "campus/pkg/domain-errors"
)

const (
	// MaxCreditsPerTerm caps the ECTS load of one term registration.
	MaxCreditsPerTerm = 30
	// MaxRejectionReasonLength bounds advisor free text, in characters.
	MaxRejectionReasonLength = 500
)

// TermRegistration is the aggregate root for one student's course selection in
// one (academic year, term).
//
// Invariants:
//   - TotalCredits equals the credits of all non-dropped enrollments and never exceeds MaxCreditsPerTerm
//   - A course appears at most once
//   - Approved registrations are frozen; Cancelled and deleted are terminal
//   - Deletion is a tombstone, allowed only in Draft or Rejected
type TermRegistration struct {
	id           id.RegistrationID
	studentID    id.StudentID
	academicYear id.AcademicYear
	term         id.Term
	status       models.RegistrationStatus
	totalCredits int

	submittedAt     *time.Time
	approvedAt      *time.Time
	approvedBy      *id.AdvisorID
	rejectedAt      *time.Time
	rejectedBy      *id.AdvisorID
	rejectionReason string
	cancelledAt     *time.Time

	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
	version   int64

	enrollments map[id.EnrollmentID]*CourseEnrollment
	byCourse    map[id.CourseID]id.EnrollmentID
	order       []id.EnrollmentID
}

// New creates a Draft registration.
func New(
	registrationID id.RegistrationID,
	studentID id.StudentID,
	academicYear id.AcademicYear,
	term id.Term,
	now time.Time,
) (*TermRegistration, error) {
	if registrationID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "registration_id cannot be nil")
	}
	if studentID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "student_id is required")
	}
	if _, err := id.ParseAcademicYear(string(academicYear)); err != nil {
		return nil, err
	}
	if !term.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "term must be 1 or 2, got %d", int(term))
	}
	return &TermRegistration{
		id:           registrationID,
		studentID:    studentID,
		academicYear: academicYear,
		term:         term,
		status:       models.RegistrationStatusDraft,
		createdAt:    now,
		updatedAt:    now,
		enrollments:  make(map[id.EnrollmentID]*CourseEnrollment),
		byCourse:     make(map[id.CourseID]id.EnrollmentID),
	}, nil
}

func (r *TermRegistration) ID() id.RegistrationID             { return r.id }
func (r *TermRegistration) StudentID() id.StudentID           { return r.studentID }
func (r *TermRegistration) AcademicYear() id.AcademicYear     { return r.academicYear }
func (r *TermRegistration) Term() id.Term                     { return r.term }
func (r *TermRegistration) Status() models.RegistrationStatus { return r.status }
func (r *TermRegistration) TotalCredits() int                 { return r.totalCredits }
func (r *TermRegistration) CreatedAt() time.Time              { return r.createdAt }
func (r *TermRegistration) UpdatedAt() time.Time              { return r.updatedAt }
func (r *TermRegistration) Version() int64                    { return r.version }
func (r *TermRegistration) IsDeleted() bool                   { return r.deletedAt != nil }
func (r *TermRegistration) SubmittedAt() *time.Time           { return copyPtr(r.submittedAt) }
func (r *TermRegistration) ApprovedAt() *time.Time            { return copyPtr(r.approvedAt) }
func (r *TermRegistration) ApprovedBy() *id.AdvisorID         { return copyPtr(r.approvedBy) }
func (r *TermRegistration) RejectedAt() *time.Time            { return copyPtr(r.rejectedAt) }
func (r *TermRegistration) RejectedBy() *id.AdvisorID         { return copyPtr(r.rejectedBy) }
func (r *TermRegistration) RejectionReason() string           { return r.rejectionReason }
func (r *TermRegistration) CancelledAt() *time.Time           { return copyPtr(r.cancelledAt) }
func (r *TermRegistration) DeletedAt() *time.Time             { return copyPtr(r.deletedAt) }

// CanModify reports whether the student may still edit the selection.
func (r *TermRegistration) CanModify() bool {
	if r.deletedAt != nil {
		return false
	}
	return r.status == models.RegistrationStatusDraft || r.status == models.RegistrationStatusRejected
}

// AddCourse enrolls the student in a course. A rejected call leaves the
// registration unchanged.
func (r *TermRegistration) AddCourse(enrollmentID id.EnrollmentID, spec CourseSpec, now time.Time) (CourseAdded, error) {
	if err := r.ensureMutable(); err != nil {
		return CourseAdded{}, err
	}
	if enrollmentID.IsNil() {
		return CourseAdded{}, dErrors.New(dErrors.CodeValidation, "enrollment_id is required")
	}
	if err := spec.validate(); err != nil {
		return CourseAdded{}, err
	}
	if _, exists := r.byCourse[spec.CourseID]; exists {
		return CourseAdded{}, dErrors.Newf(dErrors.CodeDuplicateCourse, "course %s is already in this registration", spec.CourseID)
	}
	switch r.status {
	case models.RegistrationStatusApproved:
		return CourseAdded{}, invalidState("cannot add courses to an approved registration")
	case models.RegistrationStatusCancelled:
		return CourseAdded{}, invalidState("cannot add courses to a cancelled registration")
	}
	if r.totalCredits+spec.Credits > MaxCreditsPerTerm {
		return CourseAdded{}, &CreditLimitExceededError{
			Current:   r.totalCredits,
			Requested: spec.Credits,
			Limit:     MaxCreditsPerTerm,
		}
	}
	if _, exists := r.enrollments[enrollmentID]; exists {
		return CourseAdded{}, dErrors.Newf(dErrors.CodeConflict, "enrollment %s already exists", enrollmentID)
	}

	enrollment := &CourseEnrollment{
		id:             enrollmentID,
		registrationID: r.id,
		courseID:       spec.CourseID,
		instructorID:   copyPtr(spec.InstructorID),
		credits:        spec.Credits,
		nationalCredit: spec.NationalCredit,
		status:         models.EnrollmentStatusActive,
		registeredAt:   now,
	}
	r.insert(enrollment)
	r.recomputeTotals()
	r.updatedAt = now
	return CourseAdded{Enrollment: *enrollment, TotalCredits: r.totalCredits}, nil
}

// RemoveCourse takes a course out of the selection. Removing a course that is
// not present is a no-op and reports removed=false.
func (r *TermRegistration) RemoveCourse(courseID id.CourseID, now time.Time) (effect CourseRemoved, removed bool, err error) {
	if err := r.ensureMutable(); err != nil {
		return CourseRemoved{}, false, err
	}
	switch r.status {
	case models.RegistrationStatusApproved:
		return CourseRemoved{}, false, invalidState("cannot remove courses from an approved registration")
	case models.RegistrationStatusCancelled:
		return CourseRemoved{}, false, invalidState("cannot remove courses from a cancelled registration")
	}
	enrollmentID, ok := r.byCourse[courseID]
	if !ok {
		return CourseRemoved{}, false, nil
	}

	enrollment := r.enrollments[enrollmentID]
	delete(r.enrollments, enrollmentID)
	delete(r.byCourse, courseID)
	r.order = removeID(r.order, enrollmentID)
	r.recomputeTotals()
	r.updatedAt = now
	return CourseRemoved{
		RegistrationID: r.id,
		EnrollmentID:   enrollmentID,
		CourseID:       courseID,
		Credits:        enrollment.credits,
		TotalCredits:   r.totalCredits,
		At:             now,
	}, true, nil
}

// DropCourse withdraws from an Active course of an approved registration. The
// dropped credits no longer count toward the term load.
func (r *TermRegistration) DropCourse(courseID id.CourseID, now time.Time) (CourseDropped, error) {
	enrollment, err := r.runningEnrollment(courseID, "drop")
	if err != nil {
		return CourseDropped{}, err
	}
	if err := enrollment.drop(now); err != nil {
		return CourseDropped{}, err
	}
	r.recomputeTotals()
	r.updatedAt = now
	return CourseDropped{
		RegistrationID: r.id,
		CourseID:       courseID,
		TotalCredits:   r.totalCredits,
		At:             now,
	}, nil
}

// CompleteCourse records the final grade point of an Active course of an
// approved registration, routing it to Passed or Failed.
func (r *TermRegistration) CompleteCourse(courseID id.CourseID, gradePoint float64, now time.Time) (CourseCompleted, error) {
	enrollment, err := r.runningEnrollment(courseID, "complete")
	if err != nil {
		return CourseCompleted{}, err
	}
	if err := enrollment.complete(gradePoint, now); err != nil {
		return CourseCompleted{}, err
	}
	r.updatedAt = now
	return CourseCompleted{
		RegistrationID: r.id,
		CourseID:       courseID,
		GradePoint:     gradePoint,
		Outcome:        enrollment.status,
		At:             now,
	}, nil
}

// Submit sends a Draft or Rejected registration for advisor review.
func (r *TermRegistration) Submit(now time.Time) (StatusChanged, error) {
	if err := r.canTransition(actionSubmit); err != nil {
		return StatusChanged{}, err
	}
	if len(r.order) == 0 {
		return StatusChanged{}, dErrors.New(dErrors.CodeEmptyRegistration, "cannot submit a registration without courses")
	}
	submittedAt := now
	r.submittedAt = &submittedAt
	return r.applyTransition(actionSubmit, now), nil
}

// Approve freezes a Submitted registration and records the advisor.
func (r *TermRegistration) Approve(advisorID id.AdvisorID, now time.Time) (StatusChanged, error) {
	if advisorID.IsNil() {
		return StatusChanged{}, dErrors.New(dErrors.CodeValidation, "advisor_id is required")
	}
	if err := r.canTransition(actionApprove); err != nil {
		return StatusChanged{}, err
	}
	approvedAt, approvedBy := now, advisorID
	r.approvedAt = &approvedAt
	r.approvedBy = &approvedBy
	effect := r.applyTransition(actionApprove, now)
	effect.By = copyPtr(&advisorID)
	return effect, nil
}

// Reject returns a Submitted registration to the student with a reason.
// The advisor, time and reason are kept apart from the approval fields.
func (r *TermRegistration) Reject(advisorID id.AdvisorID, reason string, now time.Time) (StatusChanged, error) {
	if advisorID.IsNil() {
		return StatusChanged{}, dErrors.New(dErrors.CodeValidation, "advisor_id is required")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return StatusChanged{}, dErrors.New(dErrors.CodeValidation, "rejection reason is required")
	}
	if utf8.RuneCountInString(reason) > MaxRejectionReasonLength {
		return StatusChanged{}, dErrors.Newf(dErrors.CodeValidation, "rejection reason must be at most %d characters", MaxRejectionReasonLength)
	}
	if err := r.canTransition(actionReject); err != nil {
		return StatusChanged{}, err
	}
	rejectedAt, rejectedBy := now, advisorID
	r.rejectedAt = &rejectedAt
	r.rejectedBy = &rejectedBy
	r.rejectionReason = reason
	effect := r.applyTransition(actionReject, now)
	effect.By = copyPtr(&advisorID)
	effect.Reason = reason
	return effect, nil
}

// Cancel withdraws a registration that has not been approved. Cancelled is terminal.
func (r *TermRegistration) Cancel(now time.Time) (StatusChanged, error) {
	if err := r.canTransition(actionCancel); err != nil {
		return StatusChanged{}, err
	}
	cancelledAt := now
	r.cancelledAt = &cancelledAt
	return r.applyTransition(actionCancel, now), nil
}

// SoftDelete tombstones the registration. Only Draft and Rejected registrations
// may be deleted.
func (r *TermRegistration) SoftDelete(now time.Time) (Deleted, error) {
	if err := r.ensureMutable(); err != nil {
		return Deleted{}, err
	}
	if r.status != models.RegistrationStatusDraft && r.status != models.RegistrationStatusRejected {
		return Deleted{}, invalidState("cannot delete a registration in status %s", r.status)
	}
	deletedAt := now
	r.deletedAt = &deletedAt
	r.updatedAt = now
	return Deleted{RegistrationID: r.id, At: now}, nil
}

// Enrollments returns a snapshot of every enrollment in insertion order,
// dropped and completed ones included.
func (r *TermRegistration) Enrollments() []CourseEnrollment {
	out := make([]CourseEnrollment, 0, len(r.order))
	for _, enrollmentID := range r.order {
		out = append(out, *r.enrollments[enrollmentID])
	}
	return out
}

// Enrollment looks up the enrollment for a course.
func (r *TermRegistration) Enrollment(courseID id.CourseID) (CourseEnrollment, bool) {
	enrollmentID, ok := r.byCourse[courseID]
	if !ok {
		return CourseEnrollment{}, false
	}
	return *r.enrollments[enrollmentID], true
}

// HasCourse reports whether the course is part of the selection.
func (r *TermRegistration) HasCourse(courseID id.CourseID) bool {
	_, ok := r.byCourse[courseID]
	return ok
}

// TotalNationalCredits sums national credits of non-dropped enrollments.
func (r *TermRegistration) TotalNationalCredits() int {
	total := 0
	for _, enrollmentID := range r.order {
		e := r.enrollments[enrollmentID]
		if e.CountsTowardCredits() {
			total += e.nationalCredit
		}
	}
	return total
}

func (r *TermRegistration) runningEnrollment(courseID id.CourseID, verb string) (*CourseEnrollment, error) {
	if err := r.ensureMutable(); err != nil {
		return nil, err
	}
	if r.status != models.RegistrationStatusApproved {
		return nil, invalidState("cannot %s a course of a registration in status %s", verb, r.status)
	}
	enrollmentID, ok := r.byCourse[courseID]
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "course %s is not in this registration", courseID)
	}
	return r.enrollments[enrollmentID], nil
}

func (r *TermRegistration) insert(e *CourseEnrollment) {
	r.enrollments[e.id] = e
	r.byCourse[e.courseID] = e.id
	r.order = append(r.order, e.id)
}

func (r *TermRegistration) recomputeTotals() {
	total := 0
	for _, enrollmentID := range r.order {
		e := r.enrollments[enrollmentID]
		if e.CountsTowardCredits() {
			total += e.credits
		}
	}
	r.totalCredits = total
}

func (r *TermRegistration) ensureMutable() error {
	if r.deletedAt != nil {
		return invalidState("registration %s is deleted", r.id)
	}
	return nil
}

func removeID(ids []id.EnrollmentID, target id.EnrollmentID) []id.EnrollmentID {
	out := ids[:0]
	for _, v := range ids {
		if v != target {
			out = append(out, v)
		}
	}
	return out
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
