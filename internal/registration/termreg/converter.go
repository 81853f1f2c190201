package termreg

import (
	"slices"

	"campus/internal/registration/models"
	dErrors "campus/pkg/domain-errors"
)

// ToModel converts the aggregate into its persistence record.
func ToModel(r *TermRegistration) models.RegistrationRecord {
	record := models.RegistrationRecord{
		ID:              r.id,
		StudentID:       r.studentID,
		AcademicYear:    r.academicYear,
		Term:            r.term,
		Status:          r.status,
		TotalCredits:    r.totalCredits,
		SubmittedAt:     copyPtr(r.submittedAt),
		ApprovedAt:      copyPtr(r.approvedAt),
		ApprovedBy:      copyPtr(r.approvedBy),
		RejectedAt:      copyPtr(r.rejectedAt),
		RejectedBy:      copyPtr(r.rejectedBy),
		RejectionReason: r.rejectionReason,
		CancelledAt:     copyPtr(r.cancelledAt),
		CreatedAt:       r.createdAt,
		UpdatedAt:       r.updatedAt,
		DeletedAt:       copyPtr(r.deletedAt),
		Version:         r.version,
		Enrollments:     make([]models.EnrollmentRecord, 0, len(r.order)),
	}
	for _, enrollmentID := range r.order {
		e := r.enrollments[enrollmentID]
		record.Enrollments = append(record.Enrollments, models.EnrollmentRecord{
			ID:             e.id,
			RegistrationID: r.id,
			CourseID:       e.courseID,
			InstructorID:   copyPtr(e.instructorID),
			Credits:        e.credits,
			NationalCredit: e.nationalCredit,
			Status:         e.status,
			GradePoint:     copyPtr(e.gradePoint),
			RegisteredAt:   e.registeredAt,
			DroppedAt:      copyPtr(e.droppedAt),
			CompletedAt:    copyPtr(e.completedAt),
			Grades:         slices.Clone(e.grades),
			Attendance:     slices.Clone(e.attendance),
		})
	}
	return record
}

// FromModel rebuilds the aggregate from a persistence record, re-checking the
// credit cap and course uniqueness. The stored TotalCredits is recomputed
// rather than trusted.
func FromModel(m models.RegistrationRecord) (*TermRegistration, error) {
	if !m.Status.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "unknown registration status %q", m.Status)
	}
	r, err := New(m.ID, m.StudentID, m.AcademicYear, m.Term, m.CreatedAt)
	if err != nil {
		return nil, err
	}
	for _, e := range m.Enrollments {
		if !e.Status.IsValid() {
			return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "unknown enrollment status %q", e.Status)
		}
		spec := CourseSpec{
			CourseID:       e.CourseID,
			InstructorID:   e.InstructorID,
			Credits:        e.Credits,
			NationalCredit: e.NationalCredit,
		}
		if err := spec.validate(); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "stored enrollment is invalid")
		}
		if e.ID.IsNil() {
			return nil, dErrors.New(dErrors.CodeInvariantViolation, "stored enrollment has no id")
		}
		if r.HasCourse(e.CourseID) {
			return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "stored registration lists course %s twice", e.CourseID)
		}
		r.insert(&CourseEnrollment{
			id:             e.ID,
			registrationID: r.id,
			courseID:       e.CourseID,
			instructorID:   copyPtr(e.InstructorID),
			credits:        e.Credits,
			nationalCredit: e.NationalCredit,
			status:         e.Status,
			gradePoint:     copyPtr(e.GradePoint),
			registeredAt:   e.RegisteredAt,
			droppedAt:      copyPtr(e.DroppedAt),
			completedAt:    copyPtr(e.CompletedAt),
			grades:         slices.Clone(e.Grades),
			attendance:     slices.Clone(e.Attendance),
		})
	}
	r.recomputeTotals()
	if r.totalCredits > MaxCreditsPerTerm {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "stored registration carries %d credits, above the %d limit", r.totalCredits, MaxCreditsPerTerm)
	}

	r.status = m.Status
	r.submittedAt = copyPtr(m.SubmittedAt)
	r.approvedAt = copyPtr(m.ApprovedAt)
	r.approvedBy = copyPtr(m.ApprovedBy)
	r.rejectedAt = copyPtr(m.RejectedAt)
	r.rejectedBy = copyPtr(m.RejectedBy)
	r.rejectionReason = m.RejectionReason
	r.cancelledAt = copyPtr(m.CancelledAt)
	r.updatedAt = m.UpdatedAt
	r.deletedAt = copyPtr(m.DeletedAt)
	r.version = m.Version
	return r, nil
}
