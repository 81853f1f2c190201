package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"campus/internal/audit"
	"campus/internal/registration/termreg"
	id "campus/pkg/domain"
	dErrors "campus/pkg/domain-errors"
	"campus/pkg/requestcontext"
)

// CreateRegistrationCommand is the input for CreateRegistration.
type CreateRegistrationCommand struct {
	StudentID    id.StudentID
	AcademicYear id.AcademicYear
	Term         id.Term
}

// CreateRegistration opens a Draft registration for one student and term.
func (s *Service) CreateRegistration(ctx context.Context, cmd CreateRegistrationCommand) (*termreg.TermRegistration, error) {
	start := time.Now()
	defer s.metrics.ObserveCommand("create", start)
	ctx, span := s.tracer.Start(ctx, "registration.create")
	defer span.End()

	reg, err := termreg.New(id.NewRegistrationID(), cmd.StudentID, cmd.AcademicYear, cmd.Term, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}
	record := termreg.ToModel(reg)
	version, err := s.store.Create(ctx, record)
	if err != nil {
		return nil, translateStoreError(err, "failed to create registration")
	}
	record.Version = version
	if reg, err = termreg.FromModel(record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to rebuild saved registration")
	}

	s.logAudit(ctx, audit.ActionRegistrationNew,
		"registration_id", reg.ID().String(),
		"student_id", reg.StudentID().String(),
		"academic_year", reg.AcademicYear().String(),
		"term", reg.Term().String(),
	)
	return reg, nil
}

// GetRegistration loads a registration. Deleted registrations are reported as not found.
func (s *Service) GetRegistration(ctx context.Context, registrationID id.RegistrationID) (*termreg.TermRegistration, error) {
	reg, err := s.load(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if reg.IsDeleted() {
		return nil, dErrors.New(dErrors.CodeNotFound, "registration not found")
	}
	return reg, nil
}

// ListRegistrations returns the student's live registrations.
func (s *Service) ListRegistrations(ctx context.Context, studentID id.StudentID) ([]*termreg.TermRegistration, error) {
	records, err := s.store.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, translateStoreError(err, "failed to list registrations")
	}
	out := make([]*termreg.TermRegistration, 0, len(records))
	for _, record := range records {
		reg, err := termreg.FromModel(record)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "stored registration is corrupt")
		}
		out = append(out, reg)
	}
	return out, nil
}

// AddCourse enrolls the student in a course, enforcing the term credit cap.
func (s *Service) AddCourse(ctx context.Context, registrationID id.RegistrationID, spec termreg.CourseSpec) (termreg.CourseEnrollment, error) {
	enrollmentID := id.NewEnrollmentID()
	reg, err := s.mutate(ctx, "add_course", registrationID, func(reg *termreg.TermRegistration, now time.Time) ([]termreg.Effect, error) {
		added, err := reg.AddCourse(enrollmentID, spec, now)
		if err != nil {
			return nil, err
		}
		return []termreg.Effect{added}, nil
	})
	if err != nil {
		var limit *termreg.CreditLimitExceededError
		switch {
		case errors.As(err, &limit):
			s.metrics.IncrementCreditLimitRejected()
		case dErrors.HasCode(err, dErrors.CodeDuplicateCourse):
			s.metrics.IncrementDuplicateRejected()
		}
		return termreg.CourseEnrollment{}, err
	}

	enrollment, _ := reg.Enrollment(spec.CourseID)
	s.metrics.IncrementCoursesAdded()
	s.logAudit(ctx, audit.ActionCourseAdded,
		"registration_id", registrationID.String(),
		"course_id", spec.CourseID.String(),
		"credits", strconv.Itoa(spec.Credits),
		"total_credits", strconv.Itoa(reg.TotalCredits()),
	)
	return enrollment, nil
}

// RemoveCourse takes a course out of an editable registration. It reports
// whether the course was present; removing an absent course is not an error.
func (s *Service) RemoveCourse(ctx context.Context, registrationID id.RegistrationID, courseID id.CourseID) (bool, error) {
	var removed bool
	_, err := s.mutate(ctx, "remove_course", registrationID, func(reg *termreg.TermRegistration, now time.Time) ([]termreg.Effect, error) {
		effect, ok, err := reg.RemoveCourse(courseID, now)
		if err != nil || !ok {
			return nil, err
		}
		removed = true
		return []termreg.Effect{effect}, nil
	})
	if err != nil {
		return false, err
	}
	if removed {
		s.metrics.IncrementCoursesRemoved()
		s.logAudit(ctx, audit.ActionCourseRemoved,
			"registration_id", registrationID.String(),
			"course_id", courseID.String(),
		)
	}
	return removed, nil
}

// DropCourse withdraws from a running course of an approved registration.
func (s *Service) DropCourse(ctx context.Context, registrationID id.RegistrationID, courseID id.CourseID) (termreg.CourseEnrollment, error) {
	reg, err := s.mutate(ctx, "drop_course", registrationID, func(reg *termreg.TermRegistration, now time.Time) ([]termreg.Effect, error) {
		dropped, err := reg.DropCourse(courseID, now)
		if err != nil {
			return nil, err
		}
		return []termreg.Effect{dropped}, nil
	})
	if err != nil {
		return termreg.CourseEnrollment{}, err
	}
	enrollment, _ := reg.Enrollment(courseID)
	s.metrics.IncrementOutcome(enrollment.Status().String())
	s.logAudit(ctx, audit.ActionCourseDropped,
		"registration_id", registrationID.String(),
		"course_id", courseID.String(),
	)
	return enrollment, nil
}

// CompleteCourse records the final grade point of a running course.
func (s *Service) CompleteCourse(ctx context.Context, registrationID id.RegistrationID, courseID id.CourseID, gradePoint float64) (termreg.CourseEnrollment, error) {
	reg, err := s.mutate(ctx, "complete_course", registrationID, func(reg *termreg.TermRegistration, now time.Time) ([]termreg.Effect, error) {
		completed, err := reg.CompleteCourse(courseID, gradePoint, now)
		if err != nil {
			return nil, err
		}
		return []termreg.Effect{completed}, nil
	})
	if err != nil {
		return termreg.CourseEnrollment{}, err
	}
	enrollment, _ := reg.Enrollment(courseID)
	s.metrics.IncrementOutcome(enrollment.Status().String())
	s.logAudit(ctx, audit.ActionCourseCompleted,
		"registration_id", registrationID.String(),
		"course_id", courseID.String(),
		"outcome", enrollment.Status().String(),
	)
	return enrollment, nil
}

// Submit sends the registration for advisor review.
func (s *Service) Submit(ctx context.Context, registrationID id.RegistrationID) (*termreg.TermRegistration, error) {
	reg, err := s.transition(ctx, "submit", registrationID, (*termreg.TermRegistration).Submit)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveSubmittedCredits(reg.TotalCredits())
	return reg, nil
}

// Approve records the authenticated advisor's approval.
func (s *Service) Approve(ctx context.Context, registrationID id.RegistrationID) (*termreg.TermRegistration, error) {
	advisor, err := actingAdvisor(ctx)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, "approve", registrationID, func(reg *termreg.TermRegistration, now time.Time) (termreg.StatusChanged, error) {
		return reg.Approve(advisor, now)
	})
}

// Reject returns the registration to the student with the advisor's reason.
func (s *Service) Reject(ctx context.Context, registrationID id.RegistrationID, reason string) (*termreg.TermRegistration, error) {
	advisor, err := actingAdvisor(ctx)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, "reject", registrationID, func(reg *termreg.TermRegistration, now time.Time) (termreg.StatusChanged, error) {
		return reg.Reject(advisor, reason, now)
	})
}

// Cancel withdraws a registration that has not been approved.
func (s *Service) Cancel(ctx context.Context, registrationID id.RegistrationID) (*termreg.TermRegistration, error) {
	return s.transition(ctx, "cancel", registrationID, (*termreg.TermRegistration).Cancel)
}

func (s *Service) transition(
	ctx context.Context,
	command string,
	registrationID id.RegistrationID,
	apply func(*termreg.TermRegistration, time.Time) (termreg.StatusChanged, error),
) (*termreg.TermRegistration, error) {
	var changed termreg.StatusChanged
	reg, err := s.mutate(ctx, command, registrationID, func(reg *termreg.TermRegistration, now time.Time) ([]termreg.Effect, error) {
		effect, err := apply(reg, now)
		if err != nil {
			return nil, err
		}
		changed = effect
		return []termreg.Effect{effect}, nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncrementTransition(changed.To.String())
	s.logAudit(ctx, audit.ActionRegistrationState,
		"registration_id", registrationID.String(),
		"from", changed.From.String(),
		"to", changed.To.String(),
		"reason", changed.Reason,
	)
	return reg, nil
}

// Delete tombstones a Draft or Rejected registration.
func (s *Service) Delete(ctx context.Context, registrationID id.RegistrationID) error {
	_, err := s.mutate(ctx, "delete", registrationID, func(reg *termreg.TermRegistration, now time.Time) ([]termreg.Effect, error) {
		deleted, err := reg.SoftDelete(now)
		if err != nil {
			return nil, err
		}
		return []termreg.Effect{deleted}, nil
	})
	if err != nil {
		return err
	}
	s.logAudit(ctx, audit.ActionRegistrationGone, "registration_id", registrationID.String())
	return nil
}
