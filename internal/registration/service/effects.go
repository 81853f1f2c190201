package service

import (
	"fmt"
	"time"

	"campus/internal/platform/events"
	"campus/internal/registration/termreg"
)

const aggregateType = "term_registration"

type courseAddedPayload struct {
	RegistrationID string  `json:"registration_id"`
	EnrollmentID   string  `json:"enrollment_id"`
	CourseID       string  `json:"course_id"`
	InstructorID   *string `json:"instructor_id,omitempty"`
	Credits        int     `json:"credits"`
	NationalCredit int     `json:"national_credit"`
	TotalCredits   int     `json:"total_credits"`
}

type courseRemovedPayload struct {
	RegistrationID string `json:"registration_id"`
	EnrollmentID   string `json:"enrollment_id"`
	CourseID       string `json:"course_id"`
	Credits        int    `json:"credits"`
	TotalCredits   int    `json:"total_credits"`
}

type courseDroppedPayload struct {
	RegistrationID string `json:"registration_id"`
	CourseID       string `json:"course_id"`
	TotalCredits   int    `json:"total_credits"`
}

type courseCompletedPayload struct {
	RegistrationID string  `json:"registration_id"`
	CourseID       string  `json:"course_id"`
	GradePoint     float64 `json:"grade_point"`
	Outcome        string  `json:"outcome"`
}

type statusPayload struct {
	RegistrationID string  `json:"registration_id"`
	From           string  `json:"from"`
	To             string  `json:"to"`
	By             *string `json:"by,omitempty"`
	Reason         string  `json:"reason,omitempty"`
}

type deletedPayload struct {
	RegistrationID string `json:"registration_id"`
}

func toEnvelope(effect termreg.Effect) (events.Envelope, error) {
	var (
		payload any
		at      time.Time
	)
	switch e := effect.(type) {
	case termreg.CourseAdded:
		enrollment := e.Enrollment
		p := courseAddedPayload{
			RegistrationID: enrollment.RegistrationID().String(),
			EnrollmentID:   enrollment.ID().String(),
			CourseID:       enrollment.CourseID().String(),
			Credits:        enrollment.Credits(),
			NationalCredit: enrollment.NationalCredit(),
			TotalCredits:   e.TotalCredits,
		}
		if instructor := enrollment.InstructorID(); instructor != nil {
			v := instructor.String()
			p.InstructorID = &v
		}
		payload, at = p, enrollment.RegisteredAt()
	case termreg.CourseRemoved:
		payload = courseRemovedPayload{
			RegistrationID: e.RegistrationID.String(),
			EnrollmentID:   e.EnrollmentID.String(),
			CourseID:       e.CourseID.String(),
			Credits:        e.Credits,
			TotalCredits:   e.TotalCredits,
		}
		at = e.At
	case termreg.CourseDropped:
		payload = courseDroppedPayload{
			RegistrationID: e.RegistrationID.String(),
			CourseID:       e.CourseID.String(),
			TotalCredits:   e.TotalCredits,
		}
		at = e.At
	case termreg.CourseCompleted:
		payload = courseCompletedPayload{
			RegistrationID: e.RegistrationID.String(),
			CourseID:       e.CourseID.String(),
			GradePoint:     e.GradePoint,
			Outcome:        e.Outcome.String(),
		}
		at = e.At
	case termreg.StatusChanged:
		p := statusPayload{
			RegistrationID: e.RegistrationID.String(),
			From:           e.From.String(),
			To:             e.To.String(),
			Reason:         e.Reason,
		}
		if e.By != nil {
			v := e.By.String()
			p.By = &v
		}
		payload, at = p, e.At
	case termreg.Deleted:
		payload, at = deletedPayload{RegistrationID: e.RegistrationID.String()}, e.At
	default:
		return events.Envelope{}, fmt.Errorf("unknown registration effect %T", effect)
	}
	return events.NewEnvelope(effect.EffectName(), aggregateType, effect.AggregateID().String(), at, payload)
}
