package termreg

import (
	"slices"
	"time"

	"campus/internal/registration/models"
)

type action string

const (
	actionSubmit  action = "submit"
	actionApprove action = "approve"
	actionReject  action = "reject"
	actionCancel  action = "cancel"
)

type transitionRule struct {
	from []models.RegistrationStatus
	to   models.RegistrationStatus
}

// lifecycle is the complete transition table. Any (action, state) pair not
// listed fails with an invalid_state error.
var lifecycle = map[action]transitionRule{
	actionSubmit: {
		from: []models.RegistrationStatus{models.RegistrationStatusDraft, models.RegistrationStatusRejected},
		to:   models.RegistrationStatusSubmitted,
	},
	actionApprove: {
		from: []models.RegistrationStatus{models.RegistrationStatusSubmitted},
		to:   models.RegistrationStatusApproved,
	},
	actionReject: {
		from: []models.RegistrationStatus{models.RegistrationStatusSubmitted},
		to:   models.RegistrationStatusRejected,
	},
	actionCancel: {
		from: []models.RegistrationStatus{
			models.RegistrationStatusDraft,
			models.RegistrationStatusSubmitted,
			models.RegistrationStatusRejected,
		},
		to: models.RegistrationStatusCancelled,
	},
}

func (r *TermRegistration) canTransition(a action) error {
	if err := r.ensureMutable(); err != nil {
		return err
	}
	if !slices.Contains(lifecycle[a].from, r.status) {
		return invalidState("cannot %s a registration in status %s", a, r.status)
	}
	return nil
}

func (r *TermRegistration) applyTransition(a action, now time.Time) StatusChanged {
	from := r.status
	r.status = lifecycle[a].to
	r.updatedAt = now
	return StatusChanged{RegistrationID: r.id, From: from, To: r.status, At: now}
}
