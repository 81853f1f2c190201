package termreg

import (
	"fmt"

	dErrors "campus/pkg/domain-errors"
)

// CreditLimitExceededError reports that adding a course would push the term
// load past MaxCreditsPerTerm. It unwraps to a CodeCreditLimitExceeded error.
type CreditLimitExceededError struct {
	Current   int
	Requested int
	Limit     int
}

func (e *CreditLimitExceededError) Error() string {
	return fmt.Sprintf("adding %d credits to %d would exceed the %d credit limit", e.Requested, e.Current, e.Limit)
}

func (e *CreditLimitExceededError) Unwrap() error {
	return dErrors.New(dErrors.CodeCreditLimitExceeded, e.Error())
}

// Details exposes the credit arithmetic for API responses.
func (e *CreditLimitExceededError) Details() map[string]any {
	return map[string]any{
		"current_credits":   e.Current,
		"requested_credits": e.Requested,
		"max_credits":       e.Limit,
	}
}

func invalidState(format string, args ...any) error {
	return dErrors.Newf(dErrors.CodeInvalidState, format, args...)
}
