package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and lock backends return
// these (optionally wrapped) so services can translate them into domain errors.
//
//   - ErrNotFound: aggregate does not exist in the store
//   - ErrConflict: a uniqueness constraint rejected the write
//   - ErrStale: the stored version moved on since the aggregate was loaded
//   - ErrLockHeld: another writer holds the aggregate lock
//   - ErrUnavailable: backend temporarily unavailable
//
// Rule violations inside aggregates use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrStale       = errors.New("stale version")
	ErrLockHeld    = errors.New("lock held")
	ErrUnavailable = errors.New("unavailable")
)
