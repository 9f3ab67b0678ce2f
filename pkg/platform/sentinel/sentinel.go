package sentinel

import "errors"

// Sentinel errors describe facts about infrastructure resources. Stores return
// them, optionally wrapped, and services translate them into domain errors.
//
//   - ErrNotFound: the record or object does not exist
//   - ErrConflict: a uniqueness constraint rejected the write
//   - ErrUnavailable: the backing service could not be reached
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
