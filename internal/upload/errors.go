package upload

import "errors"

var (
	ErrAlreadyInProgress = errors.New("an upload is already in progress")
	ErrNotInProgress     = errors.New("no upload in progress")
	ErrWrongState        = errors.New("action not valid at this step")

	// user input errors: the operator can correct these and carry on
	ErrUnsupportedKind = errors.New("unsupported file kind")
	ErrEmptyBatch      = errors.New("no files were added")
	ErrInvalidTimer    = errors.New("invalid delete timer")
)

// IsUserInputError reports whether err is one the operator can fix by
// answering differently
func IsUserInputError(err error) bool {
	return errors.Is(err, ErrUnsupportedKind) ||
		errors.Is(err, ErrEmptyBatch) ||
		errors.Is(err, ErrInvalidTimer)
}
