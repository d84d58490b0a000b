package errs

import "errors"

var (
	ErrInvalid               = errors.New("invalid")
	ErrNotFound              = errors.New("not found")
	ErrTooMany               = errors.New("too many requests")
	ErrAIUnavailable         = errors.New("ai provider unavailable")
	ErrClassifierUnavailable = errors.New("zero-shot classifier unavailable")
	ErrEmptyDocument         = errors.New("empty document")
	ErrBatchMismatch         = errors.New("batch length mismatch")
)

func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalid)
}
