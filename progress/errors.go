package progress

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports a referenced record that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation reports a malformed event, e.g. a bad subject id.
	ErrValidation = errors.New("validation failed")
	// ErrPersistence wraps any storage failure. Callers may retry the whole transition.
	ErrPersistence = errors.New("persistence failure")
	// ErrDuplicateAward is returned by a Ledger when the (subject, badge) pair already exists.
	ErrDuplicateAward = errors.New("badge already awarded")
	// ErrStaleProfile is returned by a ProfileStore when the stored version moved since Get.
	ErrStaleProfile = errors.New("profile modified concurrently")
	// ErrLockTimeout is returned when a subject lock could not be taken before the deadline.
	ErrLockTimeout = errors.New("subject lock timeout")
)

// Persistence wraps err as an ErrPersistence for op. Errors that already carry one of the
// package sentinels are returned unchanged.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrPersistence) || errors.Is(err, ErrStaleProfile) || errors.Is(err, ErrDuplicateAward) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}
