// Package common defines shared constants and sentinel errors used across
// the journaling core. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// ErrUnauthenticated is returned when an encryption or repository
	// operation is attempted with no signed-in user.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrDecryptionFailed is returned when a stored ciphertext cannot be
	// decrypted with the derived key (wrong key or corrupted data).
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrNotFound is returned when a document does not exist under the
	// current user's namespace.
	ErrNotFound = errors.New("not found")

	// ErrStoreOperation wraps network or permission failures from the
	// backing document store. The core never retries these automatically.
	ErrStoreOperation = errors.New("store operation failed")

	// ErrValidation is returned when a caller-side precondition fails
	// before any encryption or store call is made.
	ErrValidation = errors.New("validation failed")

	// ErrConfirmationPending is returned when a confirmation prompt is
	// requested while another one is still awaiting its answer.
	ErrConfirmationPending = errors.New("confirmation already pending")

	// ErrSaveInFlight is returned when an explicit save is requested while
	// a previous explicit save has not finished.
	ErrSaveInFlight = errors.New("save already in flight")
)
