package utils

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrIndexOutOfRange   = errors.New("index is out of the range")
	ErrInvalidPrivateKey = errors.New("invalid private key")
	ErrSigningFailed     = errors.New("failed to produce a valid signature")
	ErrInvalidSignature  = errors.New("signature does not match transaction input")
	ErrInvalidDifficulty = errors.New("difficulty must not be negative")
	ErrNilBlock          = errors.New("block is nil")
	ErrNilTransaction    = errors.New("transaction is nil")
	ErrMiningInterrupted = errors.New("mining interrupted")
)

// FieldError identifies a malformed field of an input record, e.g. "vouts[1].value".
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
