package hdkey

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a kind of key chain failure.
type ErrorCode int

const (
	// ErrInvalidSeedLen indicates a seed whose bit length falls outside
	// the allowed entropy window.
	ErrInvalidSeedLen ErrorCode = iota

	// ErrUnusableSeed indicates the seed hashed to an invalid scalar and
	// cannot produce a master key.
	ErrUnusableSeed

	// ErrMalformedKey indicates a buffer of the wrong length or shape
	// was supplied for a key, chain code or serialization.
	ErrMalformedKey

	// ErrInvalidIndex indicates a child index outside the valid range.
	ErrInvalidIndex

	// ErrDeriveBeyondMaxDepth indicates an attempt to derive from a key
	// that already sits at the maximum depth of 255.
	ErrDeriveBeyondMaxDepth

	// ErrInvalidChild indicates no valid child key exists at or after
	// the requested index.
	ErrInvalidChild

	// ErrInvalidPath indicates a derivation path string that could not
	// be parsed.
	ErrInvalidPath

	// ErrNotMaster indicates a BIP44/BIP45 convenience derivation was
	// requested on a non-master key.
	ErrNotMaster

	// ErrUnknownVersion indicates a serialized key whose version prefix
	// matches no registered network.
	ErrUnknownVersion

	// ErrBadChecksum indicates a serialized key failed checksum
	// verification.
	ErrBadChecksum

	// ErrMissingField indicates a required field was absent from a JSON
	// document.
	ErrMissingField

	// ErrZeroedKey indicates an operation on a key that has already
	// been destroyed.
	ErrZeroedKey
)

var errCodeStrings = map[ErrorCode]string{
	ErrInvalidSeedLen:       "ErrInvalidSeedLen",
	ErrUnusableSeed:         "ErrUnusableSeed",
	ErrMalformedKey:         "ErrMalformedKey",
	ErrInvalidIndex:         "ErrInvalidIndex",
	ErrDeriveBeyondMaxDepth: "ErrDeriveBeyondMaxDepth",
	ErrInvalidChild:         "ErrInvalidChild",
	ErrInvalidPath:          "ErrInvalidPath",
	ErrNotMaster:            "ErrNotMaster",
	ErrUnknownVersion:       "ErrUnknownVersion",
	ErrBadChecksum:          "ErrBadChecksum",
	ErrMissingField:         "ErrMissingField",
	ErrZeroedKey:            "ErrZeroedKey",
}

func (e ErrorCode) String() string {
	if s, ok := errCodeStrings[e]; ok {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// KeychainError carries an ErrorCode plus a human readable description
// and, when the failure was caused by another error, the wrapped cause.
type KeychainError struct {
	ErrorCode   ErrorCode
	Description string
	Err         error
}

func (e KeychainError) Error() string {
	if e.Err != nil {
		return e.Description + ": " + e.Err.Error()
	}
	return e.Description
}

func (e KeychainError) Unwrap() error {
	return e.Err
}

func keyError(c ErrorCode, desc string, err error) KeychainError {
	return KeychainError{ErrorCode: c, Description: desc, Err: err}
}

// IsError reports whether err is a KeychainError with the given code.
func IsError(err error, code ErrorCode) bool {
	var e KeychainError
	return errors.As(err, &e) && e.ErrorCode == code
}
