// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import (
	"errors"
	"fmt"
)

// Common sentinels across repo/resolver layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates failed password verification.
	ErrUnauthorized = errors.New("unauthorized")
)

// UniqueViolation reports a unique constraint violation on insert or update,
// carrying the offending field (username or email).
type UniqueViolation struct {
	Field string
}

func (e *UniqueViolation) Error() string {
	return fmt.Sprintf("%s already exists", e.Field)
}

// AsUniqueViolation unwraps err into a *UniqueViolation if it is one.
func AsUniqueViolation(err error) (*UniqueViolation, bool) {
	var uv *UniqueViolation
	if errors.As(err, &uv) {
		return uv, true
	}
	return nil, false
}
