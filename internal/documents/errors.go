package documents

import "errors"

// ErrConstraint marks a write rejected by a uniqueness or parent constraint.
var ErrConstraint = errors.New("constraint violation")
