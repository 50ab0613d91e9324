package analytics

import "errors"

// ErrInvalidQuery marks listing parameters that cannot be served.
var ErrInvalidQuery = errors.New("invalid invoice query")
