package session

import "errors"

// ErrSessionIDRequired is returned when a store operation is given an empty session id.
var ErrSessionIDRequired = errors.New("session: session id required")
