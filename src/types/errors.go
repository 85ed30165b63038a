package types

import "errors"

// Error taxonomy shared by handlers. Persistence failures on the primary
// entity are fatal to the request; delivery failures never are.
var (
	ErrNotFound  = errors.New("record not found")
	ErrForbidden = errors.New("caller does not own this resource")
	ErrClosed    = errors.New("event is not accepting registrations")
	ErrDuplicate = errors.New("a ticket already exists for this user and event")
)
