package domain

import "time"

// User is an internal account, looked up to resolve the display name
// of an outgoing sender. Authentication lives outside this core: every
// operation receives an already validated caller identity.
type User struct {
	ID        string
	FullName  string
	CreatedAt time.Time
}
