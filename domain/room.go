package domain

import (
	"time"

	"github.com/google/uuid"
)

// RoomID identifies a room; also used as the name of the room's
// realtime event stream.
type RoomID string

// Room is the mutable conversation summary kept for one external
// phone number. At most one Room exists per MobileNumber; rooms are
// created lazily on the first message involving an unseen number and
// are never deleted.
type Room struct {
	ID           uuid.UUID
	MobileNumber string
	DisplayName  string
	LastMessage  string
	IsRead       bool
	Reference    *Reference
	UpdatedAt    time.Time
}

func (r Room) RoomID() RoomID {
	return RoomID(r.ID.String())
}
