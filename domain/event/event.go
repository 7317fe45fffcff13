package event

import (
	"time"

	"wachat/domain"
)

// DomainEvent is anything the fanout can deliver to subscribers.
// Stream is the name downstream consumers subscribe to.
type DomainEvent interface {
	Stream() string
}

// RoomScoped events are delivered only to the subscribers of one room,
// on a stream named after the room id.
type RoomScoped interface {
	TargetRoom() domain.RoomID
}

const (
	LatestChatUpdateStream = "LatestChatUpdate"
	RoomCreatedStream      = "RoomCreated"
	CrmLinkedStream        = "CrmLinked"

	// RoomTypeContact is the type marker carried by RoomCreated,
	// matching the single room flavour this core knows about.
	RoomTypeContact = "contact"
)

// ChatUpdate is the payload shared by NewMessage and LatestChatUpdate.
type ChatUpdate struct {
	Content      string
	At           time.Time
	RoomID       domain.RoomID
	SenderNumber string // acting user id if Outgoing, counterparty number if Incoming
	SenderName   string
}

// NewMessage announces a stored message to the subscribers of its room.
type NewMessage struct {
	ChatUpdate
}

func (e NewMessage) Stream() string            { return string(e.RoomID) }
func (e NewMessage) TargetRoom() domain.RoomID { return e.RoomID }

// LatestChatUpdate is the broadcast twin of NewMessage, feeding global
// chat-list consumers.
type LatestChatUpdate struct {
	ChatUpdate
}

func (e LatestChatUpdate) Stream() string { return LatestChatUpdateStream }

// RoomCreated fires once, when a number is seen for the first time.
type RoomCreated struct {
	ID           domain.RoomID
	DisplayName  string
	LastMessage  string
	At           time.Time
	IsRead       bool
	Type         string
	MobileNumber string
}

func (e RoomCreated) Stream() string { return RoomCreatedStream }

// CrmLinked notifies integration consumers that a stored message
// carries a business reference.
type CrmLinked struct {
	ReferenceKind string
	ReferenceID   string
}

func (e CrmLinked) Stream() string { return CrmLinkedStream }
