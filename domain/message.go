// Package domain contains core concepts of the chat relay.
// This file defines Message records and related rules.
// Messages are immutable once stored, except a one-shot reference backfill.
package domain

import (
	"time"

	"github.com/google/uuid"
)

type Direction string

const (
	Incoming Direction = "Incoming"
	Outgoing Direction = "Outgoing"
)

type ContentKind string

const (
	KindText     ContentKind = "text"
	KindImage    ContentKind = "image"
	KindDocument ContentKind = "document"
	KindAudio    ContentKind = "audio"
	KindVideo    ContentKind = "video"
	KindTemplate ContentKind = "template"
)

// Reference links a Message or Room to an external business record,
// typically a CRM lead. Used for downstream integration routing.
type Reference struct {
	Kind string
	ID   string
}

// Message represents one chat event with an external phone number.
// CounterpartyNumber is the recipient when Outgoing, the sender when
// Incoming. Exactly one of Text / Attachment is populated, matching Kind.
type Message struct {
	ID                 uuid.UUID
	Direction          Direction
	CounterpartyNumber string
	Owner              string // internal user id, Outgoing only
	Kind               ContentKind
	Text               string
	Attachment         string
	Reference          *Reference
	CreatedAt          time.Time
}

// Content returns whichever body slot the Kind selects.
func (m Message) Content() string {
	if m.Kind == KindText {
		return m.Text
	}
	return m.Attachment
}

// AdministratorLabel is the transcript sender label used when a message
// has no counterparty in its "to" slot, i.e. for Incoming messages.
const AdministratorLabel = "Administrator"

// TranscriptEntry is one line of a conversation transcript.
type TranscriptEntry struct {
	At          time.Time
	SenderLabel string
	Content     string
}
