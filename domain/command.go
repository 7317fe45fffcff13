package domain

import "github.com/google/uuid"

// SendCommand carries one outbound message request. Content is either
// inline text or, when IsAttachment is set, the path of the attached file.
type SendCommand struct {
	Content            string `validate:"required"`
	User               string `validate:"required"`
	RoomID             *uuid.UUID
	CounterpartyNumber string `validate:"required"`
	IsAttachment       bool
}

// ReceiveCommand carries one inbound message handed over by the
// external gateway. The caller identity is the counterparty itself.
type ReceiveCommand struct {
	Content            string `validate:"required"`
	CounterpartyNumber string `validate:"required"`
	IsAttachment       bool
}
