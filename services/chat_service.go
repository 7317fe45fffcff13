package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"wachat/contract"
	"wachat/domain"
	"wachat/domain/event"
	"wachat/domain/mimetypes"
	chaterr "wachat/errors"
	"wachat/repositories"
)

var validate = validator.New()

type IChatService interface {
	Transcript(ctx context.Context, number string) ([]domain.TranscriptEntry, error)
	Send(ctx context.Context, cmd domain.SendCommand) (domain.Message, error)
	Receive(ctx context.Context, cmd domain.ReceiveCommand) (domain.Message, error)
	MarkRead(ctx context.Context, roomID uuid.UUID) error
	LinkReference(ctx context.Context, roomID uuid.UUID, ref domain.Reference) error
}

// ChatService implements the four public chat operations plus the
// ingestion step that runs after every stored message.
type ChatService struct {
	log       *slog.Logger
	messages  repositories.IMessageRepository
	rooms     repositories.IRoomRepository
	users     repositories.IUserRepository
	publisher contract.EventPublisher
}

func NewChatService(
	log *slog.Logger,
	messages repositories.IMessageRepository,
	rooms repositories.IRoomRepository,
	users repositories.IUserRepository,
	publisher contract.EventPublisher,
) *ChatService {
	return &ChatService{
		log:       log,
		messages:  messages,
		rooms:     rooms,
		users:     users,
		publisher: publisher,
	}
}

// Transcript returns the full ordered conversation with one number,
// both directions, template messages excluded. The sender label is the
// counterparty number for outgoing messages (their "to" slot) and the
// administrative fallback for incoming ones.
func (s *ChatService) Transcript(_ context.Context, number string) ([]domain.TranscriptEntry, error) {
	if number == "" {
		return nil, chaterr.ErrEmptyNumber
	}
	messages, err := s.messages.Transcript(number)
	if err != nil {
		return nil, fmt.Errorf("reading transcript of %s: %w", number, err)
	}
	messages = lo.Filter(messages, func(m domain.Message, _ int) bool {
		return m.Kind != domain.KindTemplate
	})
	return lo.Map(messages, func(m domain.Message, _ int) domain.TranscriptEntry {
		label := domain.AdministratorLabel
		if m.Direction == domain.Outgoing {
			label = m.CounterpartyNumber
		}
		return domain.TranscriptEntry{At: m.CreatedAt, SenderLabel: label, Content: m.Content()}
	}), nil
}

// Send classifies and persists one outgoing message, then runs
// ingestion on it. A reference already attached to the target room is
// inherited by the new message.
func (s *ChatService) Send(ctx context.Context, cmd domain.SendCommand) (domain.Message, error) {
	if err := validate.Struct(cmd); err != nil {
		return domain.Message{}, err
	}

	var ref *domain.Reference
	if cmd.RoomID != nil {
		room, err := s.rooms.GetByID(*cmd.RoomID)
		if err != nil {
			return domain.Message{}, fmt.Errorf("loading room %s: %w", cmd.RoomID, err)
		}
		ref = room.Reference
	}

	message := domain.Message{
		ID:                 uuid.New(),
		Direction:          domain.Outgoing,
		CounterpartyNumber: cmd.CounterpartyNumber,
		Owner:              cmd.User,
		Reference:          ref,
		CreatedAt:          time.Now().UTC(),
	}
	fillBody(&message, cmd.Content, cmd.IsAttachment)

	if err := s.messages.StoreMessage(message); err != nil {
		return domain.Message{}, fmt.Errorf("storing message: %w", err)
	}
	return message, s.ingest(ctx, &message)
}

// Receive persists one inbound message handed over by the external
// gateway and runs the same ingestion as Send.
func (s *ChatService) Receive(ctx context.Context, cmd domain.ReceiveCommand) (domain.Message, error) {
	if err := validate.Struct(cmd); err != nil {
		return domain.Message{}, err
	}

	message := domain.Message{
		ID:                 uuid.New(),
		Direction:          domain.Incoming,
		CounterpartyNumber: cmd.CounterpartyNumber,
		CreatedAt:          time.Now().UTC(),
	}
	fillBody(&message, cmd.Content, cmd.IsAttachment)

	if err := s.messages.StoreMessage(message); err != nil {
		return domain.Message{}, fmt.Errorf("storing message: %w", err)
	}
	return message, s.ingest(ctx, &message)
}

// MarkRead flips the room's read flag on. Idempotent.
func (s *ChatService) MarkRead(_ context.Context, roomID uuid.UUID) error {
	return s.rooms.MarkRead(roomID)
}

// LinkReference attaches a business reference to a room on behalf of
// the CRM integration.
func (s *ChatService) LinkReference(_ context.Context, roomID uuid.UUID, ref domain.Reference) error {
	return s.rooms.LinkReference(roomID, ref)
}

// ingest reconciles a just-stored message against the room store and
// emits the realtime events. It replaces the framework post-save hook
// of the surrounding platform with an explicit call.
//
// An error past this point means the message committed but the room
// summary may lag behind; the error is surfaced and the message is
// deliberately not rolled back.
func (s *ChatService) ingest(_ context.Context, message *domain.Message) error {
	preview := message.Content()

	room, created, err := s.rooms.UpsertOnMessage(message.CounterpartyNumber, preview)
	if err != nil {
		return fmt.Errorf("room upsert after message %s: %w", message.ID, err)
	}
	if created {
		s.publisher.Publish(event.RoomCreated{
			ID:           room.RoomID(),
			DisplayName:  room.DisplayName,
			LastMessage:  room.LastMessage,
			At:           room.UpdatedAt,
			IsRead:       room.IsRead,
			Type:         event.RoomTypeContact,
			MobileNumber: room.MobileNumber,
		})
	}

	// Incoming messages without their own reference inherit the room's.
	if message.Direction == domain.Incoming && message.Reference == nil && room.Reference != nil {
		err = s.messages.PatchReference(
			message.CounterpartyNumber, message.CreatedAt, message.ID, *room.Reference,
		)
		if err != nil {
			return fmt.Errorf("backfilling reference on message %s: %w", message.ID, err)
		}
		message.Reference = room.Reference
	}

	senderNumber := message.CounterpartyNumber
	senderName := room.DisplayName
	if senderName == "" {
		senderName = message.CounterpartyNumber
	}
	if message.Direction == domain.Outgoing {
		senderNumber = message.Owner
		senderName = message.Owner
		if user, userErr := s.users.Get(message.Owner); userErr == nil {
			senderName = user.FullName
		}
	}

	update := event.ChatUpdate{
		Content:      preview,
		At:           message.CreatedAt,
		RoomID:       room.RoomID(),
		SenderNumber: senderNumber,
		SenderName:   senderName,
	}
	s.publisher.Publish(event.NewMessage{ChatUpdate: update})
	s.publisher.Publish(event.LatestChatUpdate{ChatUpdate: update})

	if message.Reference != nil {
		s.publisher.Publish(event.CrmLinked{
			ReferenceKind: message.Reference.Kind,
			ReferenceID:   message.Reference.ID,
		})
	}
	return nil
}

func fillBody(message *domain.Message, content string, isAttachment bool) {
	if isAttachment {
		message.Kind = mimetypes.Classify(content)
		message.Attachment = content
		return
	}
	message.Kind = domain.KindText
	message.Text = content
}
