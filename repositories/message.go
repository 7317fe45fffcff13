package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"wachat/domain"
	chaterr "wachat/errors"
)

type IMessageRepository interface {
	StoreMessage(message domain.Message) error
	Transcript(number string) ([]domain.Message, error)
	PatchReference(number string, at time.Time, id uuid.UUID, ref domain.Reference) error
}

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) MessageRepository {
	return MessageRepository{db: db, log: log}
}

// DiskMessage is the stored representation of a domain.Message.
type DiskMessage struct {
	ID         string    `json:"id"`
	Direction  string    `json:"direction"`
	Number     string    `json:"number"`
	Owner      string    `json:"owner,omitempty"`
	Kind       string    `json:"kind"`
	Text       string    `json:"text,omitempty"`
	Attachment string    `json:"attachment,omitempty"`
	RefKind    string    `json:"ref_kind,omitempty"`
	RefID      string    `json:"ref_id,omitempty"`
	At         time.Time `json:"at"`
}

// messageKey builds "msg:{number}:{timestamp_padded}:{uuid}" so that:
//  1. A forward prefix scan per number yields chronological order
//     (19-digit zero padding keeps the lexicographical order).
//  2. The UUID disambiguates two messages stored at the same nanosecond.
func messageKey(number string, at time.Time, id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", number, at.UnixNano(), id))
}

func (m MessageRepository) StoreMessage(message domain.Message) error {
	bytes, err := json.Marshal(fromMessage(message))
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(message.CounterpartyNumber, message.CreatedAt, message.ID), bytes)
	})
}

// Transcript returns every message exchanged with the given number,
// oldest first. The whole set is returned, there is no pagination; the
// conversation volume of a single number is expected to stay small.
func (m MessageRepository) Transcript(number string) ([]domain.Message, error) {
	var byteMessages [][]byte
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("msg:%s:", number))
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				byteMessages = append(byteMessages, append([]byte(nil), value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var messages []domain.Message
	for _, b := range byteMessages {
		var disk DiskMessage
		if err = json.Unmarshal(b, &disk); err != nil {
			return nil, err
		}
		message, err := toMessage(disk)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}

// PatchReference rewrites only the reference fields of an already stored
// message. The stored creation timestamp is left untouched: this is an
// out-of-band patch driven by ingestion, not a user save.
func (m MessageRepository) PatchReference(number string, at time.Time, id uuid.UUID, ref domain.Reference) error {
	key := messageKey(number, at, id)
	return m.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return chaterr.ErrMessageNotFound
		}
		if err != nil {
			return err
		}
		var disk DiskMessage
		err = item.Value(func(value []byte) error {
			return json.Unmarshal(value, &disk)
		})
		if err != nil {
			return err
		}
		disk.RefKind = ref.Kind
		disk.RefID = ref.ID
		bytes, err := json.Marshal(disk)
		if err != nil {
			return err
		}
		return txn.Set(key, bytes)
	})
}

func fromMessage(message domain.Message) DiskMessage {
	disk := DiskMessage{
		ID:         message.ID.String(),
		Direction:  string(message.Direction),
		Number:     message.CounterpartyNumber,
		Owner:      message.Owner,
		Kind:       string(message.Kind),
		Text:       message.Text,
		Attachment: message.Attachment,
		At:         message.CreatedAt.UTC(),
	}
	if message.Reference != nil {
		disk.RefKind = message.Reference.Kind
		disk.RefID = message.Reference.ID
	}
	return disk
}

func toMessage(disk DiskMessage) (domain.Message, error) {
	parsedID, err := uuid.Parse(disk.ID)
	if err != nil {
		return domain.Message{}, err
	}
	message := domain.Message{
		ID:                 parsedID,
		Direction:          domain.Direction(disk.Direction),
		CounterpartyNumber: disk.Number,
		Owner:              disk.Owner,
		Kind:               domain.ContentKind(disk.Kind),
		Text:               disk.Text,
		Attachment:         disk.Attachment,
		CreatedAt:          disk.At.UTC(),
	}
	if disk.RefKind != "" || disk.RefID != "" {
		message.Reference = lo.ToPtr(domain.Reference{Kind: disk.RefKind, ID: disk.RefID})
	}
	return message, nil
}
