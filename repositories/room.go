package repositories

import (
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"wachat/domain"
	chaterr "wachat/errors"
)

type IRoomRepository interface {
	UpsertOnMessage(number, preview string) (domain.Room, bool, error)
	GetByNumber(number string) (domain.Room, error)
	GetByID(id uuid.UUID) (domain.Room, error)
	MarkRead(id uuid.UUID) error
	LinkReference(id uuid.UUID, ref domain.Reference) error
	All() ([]domain.Room, error)
}

type RoomRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewRoomRepository(db *badger.DB, log *slog.Logger) RoomRepository {
	return RoomRepository{db: db, log: log}
}

// DiskRoom is the stored representation of a domain.Room.
type DiskRoom struct {
	ID          string    `json:"id"`
	Number      string    `json:"number"`
	DisplayName string    `json:"display_name"`
	LastMessage string    `json:"last_message"`
	IsRead      bool      `json:"is_read"`
	RefKind     string    `json:"ref_kind,omitempty"`
	RefID       string    `json:"ref_id,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// roomKey is the uniqueness constraint: one key per counterparty number.
func roomKey(number string) []byte {
	return []byte("room:" + number)
}

// roomIDKey indexes the room id back to its number for id lookups.
func roomIDKey(id string) []byte {
	return []byte("room_id:" + id)
}

// UpsertOnMessage finds or creates the room for a number and folds the
// new message preview into it. The find-or-create runs inside a single
// serializable transaction: when writers for the same number race, the
// losing commits fail with ErrConflict and are replayed until they go
// through, taking the update path, so exactly one room per number can
// ever exist. Every conflict means another writer just committed, so
// each replay makes progress and the loop terminates. ErrConflict
// never escapes to the caller. Returns the post-upsert room and
// whether it was created by this call.
func (r RoomRepository) UpsertOnMessage(number, preview string) (domain.Room, bool, error) {
	var (
		disk    DiskRoom
		created bool
		err     error
	)
	for {
		disk, created = DiskRoom{}, false
		err = r.db.Update(func(txn *badger.Txn) error {
			item, err := txn.Get(roomKey(number))
			switch {
			case err == nil:
				if err = item.Value(func(value []byte) error {
					return json.Unmarshal(value, &disk)
				}); err != nil {
					return err
				}
				disk.LastMessage = preview
				disk.IsRead = false
				disk.UpdatedAt = time.Now().UTC()
			case errors.Is(err, badger.ErrKeyNotFound):
				created = true
				disk = DiskRoom{
					ID:          uuid.New().String(),
					Number:      number,
					DisplayName: number,
					LastMessage: preview,
					IsRead:      false,
					UpdatedAt:   time.Now().UTC(),
				}
				if err = txn.Set(roomIDKey(disk.ID), []byte(number)); err != nil {
					return err
				}
			default:
				return err
			}
			bytes, err := json.Marshal(disk)
			if err != nil {
				return err
			}
			return txn.Set(roomKey(number), bytes)
		})
		if errors.Is(err, badger.ErrConflict) {
			r.log.Debug("Room upsert conflict, replaying", "number", number)
			continue
		}
		break
	}
	if err != nil {
		return domain.Room{}, false, err
	}
	room, err := toRoom(disk)
	return room, created, err
}

func (r RoomRepository) GetByNumber(number string) (domain.Room, error) {
	var disk DiskRoom
	err := r.db.View(func(txn *badger.Txn) error {
		return readRoom(txn, number, &disk)
	})
	if err != nil {
		return domain.Room{}, err
	}
	return toRoom(disk)
}

func (r RoomRepository) GetByID(id uuid.UUID) (domain.Room, error) {
	var disk DiskRoom
	err := r.db.View(func(txn *badger.Txn) error {
		number, err := resolveNumber(txn, id)
		if err != nil {
			return err
		}
		return readRoom(txn, number, &disk)
	})
	if err != nil {
		return domain.Room{}, err
	}
	return toRoom(disk)
}

// MarkRead flips the read flag on. Calling it on an already-read room
// is a no-op that still succeeds.
func (r RoomRepository) MarkRead(id uuid.UUID) error {
	return r.update(id, func(disk *DiskRoom) {
		disk.IsRead = true
	})
}

// LinkReference attaches a business reference to a room. This is the
// entry point of the CRM integration, and the source of the references
// later inherited by messages.
func (r RoomRepository) LinkReference(id uuid.UUID, ref domain.Reference) error {
	return r.update(id, func(disk *DiskRoom) {
		disk.RefKind = ref.Kind
		disk.RefID = ref.ID
	})
}

// All returns every room, in key order. Used by the viewer CLI.
func (r RoomRepository) All() ([]domain.Room, error) {
	var disks []DiskRoom
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte("room:")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var disk DiskRoom
			err := it.Item().Value(func(value []byte) error {
				return json.Unmarshal(value, &disk)
			})
			if err != nil {
				return err
			}
			disks = append(disks, disk)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	rooms := make([]domain.Room, 0, len(disks))
	for _, disk := range disks {
		room, err := toRoom(disk)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}

func (r RoomRepository) update(id uuid.UUID, mutate func(*DiskRoom)) error {
	return r.db.Update(func(txn *badger.Txn) error {
		number, err := resolveNumber(txn, id)
		if err != nil {
			return err
		}
		var disk DiskRoom
		if err = readRoom(txn, number, &disk); err != nil {
			return err
		}
		mutate(&disk)
		disk.UpdatedAt = time.Now().UTC()
		bytes, err := json.Marshal(disk)
		if err != nil {
			return err
		}
		return txn.Set(roomKey(number), bytes)
	})
}

func resolveNumber(txn *badger.Txn, id uuid.UUID) (string, error) {
	item, err := txn.Get(roomIDKey(id.String()))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", chaterr.ErrRoomNotFound
	}
	if err != nil {
		return "", err
	}
	var number string
	err = item.Value(func(value []byte) error {
		number = string(value)
		return nil
	})
	return number, err
}

func readRoom(txn *badger.Txn, number string, disk *DiskRoom) error {
	item, err := txn.Get(roomKey(number))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return chaterr.ErrRoomNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(value []byte) error {
		return json.Unmarshal(value, disk)
	})
}

func toRoom(disk DiskRoom) (domain.Room, error) {
	parsedID, err := uuid.Parse(disk.ID)
	if err != nil {
		return domain.Room{}, err
	}
	room := domain.Room{
		ID:           parsedID,
		MobileNumber: disk.Number,
		DisplayName:  disk.DisplayName,
		LastMessage:  disk.LastMessage,
		IsRead:       disk.IsRead,
		UpdatedAt:    disk.UpdatedAt.UTC(),
	}
	if disk.RefKind != "" || disk.RefID != "" {
		room.Reference = lo.ToPtr(domain.Reference{Kind: disk.RefKind, ID: disk.RefID})
	}
	return room, nil
}
