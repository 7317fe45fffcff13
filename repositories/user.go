package repositories

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	"wachat/domain"
	chaterr "wachat/errors"
)

type IUserRepository interface {
	Save(user domain.User) error
	Get(id string) (domain.User, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) UserRepository {
	return UserRepository{db: db}
}

type diskUser struct {
	ID        string    `json:"id"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
}

func (u UserRepository) Save(user domain.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	bytes, err := json.Marshal(diskUser{
		ID:        user.ID,
		FullName:  user.FullName,
		CreatedAt: user.CreatedAt.UTC(),
	})
	if err != nil {
		return err
	}
	return u.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("user:"+user.ID), bytes)
	})
}

func (u UserRepository) Get(id string) (domain.User, error) {
	var disk diskUser
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("user:" + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return chaterr.ErrUserNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			return json.Unmarshal(value, &disk)
		})
	})
	if err != nil {
		return domain.User{}, err
	}
	return domain.User{ID: disk.ID, FullName: disk.FullName, CreatedAt: disk.CreatedAt.UTC()}, nil
}
