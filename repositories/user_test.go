package repositories

import (
	"testing"

	"github.com/stretchr/testify/require"

	"wachat/domain"
	chaterr "wachat/errors"
)

func Test_Save_And_Get_User(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t))

	req.NoError(repository.Save(domain.User{ID: "u1", FullName: "Alice Martin"}))

	user, err := repository.Get("u1")
	req.NoError(err)
	req.Equal("Alice Martin", user.FullName)
	req.False(user.CreatedAt.IsZero())
}

func Test_Get_Unknown_User(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t))

	_, err := repository.Get("ghost")
	req.ErrorIs(err, chaterr.ErrUserNotFound)
}
