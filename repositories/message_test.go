package repositories

import (
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"wachat/domain"
	chaterr "wachat/errors"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func Test_Store_And_Read_Transcript_In_Order(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())

	number := "+33612345678"
	at := time.Now().UTC().Truncate(time.Millisecond)
	stored := []domain.Message{
		{ID: uuid.New(), Direction: domain.Incoming, CounterpartyNumber: number, Kind: domain.KindText, Text: "hello", CreatedAt: at},
		{ID: uuid.New(), Direction: domain.Outgoing, CounterpartyNumber: number, Owner: "u1", Kind: domain.KindText, Text: "hi there", CreatedAt: at.Add(1 * time.Minute)},
		{ID: uuid.New(), Direction: domain.Incoming, CounterpartyNumber: number, Kind: domain.KindImage, Attachment: "/files/cat.png", CreatedAt: at.Add(2 * time.Minute)},
	}
	// Store out of order, the key schema must restore chronology.
	for _, i := range []int{2, 0, 1} {
		req.NoError(repository.StoreMessage(stored[i]))
	}

	fetched, err := repository.Transcript(number)
	req.NoError(err)
	req.Equal(stored, fetched)
}

func Test_Transcript_Only_Covers_One_Number(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())

	at := time.Now().UTC()
	req.NoError(repository.StoreMessage(domain.Message{
		ID: uuid.New(), Direction: domain.Outgoing, CounterpartyNumber: "+1555", Owner: "u1",
		Kind: domain.KindText, Text: "for +1555", CreatedAt: at,
	}))
	req.NoError(repository.StoreMessage(domain.Message{
		ID: uuid.New(), Direction: domain.Outgoing, CounterpartyNumber: "+1666", Owner: "u1",
		Kind: domain.KindText, Text: "for +1666", CreatedAt: at,
	}))

	fetched, err := repository.Transcript("+1555")
	req.NoError(err)
	req.Len(fetched, 1)
	req.Equal("for +1555", fetched[0].Text)
}

func Test_PatchReference_Keeps_Creation_Time(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())

	at := time.Now().UTC().Truncate(time.Millisecond)
	message := domain.Message{
		ID: uuid.New(), Direction: domain.Incoming, CounterpartyNumber: "+1555",
		Kind: domain.KindText, Text: "hello", CreatedAt: at,
	}
	req.NoError(repository.StoreMessage(message))

	ref := domain.Reference{Kind: "Lead", ID: "LEAD-0042"}
	req.NoError(repository.PatchReference("+1555", at, message.ID, ref))

	fetched, err := repository.Transcript("+1555")
	req.NoError(err)
	req.Len(fetched, 1)
	req.NotNil(fetched[0].Reference)
	req.Equal(ref, *fetched[0].Reference)
	req.Equal(at, fetched[0].CreatedAt)
	req.Equal("hello", fetched[0].Text)
}

func Test_PatchReference_Unknown_Message(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())

	err := repository.PatchReference("+1555", time.Now().UTC(), uuid.New(), domain.Reference{Kind: "Lead", ID: "1"})
	req.ErrorIs(err, chaterr.ErrMessageNotFound)
}
