package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"entryblog/internal/domain"
	"entryblog/internal/repository"
	"entryblog/internal/repository/sqlite"
)

type testStore struct {
	db      *sql.DB
	users   repository.UserRepository
	entries repository.EntryRepository
}

func newTestStore(t *testing.T) *testStore {
	t.Helper()
	db, err := sqlite.Open(sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	users := sqlite.NewUserRepository(db)
	entries := sqlite.NewEntryRepository(db)
	require.NoError(t, users.Init(ctx))
	require.NoError(t, entries.Init(ctx))

	return &testStore{db: db, users: users, entries: entries}
}

func (s *testStore) addUser(t *testing.T, name, email, password string) domain.Identity {
	t.Helper()
	user, err := NewUserService(s.users, bcrypt.MinCost).Register(context.Background(), name, email, password)
	require.NoError(t, err)
	return domain.IdentityOf(user)
}

// seedEntries inserts n entries authored by who, one second apart, oldest first.
func (s *testStore) seedEntries(t *testing.T, who domain.Identity, n int) []int64 {
	t.Helper()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	ids := make([]int64, n)
	for i := 0; i < n; i++ {
		entry := &domain.Entry{
			Title:     "entry",
			Content:   "content",
			AuthorID:  who.UserID,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		id, err := s.entries.Create(context.Background(), entry)
		require.NoError(t, err)
		ids[i] = id
	}
	return ids
}
