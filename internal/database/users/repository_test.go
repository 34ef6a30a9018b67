package users

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/database/testutil"
	"github.com/mrlokans/librarian/internal/entities"
)

func TestRepository_CreateAndLookup(t *testing.T) {
	repo := NewRepository(testutil.NewDB(t))

	user := &entities.User{Username: "reader", Email: "reader@example.com", PasswordHash: "hash"}
	require.NoError(t, repo.Create(user))
	assert.NotZero(t, user.ID)
	assert.False(t, user.IsAdmin)

	byID, err := repo.GetByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "reader", byID.Username)

	byName, err := repo.GetByUsername("reader")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)

	_, err = repo.GetByUsername("nobody")
	assert.ErrorIs(t, err, database.ErrNotFound)
	_, err = repo.GetByID(99)
	assert.ErrorIs(t, err, database.ErrNotFound)

	taken, err := repo.UsernameTaken("reader")
	require.NoError(t, err)
	assert.True(t, taken)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRepository_DuplicateUsername(t *testing.T) {
	repo := NewRepository(testutil.NewDB(t))

	require.NoError(t, repo.Create(&entities.User{Username: "dup"}))
	assert.Error(t, repo.Create(&entities.User{Username: "dup"}))
}

func TestRepository_RecordLogin(t *testing.T) {
	repo := NewRepository(testutil.NewDB(t))

	user := &entities.User{Username: "reader"}
	require.NoError(t, repo.Create(user))

	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(t, repo.RecordLogin(user.ID, at))

	got, err := repo.GetByID(user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastLoginAt)
	assert.True(t, at.Equal(*got.LastLoginAt))
}
