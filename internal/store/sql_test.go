package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := NewSQLStore(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestNewSQLStore_RejectsUnknownDriver(t *testing.T) {
	_, err := NewSQLStore(context.Background(), "mysql", "dsn")
	require.Error(t, err)

	_, err = NewSQLStore(context.Background(), "sqlite", "")
	require.Error(t, err)
}

func TestSQLStore_GetMissing(t *testing.T) {
	s := newTestSQLStore(t)
	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLStore_UpsertMergesFields(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLStore(t)
	s.now = func() time.Time { return time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC) }

	require.NoError(t, s.Upsert(ctx, Profile{
		ID:               "u1",
		SelectedLanguage: Ptr("te"),
		Village:          Ptr("Namburu"),
		State:            Ptr("Andhra Pradesh"),
		PreferredCrop:    Ptr("Paddy"),
	}))

	s.now = func() time.Time { return time.Date(2024, 6, 3, 11, 0, 0, 0, time.UTC) }
	require.NoError(t, s.Upsert(ctx, Profile{ID: "u1", FCMToken: Ptr("T1")}))

	got, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Namburu", Value(got.Village))
	assert.Equal(t, "Andhra Pradesh", Value(got.State))
	assert.Equal(t, "te", Value(got.SelectedLanguage))
	assert.Equal(t, "Paddy", Value(got.PreferredCrop))
	assert.Equal(t, "T1", Value(got.FCMToken))
	assert.Equal(t, time.Date(2024, 6, 3, 11, 0, 0, 0, time.UTC), got.UpdatedAt)
}

func TestSQLStore_ListAlertable(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLStore(t)
	require.NoError(t, s.Upsert(ctx, Profile{ID: "b", Village: Ptr("Tenali")}))
	require.NoError(t, s.Upsert(ctx, Profile{ID: "a", Village: Ptr("Namburu"), FCMToken: Ptr("T1")}))
	require.NoError(t, s.Upsert(ctx, Profile{ID: "c", FCMToken: Ptr("T3")}))
	require.NoError(t, s.Upsert(ctx, Profile{ID: "d", Village: Ptr("")}))

	got, err := s.ListAlertable(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "T1", Value(got[0].FCMToken))
	assert.Equal(t, "b", got[1].ID)
	assert.Nil(t, got[1].FCMToken)
}

func TestPlaceholder(t *testing.T) {
	assert.Equal(t, "$3", placeholder("pgx", 3))
	assert.Equal(t, "?", placeholder("sqlite", 3))

	next := newPlaceholderGenerator("pgx")
	assert.Equal(t, "$1", next())
	assert.Equal(t, "$2", next())
}
