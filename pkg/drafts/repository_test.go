package drafts_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/drafts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func TestRepository_UpsertPreservesCreatedAt(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)}
	repo := drafts.New(memory.NewStore(), drafts.WithClock(clock.Now))

	first, err := repo.Upsert(ctx, domain.Draft{ID: "42", Name: "Intake"})
	require.NoError(t, err)
	assert.Equal(t, clock.now, first.CreatedAt)
	assert.Equal(t, domain.DraftStatusInProgress, first.Status)
	assert.True(t, first.IsDraft)

	clock.now = clock.now.Add(time.Hour)
	second, err := repo.Upsert(ctx, domain.Draft{ID: "42", Name: "Intake v2", Description: "more"})
	require.NoError(t, err)
	assert.Equal(t, first.CreatedAt, second.CreatedAt, "createdAt survives updates")
	assert.Equal(t, clock.now, second.UpdatedAt)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Intake v2", list[0].Name)
	assert.Equal(t, "more", list[0].Description)
}

func TestRepository_OrderAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := drafts.New(memory.NewStore())

	for _, id := range []string{"b", "a", "c"} {
		_, err := repo.Upsert(ctx, domain.Draft{ID: id, Name: id})
		require.NoError(t, err)
	}

	list, err := repo.List(ctx)
	require.NoError(t, err)
	ids := []string{}
	for _, d := range list {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"b", "a", "c"}, ids, "insertion order is kept")

	require.NoError(t, repo.Delete(ctx, "a"))
	_, err = repo.Get(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrDraftNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "a"), domain.ErrDraftNotFound)

	got, err := repo.Get(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, "c", got.Name)
}

func TestRepository_EmptyAndCustomKey(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewStore()
	repo := drafts.New(kv, drafts.WithKey("custom"))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = repo.Upsert(ctx, domain.Draft{ID: "1", Name: "x"})
	require.NoError(t, err)

	_, err = kv.Get(ctx, "custom")
	assert.NoError(t, err)
	_, err = kv.Get(ctx, drafts.DefaultKey)
	assert.ErrorIs(t, err, domain.ErrKeyNotFound)

	_, err = repo.Upsert(ctx, domain.Draft{Name: "no id"})
	assert.True(t, domain.IsValidation(err))
}

func TestRepository_CorruptList(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewStore()
	require.NoError(t, kv.Set(ctx, drafts.DefaultKey, []byte("{not json")))

	_, err := drafts.New(kv).List(ctx)
	assert.Error(t, err)
}
