package drafts_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/adapters/redis"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/drafts"
	"github.com/aretw0/lattice/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowStore widens the window between reading and writing the draft list.
type slowStore struct {
	ports.KVStore
	delay time.Duration
}

func (s slowStore) Get(ctx context.Context, key string) ([]byte, error) {
	time.Sleep(s.delay)
	return s.KVStore.Get(ctx, key)
}

type recordingLocker struct {
	mu       sync.Mutex
	keys     []string
	ttls     []time.Duration
	unlocked int
	err      error
}

func (l *recordingLocker) Lock(_ context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	l.keys = append(l.keys, key)
	l.ttls = append(l.ttls, ttl)
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.unlocked++
		return nil
	}, nil
}

func TestRepository_ReplicasSharingRedisKeepEveryDraft(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	locker := redis.NewLocker(client, "lattice:")
	newReplica := func() *drafts.Repository {
		store := slowStore{KVStore: redis.NewFromClient(client, redis.WithPrefix("lattice:")), delay: time.Millisecond}
		return drafts.New(store, drafts.WithLocker(locker, 5*time.Second))
	}
	replicas := []*drafts.Repository{newReplica(), newReplica()}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	const perReplica = 10
	var wg sync.WaitGroup
	errs := make(chan error, len(replicas)*perReplica)
	for r, repo := range replicas {
		for i := 0; i < perReplica; i++ {
			wg.Add(1)
			go func(repo *drafts.Repository, id string) {
				defer wg.Done()
				_, err := repo.Upsert(ctx, domain.Draft{ID: id, Name: id})
				errs <- err
			}(repo, fmt.Sprintf("r%d-%d", r, i))
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	list, err := replicas[0].List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, len(replicas)*perReplica, "stored %d drafts", len(list))
}

func TestRepository_LocksDraftKey(t *testing.T) {
	ctx := context.Background()
	locker := &recordingLocker{}
	repo := drafts.New(memory.NewStore(), drafts.WithKey("drafts"), drafts.WithLocker(locker, 0))

	_, err := repo.Upsert(ctx, domain.Draft{ID: "1"})
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, "1"))

	assert.Equal(t, []string{"drafts", "drafts"}, locker.keys)
	assert.Equal(t, []time.Duration{drafts.DefaultLockTTL, drafts.DefaultLockTTL}, locker.ttls)
	assert.Equal(t, 2, locker.unlocked)
}

func TestRepository_LockFailureLeavesListUntouched(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	locker := &recordingLocker{}
	repo := drafts.New(store, drafts.WithLocker(locker, time.Second))

	_, err := repo.Upsert(ctx, domain.Draft{ID: "1"})
	require.NoError(t, err)

	locker.err = errors.New("redis down")
	_, err = repo.Upsert(ctx, domain.Draft{ID: "2"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to acquire distributed lock")

	err = repo.Delete(ctx, "1")
	require.Error(t, err)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "1", list[0].ID)
}
