package postgres_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dom/trivia-night/internal/domain"
	"github.com/dom/trivia-night/internal/repository/postgres"
	"github.com/dom/trivia-night/internal/store"
	"github.com/dom/trivia-night/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tally struct {
	N int `json:"n"`
}

func bump(key string) store.TxnFunc {
	return func(ctx context.Context, tx store.Txn) error {
		var c tally
		if err := tx.Get(ctx, key, &c); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		c.N++
		return tx.Put(key, c)
	}
}

func TestDocumentStore_ReadWrite(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	docs := postgres.NewDocumentStore(testDB.DB)
	ctx := context.Background()

	assert.ErrorIs(t, docs.Read(ctx, "games/g1", &tally{}), domain.ErrNotFound)

	require.NoError(t, docs.Transact(ctx, func(ctx context.Context, tx store.Txn) error {
		if err := tx.Put("games/g1", tally{N: 1}); err != nil {
			return err
		}
		return tx.Put("games/g1/scores", tally{N: 2})
	}))

	var game, scores tally
	require.NoError(t, docs.Read(ctx, "games/g1", &game))
	require.NoError(t, docs.Read(ctx, "games/g1/scores", &scores))
	assert.Equal(t, 1, game.N)
	assert.Equal(t, 2, scores.N)

	var row postgres.Document
	require.NoError(t, testDB.DB.First(&row, "key = ?", "games/g1/scores").Error)
	assert.Equal(t, int64(1), row.Version)
	assert.Equal(t, "games", row.Collection)
}

func TestDocumentStore_BodyErrorWritesNothing(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	docs := postgres.NewDocumentStore(testDB.DB)
	ctx := context.Background()
	boom := errors.New("boom")

	err := docs.Transact(ctx, func(ctx context.Context, tx store.Txn) error {
		require.NoError(t, tx.Put("games/g1", tally{N: 1}))
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, docs.Read(ctx, "games/g1", &tally{}), domain.ErrNotFound)
}

func TestDocumentStore_ConcurrentTransactionsSerialize(t *testing.T) {
	testDB := testutil.NewTestDB(t)

	var mu sync.Mutex
	retries := 0
	docs := postgres.NewDocumentStore(testDB.DB,
		postgres.WithMaxRetries(100),
		postgres.WithRetryHook(func(int) {
			mu.Lock()
			retries++
			mu.Unlock()
		}),
	)
	ctx := context.Background()

	const workers, each = 4, 5
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < each; j++ {
				assert.NoError(t, docs.Transact(ctx, bump("games/g1")))
			}
		}()
	}
	wg.Wait()

	var c tally
	require.NoError(t, docs.Read(ctx, "games/g1", &c))
	assert.Equal(t, workers*each, c.N)
	t.Logf("conflict retries: %d", retries)
}

func TestDocumentStore_SubscribeFollowsCommits(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	docs := postgres.NewDocumentStore(testDB.DB)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go docs.Listen(ctx, testDB.DSN)

	var mu sync.Mutex
	var got []store.Snapshot
	stop, err := docs.Subscribe(ctx, "games/g1", func(s store.Snapshot) {
		mu.Lock()
		got = append(got, s)
		mu.Unlock()
	})
	require.NoError(t, err)
	defer stop()

	mu.Lock()
	require.Len(t, got, 1)
	assert.False(t, got[0].Exists)
	mu.Unlock()

	// The listener connects asynchronously; keep committing until a change
	// comes through.
	require.Eventually(t, func() bool {
		if err := docs.Transact(ctx, bump("games/g1")); err != nil {
			return false
		}
		mu.Lock()
		defer mu.Unlock()
		return len(got) > 1
	}, 10*time.Second, 200*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	last := got[len(got)-1]
	assert.True(t, last.Exists)
	for i := 2; i < len(got); i++ {
		assert.Greater(t, got[i].Version, got[i-1].Version)
	}
	var c tally
	require.NoError(t, last.Decode(&c))
	assert.Equal(t, int(last.Version), c.N)
}

func TestDocumentStore_SubscribeCancelStopsDelivery(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	docs := postgres.NewDocumentStore(testDB.DB)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go docs.Listen(ctx, testDB.DSN)

	calls := 0
	var mu sync.Mutex
	stop, err := docs.Subscribe(ctx, "games/g1", func(store.Snapshot) {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	require.NoError(t, err)
	stop()

	require.NoError(t, docs.Transact(ctx, bump("games/g1")))
	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
}
