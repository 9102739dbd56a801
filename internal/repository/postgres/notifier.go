package postgres

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/dom/trivia-night/pkg/logger"
	"github.com/jackc/pgx/v5"
)

// versionFilter drops notifications older than what subscribers already
// got, so each key is delivered in commit order.
type versionFilter struct {
	mu   sync.Mutex
	last map[string]int64
}

func newVersionFilter() *versionFilter {
	return &versionFilter{last: make(map[string]int64)}
}

func (f *versionFilter) advance(key string, version int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if version <= f.last[key] {
		return false
	}
	f.last[key] = version
	return true
}

const (
	minListenBackoff = time.Second
	maxListenBackoff = 30 * time.Second
)

// listenBackoff doubles the wait between failed dials. A listener that got
// connected starts over from the minimum.
type listenBackoff struct {
	wait time.Duration
}

func (b *listenBackoff) next() time.Duration {
	if b.wait == 0 {
		b.wait = minListenBackoff
	} else {
		b.wait = min(b.wait*2, maxListenBackoff)
	}
	return b.wait
}

func (b *listenBackoff) reset() { b.wait = 0 }

// Listen keeps a dedicated connection on NotifyChannel and forwards commits
// to subscribers until ctx is done. A dropped connection is re-dialed.
func (s *DocumentStore) Listen(ctx context.Context, dsn string) error {
	var backoff listenBackoff
	for {
		err := s.listenOnce(ctx, dsn, backoff.reset)
		if ctx.Err() != nil {
			return nil
		}
		wait := backoff.next()
		logger.Warn("document store: listener disconnected", "error", err, "retry_in", wait.String())
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
	}
}

// listenOnce serves one connection. connected runs once LISTEN is active.
func (s *DocumentStore) listenOnce(ctx context.Context, dsn string, connected func()) error {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return err
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{NotifyChannel}.Sanitize()); err != nil {
		return err
	}
	logger.Info("document store: listening for changes", "channel", NotifyChannel)
	connected()

	// Changes committed while disconnected are caught up by republishing
	// every subscribed key.
	for _, key := range s.registry.Keys() {
		s.publish(ctx, key)
	}

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		var c change
		if err := json.Unmarshal([]byte(n.Payload), &c); err != nil {
			logger.Error("document store: bad notification", "payload", n.Payload, "error", err)
			continue
		}
		s.publish(ctx, c.Key)
	}
}
