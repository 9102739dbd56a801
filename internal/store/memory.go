package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dom/trivia-night/internal/domain"
	"github.com/dom/trivia-night/pkg/logger"
)

type memDoc struct {
	version int64
	data    []byte
}

// Memory is an in-process Store with optimistic concurrency. Every commit
// checks that the documents its body read are still at the versions it saw.
type Memory struct {
	mu   sync.Mutex
	docs map[string]memDoc

	// notifyMu orders publication: it is taken before mu is released so
	// subscribers see commits in commit order.
	notifyMu sync.Mutex
	registry *Registry

	maxRetries int
	onRetry    func(attempt int)
}

type MemoryOption func(*Memory)

func WithMaxRetries(n int) MemoryOption {
	return func(m *Memory) {
		if n > 0 {
			m.maxRetries = n
		}
	}
}

// WithRetryHook is called every time a commit conflicts.
func WithRetryHook(fn func(attempt int)) MemoryOption {
	return func(m *Memory) { m.onRetry = fn }
}

func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		docs:       make(map[string]memDoc),
		registry:   NewRegistry(),
		maxRetries: DefaultMaxRetries,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Read(ctx context.Context, key string, dst any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	doc, ok := m.docs[key]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%s: %w", key, domain.ErrNotFound)
	}
	return json.Unmarshal(doc.data, dst)
}

func (m *Memory) Transact(ctx context.Context, fn TxnFunc) error {
	for attempt := 1; attempt <= m.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		tx := &memTxn{m: m, reads: make(map[string]int64), writes: make(map[string][]byte)}
		err := fn(ctx, tx)
		if err == nil {
			err = m.commit(tx)
		}
		if errors.Is(err, domain.ErrConflict) {
			logger.Debug("memory store: commit conflict, retrying", "attempt", attempt)
			if m.onRetry != nil {
				m.onRetry(attempt)
			}
			continue
		}
		return err
	}
	return domain.ErrTooManyRetries
}

func (m *Memory) commit(tx *memTxn) error {
	m.mu.Lock()
	for key, seen := range tx.reads {
		if m.docs[key].version != seen {
			m.mu.Unlock()
			return domain.ErrConflict
		}
	}

	snaps := make([]Snapshot, 0, len(tx.order))
	for _, key := range tx.order {
		doc := memDoc{version: m.docs[key].version + 1, data: tx.writes[key]}
		m.docs[key] = doc
		snaps = append(snaps, Snapshot{Key: key, Version: doc.version, Exists: true, Data: doc.data})
	}

	m.notifyMu.Lock()
	m.mu.Unlock()
	defer m.notifyMu.Unlock()

	for _, s := range snaps {
		m.registry.Publish(s)
	}
	return nil
}

func (m *Memory) Subscribe(ctx context.Context, key string, fn func(Snapshot)) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	m.mu.Lock()
	doc, ok := m.docs[key]
	m.mu.Unlock()

	cancel := m.registry.Add(key, fn)
	fn(Snapshot{Key: key, Version: doc.version, Exists: ok, Data: doc.data})
	return cancel, nil
}

type memTxn struct {
	m      *Memory
	reads  map[string]int64
	writes map[string][]byte
	order  []string
}

func (t *memTxn) Get(ctx context.Context, key string, dst any) error {
	if data, ok := t.writes[key]; ok {
		return json.Unmarshal(data, dst)
	}

	t.m.mu.Lock()
	doc, ok := t.m.docs[key]
	t.m.mu.Unlock()

	// The first read fixes the version the commit is checked against.
	if _, seen := t.reads[key]; !seen {
		t.reads[key] = doc.version
	} else if t.reads[key] != doc.version {
		return domain.ErrConflict
	}

	if !ok {
		return fmt.Errorf("%s: %w", key, domain.ErrNotFound)
	}
	return json.Unmarshal(doc.data, dst)
}

func (t *memTxn) Put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if _, ok := t.writes[key]; !ok {
		t.order = append(t.order, key)
	}
	t.writes[key] = data
	return nil
}
