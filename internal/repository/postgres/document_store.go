package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dom/trivia-night/internal/domain"
	"github.com/dom/trivia-night/internal/store"
	"github.com/dom/trivia-night/pkg/logger"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NotifyChannel is the LISTEN/NOTIFY channel commits are announced on.
const NotifyChannel = "documents"

// Document is one versioned JSON document of the game store.
type Document struct {
	Key        string         `gorm:"primaryKey"`
	Collection string         `gorm:"index;not null"`
	Data       datatypes.JSON `gorm:"type:jsonb;not null"`
	Version    int64          `gorm:"not null"`
	UpdatedAt  time.Time
}

// change is the NOTIFY payload. Subscribers re-read the document, which
// keeps payloads under the NOTIFY size limit.
type change struct {
	Key     string `json:"key"`
	Version int64  `json:"version"`
}

// DocumentStore implements store.Store on a postgres table. Transactions
// are optimistic: every document a body read must still be at the version
// it saw when the body commits, otherwise the body runs again.
type DocumentStore struct {
	db       *gorm.DB
	registry *store.Registry
	versions *versionFilter

	maxRetries int
	onRetry    func(attempt int)
}

type DocumentStoreOption func(*DocumentStore)

func WithMaxRetries(n int) DocumentStoreOption {
	return func(s *DocumentStore) {
		if n > 0 {
			s.maxRetries = n
		}
	}
}

func WithRetryHook(fn func(attempt int)) DocumentStoreOption {
	return func(s *DocumentStore) { s.onRetry = fn }
}

func NewDocumentStore(db *gorm.DB, opts ...DocumentStoreOption) *DocumentStore {
	s := &DocumentStore{
		db:         db,
		registry:   store.NewRegistry(),
		versions:   newVersionFilter(),
		maxRetries: store.DefaultMaxRetries,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *DocumentStore) Read(ctx context.Context, key string, dst any) error {
	doc, err := s.get(ctx, s.db, key, false)
	if err != nil {
		return err
	}
	return json.Unmarshal(doc.Data, dst)
}

func (s *DocumentStore) get(ctx context.Context, db *gorm.DB, key string, share bool) (*Document, error) {
	q := db.WithContext(ctx)
	if share {
		q = q.Clauses(clause.Locking{Strength: "SHARE"})
	}
	var doc Document
	err := q.First(&doc, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *DocumentStore) Transact(ctx context.Context, fn store.TxnFunc) error {
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		tx := &pgTxn{ctx: ctx, s: s, reads: make(map[string]int64), writes: make(map[string][]byte)}
		if err := fn(ctx, tx); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				s.retried(attempt)
				continue
			}
			return err
		}
		if len(tx.order) == 0 {
			return nil
		}

		err := s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
			return s.commit(ctx, db, tx)
		})
		if errors.Is(err, domain.ErrConflict) {
			s.retried(attempt)
			continue
		}
		return err
	}
	return domain.ErrTooManyRetries
}

func (s *DocumentStore) retried(attempt int) {
	logger.Debug("document store: commit conflict, retrying", "attempt", attempt)
	if s.onRetry != nil {
		s.onRetry(attempt)
	}
}

func (s *DocumentStore) commit(ctx context.Context, db *gorm.DB, tx *pgTxn) error {
	for key, seen := range tx.reads {
		if _, written := tx.writes[key]; written {
			continue
		}
		var version int64
		doc, err := s.get(ctx, db, key, true)
		if err == nil {
			version = doc.Version
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if version != seen {
			return domain.ErrConflict
		}
	}

	now := time.Now()
	for _, key := range tx.order {
		seen := tx.reads[key]
		var res *gorm.DB
		if seen == 0 {
			res = db.Clauses(clause.OnConflict{DoNothing: true}).Create(&Document{
				Key:        key,
				Collection: domain.Collection(key),
				Data:       datatypes.JSON(tx.writes[key]),
				Version:    1,
				UpdatedAt:  now,
			})
		} else {
			res = db.Model(&Document{}).
				Where("key = ? AND version = ?", key, seen).
				Updates(map[string]any{
					"data":       datatypes.JSON(tx.writes[key]),
					"version":    seen + 1,
					"updated_at": now,
				})
		}
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrConflict
		}

		payload, err := json.Marshal(change{Key: key, Version: seen + 1})
		if err != nil {
			return err
		}
		if err := db.Exec("SELECT pg_notify(?, ?)", NotifyChannel, string(payload)).Error; err != nil {
			return err
		}
	}
	return nil
}

// Subscribe registers fn and delivers the current snapshot. Later changes
// arrive through the listener started with Listen.
func (s *DocumentStore) Subscribe(ctx context.Context, key string, fn func(store.Snapshot)) (func(), error) {
	cancel := s.registry.Add(key, fn)
	snap, err := s.snapshot(ctx, key)
	if err != nil {
		cancel()
		return nil, err
	}
	fn(snap)
	return cancel, nil
}

func (s *DocumentStore) snapshot(ctx context.Context, key string) (store.Snapshot, error) {
	doc, err := s.get(ctx, s.db, key, false)
	if errors.Is(err, domain.ErrNotFound) {
		return store.Snapshot{Key: key}, nil
	}
	if err != nil {
		return store.Snapshot{}, err
	}
	return store.Snapshot{Key: key, Version: doc.Version, Exists: true, Data: json.RawMessage(doc.Data)}, nil
}

// publish fans out the latest version of key unless a newer one already
// went out.
func (s *DocumentStore) publish(ctx context.Context, key string) {
	if !s.registry.Has(key) {
		return
	}
	snap, err := s.snapshot(ctx, key)
	if err != nil {
		logger.Error("document store: reload after notify", "key", key, "error", err)
		return
	}
	if !s.versions.advance(key, snap.Version) {
		return
	}
	s.registry.Publish(snap)
}

type pgTxn struct {
	ctx    context.Context
	s      *DocumentStore
	reads  map[string]int64
	writes map[string][]byte
	order  []string
}

func (t *pgTxn) Get(ctx context.Context, key string, dst any) error {
	if data, ok := t.writes[key]; ok {
		return json.Unmarshal(data, dst)
	}
	doc, err := t.s.get(ctx, t.s.db, key, false)
	var version int64
	if err == nil {
		version = doc.Version
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	if seen, ok := t.reads[key]; !ok {
		t.reads[key] = version
	} else if seen != version {
		return domain.ErrConflict
	}
	if doc == nil {
		return err
	}
	return json.Unmarshal(doc.Data, dst)
}

func (t *pgTxn) Put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if _, ok := t.reads[key]; !ok {
		// A blind write still needs the current version for the check.
		var cur int64
		if doc, err := t.s.get(t.ctx, t.s.db, key, false); err == nil {
			cur = doc.Version
		}
		t.reads[key] = cur
	}
	if _, ok := t.writes[key]; !ok {
		t.order = append(t.order, key)
	}
	t.writes[key] = data
	return nil
}
