// Package store holds the catalog's item list and persists it as a single
// snapshot in key-value storage after every change.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/erazemk/whereisit/internal/kv"
	"github.com/erazemk/whereisit/internal/model"
)

// StorageKey is the key-value entry the snapshot is stored under.
const StorageKey = "where-is-it-storage"

// ErrClosed is returned by mutations on a closed Store.
var ErrClosed = errors.New("store closed")

// snapshot is the persisted form of the item list.
type snapshot struct {
	Items []model.Item `json:"items"`
}

// Store is the single owner of the item list. All mutations are serialized
// and each one is committed to storage before it returns.
type Store struct {
	mu     sync.Mutex
	items  []model.Item
	closed bool

	storage kv.Storage
	key     string
	cleanup *cleaner
	now     func() time.Time
	logger  *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for background cleanup failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithKey stores the snapshot under key instead of StorageKey.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// Open creates a Store and rehydrates it from the last snapshot in storage.
// Without a snapshot the store starts empty. images receives the paths of
// files that stop being referenced; it may be nil.
func Open(ctx context.Context, storage kv.Storage, images ImageDeleter, opts ...Option) (*Store, error) {
	s := &Store{
		storage: storage,
		key:     StorageKey,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	items, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	s.items = items
	s.cleanup = newCleaner(images, s.logger)
	return s, nil
}

func (s *Store) load(ctx context.Context) ([]model.Item, error) {
	raw, ok, err := s.storage.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}
	if !ok {
		return []model.Item{}, nil
	}

	var snap snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	if snap.Items == nil {
		snap.Items = []model.Item{}
	}
	return snap.Items, nil
}

// Close waits for pending image deletions. Mutations fail afterwards.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cleanup.close()
	return nil
}

// Items returns a copy of the item list in insertion order.
func (s *Store) Items() []model.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Item(nil), s.items...)
}

// Len returns the number of items.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Get returns the item with the given id.
func (s *Store) Get(id string) (model.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.items[i], true
	}
	return model.Item{}, false
}

// Filter returns the items whose name contains query, ignoring case.
// An empty query matches everything.
func (s *Store) Filter(query string) []model.Item {
	q := strings.ToLower(query)

	s.mu.Lock()
	defer s.mu.Unlock()

	matches := []model.Item{}
	for _, item := range s.items {
		if strings.Contains(strings.ToLower(item.Name), q) {
			matches = append(matches, item)
		}
	}
	return matches
}

// AddItem appends item. The caller supplies a unique ID and UpdatedAt.
func (s *Store) AddItem(ctx context.Context, item model.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	next := append(slices.Clone(s.items), item)
	return s.apply(ctx, next)
}

// UpdateLocation points the item's location photo at newPath and refreshes
// its UpdatedAt. The previous photo, if any, is deleted in the background.
// An unknown id leaves the list unchanged.
func (s *Store) UpdateLocation(ctx context.Context, id, newPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	i := s.indexOf(id)
	if i < 0 {
		return s.apply(ctx, s.items)
	}

	var orphans []string
	item := s.items[i]
	if old := item.Location(); old != "" && old != newPath {
		orphans = append(orphans, old)
	}
	item.LocationImageURI = model.StringPtr(newPath)
	item.UpdatedAt = s.nextTimestamp(item.UpdatedAt)

	next := slices.Clone(s.items)
	next[i] = item
	return s.apply(ctx, next, orphans...)
}

// DeleteItem removes the item with the given id. Its custom icon and
// location photo are deleted in the background. An unknown id is a no-op.
func (s *Store) DeleteItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	i := s.indexOf(id)
	if i < 0 {
		return s.apply(ctx, s.items)
	}

	var orphans []string
	item := s.items[i]
	if item.Type == model.ItemTypeCustom && item.IconURI != "" {
		orphans = append(orphans, item.IconURI)
	}
	if item.HasLocation() {
		orphans = append(orphans, item.Location())
	}

	next := slices.Delete(slices.Clone(s.items), i, i+1)
	return s.apply(ctx, next, orphans...)
}

// InitializeDefaults replaces the whole list with the default preset items.
// Existing items are discarded without touching their files, so callers
// should only use it on an empty store.
func (s *Store) InitializeDefaults(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	return s.apply(ctx, model.DefaultItems(s.now()))
}

// EnsureDefaults seeds the default items if the store is empty and reports
// whether it did.
func (s *Store) EnsureDefaults(ctx context.Context) (bool, error) {
	if s.Len() > 0 {
		return false, nil
	}
	if err := s.InitializeDefaults(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// apply commits next and only then makes it the current list and queues
// orphans for deletion. On a failed commit the list and files are left as
// they were. Callers hold s.mu, so snapshots reach storage in mutation order.
func (s *Store) apply(ctx context.Context, next []model.Item, orphans ...string) error {
	if err := s.commit(ctx, next); err != nil {
		return err
	}
	s.items = next
	for _, path := range orphans {
		s.cleanup.enqueue(path)
	}
	return nil
}

// commit writes items to storage as a whole-list snapshot.
func (s *Store) commit(ctx context.Context, items []model.Item) error {
	data, err := json.Marshal(snapshot{Items: items})
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := s.storage.Set(ctx, s.key, string(data)); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

func (s *Store) indexOf(id string) int {
	for i, item := range s.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// nextTimestamp returns the current time in milliseconds, bumped past prev
// when the clock has not advanced.
func (s *Store) nextTimestamp(prev int64) int64 {
	ts := model.NowMillis(s.now())
	if ts <= prev {
		ts = prev + 1
	}
	return ts
}
