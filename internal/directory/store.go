// Package directory implements the nickname record store: address routing,
// validation, single-writer locking and change notification over a
// storage.Backend.
package directory

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/fenggwsx/NickDirectory/internal/config"
	"github.com/fenggwsx/NickDirectory/internal/logger"
	"github.com/fenggwsx/NickDirectory/internal/storage"
	"github.com/fenggwsx/NickDirectory/internal/storage/sqlite"
)

// RecordStore owns the backend handle. Reads run concurrently, writes are
// serialized.
type RecordStore struct {
	mu      sync.RWMutex
	backend storage.Backend
	hub     *observerHub
	log     *zap.Logger
}

// New wraps an already migrated backend.
func New(backend storage.Backend, log *zap.Logger) *RecordStore {
	return &RecordStore{
		backend: backend,
		hub:     newObserverHub(),
		log:     logger.OrNop(log).With(zap.String("component", "directory")),
	}
}

// Open opens the SQLite database described by cfg and applies the schema.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*RecordStore, error) {
	backend, err := sqlite.NewStore(cfg, log)
	if err != nil {
		return nil, err
	}
	if err := backend.Migrate(ctx); err != nil {
		_ = backend.Close()
		return nil, err
	}
	return New(backend, log), nil
}

// Close releases the backend.
func (s *RecordStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend.Close()
}

// Subscribe registers an observer and returns the id needed to unsubscribe.
func (s *RecordStore) Subscribe(observer Observer) string {
	return s.hub.register(observer)
}

// Unsubscribe removes an observer. It reports whether the id was known.
func (s *RecordStore) Unsubscribe(id string) bool {
	return s.hub.unregister(id)
}

// TypeOf classifies addr as a collection or a single item.
func (s *RecordStore) TypeOf(addr storage.Address) (storage.ContentType, error) {
	return addr.ContentType()
}

// List returns the records addressed by addr that match filter, ordered by
// sort ascending. An empty sort key orders by name.
func (s *RecordStore) List(ctx context.Context, addr storage.Address, filter storage.Filter, sort storage.SortKey) ([]storage.Record, error) {
	if err := addr.Validate(); err != nil {
		return nil, err
	}
	sort, err := storage.ParseSortKey(string(sort))
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.backend.List(ctx, addr, filter, sort)
}

// Get returns the record with the given id.
func (s *RecordStore) Get(ctx context.Context, id int64) (storage.Record, error) {
	records, err := s.List(ctx, storage.Item(id), storage.Filter{}, storage.SortByID)
	if err != nil {
		return storage.Record{}, err
	}
	if len(records) == 0 {
		return storage.Record{}, storage.ErrNotFound
	}
	return records[0], nil
}

// Insert validates and persists a new record, returning its id.
func (s *RecordStore) Insert(ctx context.Context, name, nickname string) (int64, error) {
	record, err := newRecord(name, nickname)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	err = s.backend.Insert(ctx, &record)
	s.mu.Unlock()
	if err != nil {
		s.log.Error("insert failed", zap.Error(err))
		return 0, err
	}

	s.log.Debug("record inserted", zap.Int64("id", record.ID))
	s.hub.notify(storage.Item(record.ID))
	return record.ID, nil
}

// Update applies changes to every record addressed by addr that also
// matches filter. Zero matches is not an error.
func (s *RecordStore) Update(ctx context.Context, addr storage.Address, changes storage.Changes, filter storage.Filter) (int64, error) {
	if err := addr.Validate(); err != nil {
		return 0, err
	}
	changes, err := normalizeChanges(changes)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	count, err := s.backend.Update(ctx, addr, filter, changes)
	s.mu.Unlock()
	if err != nil {
		s.log.Error("update failed", zap.Stringer("address", addr), zap.Error(err))
		return 0, err
	}

	s.log.Debug("records updated", zap.Stringer("address", addr), zap.Int64("count", count))
	s.hub.notify(addr)
	return count, nil
}

// Delete removes every record addressed by addr that also matches filter.
func (s *RecordStore) Delete(ctx context.Context, addr storage.Address, filter storage.Filter) (int64, error) {
	if err := addr.Validate(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	count, err := s.backend.Delete(ctx, addr, filter)
	s.mu.Unlock()
	if err != nil {
		s.log.Error("delete failed", zap.Stringer("address", addr), zap.Error(err))
		return 0, err
	}

	s.log.Debug("records deleted", zap.Stringer("address", addr), zap.Int64("count", count))
	s.hub.notify(addr)
	return count, nil
}

// Reset drops and recreates the table. Every record is lost.
func (s *RecordStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	err := s.backend.Reset(ctx)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.hub.notify(storage.Collection())
	return nil
}

func newRecord(name, nickname string) (storage.Record, error) {
	name, err := requireText("name", name)
	if err != nil {
		return storage.Record{}, err
	}
	nickname, err = requireText("nickname", nickname)
	if err != nil {
		return storage.Record{}, err
	}
	return storage.Record{Name: name, Nickname: nickname}, nil
}

func normalizeChanges(changes storage.Changes) (storage.Changes, error) {
	if changes.IsEmpty() {
		return changes, &storage.ValidationError{Field: "changes", Reason: "no fields to update"}
	}
	var out storage.Changes
	if changes.Name != nil {
		name, err := requireText("name", *changes.Name)
		if err != nil {
			return out, err
		}
		out.Name = &name
	}
	if changes.Nickname != nil {
		nickname, err := requireText("nickname", *changes.Nickname)
		if err != nil {
			return out, err
		}
		out.Nickname = &nickname
	}
	return out, nil
}

func requireText(field, value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", &storage.ValidationError{Field: field, Reason: "must not be empty"}
	}
	return trimmed, nil
}

// IsUserError reports whether err was caused by the caller rather than storage.
func IsUserError(err error) bool {
	return errors.Is(err, storage.ErrValidation) ||
		errors.Is(err, storage.ErrInvalidAddress) ||
		errors.Is(err, storage.ErrNotFound)
}
