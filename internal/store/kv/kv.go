// Package kv stores saved-search snapshots in an embedded Badger database.
//
// Each snapshot is one JSON document under search:<id>. An owner index entry
// search_by_user:<user_id>:<id> lets a user's snapshots be listed by prefix scan.
package kv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/listenupapp/shelfmark/internal/domain"
	"github.com/listenupapp/shelfmark/internal/store"
)

const (
	searchPrefix    = "search:"
	userIndexPrefix = "search_by_user:"
)

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

// Open opens or creates the snapshot database in dir.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	opts.SyncWrites = true
	opts.CompactL0OnClose = true
	return open(opts, logger)
}

// OpenInMemory opens a snapshot database that lives only in memory.
func OpenInMemory(logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts, logger)
}

// OpenReadOnly opens an existing snapshot database without write access.
func OpenReadOnly(dir string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithReadOnly(true)
	opts.Logger = nil
	return open(opts, logger)
}

func open(opts badger.Options, logger *slog.Logger) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.Info("snapshot store opened", "path", opts.Dir, "in_memory", opts.InMemory)
	return &Store{db: db, logger: logger}, nil
}

// Close gracefully closes the database.
func (s *Store) Close() error {
	s.logger.Info("closing snapshot store")
	return s.db.Close()
}

func searchKey(id string) []byte {
	return []byte(searchPrefix + id)
}

func userPrefix(userID int64) []byte {
	return []byte(userIndexPrefix + strconv.FormatInt(userID, 10) + ":")
}

func userIndexKey(userID int64, id string) []byte {
	return append(userPrefix(userID), id...)
}

// SaveSearch stores a new snapshot and its owner index entry atomically.
// Returns store.ErrAlreadyExists if the id is taken.
func (s *Store) SaveSearch(ctx context.Context, search *domain.SavedSearch) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(search)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(searchKey(search.ID))
		if err == nil {
			return store.ErrAlreadyExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("failed to check existing key: %w", err)
		}

		if err := txn.Set(searchKey(search.ID), data); err != nil {
			return fmt.Errorf("failed to set key: %w", err)
		}
		return txn.Set(userIndexKey(search.UserID, search.ID), nil)
	})
}

// GetSearch retrieves a snapshot by id.
// Returns store.ErrNotFound if it does not exist.
func (s *Store) GetSearch(ctx context.Context, id string) (*domain.SavedSearch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var search domain.SavedSearch
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, searchKey(id), &search)
	})
	if err != nil {
		return nil, err
	}
	return &search, nil
}

func getJSON(txn *badger.Txn, key []byte, dest any) error {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get key: %w", err)
	}
	return item.Value(func(val []byte) error {
		if err := json.Unmarshal(val, dest); err != nil {
			return fmt.Errorf("failed to unmarshal snapshot: %w", err)
		}
		return nil
	})
}

// ListUserSearches returns the user's snapshots without results, newest first.
func (s *Store) ListUserSearches(ctx context.Context, userID int64) ([]domain.SavedSearchInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	infos := []domain.SavedSearchInfo{}
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := userPrefix(userID)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			id := string(it.Item().Key()[len(prefix):])

			var search domain.SavedSearch
			if err := getJSON(txn, searchKey(id), &search); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					s.logger.Warn("dangling snapshot index entry", "user_id", userID, "search_id", id)
					continue
				}
				return err
			}
			infos = append(infos, search.Info())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(infos, func(a, b domain.SavedSearchInfo) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return infos, nil
}

// DeleteSearch removes a snapshot and its owner index entry.
// Returns store.ErrNotFound if it does not exist.
func (s *Store) DeleteSearch(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		var search domain.SavedSearch
		if err := getJSON(txn, searchKey(id), &search); err != nil {
			return err
		}
		if err := txn.Delete(searchKey(id)); err != nil {
			return err
		}
		return txn.Delete(userIndexKey(search.UserID, id))
	})
}

// CountSearches returns the number of stored snapshots.
func (s *Store) CountSearches(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(searchPrefix)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Walk calls fn with every key and value in the database in key order.
func (s *Store) Walk(ctx context.Context, fn func(key string, value []byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := fn(string(item.KeyCopy(nil)), val); err != nil {
				return err
			}
		}
		return nil
	})
}
