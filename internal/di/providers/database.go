package providers

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/listenupapp/shelfmark/internal/config"
	"github.com/listenupapp/shelfmark/internal/logger"
	"github.com/listenupapp/shelfmark/internal/store/kv"
	"github.com/listenupapp/shelfmark/internal/store/sqlite"
)

// StoreHandle wraps the relational store with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the SQLite catalog store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	path := cfg.Storage.DatabasePath()
	db, err := sqlite.Open(path, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", path)

	return &StoreHandle{Store: db}, nil
}

// SnapshotStoreHandle wraps the saved-search store with shutdown capability.
type SnapshotStoreHandle struct {
	*kv.Store
}

// Shutdown implements do.Shutdownable.
func (h *SnapshotStoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideSnapshotStore provides the badger store holding saved searches.
func ProvideSnapshotStore(i do.Injector) (*SnapshotStoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	path := cfg.Storage.SearchesPath()
	snapshots, err := kv.Open(path, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Saved search store initialized", "path", path)

	return &SnapshotStoreHandle{Store: snapshots}, nil
}

// ProvideSlogLogger provides access to the underlying slog.Logger for packages that need it.
func ProvideSlogLogger(i do.Injector) (*slog.Logger, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return log.Logger, nil
}
