package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"entryblog/internal/config"
	"entryblog/internal/repository"
	"entryblog/internal/repository/postgres"
	"entryblog/internal/repository/sqlite"
)

// Store bundles the repositories backing the blog and the handle that owns them.
type Store struct {
	Users   repository.UserRepository
	Entries repository.EntryRepository
	close   func()
}

// Close releases the underlying database handle.
func (s *Store) Close() {
	if s.close != nil {
		s.close()
	}
}

// OpenStore picks the backend from cfg and creates the schema.
// The testing profile always uses an in-memory sqlite database.
func OpenStore(ctx context.Context, cfg config.Config, logger *logrus.Logger) (*Store, error) {
	var store *Store
	var err error

	switch {
	case cfg.Testing():
		logger.Info("testing profile: using in-memory sqlite")
		store, err = openSQLite(sqlite.MemoryPath)
	case cfg.Database.Driver == config.DriverPostgres:
		logger.Info("using postgres store")
		store, err = openPostgres(ctx, cfg)
	default:
		logger.Infof("using sqlite store at %s", cfg.Database.Path)
		store, err = openSQLite(cfg.Database.Path)
	}
	if err != nil {
		return nil, err
	}

	if err := store.Users.Init(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("init user repository: %w", err)
	}
	if err := store.Entries.Init(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("init entry repository: %w", err)
	}
	return store, nil
}

func openSQLite(path string) (*Store, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return &Store{
		Users:   sqlite.NewUserRepository(db),
		Entries: sqlite.NewEntryRepository(db),
		close:   func() { _ = db.Close() },
	}, nil
}

func openPostgres(ctx context.Context, cfg config.Config) (*Store, error) {
	pool, err := postgres.NewPool(ctx, cfg.Database.DSN, postgres.PoolOptions{
		MaxConns:    cfg.Database.MaxConns,
		MinConns:    cfg.Database.MinConns,
		MaxConnLife: cfg.Database.MaxConnLife,
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return &Store{
		Users:   postgres.NewUserRepository(pool),
		Entries: postgres.NewEntryRepository(pool),
		close:   pool.Close,
	}, nil
}
