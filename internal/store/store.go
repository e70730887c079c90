package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	waLog "go.mau.fi/whatsmeow/util/log"

	"github.com/aaquinonez01/whatsapp-service/internal/infra/config"
)

// Store wraps whatsmeow's sqlstore, which keeps the linked device identity
// and signal sessions. Message history is not stored.
type Store struct {
	db        *sql.DB
	container *sqlstore.Container
	log       waLog.Logger
}

// Open creates the session store described by cfg.
func Open(ctx context.Context, cfg *config.Config, log waLog.Logger) (*Store, error) {
	if err := cfg.EnsureStorePath(); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return New(ctx, cfg.DatabasePath(), log)
}

// New creates a new Store with the given sqlite path or DSN.
func New(ctx context.Context, dbPath string, log waLog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	container := sqlstore.NewWithDB(db, "sqlite3", log.Sub("whatsmeow"))
	if err := container.Upgrade(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to upgrade whatsmeow schema: %w", err)
	}

	return &Store{
		db:        db,
		container: container,
		log:       log.Sub("Store"),
	}, nil
}

func dsn(path string) string {
	if strings.Contains(path, "?") {
		return path + "&_foreign_keys=on"
	}
	return path + "?_foreign_keys=on"
}

// GetDevice returns the stored device or a fresh one that still needs pairing.
func (s *Store) GetDevice(ctx context.Context) (*store.Device, error) {
	device, err := s.container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load device: %w", err)
	}
	if device.ID != nil {
		s.log.Infof("Loaded session for %s", device.ID)
	}
	return device, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
