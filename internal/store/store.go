package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Geneteca/discord-bot/internal/model"
)

// snapshotRow is the single-row table holding the whole state document.
// Writing one row is the atomicity unit: either the new snapshot lands
// or the previous one stays intact.
type snapshotRow struct {
	ID        uint `gorm:"primaryKey"`
	Document  []byte
	UpdatedAt time.Time
}

func (snapshotRow) TableName() string { return "snapshots" }

// Store owns the authoritative in-memory State and its durable
// snapshot. Every read and mutation goes through View/Update, which
// serialize access (single-writer discipline), so callers never race
// each other on the state.
type Store struct {
	db *gorm.DB

	mu    sync.Mutex
	state *model.State
	// dirty marks an in-memory mutation whose flush failed; the next
	// Update flushes even if its own mutation reports no change.
	dirty bool
}

// Open opens (creating if needed) the SQLite-backed store and loads the
// latest snapshot. A missing or unreadable snapshot loads as empty
// state: availability over dead history for a notification system.
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = "remindbot.db"
	}

	if err := ensureDirForSQLite(dsn); err != nil {
		return nil, err
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.AutoMigrate(&snapshotRow{}); err != nil {
		return nil, fmt.Errorf("migrate db: %w", err)
	}

	s := &Store{db: db}
	s.state = s.loadSnapshot()
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) loadSnapshot() *model.State {
	var row snapshotRow
	err := s.db.First(&row, 1).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return model.NewState()
	case err != nil:
		log.Warn().Err(err).Msg("snapshot read failed, starting with empty state")
		return model.NewState()
	}

	state := &model.State{}
	if err := json.Unmarshal(row.Document, state); err != nil {
		log.Warn().Err(err).Msg("snapshot document malformed, starting with empty state")
		return model.NewState()
	}
	state.Normalize()
	return state
}

// View runs fn with read access to the state. fn must not retain
// references past its return; copy out what you need.
func (s *Store) View(fn func(state *model.State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.state)
}

// Update runs fn with exclusive access to the state and flushes the
// whole snapshot when fn reports a change. A failed flush keeps the
// in-memory mutation and is retried on the next Update, so a transient
// disk error costs persistence latency, not data.
func (s *Store) Update(ctx context.Context, fn func(state *model.State) (changed bool, err error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed, err := fn(s.state)
	if err != nil {
		return err
	}
	if !changed && !s.dirty {
		return nil
	}

	if err := s.flush(ctx); err != nil {
		s.dirty = true
		return fmt.Errorf("flush snapshot: %w", err)
	}
	s.dirty = false
	return nil
}

func (s *Store) flush(ctx context.Context) error {
	doc, err := json.Marshal(s.state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	row := snapshotRow{ID: 1, Document: doc}
	return s.db.WithContext(ctx).Save(&row).Error
}

// ensureDirForSQLite creates the parent dir for the SQLite file if needed.
func ensureDirForSQLite(dsn string) error {
	// Ignore DSNs with explicit mode=memory or network.
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		return nil
	}
	// Strip file: prefix if present.
	clean := strings.TrimPrefix(dsn, "file:")
	clean = strings.Split(clean, "?")[0]
	dir := filepath.Dir(clean)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db dir %q: %w", dir, err)
	}
	return nil
}
