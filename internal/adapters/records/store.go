// Package records persists build records in a badger database.
package records

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.BuildRecordStore = (*Store)(nil)

const keyPrefix = "record/"

// Config configures the record database.
type Config struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string
	// InMemory keeps the database in memory only.
	InMemory bool
	// Logger receives badger's own log lines. Nil silences them.
	Logger ports.Logger
}

// Store implements ports.BuildRecordStore on badger, one JSON value per target.
type Store struct {
	db *badger.DB
}

// Open opens or creates the database described by cfg.
func Open(cfg Config) (*Store, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, zerr.With(domain.ErrRecordStoreOpenFailed, "reason", "path is required")
		}
		if err := os.MkdirAll(cfg.Path, domain.DirPerm); err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrRecordStoreOpenFailed.Error()), "path", cfg.Path)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrRecordStoreOpenFailed.Error()), "path", cfg.Path)
	}
	return &Store{db: db}, nil
}

// Get returns the record of target, or nil if none exists.
func (s *Store) Get(target domain.BuildTarget) (*domain.BuildRecord, error) {
	var rec *domain.BuildRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(target))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			rec = new(domain.BuildRecord)
			return json.Unmarshal(val, rec)
		})
	})
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrRecordReadFailed.Error()), "target", target.String())
	}
	return rec, nil
}

// Put stores rec under its target.
func (s *Store) Put(rec *domain.BuildRecord) error {
	target, err := domain.ParseBuildTarget(rec.Target)
	if err != nil {
		return zerr.Wrap(err, domain.ErrRecordWriteFailed.Error())
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return zerr.Wrap(err, domain.ErrRecordWriteFailed.Error())
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(target), data)
	})
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrRecordWriteFailed.Error()), "target", rec.Target)
	}
	return nil
}

// Delete removes the record of target.
func (s *Store) Delete(target domain.BuildTarget) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key(target))
	})
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrRecordWriteFailed.Error()), "target", target.String())
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func key(target domain.BuildTarget) []byte {
	return []byte(keyPrefix + target.String())
}

// badgerLogger routes badger's logging to a ports.Logger.
type badgerLogger struct {
	logger ports.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(zerr.New(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
