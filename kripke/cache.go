package kripke

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/rfielding/boolnet-ctl/primes"
	"github.com/rfielding/boolnet-ctl/space"
	"github.com/rfielding/boolnet-ctl/stg"
)

// StoreConfig configures the badger database behind Cached.
type StoreConfig struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps everything in RAM, for tests and one-shot runs.
	InMemory bool

	SyncWrites bool

	Logger *zap.Logger
}

type badgerLogger struct {
	logger *zap.SugaredLogger
}

func (l *badgerLogger) Errorf(format string, args ...interface{})   { l.logger.Errorf(format, args...) }
func (l *badgerLogger) Warningf(format string, args ...interface{}) { l.logger.Warnf(format, args...) }
func (l *badgerLogger) Infof(format string, args ...interface{})    { l.logger.Debugf(format, args...) }
func (l *badgerLogger) Debugf(format string, args ...interface{})   { l.logger.Debugf(format, args...) }

// OpenStore opens the verdict database.
func OpenStore(cfg StoreConfig) (*badger.DB, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent verdict store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create verdict store %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger.Sugar()})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open verdict store: %w", err)
	}
	return db, nil
}

// Cached memoizes the verdicts of another checker in badger. Queries are keyed
// by network, update mode, initial condition and formula.
type Cached struct {
	inner  Checker
	db     *badger.DB
	logger *zap.Logger
}

func NewCached(inner Checker, db *badger.DB, logger *zap.Logger) *Cached {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cached{inner: inner, db: db, logger: logger}
}

type verdict struct {
	Holds   bool          `json:"holds"`
	HasPath bool          `json:"has_path"`
	Path    []space.State `json:"path,omitempty"`
}

func cacheKey(net primes.Network, u stg.Update, init, spec Formula) ([]byte, error) {
	h := sha256.New()
	if err := json.NewEncoder(h).Encode(net); err != nil {
		return nil, err
	}
	fmt.Fprintf(h, "\x00%s\x00%s\x00%s", u, init, spec)
	return []byte("verdict/" + hex.EncodeToString(h.Sum(nil))), nil
}

func (c *Cached) lookup(key []byte) (*verdict, error) {
	var v *verdict
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		v = &verdict{}
		return json.Unmarshal(raw, v)
	})
	return v, err
}

func (c *Cached) store(key []byte, v verdict) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, raw)
	})
}

func (c *Cached) Check(net primes.Network, u stg.Update, init, spec Formula) (bool, error) {
	key, err := cacheKey(net, u, init, spec)
	if err != nil {
		return false, err
	}
	if v, err := c.lookup(key); err != nil {
		return false, err
	} else if v != nil {
		c.logger.Debug("verdict cache hit", zap.String("spec", spec.String()))
		return v.Holds, nil
	}
	holds, err := c.inner.Check(net, u, init, spec)
	if err != nil {
		return false, err
	}
	return holds, c.store(key, verdict{Holds: holds})
}

func (c *Cached) CheckWithCounterexample(net primes.Network, u stg.Update, init, spec Formula) (bool, []space.State, error) {
	key, err := cacheKey(net, u, init, spec)
	if err != nil {
		return false, nil, err
	}
	if v, err := c.lookup(key); err != nil {
		return false, nil, err
	} else if v != nil && (v.Holds || v.HasPath) {
		c.logger.Debug("verdict cache hit", zap.String("spec", spec.String()))
		return v.Holds, v.Path, nil
	}
	holds, path, err := c.inner.CheckWithCounterexample(net, u, init, spec)
	if err != nil {
		return false, nil, err
	}
	return holds, path, c.store(key, verdict{Holds: holds, HasPath: true, Path: path})
}
