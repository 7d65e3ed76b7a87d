// Package archive keeps a history of snapshot files in a local Badger
// database, so hosts can retain more than the single most recent save.
// Snapshots are stored as raw file bytes keyed by their id; ids embed a
// ULID, so key order is creation order.
package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/arkvale/worldsave-go/pkg/snapshot"
)

// Common errors
var (
	ErrNotFound = errors.New("archive: snapshot not found")
)

// Config configures an Archive.
type Config struct {
	// Dir is the Badger database directory. Required.
	Dir string

	// Keep bounds how many snapshots Put retains; once exceeded, the oldest
	// are deleted. Zero keeps everything.
	Keep int

	// GCInterval between value-log garbage collection runs.
	GCInterval time.Duration

	// GCThreshold is the rewrite ratio passed to Badger's value-log GC.
	GCThreshold float64

	// SyncWrites forces an fsync per write. Archives hold durable history,
	// so this defaults to on.
	SyncWrites bool

	// Logger is the structured logger. Defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns the default archive configuration for dir.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:         dir,
		GCInterval:  10 * time.Minute,
		GCThreshold: 0.5,
		SyncWrites:  true,
	}
}

// Entry describes one archived snapshot.
type Entry struct {
	ID        string    `json:"id" yaml:"id"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	Mode      string    `json:"mode" yaml:"mode"`
	Entities  int       `json:"entities" yaml:"entities"`
	Encrypted bool      `json:"encrypted,omitempty" yaml:"encrypted,omitempty"`
	Size      int64     `json:"size" yaml:"size"`
}

// Stats reports archive storage statistics.
type Stats struct {
	Snapshots    int    `json:"snapshots" yaml:"snapshots"`
	LSMSize      uint64 `json:"lsm_size" yaml:"lsm_size"`
	ValueLogSize uint64 `json:"value_log_size" yaml:"value_log_size"`
	TotalSize    uint64 `json:"total_size" yaml:"total_size"`
	LastGCTime   int64  `json:"last_gc_time" yaml:"last_gc_time"` // Unix milliseconds, zero before the first run
}

// Archive is a Badger-backed snapshot history store.
type Archive struct {
	db     *badger.DB
	cfg    Config
	logger *slog.Logger

	lastGCTime atomic.Int64

	// Prometheus metrics
	metricsSnapshots    prometheus.Gauge
	metricsLSMSize      prometheus.Gauge
	metricsValueLogSize prometheus.Gauge
	metricsTotalSize    prometheus.Gauge
	metricsLastGCTime   prometheus.Gauge
	metricsArchived     prometheus.Counter

	// Shutdown
	stopCh chan struct{}
	doneCh chan struct{}
}

// Open opens (creating if absent) the archive database under cfg.Dir.
func Open(cfg Config) (*Archive, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("archive: dir is required")
	}
	if cfg.GCInterval <= 0 {
		cfg.GCInterval = 10 * time.Minute
	}
	if cfg.GCThreshold <= 0 || cfg.GCThreshold >= 1 {
		cfg.GCThreshold = 0.5
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	opts := badger.DefaultOptions(cfg.Dir)
	opts.Logger = &badgerLogger{logger: cfg.Logger}
	opts.SyncWrites = cfg.SyncWrites

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("archive: open db: %w", err)
	}

	a := &Archive{
		db:     db,
		cfg:    cfg,
		logger: cfg.Logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	go a.gcLoop()

	cfg.Logger.Info("snapshot archive opened",
		"dir", cfg.Dir,
		"keep", cfg.Keep,
		"gc_interval", cfg.GCInterval)

	return a, nil
}

// Put stores raw snapshot bytes. The id, creation time and the rest of the
// entry come from the snapshot's own meta block, so data must be a complete
// snapshot file (plain or encrypted). When Keep is set, the oldest entries
// beyond it are deleted after the write.
func (a *Archive) Put(ctx context.Context, data []byte) (*Entry, error) {
	doc, err := snapshot.ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("archive: put: %w", err)
	}
	if doc.Meta.ID == "" {
		return nil, fmt.Errorf("archive: put: snapshot has no id")
	}

	err = a.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(doc.Meta.ID), data)
	})
	if err != nil {
		return nil, fmt.Errorf("archive: put %s: %w", doc.Meta.ID, err)
	}

	if a.metricsArchived != nil {
		a.metricsArchived.Inc()
	}

	entry := entryFromMeta(doc.Meta, int64(len(data)))
	a.logger.Debug("snapshot archived",
		"id", entry.ID,
		"mode", entry.Mode,
		"size", entry.Size)

	if a.cfg.Keep > 0 {
		if _, err := a.Prune(ctx, a.cfg.Keep); err != nil {
			return entry, err
		}
	}

	return entry, nil
}

// Get retrieves archived snapshot bytes by id.
func (a *Archive) Get(ctx context.Context, id string) ([]byte, error) {
	var value []byte

	err := a.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}

		value, err = item.ValueCopy(nil)
		return err
	})

	if err != nil {
		return nil, err
	}

	return value, nil
}

// List returns all archived snapshots, oldest first.
func (a *Archive) List(ctx context.Context) ([]Entry, error) {
	var entries []Entry

	err := a.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}

			doc, err := snapshot.ParseDocument(value)
			if err != nil {
				return fmt.Errorf("entry %q: %w", item.Key(), err)
			}
			entries = append(entries, *entryFromMeta(doc.Meta, int64(len(value))))
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("archive: list: %w", err)
	}

	return entries, nil
}

// Prune deletes the oldest snapshots until at most keep remain. It returns
// the number deleted.
func (a *Archive) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		return 0, fmt.Errorf("archive: prune: keep must not be negative")
	}

	deleted := 0

	err := a.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false

		var keys [][]byte
		it := txn.NewIterator(opts)
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		it.Close()

		if len(keys) <= keep {
			return nil
		}

		for _, key := range keys[:len(keys)-keep] {
			if err := txn.Delete(key); err != nil {
				return err
			}
			deleted++
		}

		return nil
	})

	if err != nil {
		return deleted, fmt.Errorf("archive: prune: %w", err)
	}

	if deleted > 0 {
		a.logger.Info("pruned archived snapshots",
			"deleted", deleted,
			"keep", keep)
	}

	return deleted, nil
}

// GC runs value-log garbage collection until Badger reports nothing left to
// rewrite. It returns the number of GC cycles that rewrote a log file.
func (a *Archive) GC(ctx context.Context) (int, error) {
	startTime := time.Now()

	runs := 0
	for {
		err := a.db.RunValueLogGC(a.cfg.GCThreshold)
		if err != nil {
			if errors.Is(err, badger.ErrNoRewrite) {
				break
			}
			return runs, fmt.Errorf("archive: gc: %w", err)
		}
		runs++
	}

	a.lastGCTime.Store(time.Now().UnixMilli())

	if runs > 0 {
		a.logger.Info("archive gc completed",
			"runs", runs,
			"elapsed", time.Since(startTime))
	}

	return runs, nil
}

// Stats returns storage statistics.
func (a *Archive) Stats(ctx context.Context) (*Stats, error) {
	count := 0
	err := a.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("archive: stats: %w", err)
	}

	lsm, vlog := a.db.Size()

	return &Stats{
		Snapshots:    count,
		LSMSize:      uint64(lsm),
		ValueLogSize: uint64(vlog),
		TotalSize:    uint64(lsm + vlog),
		LastGCTime:   a.lastGCTime.Load(),
	}, nil
}

// Close stops the GC loop and closes the database.
func (a *Archive) Close() error {
	close(a.stopCh)
	<-a.doneCh

	if err := a.db.Close(); err != nil {
		return fmt.Errorf("archive: close db: %w", err)
	}

	a.logger.Info("snapshot archive closed")
	return nil
}

// RegisterMetrics registers archive metrics with Prometheus and starts the
// gauge update loop. Call once, before the archive sees traffic. Returns the
// archive for chaining.
func (a *Archive) RegisterMetrics(registry *prometheus.Registry) *Archive {
	a.metricsSnapshots = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "worldsave",
		Subsystem: "archive",
		Name:      "snapshots",
		Help:      "Number of snapshots currently archived",
	})

	a.metricsLSMSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "worldsave",
		Subsystem: "archive",
		Name:      "lsm_size_bytes",
		Help:      "Badger LSM tree size in bytes",
	})

	a.metricsValueLogSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "worldsave",
		Subsystem: "archive",
		Name:      "value_log_size_bytes",
		Help:      "Badger value log size in bytes",
	})

	a.metricsTotalSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "worldsave",
		Subsystem: "archive",
		Name:      "total_size_bytes",
		Help:      "Badger total storage size in bytes (LSM + value log)",
	})

	a.metricsLastGCTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "worldsave",
		Subsystem: "archive",
		Name:      "last_gc_timestamp_seconds",
		Help:      "Unix timestamp of the last value-log GC run",
	})

	a.metricsArchived = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "worldsave",
		Subsystem: "archive",
		Name:      "archived_total",
		Help:      "Total snapshots written to the archive",
	})

	registry.MustRegister(
		a.metricsSnapshots,
		a.metricsLSMSize,
		a.metricsValueLogSize,
		a.metricsTotalSize,
		a.metricsLastGCTime,
		a.metricsArchived,
	)

	go a.metricsUpdateLoop()

	return a
}

// metricsUpdateLoop periodically refreshes the Prometheus gauges.
func (a *Archive) metricsUpdateLoop() {
	if a.metricsSnapshots == nil {
		return
	}

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			stats, err := a.Stats(ctx)
			cancel()
			if err != nil {
				continue
			}

			a.metricsSnapshots.Set(float64(stats.Snapshots))
			a.metricsLSMSize.Set(float64(stats.LSMSize))
			a.metricsValueLogSize.Set(float64(stats.ValueLogSize))
			a.metricsTotalSize.Set(float64(stats.TotalSize))
			if stats.LastGCTime > 0 {
				a.metricsLastGCTime.Set(float64(stats.LastGCTime) / 1000.0)
			}

		case <-a.stopCh:
			return
		}
	}
}

// gcLoop runs periodic value-log garbage collection.
func (a *Archive) gcLoop() {
	defer close(a.doneCh)

	ticker := time.NewTicker(a.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			if _, err := a.GC(ctx); err != nil {
				a.logger.Error("archive auto gc failed", "error", err)
			}
			cancel()

		case <-a.stopCh:
			return
		}
	}
}

func entryFromMeta(meta snapshot.Meta, size int64) *Entry {
	return &Entry{
		ID:        meta.ID,
		CreatedAt: time.UnixMilli(meta.CreatedAt),
		Mode:      meta.Mode,
		Entities:  meta.Entities,
		Encrypted: meta.Encrypted,
		Size:      size,
	}
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
