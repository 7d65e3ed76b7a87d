package save

import (
	"errors"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/arkvale/worldsave-go/pkg/snapshot"
)

// Default autosave configuration values.
const (
	DefaultAutosaveInterval = 5 * time.Minute
	DefaultMinSaveGap       = 10 * time.Second
)

// AutosaveConfig configures an Autosaver.
type AutosaveConfig struct {
	// Path is the snapshot file the autosaver writes.
	Path string

	// Interval between periodic saves. Defaults to DefaultAutosaveInterval.
	Interval time.Duration

	// MinGap is the floor between two consecutive saves no matter how often
	// TriggerSave is called. Defaults to DefaultMinSaveGap.
	MinGap time.Duration

	// Logger is the structured logger. Defaults to the pipeline's logger.
	Logger *slog.Logger

	// OnSave is invoked after each successful save, from the autosaver
	// goroutine. Typically used to archive the written snapshot.
	OnSave func(*snapshot.Info)
}

// Autosaver saves a world in the background, on an interval and on demand.
//
// Saves run from the autosaver's goroutine. Save itself never mutates the
// world and the world's sharded storage keeps each access safe, but an
// entity mutated while a save is in flight lands in the snapshot in either
// its old or its new state. Hosts that need a point-in-time snapshot should
// call Save from their own control loop instead.
type Autosaver struct {
	pipeline *Pipeline
	cfg      AutosaveConfig
	limiter  *rate.Limiter
	trigger  chan struct{}
	stopCh   chan struct{}
	doneCh   chan struct{}
	logger   *slog.Logger
}

// NewAutosaver creates an autosaver around a pipeline. Call Start to begin
// saving.
func NewAutosaver(p *Pipeline, cfg AutosaveConfig) (*Autosaver, error) {
	if p == nil {
		return nil, errors.New("save: pipeline is required")
	}
	if cfg.Path == "" {
		return nil, errors.New("save: autosave path is required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultAutosaveInterval
	}
	if cfg.MinGap <= 0 {
		cfg.MinGap = DefaultMinSaveGap
	}
	if cfg.Logger == nil {
		cfg.Logger = p.logger
	}

	return &Autosaver{
		pipeline: p,
		cfg:      cfg,
		limiter:  rate.NewLimiter(rate.Every(cfg.MinGap), 1),
		trigger:  make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		logger:   cfg.Logger,
	}, nil
}

// Start launches the background loop.
func (a *Autosaver) Start() {
	go a.loop()
}

// TriggerSave requests a save outside the periodic schedule. Non-blocking:
// it coalesces with a pending trigger, and the MinGap rate limit still
// applies.
func (a *Autosaver) TriggerSave() {
	select {
	case a.trigger <- struct{}{}:
	default:
	}
}

// Close stops the background loop and waits for it to finish.
func (a *Autosaver) Close() error {
	close(a.stopCh)
	<-a.doneCh
	return nil
}

func (a *Autosaver) loop() {
	defer close(a.doneCh)

	ticker := time.NewTicker(a.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.saveOnce("interval")

		case <-a.trigger:
			a.saveOnce("trigger")

		case <-a.stopCh:
			return
		}
	}
}

func (a *Autosaver) saveOnce(reason string) {
	if !a.limiter.Allow() {
		a.logger.Debug("autosave skipped by rate limit", "reason", reason)
		return
	}

	info, err := a.pipeline.Save(a.cfg.Path)
	if err != nil {
		a.logger.Error("autosave failed",
			"reason", reason,
			"path", a.cfg.Path,
			"error", err)
		return
	}

	a.logger.Debug("autosave completed",
		"reason", reason,
		"id", info.ID,
		"entities", info.Entities)

	if a.cfg.OnSave != nil {
		a.cfg.OnSave(info)
	}
}
