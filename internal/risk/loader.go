package risk

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/pondwatch/pondwatch/internal/geogrid"
)

// LoadState tracks the data preparation lifecycle.
type LoadState string

const (
	LoadPending LoadState = "pending"
	LoadRunning LoadState = "running"
	LoadReady   LoadState = "ready"
	LoadFailed  LoadState = "failed"
)

// LoadStatus is a point-in-time snapshot of data preparation.
type LoadStatus struct {
	State    LoadState
	Progress int
	Message  string
	Error    string
}

// LoaderConfig holds dependencies for the loader.
type LoaderConfig struct {
	// DataDir is the directory holding the rasters and georeference.
	DataDir string

	// Params is the initial model configuration. The zero value means
	// DefaultParameters.
	Params Parameters

	// Logger for load progress.
	Logger zerolog.Logger

	// Metrics is passed through to the engine; nil disables it.
	Metrics *Metrics
}

// Loader prepares the terrain grid and risk engine in the background so
// the HTTP surface can come up and report readiness while rasters load
// and factors are derived.
type Loader struct {
	dataDir string
	params  Parameters
	logger  zerolog.Logger
	metrics *Metrics

	mu     sync.RWMutex
	status LoadStatus
	grid   *geogrid.Grid
	engine *Engine
}

// NewLoader returns a loader in the pending state.
func NewLoader(cfg LoaderConfig) *Loader {
	return &Loader{
		dataDir: cfg.DataDir,
		params:  cfg.Params,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
		status: LoadStatus{
			State:   LoadPending,
			Message: "waiting for data preparation",
		},
	}
}

// Run loads the rasters and builds the engine, publishing progress as
// it goes. It is meant to run once, usually in a goroutine; the
// returned error is also recorded in the published status.
func (l *Loader) Run(ctx context.Context) error {
	l.setProgress(10, "loading terrain rasters")

	grid, err := geogrid.Load(geogrid.Config{DataDir: l.dataDir, Logger: l.logger})
	if err != nil {
		return l.fail(err)
	}
	if err := ctx.Err(); err != nil {
		return l.fail(err)
	}

	// Publish the grid as soon as it loads so terrain queries work
	// while factor preprocessing is still running.
	l.mu.Lock()
	l.grid = grid
	l.mu.Unlock()

	l.setProgress(60, "computing static risk factors")

	engine, err := NewEngine(Config{
		Grid:    grid,
		Params:  l.params,
		Logger:  l.logger,
		Metrics: l.metrics,
	})
	if err != nil {
		return l.fail(err)
	}

	l.mu.Lock()
	l.engine = engine
	l.status = LoadStatus{State: LoadReady, Progress: 100, Message: "ready"}
	l.mu.Unlock()

	l.logger.Info().Str("data_dir", l.dataDir).Msg("risk engine ready")
	return nil
}

// Status returns the current preparation status.
func (l *Loader) Status() LoadStatus {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.status
}

// Engine returns the ready engine, or ErrNotReady while preparation is
// still running or has failed.
func (l *Loader) Engine() (*Engine, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.engine == nil {
		return nil, ErrNotReady
	}
	return l.engine, nil
}

// Grid returns the loaded terrain grid, or ErrNotReady before load
// completes.
func (l *Loader) Grid() (*geogrid.Grid, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.grid == nil {
		return nil, ErrNotReady
	}
	return l.grid, nil
}

func (l *Loader) setProgress(progress int, message string) {
	l.mu.Lock()
	l.status = LoadStatus{State: LoadRunning, Progress: progress, Message: message}
	l.mu.Unlock()

	l.logger.Info().Int("progress", progress).Msg(message)
}

func (l *Loader) fail(err error) error {
	l.mu.Lock()
	l.status = LoadStatus{
		State:   LoadFailed,
		Message: "data preparation failed",
		Error:   err.Error(),
	}
	l.mu.Unlock()

	l.logger.Error().Err(err).Msg("data preparation failed")
	return err
}
