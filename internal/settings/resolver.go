package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ConfigSurface exposes the configured randomtest settings.
type ConfigSurface interface {
	// RandomtestSettings returns the seven user-settable fields.
	RandomtestSettings() Settings

	// DocumentMode returns the configured "put results in document" mode.
	DocumentMode() DocumentMode
}

// Collector gathers settings interactively, seeded with defaults.
type Collector interface {
	Collect(ctx context.Context, defaults Settings) (Settings, error)
}

// SnapshotError reports that resolved settings could not be persisted.
// The settings returned alongside it are still valid.
type SnapshotError struct {
	Err error
}

func (e *SnapshotError) Error() string {
	return fmt.Sprintf("settings resolved but not saved: %v", e.Err)
}

func (e *SnapshotError) Unwrap() error {
	return e.Err
}

// Resolver produces validated settings from one of three sources.
type Resolver struct {
	config    ConfigSurface
	store     Store
	collector Collector
	logger    *slog.Logger
}

// ResolverConfig holds the collaborators of a Resolver.
type ResolverConfig struct {
	Config    ConfigSurface
	Store     Store     // nil = MemoryStore
	Collector Collector // required for SourceInteractive only
	Logger    *slog.Logger
}

// NewResolver creates a Resolver.
func NewResolver(cfg ResolverConfig) *Resolver {
	store := cfg.Store
	if store == nil {
		store = &MemoryStore{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		config:    cfg.Config,
		store:     store,
		collector: cfg.Collector,
		logger:    logger,
	}
}

// Resolve returns settings from source, recomputes PutResultsInDocument and
// saves the result as the new last-run snapshot.
//
// If the interactive wizard is abandoned the error wraps the collector's
// cancellation error and nothing is saved. If only the save fails, the
// settings are returned together with a *SnapshotError.
func (r *Resolver) Resolve(ctx context.Context, source Source) (Settings, error) {
	var s Settings

	switch source {
	case SourceConfigured:
		s = r.config.RandomtestSettings()

	case SourceLastRun:
		s = r.lastRun()

	case SourceInteractive:
		if r.collector == nil {
			return Settings{}, errors.New("interactive settings: no collector configured")
		}
		collected, err := r.collector.Collect(ctx, r.config.RandomtestSettings())
		if err != nil {
			r.logger.Info("settings_wizard_aborted", "error", err)
			return Settings{}, fmt.Errorf("interactive settings: %w", err)
		}
		s = collected
		s.PutResultsInUniqueDocument = r.config.RandomtestSettings().PutResultsInUniqueDocument

	default:
		return Settings{}, fmt.Errorf("unknown settings source %d", source)
	}

	s.PutResultsInDocument = r.config.DocumentMode().PutResultsInDocument(s.ShowFullText)

	r.logger.Debug("settings_resolved",
		"source", source.String(),
		"iterations", s.Iterations,
		"seed", s.Seed,
		"document", s.PutResultsInDocument,
	)

	if err := r.store.Save(s); err != nil {
		r.logger.Warn("snapshot_save_failed", "error", err)
		return s, &SnapshotError{Err: err}
	}
	r.logger.Debug("snapshot_saved", "source", source.String())
	return s, nil
}

// lastRun loads the snapshot, falling back to configuration. The unique
// document preference is always taken from the live configuration.
func (r *Resolver) lastRun() Settings {
	configured := r.config.RandomtestSettings()

	s, ok, err := r.store.Load()
	if err != nil {
		r.logger.Warn("snapshot_load_failed", "error", err, "fallback", "configured")
		return configured
	}
	if !ok {
		r.logger.Debug("snapshot_missing", "fallback", "configured")
		return configured
	}

	s.PutResultsInUniqueDocument = configured.PutResultsInUniqueDocument
	return s
}
