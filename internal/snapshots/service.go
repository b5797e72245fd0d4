// Package snapshots persists and restores the serialized engine state.
// The database is the engine's durability story: the latest snapshot row
// is restored at boot and new rows are written on a cadence plus once at
// shutdown.
package snapshots

import (
	"context"
	"errors"
	"time"

	"github.com/xkartlabs/xkart-backend/internal/engine"
	"github.com/xkartlabs/xkart-backend/pkg/config"
	"github.com/xkartlabs/xkart-backend/pkg/db/models"
	"github.com/xkartlabs/xkart-backend/pkg/logger"
)

type stateMachine interface {
	Snapshot() ([]byte, error)
	Restore(data []byte) error
	TxIndex() uint64
	TotalSupply() uint64
}

type snapshotRepo interface {
	Insert(ctx context.Context, snapshot *models.EngineSnapshot) error
	Latest(ctx context.Context) (*models.EngineSnapshot, error)
	Prune(ctx context.Context, cutoff time.Time, keepLast int) (int64, error)
}

// Recorder receives persistence telemetry.
type Recorder interface {
	SnapshotPersisted(txIndex uint64, at time.Time)
}

type ServiceParams struct {
	Config   config.SnapshotConfig
	Logger   *logger.Logger
	Engine   stateMachine
	Repo     snapshotRepo
	Recorder Recorder
}

type Service struct {
	cfg      config.SnapshotConfig
	logg     *logger.Logger
	engine   stateMachine
	repo     snapshotRepo
	recorder Recorder
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Engine == nil {
		return nil, errors.New("engine is required")
	}
	if params.Repo == nil {
		return nil, errors.New("snapshot repo is required")
	}
	return &Service{
		cfg:      params.Config,
		logg:     params.Logger,
		engine:   params.Engine,
		repo:     params.Repo,
		recorder: params.Recorder,
	}, nil
}

// RestoreLatest loads the most recent snapshot into the engine. A missing
// snapshot is not an error; the engine starts empty on first boot.
func (s *Service) RestoreLatest(ctx context.Context) error {
	row, err := s.repo.Latest(ctx)
	if err != nil {
		return err
	}
	if row == nil {
		s.logg.Info(ctx, "no engine snapshot found, starting from empty state")
		return nil
	}
	if err := s.engine.Restore(row.State); err != nil {
		return err
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"snapshot_id": row.ID.String(),
		"tx_index":    row.TxIndex,
		"supply":      row.Supply,
		"taken_at":    row.CreatedAt,
	})
	s.logg.Info(logCtx, "engine state restored from snapshot")
	return nil
}

// Capture serializes the current engine state into a new snapshot row.
func (s *Service) Capture(ctx context.Context) error {
	state, err := s.engine.Snapshot()
	if err != nil {
		return err
	}
	row := &models.EngineSnapshot{
		Version: engine.SnapshotVersion,
		State:   state,
		TxIndex: s.engine.TxIndex(),
		Supply:  s.engine.TotalSupply(),
	}
	if err := s.repo.Insert(ctx, row); err != nil {
		return err
	}
	if s.recorder != nil {
		s.recorder.SnapshotPersisted(row.TxIndex, time.Now())
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"snapshot_id": row.ID.String(),
		"tx_index":    row.TxIndex,
		"bytes":       len(state),
	})
	s.logg.Info(logCtx, "engine snapshot persisted")
	return nil
}

// PruneExpired applies the retention policy and reports rows removed.
func (s *Service) PruneExpired(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-s.cfg.Retention)
	removed, err := s.repo.Prune(ctx, cutoff, s.cfg.KeepLast)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"removed":   removed,
			"keep_last": s.cfg.KeepLast,
		})
		s.logg.Info(logCtx, "pruned expired engine snapshots")
	}
	return removed, nil
}
