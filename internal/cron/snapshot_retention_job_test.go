package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/xkartlabs/xkart-backend/pkg/logger"
)

func TestSnapshotRetentionJobPrunes(t *testing.T) {
	pruner := &fakeSnapshotPruner{removed: 4}
	job, err := NewSnapshotRetentionJob(SnapshotRetentionJobParams{
		Logger: logger.New(logger.Options{ServiceName: "test"}),
		Pruner: pruner,
	})
	if err != nil {
		t.Fatalf("NewSnapshotRetentionJob: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if pruner.called != 1 {
		t.Fatalf("expected pruner called once, got %d", pruner.called)
	}
}

func TestSnapshotRetentionJobPropagatesError(t *testing.T) {
	pruner := &fakeSnapshotPruner{err: errors.New("boom")}
	job, err := NewSnapshotRetentionJob(SnapshotRetentionJobParams{
		Logger: logger.New(logger.Options{ServiceName: "test"}),
		Pruner: pruner,
	})
	if err != nil {
		t.Fatalf("NewSnapshotRetentionJob: %v", err)
	}

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

type fakeSnapshotPruner struct {
	removed int64
	called  int
	err     error
}

func (f *fakeSnapshotPruner) PruneExpired(ctx context.Context) (int64, error) {
	f.called++
	if f.err != nil {
		return 0, f.err
	}
	return f.removed, nil
}
