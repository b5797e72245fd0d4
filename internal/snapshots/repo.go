package snapshots

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/xkartlabs/xkart-backend/internal/repo"
	"github.com/xkartlabs/xkart-backend/pkg/db/models"
)

// Repo persists engine snapshots.
type Repo struct {
	repo.Base
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{Base: repo.NewBase(db)}
}

func (r *Repo) Insert(ctx context.Context, snapshot *models.EngineSnapshot) error {
	return r.DB(ctx).Create(snapshot).Error
}

// Latest returns the most recent snapshot, or nil when none exists yet.
func (r *Repo) Latest(ctx context.Context) (*models.EngineSnapshot, error) {
	var row models.EngineSnapshot
	err := r.DB(ctx).
		Order("created_at DESC").
		Order("id DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// Prune removes snapshots older than cutoff while always keeping the
// keepLast most recent rows regardless of age.
func (r *Repo) Prune(ctx context.Context, cutoff time.Time, keepLast int) (int64, error) {
	if keepLast < 1 {
		keepLast = 1
	}

	var keepIDs []string
	err := r.DB(ctx).
		Model(&models.EngineSnapshot{}).
		Order("created_at DESC").
		Order("id DESC").
		Limit(keepLast).
		Pluck("id", &keepIDs).Error
	if err != nil {
		return 0, err
	}

	query := r.DB(ctx).Where("created_at < ?", cutoff)
	if len(keepIDs) > 0 {
		query = query.Where("id NOT IN ?", keepIDs)
	}
	res := query.Delete(&models.EngineSnapshot{})
	return res.RowsAffected, res.Error
}

func (r *Repo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.EngineSnapshot{}).Count(&count).Error
	return count, err
}
