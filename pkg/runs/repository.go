package runs

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("etl run not found")

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&Run{})
}

func (r *Repository) Create(ctx context.Context, run *Run) error {
	run.CreatedAt = time.Now().UTC()
	run.UpdatedAt = run.CreatedAt
	if run.Status == "" {
		run.Status = StatusAccepted
	}
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *Repository) Finish(ctx context.Context, id string, out Outcome) error {
	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":       out.Status,
		"stage":        out.Stage,
		"output_key":   out.OutputKey,
		"record_count": out.RecordCount,
		"row_count":    out.RowCount,
		"error":        out.Error,
		"updated_at":   now,
		"finished_at":  now,
	}
	if len(out.Metadata) > 0 {
		updates["metadata"] = datatypes.JSONMap(out.Metadata)
	}

	result := r.db.WithContext(ctx).Model(&Run{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id string) (*Run, error) {
	var run Run
	result := r.db.WithContext(ctx).First(&run, "id = ?", id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &run, result.Error
}

func (r *Repository) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []Run
	result := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&out)
	return out, result.Error
}

func (r *Repository) CleanupExpired(ctx context.Context, ttl time.Duration) (int64, error) {
	if ttl <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().Add(-ttl)
	result := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&Run{})
	return result.RowsAffected, result.Error
}
