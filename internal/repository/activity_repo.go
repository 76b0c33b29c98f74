package repository

import (
	"context"

	"docflow/internal/model"

	"gorm.io/gorm"
)

type ActivityRepository interface {
	Append(ctx context.Context, entry *model.ActivityLog) error
	ListAll(ctx context.Context) ([]model.ActivityLog, error)
	Purge(ctx context.Context) (int64, error)
}

type activityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Append(ctx context.Context, entry *model.ActivityLog) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

// ListAll returns every entry newest first. Document is nil for entries
// whose document has since been deleted.
func (r *activityRepository) ListAll(ctx context.Context) ([]model.ActivityLog, error) {
	var logs []model.ActivityLog
	err := GetDB(ctx, r.db).
		Preload("User").
		Preload("Document", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "project_name", "file_path", "placeholder_id")
		}).
		Order("timestamp desc").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *activityRepository) Purge(ctx context.Context) (int64, error) {
	res := GetDB(ctx, r.db).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.ActivityLog{})
	return res.RowsAffected, res.Error
}
