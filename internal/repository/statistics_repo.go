package repository

import (
	"context"
	"fmt"
	"time"

	"docflow/internal/model"

	"gorm.io/gorm"
)

// DocumentTotals are the raw aggregates of a time range. TotalBP is the
// decimal sum rendered as text.
type DocumentTotals struct {
	Count         int64
	Placeholders  int64
	TotalFileSize int64
	TotalBP       string
}

type StatisticsRepository interface {
	GetDocumentTotals(ctx context.Context, start, end time.Time) (DocumentTotals, error)
	CountByStatus(ctx context.Context, start, end time.Time) ([]model.StatusCount, error)
	CountByCategory(ctx context.Context, start, end time.Time) ([]model.CategoryCount, error)
	GetTopUploaders(ctx context.Context, start, end time.Time, limit int) ([]model.UploaderRanking, error)
}

type statisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

func (r *statisticsRepository) inRange(ctx context.Context, start, end time.Time) *gorm.DB {
	return GetDB(ctx, r.db).Model(&model.Document{}).
		Where("documents.submission_date >= ? AND documents.submission_date <= ?", start, end)
}

func (r *statisticsRepository) GetDocumentTotals(ctx context.Context, start, end time.Time) (DocumentTotals, error) {
	var totals DocumentTotals
	err := r.inRange(ctx, start, end).
		Select("COUNT(*) as count, " +
			"COUNT(documents.placeholder_id) as placeholders, " +
			"COALESCE(SUM(documents.file_size), 0) as total_file_size, " +
			"COALESCE(CAST(SUM(documents.bp) AS TEXT), '0') as total_bp").
		Scan(&totals).Error
	if err != nil {
		return DocumentTotals{}, fmt.Errorf("failed to query document totals: %w", err)
	}
	return totals, nil
}

func (r *statisticsRepository) CountByStatus(ctx context.Context, start, end time.Time) ([]model.StatusCount, error) {
	var counts []model.StatusCount
	if err := r.inRange(ctx, start, end).
		Select("documents.status as status, COUNT(*) as count").
		Group("documents.status").
		Order("count DESC, status").
		Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("failed to count documents by status: %w", err)
	}
	return counts, nil
}

func (r *statisticsRepository) CountByCategory(ctx context.Context, start, end time.Time) ([]model.CategoryCount, error) {
	var counts []model.CategoryCount
	if err := r.inRange(ctx, start, end).
		Select("documents.category as category, COUNT(*) as count").
		Group("documents.category").
		Order("count DESC, category").
		Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("failed to count documents by category: %w", err)
	}
	return counts, nil
}

func (r *statisticsRepository) GetTopUploaders(ctx context.Context, start, end time.Time, limit int) ([]model.UploaderRanking, error) {
	var rankings []model.UploaderRanking
	if err := r.inRange(ctx, start, end).
		Select("users.id as user_id, users.username as username, users.fullname as fullname, COUNT(documents.id) as document_count").
		Joins("JOIN users ON users.id = documents.uploaded_by_id").
		Group("users.id, users.username, users.fullname").
		Order("document_count DESC, username").
		Limit(limit).
		Scan(&rankings).Error; err != nil {
		return nil, fmt.Errorf("failed to query top uploaders: %w", err)
	}
	return rankings, nil
}
