package service

import (
	"context"
	"time"

	"docflow/internal/model"
	"docflow/internal/repository"

	"github.com/shopspring/decimal"
)

const topUploaderLimit = 5

type StatisticsService interface {
	GetStatistics(ctx context.Context, startDate, endDate time.Time) (*model.DocumentStatistics, error)
}

type statisticsService struct {
	repo repository.StatisticsRepository
}

func NewStatisticsService(repo repository.StatisticsRepository) StatisticsService {
	return &statisticsService{repo: repo}
}

// GetStatistics aggregates documents whose submission date falls in [startDate, endDate]
func (s *statisticsService) GetStatistics(ctx context.Context, startDate, endDate time.Time) (*model.DocumentStatistics, error) {
	if endDate.Before(startDate) {
		return nil, validation("end_date must not be before start_date")
	}

	totals, err := s.repo.GetDocumentTotals(ctx, startDate, endDate)
	if err != nil {
		return nil, internal("failed to compute statistics", err)
	}
	totalBP, err := decimal.NewFromString(totals.TotalBP)
	if err != nil {
		return nil, internal("failed to compute statistics", err)
	}

	byStatus, err := s.repo.CountByStatus(ctx, startDate, endDate)
	if err != nil {
		return nil, internal("failed to compute statistics", err)
	}
	byCategory, err := s.repo.CountByCategory(ctx, startDate, endDate)
	if err != nil {
		return nil, internal("failed to compute statistics", err)
	}
	uploaders, err := s.repo.GetTopUploaders(ctx, startDate, endDate, topUploaderLimit)
	if err != nil {
		return nil, internal("failed to compute statistics", err)
	}

	res := &model.DocumentStatistics{
		TotalDocuments:     totals.Count,
		Placeholders:       totals.Placeholders,
		TotalFileSize:      totals.TotalFileSize,
		TotalBP:            totalBP,
		ByStatus:           nonNil(byStatus),
		ByCategory:         nonNil(byCategory),
		TopUploaders:       nonNil(uploaders),
		TimeRangeStartDate: startDate,
		TimeRangeEndDate:   endDate,
	}
	return res, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
