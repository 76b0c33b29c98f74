package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentStatistics summarises documents submitted within a time range
type DocumentStatistics struct {
	TotalDocuments     int64             `json:"total_documents"`
	Placeholders       int64             `json:"placeholders"`
	TotalFileSize      int64             `json:"total_file_size"`
	TotalBP            decimal.Decimal   `json:"total_bp"` // kg
	ByStatus           []StatusCount     `json:"by_status"`
	ByCategory         []CategoryCount   `json:"by_category"`
	TopUploaders       []UploaderRanking `json:"top_uploaders"`
	TimeRangeStartDate time.Time         `json:"time_range_start_date"`
	TimeRangeEndDate   time.Time         `json:"time_range_end_date"`
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// UploaderRanking ranks users by the number of documents they submitted
type UploaderRanking struct {
	UserID        uuid.UUID `json:"user_id"`
	Username      string    `json:"username"`
	Fullname      string    `json:"fullname"`
	DocumentCount int64     `json:"document_count"`
}
