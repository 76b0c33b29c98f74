package repository

import (
	"context"

	"docflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InputValueRepository interface {
	List(ctx context.Context, testType, category string) ([]model.InputValue, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.InputValue, error)
	// FindDuplicate matches value case-insensitively, skipping excludeID when set.
	FindDuplicate(ctx context.Context, value, category, testType string, excludeID *uuid.UUID) (*model.InputValue, error)
	Create(ctx context.Context, value *model.InputValue) error
	Update(ctx context.Context, value *model.InputValue) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type inputValueRepository struct {
	db *gorm.DB
}

func NewInputValueRepository(db *gorm.DB) InputValueRepository {
	return &inputValueRepository{db: db}
}

func (r *inputValueRepository) List(ctx context.Context, testType, category string) ([]model.InputValue, error) {
	var values []model.InputValue
	db := GetDB(ctx, r.db)
	if testType != "" {
		db = db.Where("test_type = ?", testType)
	}
	if category != "" {
		db = db.Where("category = ?", category)
	}
	if err := db.Order("value asc").Find(&values).Error; err != nil {
		return nil, err
	}
	return values, nil
}

func (r *inputValueRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.InputValue, error) {
	var value model.InputValue
	if err := GetDB(ctx, r.db).First(&value, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &value, nil
}

func (r *inputValueRepository) FindDuplicate(ctx context.Context, value, category, testType string, excludeID *uuid.UUID) (*model.InputValue, error) {
	var found model.InputValue
	db := GetDB(ctx, r.db).
		Where("LOWER(value) = LOWER(?) AND category = ? AND test_type = ?", value, category, testType)
	if excludeID != nil {
		db = db.Where("id <> ?", *excludeID)
	}
	if err := db.First(&found).Error; err != nil {
		return nil, err
	}
	return &found, nil
}

func (r *inputValueRepository) Create(ctx context.Context, value *model.InputValue) error {
	return GetDB(ctx, r.db).Create(value).Error
}

func (r *inputValueRepository) Update(ctx context.Context, value *model.InputValue) error {
	return GetDB(ctx, r.db).Save(value).Error
}

func (r *inputValueRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.InputValue{})
	return res.RowsAffected > 0, res.Error
}
