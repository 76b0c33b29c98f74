package service

import (
	"context"
	"errors"
	"strings"

	"docflow/internal/model"
	"docflow/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InputValueRequest struct {
	Value    string `json:"value"`
	Category string `json:"category"`
	TestType string `json:"test_type"`
}

// InputService manages the catalog of selectable material values.
type InputService interface {
	List(ctx context.Context, testType, category string) ([]model.InputValue, error)
	Get(ctx context.Context, id string) (*model.InputValue, error)
	Create(ctx context.Context, req InputValueRequest) (*model.InputValue, error)
	Update(ctx context.Context, id string, req InputValueRequest) (*model.InputValue, error)
	Delete(ctx context.Context, id string) error
}

type inputService struct {
	repo repository.InputValueRepository
}

func NewInputService(repo repository.InputValueRepository) InputService {
	return &inputService{repo: repo}
}

func (s *inputService) List(ctx context.Context, testType, category string) ([]model.InputValue, error) {
	values, err := s.repo.List(ctx, testType, category)
	if err != nil {
		return nil, internal("failed to fetch input values", err)
	}
	if values == nil {
		values = []model.InputValue{}
	}
	return values, nil
}

func (s *inputService) Get(ctx context.Context, id string) (*model.InputValue, error) {
	valueID, err := uuid.Parse(id)
	if err != nil {
		return nil, notFound("input value not found")
	}
	value, err := s.repo.FindByID(ctx, valueID)
	if err != nil {
		return nil, fromRepo(err, "input value")
	}
	return value, nil
}

func (s *inputService) Create(ctx context.Context, req InputValueRequest) (*model.InputValue, error) {
	req, err := validateInputValue(req)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, req, nil); err != nil {
		return nil, err
	}

	value := &model.InputValue{Value: req.Value, Category: req.Category, TestType: req.TestType}
	if err := s.repo.Create(ctx, value); err != nil {
		return nil, fromRepo(err, "input value")
	}
	return value, nil
}

func (s *inputService) Update(ctx context.Context, id string, req InputValueRequest) (*model.InputValue, error) {
	req, err := validateInputValue(req)
	if err != nil {
		return nil, err
	}
	value, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, req, &value.ID); err != nil {
		return nil, err
	}

	value.Value = req.Value
	value.Category = req.Category
	value.TestType = req.TestType
	if err := s.repo.Update(ctx, value); err != nil {
		return nil, fromRepo(err, "input value")
	}
	return value, nil
}

func (s *inputService) Delete(ctx context.Context, id string) error {
	valueID, err := uuid.Parse(id)
	if err != nil {
		return notFound("input value not found")
	}
	deleted, err := s.repo.Delete(ctx, valueID)
	if err != nil {
		return fromRepo(err, "input value")
	}
	if !deleted {
		return notFound("input value not found")
	}
	return nil
}

func (s *inputService) ensureUnique(ctx context.Context, req InputValueRequest, excludeID *uuid.UUID) error {
	_, err := s.repo.FindDuplicate(ctx, req.Value, req.Category, req.TestType, excludeID)
	switch {
	case err == nil:
		return conflict("this value already exists for the selected category and test type")
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	default:
		return fromRepo(err, "input value")
	}
}

// validateInputValue trims the value and checks category, test type and the
// grade prefix rule: steel grades start with T, concrete grades with K.
func validateInputValue(req InputValueRequest) (InputValueRequest, error) {
	req.Value = strings.TrimSpace(req.Value)
	if req.Value == "" {
		return req, validation("value is required")
	}
	if req.Category != model.InputCategoryMaterialGrade && req.Category != model.InputCategoryMaterialType {
		return req, validation("valid category is required (%s or %s)", model.InputCategoryMaterialGrade, model.InputCategoryMaterialType)
	}
	if req.TestType != model.TestTypeSteel && req.TestType != model.TestTypeConcrete {
		return req, validation("valid test type is required (%s or %s)", model.TestTypeSteel, model.TestTypeConcrete)
	}
	if req.Category == model.InputCategoryMaterialGrade {
		prefix := "K"
		if req.TestType == model.TestTypeSteel {
			prefix = "T"
		}
		if !strings.HasPrefix(req.Value, prefix) {
			return req, validation("material grade for %s should start with %q", req.TestType, prefix)
		}
	}
	return req, nil
}
