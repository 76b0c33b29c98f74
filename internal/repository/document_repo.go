package repository

import (
	"context"
	"strings"

	"docflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DocumentFilter narrows List. VisibleTo, when set, keeps only documents
// targeted at that user or at nobody.
type DocumentFilter struct {
	Category  string
	Status    string
	Search    string
	VisibleTo *uuid.UUID
	Offset    int
	Limit     int
}

type DocumentRepository interface {
	Create(ctx context.Context, doc *model.Document) error
	Update(ctx context.Context, doc *model.Document) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Document, error)
	FindByProjectName(ctx context.Context, projectName string) (*model.Document, error)
	PlaceholderInUse(ctx context.Context, placeholderID string) (bool, error)
	List(ctx context.Context, filter DocumentFilter) ([]model.Document, int64, error)
}

type documentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Create(ctx context.Context, doc *model.Document) error {
	return GetDB(ctx, r.db).Create(doc).Error
}

// Update writes every column of doc except the immutable ones. It returns
// gorm.ErrRecordNotFound when the row is gone.
func (r *documentRepository) Update(ctx context.Context, doc *model.Document) error {
	res := updateDocument(GetDB(ctx, r.db), doc)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func updateDocument(db *gorm.DB, doc *model.Document) *gorm.DB {
	return db.Model(doc).
		Select("*").
		Omit("ID", "SubmissionDate", "UploadedBy", "TargetUser").
		Updates(doc)
}

func (r *documentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Document{}).Error
}

func (r *documentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	var doc model.Document
	if err := GetDB(ctx, r.db).First(&doc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepository) FindByProjectName(ctx context.Context, projectName string) (*model.Document, error) {
	var doc model.Document
	if err := GetDB(ctx, r.db).Where("project_name = ?", projectName).First(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// PlaceholderInUse checks both the id column and the legacy path encoding.
func (r *documentRepository) PlaceholderInUse(ctx context.Context, placeholderID string) (bool, error) {
	var total int64
	err := GetDB(ctx, r.db).Model(&model.Document{}).
		Where("placeholder_id = ? OR file_path = ?", placeholderID, model.PlaceholderPath(placeholderID)).
		Count(&total).Error
	return total > 0, err
}

func (r *documentRepository) List(ctx context.Context, filter DocumentFilter) ([]model.Document, int64, error) {
	var docs []model.Document
	var total int64

	db := filterDocuments(GetDB(ctx, r.db).Model(&model.Document{}), filter)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := pageDocuments(db.Preload("UploadedBy").Preload("TargetUser"), filter).
		Find(&docs).Error
	if err != nil {
		return nil, 0, err
	}

	return docs, total, nil
}

func filterDocuments(db *gorm.DB, filter DocumentFilter) *gorm.DB {
	if filter.Category != "" {
		db = db.Where("category = ?", filter.Category)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		db = db.Where("project_name ILIKE ?", "%"+escapeLike(filter.Search)+"%")
	}
	if filter.VisibleTo != nil {
		db = db.Where("target_user_id = ? OR target_user_id IS NULL", *filter.VisibleTo)
	}
	return db
}

// pageDocuments orders newest submission first.
func pageDocuments(db *gorm.DB, filter DocumentFilter) *gorm.DB {
	return db.Order("submission_date desc").Offset(filter.Offset).Limit(filter.Limit)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes user input match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
