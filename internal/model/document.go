package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Document lifecycle statuses
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusReview     = "review"
	StatusCompleted  = "completed"
	StatusApproved   = "approved"
	StatusRejected   = "rejected"
)

var Statuses = []string{StatusPending, StatusInProgress, StatusReview, StatusCompleted, StatusApproved, StatusRejected}

func IsValidStatus(status string) bool {
	for _, s := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}

const (
	CategoryManual = "manual"
	CategoryUpload = "upload"

	PlaceholderPathPrefix = "/placeholder/"
	PlaceholderFileName   = "placeholder.txt"
	PlaceholderFileType   = "text/plain"
)

// InputSet is one row of material test input attached to a document
type InputSet struct {
	TestType      string `json:"test_type"`
	BP            string `json:"bp"`
	MaterialCode  string `json:"material_code"`
	MaterialGrade string `json:"material_grade"`
	MaterialType  string `json:"material_type"`
	Color         string `json:"color"`
}

// Document is the tracked unit of work. It is either waiting for its first
// file (see Binding) or bound to a stored file.
type Document struct {
	ID            uuid.UUID                     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectName   string                        `gorm:"type:varchar(255);uniqueIndex;not null" json:"project_name"`
	Description   string                        `gorm:"type:text" json:"description"`
	Category      string                        `gorm:"type:varchar(100);not null;index" json:"category"`
	BP            decimal.NullDecimal           `gorm:"type:numeric" json:"bp"` // kg
	MaterialCode  string                        `gorm:"type:varchar(100)" json:"material_code"`
	MaterialGrade string                        `gorm:"type:varchar(100)" json:"material_grade"`
	MaterialType  string                        `gorm:"type:varchar(100)" json:"material_type"`
	InputSets     datatypes.JSONSlice[InputSet] `gorm:"type:jsonb" json:"input_sets"`

	FileName      string  `gorm:"type:varchar(255);not null" json:"file_name"`
	FilePath      string  `gorm:"type:text;not null" json:"file_path"`
	FileType      string  `gorm:"type:varchar(255);not null" json:"file_type"`
	FileSize      int64   `gorm:"not null" json:"file_size"`
	PlaceholderID *string `gorm:"type:varchar(10);uniqueIndex" json:"placeholder_id,omitempty"`

	Status       string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	UploadedByID uuid.UUID  `gorm:"type:uuid;not null;index" json:"uploaded_by_id"`
	UploadedBy   *User      `gorm:"foreignKey:UploadedByID" json:"uploaded_by,omitempty"`
	TargetUserID *uuid.UUID `gorm:"type:uuid;index" json:"target_user_id"` // nil: visible to every user
	TargetUser   *User      `gorm:"foreignKey:TargetUserID" json:"target_user,omitempty"`

	SubmissionDate time.Time `gorm:"not null;index" json:"submission_date"`
	LastModified   time.Time `gorm:"not null" json:"last_modified"`
}

// FileBinding is either Unbound or Bound.
type FileBinding interface {
	isFileBinding()
}

// Unbound marks a document that only holds a placeholder id.
type Unbound struct {
	PlaceholderID string
}

// Bound describes the stored file a document points at.
type Bound struct {
	Path string
	Name string
	Type string
	Size int64
}

func (Unbound) isFileBinding() {}
func (Bound) isFileBinding()   {}

func PlaceholderPath(placeholderID string) string {
	return PlaceholderPathPrefix + placeholderID
}

// Binding reports the file state of the document.
func (d *Document) Binding() FileBinding {
	if d.PlaceholderID != nil {
		return Unbound{PlaceholderID: *d.PlaceholderID}
	}
	return Bound{Path: d.FilePath, Name: d.FileName, Type: d.FileType, Size: d.FileSize}
}

func (d *Document) IsPlaceholder() bool {
	_, ok := d.Binding().(Unbound)
	return ok
}

// SetPlaceholder puts the document into the unbound state.
func (d *Document) SetPlaceholder(placeholderID string) {
	id := placeholderID
	d.PlaceholderID = &id
	d.FileName = PlaceholderFileName
	d.FilePath = PlaceholderPath(placeholderID)
	d.FileType = PlaceholderFileType
	d.FileSize = 0
}

// SetFile binds the document to a stored file, dropping any placeholder id.
func (d *Document) SetFile(f Bound) {
	d.PlaceholderID = nil
	d.FileName = f.Name
	d.FilePath = f.Path
	d.FileType = f.Type
	d.FileSize = f.Size
}
