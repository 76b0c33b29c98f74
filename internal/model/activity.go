package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreatePlaceholder = "create_placeholder"
	ActionUploadFile        = "upload_file"
	ActionReplaceFile       = "replace_file"
	ActionEditStatus        = "edit_status"
	ActionDeletePlaceholder = "delete_placeholder" // used for every document delete
	ActionEditFile          = "edit_file"
)

// ActivityLog tracks who did what to which document. DocumentID is a weak
// reference: entries outlive the documents they describe.
type ActivityLog struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Action      string     `gorm:"type:varchar(30);not null;index" json:"action"`
	Description string     `gorm:"type:text;not null" json:"description"`
	DocumentID  *uuid.UUID `gorm:"type:uuid;index" json:"document_id"`
	Document    *Document  `gorm:"foreignKey:DocumentID" json:"document,omitempty"`
	UserID      *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	User        *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Username    string     `gorm:"type:varchar(255)" json:"username"`
	UserRole    string     `gorm:"type:varchar(20)" json:"user_role"`
	Timestamp   time.Time  `gorm:"not null;index" json:"timestamp"`
}
