package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	InputCategoryMaterialGrade = "materialGrade"
	InputCategoryMaterialType  = "materialType"

	TestTypeSteel    = "Besi"
	TestTypeConcrete = "Beton"
)

// InputValue is a selectable catalog value offered when filling input sets.
// Values are unique per (value, category, test type), ignoring case.
type InputValue struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Value     string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_input_values_unique" json:"value"`
	Category  string    `gorm:"type:varchar(30);not null;uniqueIndex:idx_input_values_unique" json:"category"`
	TestType  string    `gorm:"type:varchar(30);not null;uniqueIndex:idx_input_values_unique" json:"test_type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
