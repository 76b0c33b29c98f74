package repository

import (
	"testing"
	"time"

	"docflow/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// sqlOnlyDB renders statements without ever opening a connection.
func sqlOnlyDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=docflow dbname=docflow sslmode=disable",
	}), &gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)
	return db
}

func TestListQueryFiltersAndOrders(t *testing.T) {
	db := sqlOnlyDB(t)
	viewer := uuid.MustParse("6f1c2a4e-2b1d-4c3e-9a7b-0d5e8f9a1b2c")
	filter := DocumentFilter{
		Category:  model.CategoryManual,
		Status:    model.StatusPending,
		Search:    "50%_off",
		VisibleTo: &viewer,
		Offset:    20,
		Limit:     10,
	}

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return pageDocuments(filterDocuments(tx.Model(&model.Document{}), filter), filter).
			Find(&[]model.Document{})
	})

	assert.Contains(t, sql, `FROM "documents"`)
	assert.Contains(t, sql, "category = 'manual'")
	assert.Contains(t, sql, "status = 'pending'")
	assert.Contains(t, sql, `project_name ILIKE '%50\%\_off%'`)
	assert.Contains(t, sql, "target_user_id = '"+viewer.String()+"' OR target_user_id IS NULL")
	assert.Contains(t, sql, "ORDER BY submission_date desc")
	assert.Contains(t, sql, "LIMIT 10 OFFSET 20")
}

func TestListQueryWithoutFilters(t *testing.T) {
	db := sqlOnlyDB(t)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return filterDocuments(tx.Model(&model.Document{}), DocumentFilter{}).Find(&[]model.Document{})
	})

	assert.NotContains(t, sql, "WHERE")
	assert.NotContains(t, sql, "target_user_id")
}

func TestUpdateDocumentNeverInserts(t *testing.T) {
	db := sqlOnlyDB(t)
	doc := &model.Document{
		ID:             uuid.New(),
		ProjectName:    "Bridge",
		Category:       model.CategoryUpload,
		FileName:       "plan.pdf",
		FilePath:       "uploads/plan.pdf",
		FileType:       "application/pdf",
		Status:         model.StatusReview,
		SubmissionDate: time.Now(),
		LastModified:   time.Now(),
	}

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return updateDocument(tx, doc)
	})

	assert.Contains(t, sql, `UPDATE "documents" SET`)
	assert.Contains(t, sql, `"status"='review'`)
	assert.Contains(t, sql, `"id" = '`+doc.ID.String()+"'")
	assert.NotContains(t, sql, "INSERT")
	assert.NotContains(t, sql, "ON CONFLICT")
	assert.NotContains(t, sql, `"submission_date"=`)
}
