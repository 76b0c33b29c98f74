package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"docflow/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []string
	data   []interface{}
}

func (b *recordingBroadcaster) Publish(event string, data interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	b.data = append(b.data, data)
}

func TestRecordBroadcastsStoredEntries(t *testing.T) {
	repo := &fakeActivityRepo{}
	broadcaster := &recordingBroadcaster{}
	svc := NewActivityService(repo, broadcaster, zap.NewNop())

	actor := Actor{ID: uuid.New(), Username: "admin", Role: model.RoleAdmin}
	docID := uuid.New()
	svc.Record(context.Background(), newActivity(actor, model.ActionUploadFile, docID, "admin uploaded"))

	require.Len(t, repo.all(), 1)
	assert.False(t, repo.all()[0].Timestamp.IsZero())
	require.Equal(t, []string{EventActivity}, broadcaster.events)
	entry := broadcaster.data[0].(ActivityLogResponse)
	assert.Equal(t, docID.String(), entry.DocumentID)
	assert.Equal(t, "admin", entry.Username)
}

func TestRecordSwallowsFailures(t *testing.T) {
	repo := &fakeActivityRepo{appendErr: errBoom}
	broadcaster := &recordingBroadcaster{}
	svc := NewActivityService(repo, broadcaster, zap.NewNop())

	svc.Record(context.Background(), newActivity(Actor{Username: "x"}, model.ActionEditStatus, uuid.New(), "x"))

	assert.Empty(t, repo.all())
	assert.Empty(t, broadcaster.events)
}

func TestListAllResolvesDisplayFields(t *testing.T) {
	repo := &fakeActivityRepo{}
	svc := NewActivityService(repo, nil, zap.NewNop())
	ctx := context.Background()

	user := &model.User{ID: uuid.New(), Username: "staff1", Fullname: "Staff One", Role: model.RoleStaff}
	placeholderID := "4321"
	doc := &model.Document{ID: uuid.New(), ProjectName: "Bridge"}
	doc.SetPlaceholder(placeholderID)

	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.entries = []model.ActivityLog{
		{ID: uuid.New(), Action: model.ActionCreatePlaceholder, DocumentID: &doc.ID, Document: doc, UserID: &user.ID, User: user, Username: "staff1", UserRole: model.RoleStaff, Timestamp: older},
		// document deleted, user deleted
		{ID: uuid.New(), Action: model.ActionDeletePlaceholder, DocumentID: &doc.ID, Username: "gone", UserRole: model.RoleAdmin, Timestamp: older.Add(time.Hour)},
	}

	logs, err := svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 2)

	assert.Equal(t, model.ActionDeletePlaceholder, logs[0].Action)
	assert.Equal(t, "gone", logs[0].Username)
	assert.Empty(t, logs[0].ProjectName)

	assert.Equal(t, "Bridge", logs[1].ProjectName)
	assert.Equal(t, placeholderID, logs[1].PlaceholderID)
	assert.Equal(t, "Staff One", logs[1].Fullname)
}
