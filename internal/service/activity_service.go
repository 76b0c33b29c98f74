package service

import (
	"context"
	"time"

	"docflow/internal/model"
	"docflow/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const EventActivity = "activity"

// Broadcaster pushes events to connected realtime clients.
type Broadcaster interface {
	Publish(event string, data interface{})
}

type ActivityLogResponse struct {
	ID            string `json:"id"`
	Action        string `json:"action"`
	Description   string `json:"description"`
	DocumentID    string `json:"document_id"`
	ProjectName   string `json:"project_name"`
	FilePath      string `json:"file_path"`
	PlaceholderID string `json:"placeholder_id,omitempty"`
	UserID        string `json:"user_id"`
	Username      string `json:"username"`
	Fullname      string `json:"fullname"`
	UserRole      string `json:"user_role"`
	Timestamp     string `json:"timestamp"`
}

// ActivityRecorder appends activity entries. Record never fails from the
// caller's point of view.
type ActivityRecorder interface {
	Record(ctx context.Context, entry *model.ActivityLog)
}

type ActivityService interface {
	ActivityRecorder
	ListAll(ctx context.Context) ([]ActivityLogResponse, error)
}

type activityService struct {
	repo        repository.ActivityRepository
	broadcaster Broadcaster
	logger      *zap.Logger
	now         func() time.Time
}

// NewActivityService creates a new ActivityService. broadcaster may be nil.
func NewActivityService(repo repository.ActivityRepository, broadcaster Broadcaster, logger *zap.Logger) ActivityService {
	return &activityService{
		repo:        repo,
		broadcaster: broadcaster,
		logger:      logger.Named("activity"),
		now:         time.Now,
	}
}

// newActivity fills the actor fields of an entry.
func newActivity(actor Actor, action string, documentID uuid.UUID, description string) *model.ActivityLog {
	userID := actor.ID
	docID := documentID
	return &model.ActivityLog{
		Action:      action,
		Description: description,
		DocumentID:  &docID,
		UserID:      &userID,
		Username:    actor.Username,
		UserRole:    actor.Role,
	}
}

func (s *activityService) Record(ctx context.Context, entry *model.ActivityLog) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now()
	}
	// the entry belongs to the request, not to its cancellation
	if err := s.repo.Append(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.Error("failed to record activity",
			zap.String("action", entry.Action),
			zap.String("description", entry.Description),
			zap.Error(err),
		)
		return
	}
	s.logger.Debug("activity recorded", zap.String("action", entry.Action), zap.String("id", entry.ID.String()))

	if s.broadcaster != nil {
		s.broadcaster.Publish(EventActivity, mapActivity(entry))
	}
}

// ListAll returns every entry newest first with user and document fields resolved.
func (s *activityService) ListAll(ctx context.Context) ([]ActivityLogResponse, error) {
	logs, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, internal("failed to retrieve activity logs", err)
	}

	res := make([]ActivityLogResponse, 0, len(logs))
	for i := range logs {
		res = append(res, mapActivity(&logs[i]))
	}
	return res, nil
}

func mapActivity(l *model.ActivityLog) ActivityLogResponse {
	r := ActivityLogResponse{
		ID:          l.ID.String(),
		Action:      l.Action,
		Description: l.Description,
		Username:    l.Username,
		UserRole:    l.UserRole,
		Timestamp:   l.Timestamp.Format(time.RFC3339),
	}
	if l.DocumentID != nil {
		r.DocumentID = l.DocumentID.String()
	}
	if l.Document != nil {
		r.ProjectName = l.Document.ProjectName
		r.FilePath = l.Document.FilePath
		if l.Document.PlaceholderID != nil {
			r.PlaceholderID = *l.Document.PlaceholderID
		}
	}
	if l.UserID != nil {
		r.UserID = l.UserID.String()
	}
	if l.User != nil {
		r.Username = l.User.Username
		r.Fullname = l.User.Fullname
	}
	if r.Username == "" {
		r.Username = "System"
	}
	return r
}
