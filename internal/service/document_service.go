package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"docflow/internal/model"
	"docflow/internal/repository"
	"docflow/internal/storage"
	"docflow/pkg/pagination"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultDocumentDescription = "New document"

// FileUpload is a received file that has not been stored yet.
type FileUpload struct {
	Name   string
	Type   string
	Size   int64
	Reader io.Reader
}

type CreatePlaceholderRequest struct {
	ProjectName   string              `json:"project_name"`
	Description   string              `json:"description"`
	Category      string              `json:"category"`
	Status        string              `json:"status"`
	BP            decimal.NullDecimal `json:"bp" swaggertype:"number"`
	MaterialCode  string              `json:"material_code"`
	MaterialGrade string              `json:"material_grade"`
	MaterialType  string              `json:"material_type"`
	TargetUserID  string              `json:"target_user_id"`
	InputSets     []model.InputSet    `json:"input_sets"`
}

type UploadRequest struct {
	DocumentID  string
	ProjectName string
	Description string
	Category    string
	Status      string
	InputSets   []model.InputSet
	File        FileUpload
}

type ListDocumentsQuery struct {
	Page     int
	Limit    int
	Category string
	Status   string
	Search   string
}

type DocumentListResponse struct {
	Documents      []model.Document `json:"documents"`
	CurrentPage    int              `json:"current_page"`
	TotalPages     int              `json:"total_pages"`
	TotalDocuments int64            `json:"total_documents"`
}

// Download is an open document file. The caller closes Body.
type Download struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.ReadCloser
}

// DocumentService owns the document lifecycle: placeholder creation, file
// binding and replacement, status changes and deletion. Every mutation is
// paired with an activity entry.
type DocumentService interface {
	CreatePlaceholder(ctx context.Context, actor Actor, req CreatePlaceholderRequest) (*model.Document, error)
	UploadFile(ctx context.Context, actor Actor, req UploadRequest) (*model.Document, error)
	BindFile(ctx context.Context, actor Actor, id string, file FileUpload) (*model.Document, error)
	UpdateDocument(ctx context.Context, actor Actor, id string, patch DocumentPatch) (*model.Document, error)
	UpdateStatus(ctx context.Context, actor Actor, id string, patch DocumentPatch) (*model.Document, error)
	Delete(ctx context.Context, actor Actor, id string) error
	Download(ctx context.Context, actor Actor, id string) (*Download, error)
	List(ctx context.Context, actor Actor, q ListDocumentsQuery) (*DocumentListResponse, error)
}

type documentService struct {
	docs         repository.DocumentRepository
	users        repository.UserRepository
	placeholders *PlaceholderAllocator
	files        storage.FileStore
	activity     ActivityRecorder
	logger       *zap.Logger
	now          func() time.Time
}

func NewDocumentService(
	docs repository.DocumentRepository,
	users repository.UserRepository,
	placeholders *PlaceholderAllocator,
	files storage.FileStore,
	activity ActivityRecorder,
	logger *zap.Logger,
) DocumentService {
	return &documentService{
		docs:         docs,
		users:        users,
		placeholders: placeholders,
		files:        files,
		activity:     activity,
		logger:       logger.Named("documents"),
		now:          time.Now,
	}
}

func (s *documentService) CreatePlaceholder(ctx context.Context, actor Actor, req CreatePlaceholderRequest) (*model.Document, error) {
	projectName := strings.TrimSpace(req.ProjectName)
	if projectName == "" {
		return nil, validation("project name is required")
	}
	if req.TargetUserID == "" {
		return nil, validation("target user is required")
	}
	status := orDefault(req.Status, model.StatusPending)
	if !model.IsValidStatus(status) {
		return nil, validation("invalid status %q", status)
	}
	target, err := s.resolveTarget(ctx, req.TargetUserID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureProjectNameFree(ctx, projectName); err != nil {
		return nil, err
	}

	placeholderID, err := s.placeholders.Allocate(ctx)
	if err != nil {
		return nil, internal("failed to allocate placeholder id", err)
	}

	now := s.now()
	doc := &model.Document{
		ProjectName:    projectName,
		Description:    orDefault(req.Description, defaultDocumentDescription),
		Category:       orDefault(req.Category, model.CategoryManual),
		Status:         status,
		BP:             req.BP,
		MaterialCode:   req.MaterialCode,
		MaterialGrade:  req.MaterialGrade,
		MaterialType:   req.MaterialType,
		InputSets:      inputSets(req.InputSets),
		UploadedByID:   actor.ID,
		TargetUserID:   &target.ID,
		SubmissionDate: now,
		LastModified:   now,
	}
	doc.SetPlaceholder(placeholderID)

	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, fromRepo(err, "document")
	}

	s.activity.Record(ctx, newActivity(actor, model.ActionCreatePlaceholder, doc.ID,
		fmt.Sprintf("%s created placeholder %s (%s)", actor.Username, placeholderID, projectName)))

	return doc, nil
}

func (s *documentService) UploadFile(ctx context.Context, actor Actor, req UploadRequest) (*model.Document, error) {
	if req.File.Reader == nil {
		return nil, validation("please upload a file")
	}
	status := orDefault(req.Status, model.StatusCompleted)
	if !model.IsValidStatus(status) {
		return nil, validation("invalid status %q", status)
	}
	completion := &uploadCompletion{status: status, description: req.Description}

	if req.DocumentID != "" {
		doc, err := s.findDocument(ctx, req.DocumentID)
		if err != nil {
			return nil, err
		}
		return s.bind(ctx, actor, doc, req.File, completion)
	}

	projectName := strings.TrimSpace(req.ProjectName)
	if projectName == "" {
		return nil, validation("project name is required")
	}

	existing, err := s.docs.FindByProjectName(ctx, projectName)
	switch {
	case err == nil && existing.IsPlaceholder():
		return s.bind(ctx, actor, existing, req.File, completion)
	case err == nil:
		return nil, conflict("document with this project name already exists")
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fromRepo(err, "document")
	}

	stored, err := s.store(ctx, req.File)
	if err != nil {
		return nil, err
	}

	now := s.now()
	doc := &model.Document{
		ProjectName:    projectName,
		Description:    orDefault(req.Description, defaultDocumentDescription),
		Category:       orDefault(req.Category, model.CategoryUpload),
		Status:         status,
		InputSets:      inputSets(req.InputSets),
		UploadedByID:   actor.ID,
		SubmissionDate: now,
		LastModified:   now,
	}
	doc.SetFile(stored)

	if err := s.docs.Create(ctx, doc); err != nil {
		storage.Discard(ctx, s.files, stored.Path, s.logger)
		return nil, fromRepo(err, "document")
	}

	s.activity.Record(ctx, newActivity(actor, model.ActionUploadFile, doc.ID,
		fmt.Sprintf("%s uploaded a new document file (%s)", actor.Username, projectName)))

	return doc, nil
}

func (s *documentService) BindFile(ctx context.Context, actor Actor, id string, file FileUpload) (*model.Document, error) {
	if file.Reader == nil {
		return nil, validation("please upload a file")
	}
	doc, err := s.findDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.bind(ctx, actor, doc, file, nil)
}

// uploadCompletion carries upload form values applied when an upload
// fills a placeholder.
type uploadCompletion struct {
	status      string
	description string
}

func (s *documentService) bind(ctx context.Context, actor Actor, doc *model.Document, file FileUpload, completion *uploadCompletion) (*model.Document, error) {
	stored, err := s.store(ctx, file)
	if err != nil {
		return nil, err
	}

	previous := doc.Binding()
	_, wasPlaceholder := previous.(model.Unbound)

	doc.SetFile(stored)
	doc.LastModified = s.now()
	if wasPlaceholder && completion != nil {
		doc.Status = completion.status
		if completion.description != "" {
			doc.Description = completion.description
		}
	}

	if err := s.docs.Update(ctx, doc); err != nil {
		storage.Discard(ctx, s.files, stored.Path, s.logger)
		return nil, fromRepo(err, "document")
	}

	if old, ok := previous.(model.Bound); ok {
		storage.Discard(ctx, s.files, old.Path, s.logger)
	}

	entry := newActivity(actor, model.ActionUploadFile, doc.ID,
		fmt.Sprintf("%s uploaded a new document file (%s)", actor.Username, doc.ProjectName))
	if !wasPlaceholder {
		entry = newActivity(actor, model.ActionReplaceFile, doc.ID,
			fmt.Sprintf("%s replaced the document file (%s) with a new file", actor.Username, doc.ProjectName))
	}
	s.activity.Record(ctx, entry)

	return doc, nil
}

// UpdateDocument applies the allow-listed fields of patch.
func (s *documentService) UpdateDocument(ctx context.Context, actor Actor, id string, patch DocumentPatch) (*model.Document, error) {
	return s.update(ctx, actor, id, patch, true)
}

// UpdateStatus applies only the status of patch.
func (s *documentService) UpdateStatus(ctx context.Context, actor Actor, id string, patch DocumentPatch) (*model.Document, error) {
	return s.update(ctx, actor, id, patch, false)
}

func (s *documentService) update(ctx context.Context, actor Actor, id string, patch DocumentPatch, allFields bool) (*model.Document, error) {
	doc, err := s.findDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == model.RoleStaff && !patch.StatusOnly() {
		return nil, forbidden("staff can only update document status")
	}
	if !allFields && patch.Status == nil {
		return nil, validation("status is required")
	}
	if patch.Status != nil && !model.IsValidStatus(*patch.Status) {
		return nil, validation("invalid status %q", *patch.Status)
	}

	oldStatus := doc.Status
	detailsChanged := false
	if allFields {
		detailsChanged, err = s.applyDetails(ctx, doc, patch)
		if err != nil {
			return nil, err
		}
	}
	if patch.Status != nil {
		doc.Status = *patch.Status
	}
	doc.LastModified = s.now()

	if err := s.docs.Update(ctx, doc); err != nil {
		return nil, fromRepo(err, "document")
	}

	if doc.Status != oldStatus {
		s.activity.Record(ctx, newActivity(actor, model.ActionEditStatus, doc.ID,
			fmt.Sprintf("%s changed document status (%s) from %s to %s", actor.Username, doc.ProjectName, oldStatus, doc.Status)))
	}
	if detailsChanged {
		s.activity.Record(ctx, newActivity(actor, model.ActionEditFile, doc.ID,
			fmt.Sprintf("%s edited document details (%s)", actor.Username, doc.ProjectName)))
	}

	return doc, nil
}

// applyDetails copies the non-status fields of patch and reports whether any changed.
func (s *documentService) applyDetails(ctx context.Context, doc *model.Document, patch DocumentPatch) (bool, error) {
	changed := false
	setString := func(dst *string, src *string) {
		if src != nil && *dst != *src {
			*dst = *src
			changed = true
		}
	}

	if patch.BP != nil && !sameDecimal(doc.BP, *patch.BP) {
		doc.BP = *patch.BP
		changed = true
	}
	setString(&doc.MaterialCode, patch.MaterialCode)
	setString(&doc.MaterialGrade, patch.MaterialGrade)
	setString(&doc.MaterialType, patch.MaterialType)

	if patch.TargetUserID != nil {
		var target *uuid.UUID
		if *patch.TargetUserID != "" {
			u, err := s.resolveTarget(ctx, *patch.TargetUserID)
			if err != nil {
				return false, err
			}
			target = &u.ID
		}
		if !sameUUID(doc.TargetUserID, target) {
			doc.TargetUserID = target
			doc.TargetUser = nil
			changed = true
		}
	}
	return changed, nil
}

func (s *documentService) Delete(ctx context.Context, actor Actor, id string) error {
	doc, err := s.findDocument(ctx, id)
	if err != nil {
		return err
	}

	if err := s.docs.Delete(ctx, doc.ID); err != nil {
		return fromRepo(err, "document")
	}

	if bound, ok := doc.Binding().(model.Bound); ok {
		storage.Discard(ctx, s.files, bound.Path, s.logger)
	}

	s.activity.Record(ctx, newActivity(actor, model.ActionDeletePlaceholder, doc.ID,
		fmt.Sprintf("%s deleted placeholder/document (%s)", actor.Username, doc.ProjectName)))
	return nil
}

func (s *documentService) Download(ctx context.Context, actor Actor, id string) (*Download, error) {
	doc, err := s.findDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == model.RoleUser && doc.Status != model.StatusCompleted && doc.Status != model.StatusApproved {
		return nil, forbidden("you can only download documents that are completed or approved")
	}

	bound, ok := doc.Binding().(model.Bound)
	if !ok {
		return nil, notFound("no file available for this document")
	}

	body, err := s.files.Open(ctx, bound.Path)
	if errors.Is(err, storage.ErrFileNotFound) {
		return nil, notFound("file not found on server")
	}
	if err != nil {
		return nil, internal("failed to open file", err)
	}

	name, contentType := bound.Name, bound.Type
	if contentType == "text/csv" && !strings.HasSuffix(name, ".csv") {
		name += ".csv"
	}
	return &Download{FileName: name, ContentType: contentType, Size: bound.Size, Body: body}, nil
}

func (s *documentService) List(ctx context.Context, actor Actor, q ListDocumentsQuery) (*DocumentListResponse, error) {
	p := pagination.Normalize(q.Page, q.Limit)

	filter := repository.DocumentFilter{
		Category: q.Category,
		Status:   q.Status,
		Search:   strings.TrimSpace(q.Search),
		Offset:   p.Offset,
		Limit:    p.Limit,
	}
	if actor.Role == model.RoleUser {
		visibleTo := actor.ID
		filter.VisibleTo = &visibleTo
	}

	docs, total, err := s.docs.List(ctx, filter)
	if err != nil {
		return nil, internal("failed to list documents", err)
	}
	if docs == nil {
		docs = []model.Document{}
	}

	return &DocumentListResponse{
		Documents:      docs,
		CurrentPage:    p.Page,
		TotalPages:     pagination.TotalPages(total, p.Limit),
		TotalDocuments: total,
	}, nil
}

func (s *documentService) findDocument(ctx context.Context, id string) (*model.Document, error) {
	docID, err := uuid.Parse(id)
	if err != nil {
		return nil, notFound("document not found")
	}
	doc, err := s.docs.FindByID(ctx, docID)
	if err != nil {
		return nil, fromRepo(err, "document")
	}
	return doc, nil
}

func (s *documentService) resolveTarget(ctx context.Context, id string) (*model.User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, validation("invalid target user id")
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fromRepo(err, "target user")
	}
	return user, nil
}

func (s *documentService) ensureProjectNameFree(ctx context.Context, projectName string) error {
	_, err := s.docs.FindByProjectName(ctx, projectName)
	switch {
	case err == nil:
		return conflict("document with this project name already exists")
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	default:
		return fromRepo(err, "document")
	}
}

func (s *documentService) store(ctx context.Context, file FileUpload) (model.Bound, error) {
	contentType := orDefault(file.Type, "application/octet-stream")
	f, err := s.files.Store(ctx, file.Reader, file.Size, file.Name, contentType)
	if err != nil {
		return model.Bound{}, internal("failed to store file", err)
	}
	return model.Bound{Path: f.Path, Name: f.Name, Type: f.Type, Size: f.Size}, nil
}

func inputSets(sets []model.InputSet) datatypes.JSONSlice[model.InputSet] {
	if sets == nil {
		return datatypes.JSONSlice[model.InputSet]{}
	}
	return datatypes.JSONSlice[model.InputSet](sets)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func sameDecimal(a, b decimal.NullDecimal) bool {
	if a.Valid != b.Valid {
		return false
	}
	return !a.Valid || a.Decimal.Equal(b.Decimal)
}

func sameUUID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
