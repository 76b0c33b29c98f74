package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"

	"docflow/internal/model"
	"docflow/internal/repository"
	"docflow/internal/storage"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type fakeDocumentRepo struct {
	mu   sync.Mutex
	docs map[uuid.UUID]model.Document
	// usedPlaceholders marks ids as taken without a backing document
	usedPlaceholders map[string]bool
	updateErr        error
	// beforeUpdate runs at the start of Update without the lock held
	beforeUpdate func()
}

func newFakeDocumentRepo() *fakeDocumentRepo {
	return &fakeDocumentRepo{docs: map[uuid.UUID]model.Document{}, usedPlaceholders: map[string]bool{}}
}

func (r *fakeDocumentRepo) Create(_ context.Context, doc *model.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.docs {
		if d.ProjectName == doc.ProjectName {
			return gorm.ErrDuplicatedKey
		}
	}
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	r.docs[doc.ID] = *doc
	return nil
}

func (r *fakeDocumentRepo) Update(_ context.Context, doc *model.Document) error {
	if r.beforeUpdate != nil {
		r.beforeUpdate()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.docs[doc.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.docs[doc.ID] = *doc
	return nil
}

func (r *fakeDocumentRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.docs, id)
	return nil
}

func (r *fakeDocumentRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &d, nil
}

func (r *fakeDocumentRepo) FindByProjectName(_ context.Context, projectName string) (*model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.docs {
		if d.ProjectName == projectName {
			return &d, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeDocumentRepo) PlaceholderInUse(_ context.Context, placeholderID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.usedPlaceholders[placeholderID] {
		return true, nil
	}
	for _, d := range r.docs {
		if (d.PlaceholderID != nil && *d.PlaceholderID == placeholderID) || d.FilePath == model.PlaceholderPath(placeholderID) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeDocumentRepo) List(_ context.Context, f repository.DocumentFilter) ([]model.Document, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Document
	for _, d := range r.docs {
		if f.Category != "" && d.Category != f.Category {
			continue
		}
		if f.Status != "" && d.Status != f.Status {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(d.ProjectName), strings.ToLower(f.Search)) {
			continue
		}
		if f.VisibleTo != nil && d.TargetUserID != nil && *d.TargetUserID != *f.VisibleTo {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmissionDate.After(out[j].SubmissionDate) })

	total := int64(len(out))
	if f.Offset >= len(out) {
		return nil, total, nil
	}
	end := f.Offset + f.Limit
	if end > len(out) {
		end = len(out)
	}
	return out[f.Offset:end], total, nil
}

// get returns a copy of the stored document, or nil when it is absent.
func (r *fakeDocumentRepo) get(id uuid.UUID) *model.Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil
	}
	return &doc
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]model.User
}

func newFakeUserRepo(users ...model.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[uuid.UUID]model.User{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) List(_ context.Context) ([]model.User, error) {
	return r.ListByRole(context.Background(), "")
}

func (r *fakeUserRepo) ListByRole(_ context.Context, role string) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.User
	for _, u := range r.users {
		if role == "" || u.Role == role {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r *fakeUserRepo) LockByRole(ctx context.Context, role string) ([]model.User, error) {
	return r.ListByRole(ctx, role)
}

func (r *fakeUserRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

type fakeTx struct{}

func (fakeTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type fakeActivityRepo struct {
	mu        sync.Mutex
	entries   []model.ActivityLog
	appendErr error
}

func (r *fakeActivityRepo) Append(_ context.Context, entry *model.ActivityLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appendErr != nil {
		return r.appendErr
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeActivityRepo) ListAll(_ context.Context) ([]model.ActivityLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.ActivityLog, len(r.entries))
	copy(out, r.entries)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

func (r *fakeActivityRepo) Purge(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := int64(len(r.entries))
	r.entries = nil
	return n, nil
}

// forDocument returns the recorded actions for id in insertion order.
func (r *fakeActivityRepo) forDocument(id uuid.UUID) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var actions []string
	for _, e := range r.entries {
		if e.DocumentID != nil && *e.DocumentID == id {
			actions = append(actions, e.Action)
		}
	}
	return actions
}

func (r *fakeActivityRepo) all() []model.ActivityLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.ActivityLog(nil), r.entries...)
}

type fakeFileStore struct {
	mu        sync.Mutex
	files     map[string][]byte
	deleteErr error
	deleted   []string
}

func newFakeFileStore() *fakeFileStore {
	return &fakeFileStore{files: map[string][]byte{}}
}

func (s *fakeFileStore) Store(_ context.Context, r io.Reader, _ int64, name, mime string) (storage.File, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return storage.File{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	path := "uploads/" + uuid.NewString() + "-" + name
	s.files[path] = b
	return storage.File{Path: path, Name: name, Type: mime, Size: int64(len(b))}, nil
}

func (s *fakeFileStore) Open(_ context.Context, path string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.files[path]
	if !ok {
		return nil, storage.ErrFileNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (s *fakeFileStore) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, path)
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.files, path)
	return nil
}

func (s *fakeFileStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

type fakeReserver struct {
	taken map[string]bool
	err   error
}

func (r *fakeReserver) Reserve(_ context.Context, id string) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	if r.taken[id] {
		return false, nil
	}
	r.taken[id] = true
	return true, nil
}

type fakeInputRepo struct {
	values map[uuid.UUID]model.InputValue
}

func newFakeInputRepo() *fakeInputRepo {
	return &fakeInputRepo{values: map[uuid.UUID]model.InputValue{}}
}

func (r *fakeInputRepo) List(_ context.Context, testType, category string) ([]model.InputValue, error) {
	var out []model.InputValue
	for _, v := range r.values {
		if (testType == "" || v.TestType == testType) && (category == "" || v.Category == category) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out, nil
}

func (r *fakeInputRepo) FindByID(_ context.Context, id uuid.UUID) (*model.InputValue, error) {
	v, ok := r.values[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &v, nil
}

func (r *fakeInputRepo) FindDuplicate(_ context.Context, value, category, testType string, excludeID *uuid.UUID) (*model.InputValue, error) {
	for _, v := range r.values {
		if excludeID != nil && v.ID == *excludeID {
			continue
		}
		if strings.EqualFold(v.Value, value) && v.Category == category && v.TestType == testType {
			return &v, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeInputRepo) Create(_ context.Context, value *model.InputValue) error {
	if value.ID == uuid.Nil {
		value.ID = uuid.New()
	}
	r.values[value.ID] = *value
	return nil
}

func (r *fakeInputRepo) Update(_ context.Context, value *model.InputValue) error {
	r.values[value.ID] = *value
	return nil
}

func (r *fakeInputRepo) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	if _, ok := r.values[id]; !ok {
		return false, nil
	}
	delete(r.values, id)
	return true, nil
}

var errBoom = errors.New("boom")
