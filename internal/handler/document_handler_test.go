package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"docflow/internal/middleware"
	"docflow/internal/model"
	"docflow/internal/service"
	"docflow/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuth map[string]service.Actor

func (s stubAuth) Authenticate(_ context.Context, token string) (service.Actor, error) {
	a, ok := s[token]
	if !ok {
		return service.Actor{}, &service.Error{Kind: service.ErrUnauthenticated, Message: "invalid token"}
	}
	return a, nil
}

// stubDocuments implements service.DocumentService with overridable funcs.
type stubDocuments struct {
	uploadFunc   func(service.Actor, service.UploadRequest) (*model.Document, error)
	createFunc   func(service.Actor, service.CreatePlaceholderRequest) (*model.Document, error)
	updateFunc   func(service.Actor, string, service.DocumentPatch) (*model.Document, error)
	downloadFunc func(service.Actor, string) (*service.Download, error)
	listFunc     func(service.Actor, service.ListDocumentsQuery) (*service.DocumentListResponse, error)
	deleteFunc   func(service.Actor, string) error

	uploadedBody string
}

func (s *stubDocuments) CreatePlaceholder(_ context.Context, a service.Actor, req service.CreatePlaceholderRequest) (*model.Document, error) {
	return s.createFunc(a, req)
}

func (s *stubDocuments) UploadFile(_ context.Context, a service.Actor, req service.UploadRequest) (*model.Document, error) {
	body, _ := io.ReadAll(req.File.Reader)
	s.uploadedBody = string(body)
	return s.uploadFunc(a, req)
}

func (s *stubDocuments) BindFile(_ context.Context, a service.Actor, id string, file service.FileUpload) (*model.Document, error) {
	return s.uploadFunc(a, service.UploadRequest{DocumentID: id, File: file})
}

func (s *stubDocuments) UpdateDocument(_ context.Context, a service.Actor, id string, p service.DocumentPatch) (*model.Document, error) {
	return s.updateFunc(a, id, p)
}

func (s *stubDocuments) UpdateStatus(_ context.Context, a service.Actor, id string, p service.DocumentPatch) (*model.Document, error) {
	return s.updateFunc(a, id, p)
}

func (s *stubDocuments) Delete(_ context.Context, a service.Actor, id string) error {
	return s.deleteFunc(a, id)
}

func (s *stubDocuments) Download(_ context.Context, a service.Actor, id string) (*service.Download, error) {
	return s.downloadFunc(a, id)
}

func (s *stubDocuments) List(_ context.Context, a service.Actor, q service.ListDocumentsQuery) (*service.DocumentListResponse, error) {
	return s.listFunc(a, q)
}

var (
	adminActor = service.Actor{ID: uuid.New(), Username: "admin", Role: model.RoleAdmin}
	userActor  = service.Actor{ID: uuid.New(), Username: "user1", Role: model.RoleUser}
)

func newDocumentRouter(svc service.DocumentService, maxBytes int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	guard := middleware.NewGuard(stubAuth{"admin": adminActor, "user": userActor}, middleware.DefaultPolicy)
	r := gin.New()
	NewDocumentHandler(svc, guard, maxBytes).RegisterRoutes(r.Group(""))
	return r
}

func multipartBody(t *testing.T, fileName, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileName != "" {
		part, err := w.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func do(r http.Handler, method, path, token string, body io.Reader, contentType string) (*httptest.ResponseRecorder, response.Response) {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var res response.Response
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	return w, res
}

func TestUploadRejectsDisallowedExtension(t *testing.T) {
	svc := &stubDocuments{uploadFunc: func(service.Actor, service.UploadRequest) (*model.Document, error) {
		t.Fatal("service must not be called")
		return nil, nil
	}}
	r := newDocumentRouter(svc, 1<<20)

	body, ct := multipartBody(t, "payload.exe", "MZ", map[string]string{"project_name": "Bridge"})
	w, res := do(r, http.MethodPost, "/api/documents", "admin", body, ct)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, res.Error, "invalid file type")
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	svc := &stubDocuments{uploadFunc: func(service.Actor, service.UploadRequest) (*model.Document, error) {
		t.Fatal("service must not be called")
		return nil, nil
	}}
	r := newDocumentRouter(svc, 8)

	body, ct := multipartBody(t, "report.pdf", "more than eight bytes", map[string]string{"project_name": "Bridge"})
	w, res := do(r, http.MethodPost, "/api/documents", "admin", body, ct)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, res.Error, "too large")
}

func TestUploadRequiresFile(t *testing.T) {
	r := newDocumentRouter(&stubDocuments{}, 1<<20)

	body, ct := multipartBody(t, "", "", map[string]string{"project_name": "Bridge"})
	w, res := do(r, http.MethodPost, "/api/documents", "admin", body, ct)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "please upload a file", res.Error)
}

func TestUploadForwardsFormAndIndexedInputSets(t *testing.T) {
	var got service.UploadRequest
	svc := &stubDocuments{uploadFunc: func(a service.Actor, req service.UploadRequest) (*model.Document, error) {
		assert.Equal(t, adminActor.ID, a.ID)
		got = req
		return &model.Document{ProjectName: req.ProjectName}, nil
	}}
	r := newDocumentRouter(svc, 1<<20)

	body, ct := multipartBody(t, "report.PDF", "%PDF-1.7", map[string]string{
		"project_name":                  "Bridge",
		"status":                        model.StatusReview,
		"input_sets[1][material_grade]": "K300",
		"input_sets[0][bp]":             "12.5",
		"input_sets[0][test_type]":      model.TestTypeSteel,
	})
	w, _ := do(r, http.MethodPost, "/api/documents", "admin", body, ct)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Bridge", got.ProjectName)
	assert.Equal(t, model.StatusReview, got.Status)
	assert.Equal(t, "report.PDF", got.File.Name)
	assert.Equal(t, int64(len("%PDF-1.7")), got.File.Size)
	assert.Equal(t, "%PDF-1.7", svc.uploadedBody)
	require.Len(t, got.InputSets, 2)
	assert.Equal(t, "12.5", got.InputSets[0].BP)
	assert.Equal(t, model.TestTypeSteel, got.InputSets[0].TestType)
	assert.Equal(t, "K300", got.InputSets[1].MaterialGrade)
}

func TestUploadAcceptsJSONInputSets(t *testing.T) {
	var got service.UploadRequest
	svc := &stubDocuments{uploadFunc: func(_ service.Actor, req service.UploadRequest) (*model.Document, error) {
		got = req
		return &model.Document{}, nil
	}}
	r := newDocumentRouter(svc, 1<<20)

	body, ct := multipartBody(t, "data.csv", "a,b", map[string]string{
		"document_id": "abc",
		"input_sets":  `[{"material_code":"M-1"}]`,
	})
	w, _ := do(r, http.MethodPost, "/api/documents", "admin", body, ct)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "abc", got.DocumentID)
	require.Len(t, got.InputSets, 1)
	assert.Equal(t, "M-1", got.InputSets[0].MaterialCode)
}

func TestUploadIsForbiddenForUsers(t *testing.T) {
	r := newDocumentRouter(&stubDocuments{}, 1<<20)

	body, ct := multipartBody(t, "report.pdf", "x", nil)
	w, _ := do(r, http.MethodPost, "/api/documents", "user", body, ct)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreatePlaceholderFromForm(t *testing.T) {
	var got service.CreatePlaceholderRequest
	svc := &stubDocuments{createFunc: func(_ service.Actor, req service.CreatePlaceholderRequest) (*model.Document, error) {
		got = req
		return &model.Document{}, nil
	}}
	r := newDocumentRouter(svc, 1<<20)

	form := "project_name=Tower&target_user_id=u-1&bp=42.75&material_type=Beam"
	w, _ := do(r, http.MethodPost, "/api/documents/manual", "admin", strings.NewReader(form), "application/x-www-form-urlencoded")

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Tower", got.ProjectName)
	assert.Equal(t, "u-1", got.TargetUserID)
	require.True(t, got.BP.Valid)
	assert.Equal(t, "42.75", got.BP.Decimal.String())
	assert.Equal(t, "Beam", got.MaterialType)
}

func TestCreatePlaceholderFromJSON(t *testing.T) {
	var got service.CreatePlaceholderRequest
	svc := &stubDocuments{createFunc: func(_ service.Actor, req service.CreatePlaceholderRequest) (*model.Document, error) {
		got = req
		return &model.Document{}, nil
	}}
	r := newDocumentRouter(svc, 1<<20)

	payload := `{"project_name":"Tower","target_user_id":"u-1","bp":null}`
	w, _ := do(r, http.MethodPost, "/api/documents/manual", "admin", strings.NewReader(payload), "application/json")

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Tower", got.ProjectName)
	assert.False(t, got.BP.Valid)
}

func TestCreatePlaceholderRejectsBadBP(t *testing.T) {
	r := newDocumentRouter(&stubDocuments{}, 1<<20)

	form := "project_name=Tower&target_user_id=u-1&bp=heavy"
	w, res := do(r, http.MethodPost, "/api/documents/manual", "admin", strings.NewReader(form), "application/x-www-form-urlencoded")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid value for bp", res.Error)
}

func TestUpdateStatusParsesPatch(t *testing.T) {
	svc := &stubDocuments{updateFunc: func(_ service.Actor, id string, p service.DocumentPatch) (*model.Document, error) {
		assert.Equal(t, "doc-1", id)
		require.NotNil(t, p.Status)
		assert.Equal(t, model.StatusApproved, *p.Status)
		assert.True(t, p.StatusOnly())
		return &model.Document{Status: *p.Status}, nil
	}}
	r := newDocumentRouter(svc, 1<<20)

	w, _ := do(r, http.MethodPatch, "/api/documents/doc-1/status", "admin", strings.NewReader(`{"status":"approved"}`), "application/json")
	assert.Equal(t, http.StatusOK, w.Code)

	w, res := do(r, http.MethodPut, "/api/documents/doc-1", "admin", strings.NewReader(`{"bp":"x"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid value for bp", res.Error)
}

func TestServiceErrorsMapToStatusCodes(t *testing.T) {
	cases := []struct {
		kind error
		want int
	}{
		{service.ErrValidation, http.StatusBadRequest},
		{service.ErrUnauthenticated, http.StatusUnauthorized},
		{service.ErrForbidden, http.StatusForbidden},
		{service.ErrNotFound, http.StatusNotFound},
		{service.ErrConflict, http.StatusConflict},
		{service.ErrInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		svc := &stubDocuments{deleteFunc: func(service.Actor, string) error {
			return &service.Error{Kind: tc.kind, Message: "boom"}
		}}
		r := newDocumentRouter(svc, 1<<20)

		w, res := do(r, http.MethodDelete, "/api/documents/x", "admin", nil, "")
		assert.Equal(t, tc.want, w.Code, tc.kind.Error())
		assert.Equal(t, "boom", res.Error)
	}

	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("plain")))
}

func TestDownloadStreamsFile(t *testing.T) {
	svc := &stubDocuments{downloadFunc: func(a service.Actor, id string) (*service.Download, error) {
		assert.Equal(t, model.RoleUser, a.Role)
		return &service.Download{
			FileName:    "report final.csv",
			ContentType: "text/csv",
			Size:        3,
			Body:        io.NopCloser(strings.NewReader("a,b")),
		}, nil
	}}
	r := newDocumentRouter(svc, 1<<20)

	w, _ := do(r, http.MethodGet, "/api/documents/doc-1/download", "user", nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a,b", w.Body.String())
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, "3", w.Header().Get("Content-Length"))
	assert.Equal(t, `attachment; filename="report final.csv"`, w.Header().Get("Content-Disposition"))
}

func TestDownloadForbiddenForUsers(t *testing.T) {
	svc := &stubDocuments{downloadFunc: func(service.Actor, string) (*service.Download, error) {
		return nil, &service.Error{Kind: service.ErrForbidden, Message: "you can only download documents that are completed or approved"}
	}}
	r := newDocumentRouter(svc, 1<<20)

	w, res := do(r, http.MethodGet, "/api/documents/doc-1/download", "user", nil, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, res.Error, "completed or approved")
}

func TestListForwardsPagination(t *testing.T) {
	svc := &stubDocuments{listFunc: func(a service.Actor, q service.ListDocumentsQuery) (*service.DocumentListResponse, error) {
		assert.Equal(t, 2, q.Page)
		assert.Equal(t, 100, q.Limit)
		assert.Equal(t, "manual", q.Category)
		assert.Equal(t, "bridge", q.Search)
		return &service.DocumentListResponse{Documents: []model.Document{}, CurrentPage: q.Page}, nil
	}}
	r := newDocumentRouter(svc, 1<<20)

	w, _ := do(r, http.MethodGet, "/api/documents?page=2&limit=500&category=manual&search=bridge", "user", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = do(r, http.MethodGet, "/api/documents", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
