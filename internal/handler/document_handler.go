package handler

import (
	"encoding/json"
	"mime"
	"net/http"
	"strings"

	"docflow/internal/middleware"
	"docflow/internal/service"
	"docflow/pkg/pagination"
	"docflow/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type DocumentHandler struct {
	documentService service.DocumentService
	guard           *middleware.Guard
	maxUploadBytes  int64
}

func NewDocumentHandler(documentService service.DocumentService, guard *middleware.Guard, maxUploadBytes int64) *DocumentHandler {
	return &DocumentHandler{documentService: documentService, guard: guard, maxUploadBytes: maxUploadBytes}
}

func (h *DocumentHandler) RegisterRoutes(router *gin.RouterGroup) {
	documents := router.Group("/api/documents")
	{
		documents.GET("", h.guard.Require(middleware.OpListDocuments), h.ListDocuments)
		documents.POST("", h.guard.Require(middleware.OpUploadDocument), h.UploadDocument)
		documents.POST("/manual", h.guard.Require(middleware.OpCreatePlaceholder), h.CreatePlaceholder)
		documents.PUT("/:id/file", h.guard.Require(middleware.OpBindFile), h.BindFile)
		documents.PUT("/:id", h.guard.Require(middleware.OpUpdateDocument), h.UpdateDocument)
		documents.PATCH("/:id/status", h.guard.Require(middleware.OpUpdateStatus), h.UpdateStatus)
		documents.DELETE("/:id", h.guard.Require(middleware.OpDeleteDocument), h.DeleteDocument)
		documents.GET("/:id/download", h.guard.Require(middleware.OpDownloadDocument), h.DownloadDocument)
	}
}

// ListDocuments returns a page of documents visible to the caller
// @Summary      List documents
// @Description  Paginated documents, newest submission first. Users only see documents assigned to them or to nobody.
// @Tags         documents
// @Security     BearerAuth
// @Produce      json
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        limit     query     int     false  "Items per page (default 10, max 100)"
// @Param        category  query     string  false  "Filter by category"
// @Param        status    query     string  false  "Filter by status"
// @Param        search    query     string  false  "Case-insensitive substring of project name"
// @Success      200       {object}  response.Response{data=service.DocumentListResponse}
// @Failure      401       {object}  response.Response
// @Router       /api/documents [get]
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	p := pagination.Parse(c)
	res, err := h.documentService.List(c.Request.Context(), actor(c), service.ListDocumentsQuery{
		Page:     p.Page,
		Limit:    p.Limit,
		Category: c.Query("category"),
		Status:   c.Query("status"),
		Search:   c.Query("search"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// UploadDocument stores a file as a new document or completes a placeholder
// @Summary      Upload document
// @Description  Creates a document from an uploaded file. When document_id is given, or project_name matches a placeholder, the file is bound to that placeholder instead.
// @Tags         documents
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        file          formData  file    true   "Document file"
// @Param        document_id   formData  string  false  "Placeholder document to complete"
// @Param        project_name  formData  string  false  "Project name (required without document_id)"
// @Param        description   formData  string  false  "Description"
// @Param        category      formData  string  false  "Category (default upload)"
// @Param        status        formData  string  false  "Status (default completed)"
// @Param        input_sets    formData  string  false  "JSON encoded input sets"
// @Success      201           {object}  response.Response{data=model.Document}
// @Failure      400           {object}  response.Response
// @Failure      404           {object}  response.Response
// @Failure      409           {object}  response.Response
// @Router       /api/documents [post]
func (h *DocumentHandler) UploadDocument(c *gin.Context) {
	limitBody(c, h.maxUploadBytes)
	file, err := acceptFile(c, h.maxUploadBytes)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	defer file.Close()

	sets, err := parseInputSets(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	doc, err := h.documentService.UploadFile(c.Request.Context(), actor(c), service.UploadRequest{
		DocumentID:  c.PostForm("document_id"),
		ProjectName: c.PostForm("project_name"),
		Description: c.PostForm("description"),
		Category:    c.PostForm("category"),
		Status:      c.PostForm("status"),
		InputSets:   sets,
		File:        file.FileUpload,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, doc))
}

// CreatePlaceholder registers a document that has no file yet
// @Summary      Create placeholder
// @Description  Creates a manual document entry with a fresh placeholder id, assigned to a target user. Accepts JSON or form fields.
// @Tags         documents
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreatePlaceholderRequest  true  "Placeholder details"
// @Success      201      {object}  response.Response{data=model.Document}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/documents/manual [post]
func (h *DocumentHandler) CreatePlaceholder(c *gin.Context) {
	var req service.CreatePlaceholderRequest
	if c.ContentType() == gin.MIMEJSON {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request payload: "+err.Error())
			return
		}
	} else {
		var err error
		if req, err = placeholderFromForm(c); err != nil {
			badRequest(c, err.Error())
			return
		}
	}

	doc, err := h.documentService.CreatePlaceholder(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, doc))
}

func placeholderFromForm(c *gin.Context) (service.CreatePlaceholderRequest, error) {
	req := service.CreatePlaceholderRequest{
		ProjectName:   c.PostForm("project_name"),
		Description:   c.PostForm("description"),
		Category:      c.PostForm("category"),
		Status:        c.PostForm("status"),
		MaterialCode:  c.PostForm("material_code"),
		MaterialGrade: c.PostForm("material_grade"),
		MaterialType:  c.PostForm("material_type"),
		TargetUserID:  c.PostForm("target_user_id"),
	}
	if bp := strings.TrimSpace(c.PostForm("bp")); bp != "" {
		d, err := decimal.NewFromString(bp)
		if err != nil {
			return req, errInvalidBP
		}
		req.BP = decimal.NewNullDecimal(d)
	}

	sets, err := parseInputSets(c)
	if err != nil {
		return req, err
	}
	req.InputSets = sets
	return req, nil
}

// BindFile attaches or replaces the file of a document
// @Summary      Bind file
// @Description  Binds a file to a placeholder or replaces the current file. The previous file is removed.
// @Tags         documents
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        id    path      string  true  "Document ID"
// @Param        file  formData  file    true  "Document file"
// @Success      200   {object}  response.Response{data=model.Document}
// @Failure      400   {object}  response.Response
// @Failure      404   {object}  response.Response
// @Router       /api/documents/{id}/file [put]
func (h *DocumentHandler) BindFile(c *gin.Context) {
	limitBody(c, h.maxUploadBytes)
	file, err := acceptFile(c, h.maxUploadBytes)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	defer file.Close()

	doc, err := h.documentService.BindFile(c.Request.Context(), actor(c), c.Param("id"), file.FileUpload)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// UpdateDocument edits status and material details
// @Summary      Update document
// @Description  Applies status, bp, material_code, material_grade, material_type and target_user_id. Other keys are ignored. Staff may only send status.
// @Tags         documents
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string  true  "Document ID"
// @Param        payload  body      object  true  "Fields to change"
// @Success      200      {object}  response.Response{data=model.Document}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/documents/{id} [put]
func (h *DocumentHandler) UpdateDocument(c *gin.Context) {
	patch, ok := bindPatch(c)
	if !ok {
		return
	}

	doc, err := h.documentService.UpdateDocument(c.Request.Context(), actor(c), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// UpdateStatus changes only the status of a document
// @Summary      Update document status
// @Tags         documents
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string  true  "Document ID"
// @Param        payload  body      object  true  "{\"status\": \"approved\"}"
// @Success      200      {object}  response.Response{data=model.Document}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/documents/{id}/status [patch]
func (h *DocumentHandler) UpdateStatus(c *gin.Context) {
	patch, ok := bindPatch(c)
	if !ok {
		return
	}

	doc, err := h.documentService.UpdateStatus(c.Request.Context(), actor(c), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

func bindPatch(c *gin.Context) (service.DocumentPatch, bool) {
	var body map[string]json.RawMessage
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return service.DocumentPatch{}, false
	}
	patch, err := service.ParseDocumentPatch(body)
	if err != nil {
		respondError(c, err)
		return service.DocumentPatch{}, false
	}
	return patch, true
}

// DeleteDocument removes a document and its stored file
// @Summary      Delete document
// @Tags         documents
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/documents/{id} [delete]
func (h *DocumentHandler) DeleteDocument(c *gin.Context) {
	if err := h.documentService.Delete(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Document deleted successfully"}))
}

// DownloadDocument streams the stored file
// @Summary      Download document
// @Description  Users may only download completed or approved documents.
// @Tags         documents
// @Security     BearerAuth
// @Produce      octet-stream
// @Param        id   path  string  true  "Document ID"
// @Success      200  {file}    file
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/documents/{id}/download [get]
func (h *DocumentHandler) DownloadDocument(c *gin.Context) {
	dl, err := h.documentService.Download(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	defer dl.Body.Close()

	contentType := dl.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, dl.Size, contentType, dl.Body, map[string]string{
		"Content-Disposition": mime.FormatMediaType("attachment", map[string]string{"filename": dl.FileName}),
	})
}
