package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"docflow/internal/model"
	"docflow/internal/service"

	"github.com/gin-gonic/gin"
)

// allowedExtensions lists the file types accepted for upload.
var allowedExtensions = map[string]bool{
	".pdf": true, ".doc": true, ".docx": true, ".txt": true, ".rtf": true,
	".xls": true, ".xlsx": true, ".csv": true, ".ppt": true, ".pptx": true,
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".zip": true, ".rar": true,
}

var (
	errNoFile    = errors.New("please upload a file")
	errInvalidBP = errors.New("invalid value for bp")
)

// uploadedFile is an accepted multipart file. Close releases it.
type uploadedFile struct {
	service.FileUpload
	file multipart.File
}

func (f *uploadedFile) Close() {
	if f != nil && f.file != nil {
		_ = f.file.Close()
	}
}

// acceptFile reads the "file" part and enforces the type and size limits
// before anything is stored. It returns errNoFile when no file was sent.
func acceptFile(c *gin.Context, maxBytes int64) (*uploadedFile, error) {
	header, err := c.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, errNoFile
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return nil, errTooLarge(maxBytes)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid multipart form: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		return nil, errors.New("invalid file type, only documents, images and archives are allowed")
	}
	if header.Size > maxBytes {
		return nil, errTooLarge(maxBytes)
	}

	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}

	contentType := header.Header.Get("Content-Type")
	return &uploadedFile{
		FileUpload: service.FileUpload{
			Name:   filepath.Base(header.Filename),
			Type:   contentType,
			Size:   header.Size,
			Reader: file,
		},
		file: file,
	}, nil
}

func errTooLarge(maxBytes int64) error {
	if maxBytes >= 1<<20 {
		return fmt.Errorf("file is too large, the limit is %d MB", maxBytes>>20)
	}
	return fmt.Errorf("file is too large, the limit is %d bytes", maxBytes)
}

// limitBody caps the request body slightly above the file limit so the
// remaining form fields still fit.
func limitBody(c *gin.Context, maxBytes int64) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+1<<20)
}

var indexedInputSet = regexp.MustCompile(`^input_sets\[(\d+)\]\[(\w+)\]$`)

// parseInputSets reads input sets either from a JSON encoded "input_sets"
// field or from indexed fields like input_sets[0][bp].
func parseInputSets(c *gin.Context) ([]model.InputSet, error) {
	if raw := c.PostForm("input_sets"); raw != "" {
		var sets []model.InputSet
		if err := json.Unmarshal([]byte(raw), &sets); err != nil {
			return nil, errors.New("invalid input_sets")
		}
		return sets, nil
	}

	var values map[string][]string
	if c.Request.MultipartForm != nil {
		values = c.Request.MultipartForm.Value
	} else {
		values = c.Request.PostForm
	}

	byIndex := map[int]*model.InputSet{}
	for key, vals := range values {
		m := indexedInputSet.FindStringSubmatch(key)
		if m == nil || len(vals) == 0 {
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		set, ok := byIndex[idx]
		if !ok {
			set = &model.InputSet{}
			byIndex[idx] = set
		}
		v := vals[0]
		switch m[2] {
		case "test_type":
			set.TestType = v
		case "bp":
			set.BP = v
		case "material_code":
			set.MaterialCode = v
		case "material_grade":
			set.MaterialGrade = v
		case "material_type":
			set.MaterialType = v
		case "color":
			set.Color = v
		}
	}
	if len(byIndex) == 0 {
		return nil, nil
	}

	indexes := make([]int, 0, len(byIndex))
	for idx := range byIndex {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)
	sets := make([]model.InputSet, 0, len(indexes))
	for _, idx := range indexes {
		sets = append(sets, *byIndex[idx])
	}
	return sets, nil
}
