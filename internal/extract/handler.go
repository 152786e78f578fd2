package extract

import (
	"errors"
	"io"
	"net/http"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mockmate/internal/selector"
	"mockmate/internal/shared/server/respond"
	"mockmate/internal/shared/util"
)

// DefaultMaxBytes caps uploaded resumes.
const DefaultMaxBytes = 5 << 20

type Handler struct {
	maxBytes int64
}

type extractResponse struct {
	Format Format   `json:"format"`
	Text   string   `json:"text"`
	Topics []string `json:"topics"`
	Chars  int      `json:"chars"`
	Pages  int      `json:"pages,omitempty"`
}

func NewHandler(maxBytes int64) *Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Handler{maxBytes: maxBytes}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/resumes/extract", h.extract)
}

func (h *Handler) extract(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+1024)
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "Resume exceeds upload limit", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "file is required", nil)
		return
	}
	if fh.Size > h.maxBytes {
		respond.Error(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "Resume exceeds upload limit", nil)
		return
	}

	name, err := util.SanitizeFileName(fh.Filename)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid file name", nil)
		return
	}

	f, err := fh.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "unable to read file", nil)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "unable to read file", nil)
		return
	}

	doc, err := Extract(c.Request.Context(), data, fh.Header.Get("Content-Type"), name)
	switch {
	case err == nil:
	case errors.Is(err, ErrUnsupported):
		respond.Error(c, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", "Only PDF, DOCX and plain text resumes are supported", nil)
		return
	case errors.Is(err, ErrNoText):
		respond.Error(c, http.StatusUnprocessableEntity, "NO_TEXT", "Resume has no selectable text", nil)
		return
	default:
		respond.Logger(c).Warn("resume extraction failed", zap.String("file_name", name), zap.Error(err))
		respond.Error(c, http.StatusUnprocessableEntity, "EXTRACTION_FAILED", "Could not read text from resume", nil)
		return
	}

	topics := selector.DetectTopics(doc.Text)
	if topics == nil {
		topics = []string{}
	}
	respond.OK(c, extractResponse{
		Format: doc.Format,
		Text:   doc.Text,
		Topics: topics,
		Chars:  utf8.RuneCountInString(doc.Text),
		Pages:  doc.Pages,
	})
}
