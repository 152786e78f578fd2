package extract

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
)

func newExtractRouter(maxBytes int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(maxBytes).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func multipartRequest(t *testing.T, field, name, contentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if field != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+name+`"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/resumes/extract", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestExtractHandlerReturnsTextAndTopics(t *testing.T) {
	r := newExtractRouter(0)
	req := multipartRequest(t, "file", "cv.txt", "text/plain", []byte("Built React dashboards and a Python API on AWS"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp extractResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Text != "Built React dashboards and a Python API on AWS" {
		t.Fatalf("unexpected text %q", resp.Text)
	}
	if resp.Format != FormatText || resp.Chars != len(resp.Text) {
		t.Fatalf("unexpected format %q chars %d", resp.Format, resp.Chars)
	}
	want := []string{"react", "python", "cloud", "backend"}
	if len(resp.Topics) != len(want) {
		t.Fatalf("expected topics %v, got %v", want, resp.Topics)
	}
	for i := range want {
		if resp.Topics[i] != want[i] {
			t.Fatalf("expected topics %v, got %v", want, resp.Topics)
		}
	}
}

func TestExtractHandlerMissingFile(t *testing.T) {
	r := newExtractRouter(0)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, multipartRequest(t, "", "", "", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestExtractHandlerUnsupportedType(t *testing.T) {
	r := newExtractRouter(0)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, multipartRequest(t, "file", "photo.png", "image/png", []byte("\x89PNG\r\n\x1a\n")))
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", w.Code)
	}
}

func TestExtractHandlerTooLarge(t *testing.T) {
	r := newExtractRouter(16)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, multipartRequest(t, "file", "cv.txt", "text/plain", bytes.Repeat([]byte("a"), 64)))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", w.Code)
	}
}

func TestExtractHandlerRejectsDottedFileName(t *testing.T) {
	r := newExtractRouter(0)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, multipartRequest(t, "file", "cv..txt", "text/plain", []byte("hello")))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestExtractHandlerDocxWithoutText(t *testing.T) {
	r := newExtractRouter(0)
	data := buildDocx(t, `<w:p/>`)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, multipartRequest(t, "file", "blank.docx", mimeDOCX, data))
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte(`"NO_TEXT"`)) {
		t.Fatalf("expected NO_TEXT code, got %s", w.Body.String())
	}
}
