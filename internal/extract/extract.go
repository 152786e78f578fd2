package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// Format names a supported resume encoding.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatText Format = "text"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeText = "text/plain"
	mimeZip  = "application/zip"

	docxBody = "word/document.xml"
	// maxDocXML caps the decompressed document body.
	maxDocXML = 16 << 20
)

var (
	// ErrUnsupported is returned for payloads that are not PDF, DOCX or UTF-8 text.
	ErrUnsupported = errors.New("unsupported document type")
	// ErrUnreadable is returned when a supported document cannot be parsed.
	ErrUnreadable = errors.New("unreadable document")
	// ErrNoText is returned for documents without extractable text, such as scanned PDFs.
	ErrNoText = errors.New("document contains no text")
)

// Document is the text recovered from an uploaded resume.
type Document struct {
	Format Format
	Text   string
	// Pages is the PDF page count, or zero for other formats.
	Pages int
}

// Extract detects the format of data and returns its normalized text.
// mimeType and fileName are hints; the payload itself has the final say.
func Extract(ctx context.Context, data []byte, mimeType, fileName string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	format, detected := detectFormat(data, mimeType, fileName)
	if format == "" {
		return Document{}, fmt.Errorf("%w: %s", ErrUnsupported, detected)
	}

	doc := Document{Format: format}
	var err error
	switch format {
	case FormatPDF:
		doc.Text, doc.Pages, err = readPDF(ctx, data)
	case FormatDOCX:
		doc.Text, err = readDOCX(data)
	case FormatText:
		if !utf8.Valid(data) {
			return Document{}, fmt.Errorf("%w: text is not valid utf-8", ErrUnsupported)
		}
		doc.Text = string(data)
	}
	if err != nil {
		return Document{}, err
	}

	doc.Text = normalizeWhitespace(doc.Text)
	if doc.Text == "" {
		return Document{}, ErrNoText
	}
	return doc, nil
}

// readPDF concatenates the plain text of every page. The pdf package panics on
// some malformed inputs, so a panic is reported as ErrUnreadable.
func readPDF(ctx context.Context, data []byte) (text string, pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: pdf: %v", ErrUnreadable, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("%w: pdf: %v", ErrUnreadable, err)
	}
	pages = reader.NumPage()
	var sb strings.Builder
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return "", 0, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", 0, fmt.Errorf("%w: pdf page %d: %v", ErrUnreadable, i, err)
		}
		sb.WriteString(content)
		sb.WriteString("\n\n")
	}
	return sb.String(), pages, nil
}

// readDOCX streams word/document.xml, emitting paragraphs and breaks as newlines.
func readDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: docx: %v", ErrUnreadable, err)
	}
	body := findZipEntry(zr, docxBody)
	if body == nil {
		return "", fmt.Errorf("%w: docx: %s missing", ErrUnreadable, docxBody)
	}
	rc, err := body.Open()
	if err != nil {
		return "", fmt.Errorf("%w: docx: %v", ErrUnreadable, err)
	}
	defer rc.Close()

	dec := xml.NewDecoder(io.LimitReader(rc, maxDocXML))
	var sb strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: docx: %v", ErrUnreadable, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteByte(' ')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p", "br":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}

// detectFormat sniffs data when the declared type is missing or generic and
// tells DOCX apart from other zip archives by its document body.
func detectFormat(data []byte, mimeType, fileName string) (Format, string) {
	declared := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	if declared == "" || declared == "application/octet-stream" {
		declared = strings.Split(http.DetectContentType(data), ";")[0]
	}
	ext := strings.ToLower(filepath.Ext(fileName))

	switch {
	case bytes.HasPrefix(data, []byte("%PDF")):
		return FormatPDF, mimePDF
	case declared == mimePDF:
		// Declared PDF without the magic bytes; let the parser report it.
		return FormatPDF, mimePDF
	case declared == mimeDOCX, declared == mimeZip:
		if isDOCX(data) {
			return FormatDOCX, mimeDOCX
		}
		return "", declared
	case declared == mimeText, strings.HasPrefix(declared, "text/") && (ext == ".txt" || ext == ".md"):
		return FormatText, mimeText
	}
	return "", declared
}

func isDOCX(data []byte) bool {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	return findZipEntry(zr, docxBody) != nil
}

func findZipEntry(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == name {
			return f
		}
	}
	return nil
}

// normalizeWhitespace collapses runs of spaces and keeps at most one blank line between blocks.
func normalizeWhitespace(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
