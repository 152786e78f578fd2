package util

import (
	"errors"
	"path/filepath"
	"strings"
	"unicode"
)

const maxFileNameLen = 128

// ErrInvalidFileName is returned for names that cannot be made safe.
var ErrInvalidFileName = errors.New("invalid file name")

// SanitizeFileName flattens an uploaded resume name for logs and MIME sniffing.
// Separators become underscores, control characters are dropped and long names
// are shortened keeping the extension.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrInvalidFileName
	}
	s := strings.Map(func(r rune) rune {
		switch {
		case r == '/', r == '\\':
			return '_'
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, strings.TrimSpace(name))
	s = strings.TrimSpace(s)
	if s == "" || strings.Trim(s, "._") == "" {
		return "", ErrInvalidFileName
	}
	if len([]rune(s)) > maxFileNameLen {
		ext := filepath.Ext(s)
		if len([]rune(ext)) > 16 {
			ext = ""
		}
		keep := []rune(strings.TrimSuffix(s, ext))[:maxFileNameLen-len([]rune(ext))]
		s = string(keep) + ext
	}
	return s, nil
}
