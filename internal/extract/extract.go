// Package extract turns uploaded resume files into raw text. Failures are
// reported as ErrExtractionFailed so an unreadable file is never mistaken for
// an empty resume.
package extract

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	apperrors "github.com/Adithya-Monish-Kumar-K/resume-screener/pkg/errors"
)

// DefaultMaxBytes bounds the size of a single resume file.
const DefaultMaxBytes = 4 << 20

// Extractor returns the raw text of the document at path.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// Func adapts an ordinary function to Extractor.
type Func func(ctx context.Context, path string) (string, error)

func (f Func) Extract(ctx context.Context, path string) (string, error) {
	return f(ctx, path)
}

var plainText = map[string]bool{
	"":      true,
	".txt":  true,
	".text": true,
	".md":   true,
}

// FileExtractor reads plain-text resumes from disk. Binary formats such as
// PDF or DOCX are rejected.
type FileExtractor struct {
	// MaxBytes caps the file size; zero means DefaultMaxBytes.
	MaxBytes int64
}

func (e FileExtractor) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", apperrors.Newf(apperrors.ErrCancelled, "extracting %s: %v", path, err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if !plainText[ext] {
		return "", apperrors.Newf(apperrors.ErrExtractionFailed, "%s: unsupported format %q", path, ext)
	}

	limit := e.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", apperrors.Newf(apperrors.ErrExtractionFailed, "%s: %v", path, err)
	}
	if info.IsDir() {
		return "", apperrors.Newf(apperrors.ErrExtractionFailed, "%s: is a directory", path)
	}
	if info.Size() > limit {
		return "", apperrors.Newf(apperrors.ErrExtractionFailed, "%s: %d bytes exceeds limit of %d", path, info.Size(), limit)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", apperrors.Newf(apperrors.ErrExtractionFailed, "%s: %v", path, err)
	}
	if !utf8.Valid(data) {
		return "", apperrors.Newf(apperrors.ErrExtractionFailed, "%s: not valid UTF-8 text", path)
	}
	return strings.TrimPrefix(string(data), "\ufeff"), nil
}

// DisplayName is the file name without directory or extension.
func DisplayName(path string) string {
	base := filepath.Base(path)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
