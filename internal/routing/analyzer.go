// Package routing implements the content-aware data router: content
// analysis, backend metrics tracking, rule matching, backend scoring,
// and the router that composes them.
package routing

import (
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/zzenonn/zroute/internal/domain"
)

// Analyzer classifies content into a ContentDescriptor. Classification is
// best-effort: garbage input maps to the binary category, never an error.
type Analyzer struct{}

// NewAnalyzer creates a new Analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze builds a descriptor from raw bytes and caller-supplied metadata.
// The content type comes from metadata when present, then the filename
// extension, then sniffing the first bytes.
func (a *Analyzer) Analyze(content []byte, metadata map[string]string) domain.ContentDescriptor {
	fileName := metadata["filename"]

	contentType := metadata["content_type"]
	if contentType == "" && fileName != "" {
		contentType = mime.TypeByExtension(filepath.Ext(fileName))
	}
	if contentType == "" && len(content) > 0 {
		contentType = http.DetectContentType(content)
	}

	size := int64(len(content))
	if raw, ok := metadata["size"]; ok {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil && parsed >= 0 {
			size = parsed
		}
	}

	return domain.ContentDescriptor{
		SizeBytes:   size,
		Category:    categorize(contentType),
		ContentType: contentType,
		FileName:    fileName,
		Metadata:    metadata,
	}
}

// categorize maps a MIME type to a content category.
func categorize(contentType string) domain.ContentCategory {
	// Strip parameters like "; charset=utf-8"
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = contentType[:idx]
	}
	contentType = strings.TrimSpace(strings.ToLower(contentType))

	switch {
	case strings.HasPrefix(contentType, "image/"):
		return domain.CategoryImage
	case strings.HasPrefix(contentType, "video/"):
		return domain.CategoryVideo
	case strings.HasPrefix(contentType, "audio/"):
		return domain.CategoryAudio
	case strings.HasPrefix(contentType, "text/"), contentType == "application/json",
		contentType == "application/pdf", contentType == "application/xml":
		return domain.CategoryDocument
	case contentType == "application/zip", contentType == "application/gzip",
		contentType == "application/x-tar", contentType == "application/x-7z-compressed":
		return domain.CategoryArchive
	default:
		return domain.CategoryBinary
	}
}
