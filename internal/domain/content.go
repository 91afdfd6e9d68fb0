package domain

import "fmt"

// ContentCategory classifies content for rule matching.
type ContentCategory string

const (
	CategoryImage    ContentCategory = "image"
	CategoryVideo    ContentCategory = "video"
	CategoryAudio    ContentCategory = "audio"
	CategoryDocument ContentCategory = "document"
	CategoryArchive  ContentCategory = "archive"
	CategoryBinary   ContentCategory = "binary"
)

// ParseContentCategory validates a category string at the boundary.
func ParseContentCategory(s string) (ContentCategory, error) {
	switch ContentCategory(s) {
	case CategoryImage, CategoryVideo, CategoryAudio, CategoryDocument, CategoryArchive, CategoryBinary:
		return ContentCategory(s), nil
	}
	return "", fmt.Errorf("unknown content category: %q", s)
}

// ContentDescriptor is the result of content analysis. It is derived,
// immutable once computed, and never persisted.
type ContentDescriptor struct {
	SizeBytes   int64             `json:"size_bytes"`
	Category    ContentCategory   `json:"category"`
	ContentType string            `json:"content_type"`
	FileName    string            `json:"file_name,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// ContentItem describes one stored object returned by a backend listing.
type ContentItem struct {
	ID        string            `json:"id"`
	SizeBytes int64             `json:"size_bytes"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// ContentFilter narrows a backend listing. Type "all" matches everything,
// "prefix" matches ids beginning with Prefix.
type ContentFilter struct {
	Type   string            `json:"type" dynamodbav:"type"`
	Prefix string            `json:"prefix,omitempty" dynamodbav:"prefix"`
	Custom map[string]string `json:"custom,omitempty" dynamodbav:"custom"`
}

const (
	FilterAll    = "all"
	FilterPrefix = "prefix"
)

// Matches reports whether a content id passes the filter.
func (f ContentFilter) Matches(id string) bool {
	switch f.Type {
	case FilterPrefix:
		return len(id) >= len(f.Prefix) && id[:len(f.Prefix)] == f.Prefix
	default:
		return true
	}
}

// GeoLocation is a client position used for geo-aware scoring.
type GeoLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
