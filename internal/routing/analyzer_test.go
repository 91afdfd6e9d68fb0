package routing

import (
	"testing"

	"github.com/zzenonn/zroute/internal/domain"
)

// TestAnalyzer_Categorize verifies content type detection and category mapping
// from the three detection sources: metadata, filename extension, and sniffing.
func TestAnalyzer_Categorize(t *testing.T) {
	tests := []struct {
		name         string
		content      []byte
		metadata     map[string]string
		wantCategory domain.ContentCategory
	}{
		{
			name:         "explicit content type",
			content:      []byte("irrelevant"),
			metadata:     map[string]string{"content_type": "image/jpeg"},
			wantCategory: domain.CategoryImage,
		},
		{
			name:         "content type with parameters",
			content:      []byte{},
			metadata:     map[string]string{"content_type": "text/plain; charset=utf-8"},
			wantCategory: domain.CategoryDocument,
		},
		{
			name:         "filename extension",
			content:      []byte("not actually an mp4"),
			metadata:     map[string]string{"filename": "clip.mp4"},
			wantCategory: domain.CategoryVideo,
		},
		{
			name:         "sniffed pdf",
			content:      []byte("%PDF-1.4 some document body"),
			metadata:     map[string]string{},
			wantCategory: domain.CategoryDocument,
		},
		{
			name:         "zip archive",
			content:      []byte{},
			metadata:     map[string]string{"content_type": "application/zip"},
			wantCategory: domain.CategoryArchive,
		},
		{
			name:         "audio",
			content:      []byte{},
			metadata:     map[string]string{"content_type": "audio/mpeg"},
			wantCategory: domain.CategoryAudio,
		},
		{
			name:         "unknown type falls back to binary",
			content:      []byte{0x00, 0x01, 0x02, 0x03},
			metadata:     map[string]string{"content_type": "application/octet-stream"},
			wantCategory: domain.CategoryBinary,
		},
		{
			name:         "empty everything is binary",
			content:      []byte{},
			metadata:     map[string]string{},
			wantCategory: domain.CategoryBinary,
		},
	}

	analyzer := NewAnalyzer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc := analyzer.Analyze(tt.content, tt.metadata)
			if desc.Category != tt.wantCategory {
				t.Errorf("Analyze() category = %s, want %s", desc.Category, tt.wantCategory)
			}
		})
	}
}

// TestAnalyzer_Size verifies that the size metadata override wins over the
// byte slice length and that garbage overrides are ignored.
func TestAnalyzer_Size(t *testing.T) {
	tests := []struct {
		name     string
		content  []byte
		metadata map[string]string
		wantSize int64
	}{
		{
			name:     "size from content length",
			content:  []byte("12345"),
			metadata: map[string]string{},
			wantSize: 5,
		},
		{
			name:     "size from metadata",
			content:  []byte("12345"),
			metadata: map[string]string{"size": "2097152"},
			wantSize: 2097152,
		},
		{
			name:     "non-numeric size ignored",
			content:  []byte("12345"),
			metadata: map[string]string{"size": "lots"},
			wantSize: 5,
		},
		{
			name:     "negative size ignored",
			content:  []byte("12345"),
			metadata: map[string]string{"size": "-1"},
			wantSize: 5,
		},
	}

	analyzer := NewAnalyzer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc := analyzer.Analyze(tt.content, tt.metadata)
			if desc.SizeBytes != tt.wantSize {
				t.Errorf("Analyze() size = %d, want %d", desc.SizeBytes, tt.wantSize)
			}
		})
	}
}

// TestAnalyzer_FileName verifies the filename is carried into the descriptor.
func TestAnalyzer_FileName(t *testing.T) {
	analyzer := NewAnalyzer()
	desc := analyzer.Analyze([]byte("x"), map[string]string{"filename": "report.pdf"})

	if desc.FileName != "report.pdf" {
		t.Errorf("Analyze() filename = %q, want %q", desc.FileName, "report.pdf")
	}
	if desc.ContentType != "application/pdf" {
		t.Errorf("Analyze() content type = %q, want %q", desc.ContentType, "application/pdf")
	}
}
