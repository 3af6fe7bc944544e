package tool

import (
	"strings"
	"testing"
)

func TestFormatFileSize(t *testing.T) {
	cases := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{1024 * 1024, "1 MB"},
		{25 * 1024 * 1024, "25 MB"},
		{3 * 1024 * 1024 * 1024, "3 GB"},
	}
	for _, tc := range cases {
		if got := FormatFileSize(tc.bytes); got != tc.want {
			t.Errorf("FormatFileSize(%d) = %q, want %q", tc.bytes, got, tc.want)
		}
	}
}

func TestFileIcon(t *testing.T) {
	if FileIcon("report.pdf") != "📄" {
		t.Error("pdf should map to the document icon")
	}
	if FileIcon("photo.JPG") != "🖼️" {
		t.Error("extension match must be case-insensitive")
	}
	if FileIcon("mystery.xyz") != "📁" {
		t.Error("unknown extension should fall back to the generic icon")
	}
}

func TestStagedBlobName(t *testing.T) {
	name := StagedBlobName("My Photo.PNG")
	if !strings.HasSuffix(name, ".png") {
		t.Errorf("Expected lowercased extension, got %q", name)
	}
	if strings.Contains(name, "My Photo") {
		t.Error("Staged name must not contain the client-supplied name")
	}
	if name == StagedBlobName("My Photo.PNG") {
		t.Error("Staged names must be unique per call")
	}
}

func TestGenerateShareToken(t *testing.T) {
	token := GenerateShareToken()
	if len(token) != 32 {
		t.Errorf("Expected 32 hex chars, got %d", len(token))
	}
	if token == GenerateShareToken() {
		t.Error("Tokens must be unique")
	}
}
