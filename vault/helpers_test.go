package vault

import (
	"testing"
)

func TestDetectMimeType(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIHDR")
	tests := []struct {
		filename string
		data     []byte
		want     string
	}{
		{"readme.txt", nil, "text/plain"},
		{"index.html", nil, "text/html"},
		{"page.htm", nil, "text/html"},
		{"style.css", nil, "text/css"},
		{"app.js", nil, "application/javascript"},
		{"data.json", nil, "application/json"},
		{"feed.xml", nil, "application/xml"},
		{"paper.pdf", nil, "application/pdf"},
		{"logo.png", nil, "image/png"},
		{"photo.jpg", nil, "image/jpeg"},
		{"photo.jpeg", nil, "image/jpeg"},
		{"anim.gif", nil, "image/gif"},
		{"icon.svg", nil, "image/svg+xml"},
		{"pic.webp", nil, "image/webp"},
		{"video.mp4", nil, "video/mp4"},
		{"song.mp3", nil, "audio/mpeg"},
		{"archive.zip", nil, "application/zip"},
		{"archive.gz", nil, "application/gzip"},
		{"archive.tar", nil, "application/x-tar"},
		{"data.csv", nil, "text/csv"},
		{"notes.md", nil, "text/markdown"},
		// Case insensitivity.
		{"README.TXT", nil, "text/plain"},
		{"Photo.JPG", nil, "image/jpeg"},
		// The extension wins over content.
		{"fake.txt", png, "text/plain"},
		// Unknown extensions are sniffed.
		{"upload.bin", png, "image/png"},
		{"noext", []byte("plain words"), "text/plain; charset=utf-8"},
		{"file.xyz", nil, "text/plain; charset=utf-8"},
		{"blob", []byte{0x00, 0x01, 0x02}, "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got := DetectMimeType(tt.filename, tt.data)
			if got != tt.want {
				t.Errorf("DetectMimeType(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}
