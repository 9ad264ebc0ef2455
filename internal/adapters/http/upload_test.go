package web

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"
)

// makeUpload builds a real multipart.File/FileHeader pair the way the HTTP
// stack would hand them to a handler.
func makeUpload(t *testing.T, filename string, content []byte) (multipart.File, *multipart.FileHeader) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("write file: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest("POST", "/notices", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	file, header, err := req.FormFile("image")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	t.Cleanup(func() { file.Close() })
	return file, header
}

// TestUploadFilename tests the generated-name shape and extension handling.
func TestUploadFilename(t *testing.T) {
	origNow := timeNow
	timeNow = func() time.Time { return time.Date(2026, 8, 1, 9, 30, 0, 0, time.UTC) }
	t.Cleanup(func() { timeNow = origNow })

	name := uploadFilename(".png")
	if !strings.HasPrefix(name, "image-") {
		t.Errorf("expected image- prefix, got %q", name)
	}
	if !strings.HasSuffix(name, ".png") {
		t.Errorf("expected .png suffix, got %q", name)
	}
	if name == uploadFilename(".png") {
		t.Error("expected distinct names for the same instant")
	}
}

// TestSaveUploadedImage_Accepts tests that a valid PNG is written to disk.
func TestSaveUploadedImage_Accepts(t *testing.T) {
	origDir := uploadDir
	uploadDir = t.TempDir()
	t.Cleanup(func() { uploadDir = origDir })

	content := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)
	file, header := makeUpload(t, "photo.png", content)

	name, err := saveUploadedImage(file, header)
	if err != nil {
		t.Fatalf("expected accept, got %v", err)
	}
	data, err := os.ReadFile(uploadDir + "/" + name)
	if err != nil {
		t.Fatalf("stored file unreadable: %v", err)
	}
	if !bytes.Equal(data, content) {
		t.Error("stored bytes differ from upload")
	}
}

// TestSaveUploadedImage_RejectsExtension tests the extension allow-list.
func TestSaveUploadedImage_RejectsExtension(t *testing.T) {
	origDir := uploadDir
	uploadDir = t.TempDir()
	t.Cleanup(func() { uploadDir = origDir })

	for _, filename := range []string{"notes.txt", "script.sh", "archive.png.exe", "noext"} {
		file, header := makeUpload(t, filename, []byte("\x89PNG\r\n\x1a\n"))
		_, err := saveUploadedImage(file, header)
		var invalid *invalidUploadError
		if !errors.As(err, &invalid) {
			t.Errorf("%s: expected invalid upload error, got %v", filename, err)
		}
	}
	entries, _ := os.ReadDir(uploadDir)
	if len(entries) != 0 {
		t.Errorf("expected no stored files, got %d", len(entries))
	}
}

// TestSaveUploadedImage_RejectsContent tests that sniffing catches a renamed
// non-image even when the extension is allowed.
func TestSaveUploadedImage_RejectsContent(t *testing.T) {
	origDir := uploadDir
	uploadDir = t.TempDir()
	t.Cleanup(func() { uploadDir = origDir })

	file, header := makeUpload(t, "disguised.png", []byte("#!/bin/sh\necho pwned\n"))
	_, err := saveUploadedImage(file, header)
	var invalid *invalidUploadError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected invalid upload error, got %v", err)
	}
	entries, _ := os.ReadDir(uploadDir)
	if len(entries) != 0 {
		t.Errorf("expected no stored files, got %d", len(entries))
	}
}

// TestSaveUploadedImage_RejectsOversize tests the size cap.
func TestSaveUploadedImage_RejectsOversize(t *testing.T) {
	origDir := uploadDir
	uploadDir = t.TempDir()
	t.Cleanup(func() { uploadDir = origDir })

	origMax := MaxUploadBytes
	MaxUploadBytes = 128
	t.Cleanup(func() { MaxUploadBytes = origMax })

	content := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 512)...)
	file, header := makeUpload(t, "big.png", content)
	_, err := saveUploadedImage(file, header)
	var invalid *invalidUploadError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected invalid upload error, got %v", err)
	}
}

// TestSaveUploadedImage_GIF tests the animated-format path through the sniffer.
func TestSaveUploadedImage_GIF(t *testing.T) {
	origDir := uploadDir
	uploadDir = t.TempDir()
	t.Cleanup(func() { uploadDir = origDir })

	content := append([]byte("GIF89a"), make([]byte, 16)...)
	file, header := makeUpload(t, "anim.gif", content)
	name, err := saveUploadedImage(file, header)
	if err != nil {
		t.Fatalf("expected accept, got %v", err)
	}
	if !strings.HasSuffix(name, ".gif") {
		t.Errorf("expected .gif suffix, got %q", name)
	}
}
