package web

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// MaxUploadBytes caps the size of an uploaded image. Tests can lower this.
var MaxUploadBytes int64 = 10 << 20 // 10 MiB

// maxFormOverheadBytes allows for multipart boundaries and text fields on top
// of the image itself.
const maxFormOverheadBytes = 1 << 20

// sniffBytes is how much of the file is read for content-type detection.
const sniffBytes = 3072

// allowedImageExts is the extension allow-list for uploaded images.
var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// allowedImageMIMEs is the sniffed content-type allow-list. The extension
// check alone would accept a renamed executable.
var allowedImageMIMEs = []string{"image/jpeg", "image/png", "image/gif"}

// invalidUploadError marks a client-side upload rejection (HTTP 400), as
// opposed to a filesystem fault (HTTP 500).
type invalidUploadError struct {
	msg string
}

func (e *invalidUploadError) Error() string {
	return e.msg
}

// uploadFilename generates a collision-resistant stored filename. The client
// filename is never reused for storage; only its extension survives.
func uploadFilename(ext string) string {
	return fmt.Sprintf("image-%d-%s%s", timeNow().UnixMilli(), uuid.NewString()[:8], ext)
}

// saveUploadedImage validates an uploaded file and writes it to the upload
// directory under a generated name. Returns the stored filename.
// PRE: file is positioned at the start
// POST: on success, exactly one new file exists under uploadDir; on any
// rejection or fault, no file is left behind
func saveUploadedImage(file multipart.File, header *multipart.FileHeader) (string, error) {
	if header.Size > MaxUploadBytes {
		return "", &invalidUploadError{fmt.Sprintf("image must be under %d MiB", MaxUploadBytes>>20)}
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedImageExts[ext] {
		return "", &invalidUploadError{"only jpg, jpeg, png and gif images are allowed"}
	}

	// Sniff the leading bytes: the extension is client-controlled, the
	// content is what actually gets served back.
	buf := make([]byte, sniffBytes)
	n, err := file.Read(buf)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("sniff upload: %w", err)
	}
	detected := mimetype.Detect(buf[:n])
	if !isAllowedImageMIME(detected) {
		return "", &invalidUploadError{"file content is not an allowed image type"}
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}

	if err := os.MkdirAll(uploadDir, 0o750); err != nil {
		return "", fmt.Errorf("mkdir uploads: %w", err)
	}

	name := uploadFilename(ext)
	fullPath := filepath.Join(uploadDir, name)
	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("write upload: %w", err)
	}
	return name, nil
}

// isAllowedImageMIME checks the detected type against the raster allow-list.
func isAllowedImageMIME(m *mimetype.MIME) bool {
	for _, allowed := range allowedImageMIMEs {
		if m.Is(allowed) {
			return true
		}
	}
	return false
}
