package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// FileStorage stores uploaded product media and returns a public URL for it.
type FileStorage interface {
	Upload(ctx context.Context, file io.Reader, contentType, folder string) (string, error)
	Delete(ctx context.Context, fileURL string) error
}

var extensions = map[string]string{
	"image/jpeg":               ".jpg",
	"image/jpg":                ".jpg",
	"image/png":                ".png",
	"image/gif":                ".gif",
	"image/webp":               ".webp",
	"application/pdf":          ".pdf",
	"text/plain":               ".txt",
	"application/zip":          ".zip",
	"application/octet-stream": ".bin",
}

// objectName builds folder/<uuid>-<timestamp><ext>.
func objectName(folder, contentType string) string {
	ext, ok := extensions[contentType]
	if !ok {
		ext = ".bin"
	}
	return fmt.Sprintf("%s/%s-%s%s", folder, uuid.New().String(), time.Now().Format("20060102150405"), ext)
}
