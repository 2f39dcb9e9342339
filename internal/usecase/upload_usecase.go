package usecase

import (
	"context"
	"io"

	"marketplace/internal/infrastructure/storage"
	"marketplace/pkg/errors"
)

const MaxUploadBytes = 50 << 20

var allowedUploadTypes = map[string]bool{
	"image/jpeg":               true,
	"image/png":                true,
	"image/gif":                true,
	"image/webp":               true,
	"application/pdf":          true,
	"text/plain":               true,
	"application/zip":          true,
	"application/octet-stream": true,
}

type UploadUseCase struct {
	files storage.FileStorage
}

func NewUploadUseCase(files storage.FileStorage) *UploadUseCase {
	return &UploadUseCase{
		files: files,
	}
}

type UploadResult struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

func (uc *UploadUseCase) Upload(ctx context.Context, ownerID string, file io.Reader, size int64, contentType string) (*UploadResult, error) {
	if size > MaxUploadBytes {
		return nil, errors.BadRequest("File exceeds the 50MB limit", nil)
	}
	if !allowedUploadTypes[contentType] {
		return nil, errors.BadRequest("Unsupported file type: "+contentType, nil)
	}

	url, err := uc.files.Upload(ctx, io.LimitReader(file, MaxUploadBytes), contentType, ownerID)
	if err != nil {
		return nil, errors.Internal("Failed to store file", err)
	}

	return &UploadResult{URL: url, ContentType: contentType, Size: size}, nil
}
