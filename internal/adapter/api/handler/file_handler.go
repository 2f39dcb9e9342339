package handler

import (
	"mime"

	"github.com/labstack/echo/v4"

	"marketplace/internal/usecase"
	"marketplace/pkg/errors"
	"marketplace/pkg/logger"
	"marketplace/pkg/response"
)

type FileHandler struct {
	uploadUseCase *usecase.UploadUseCase
}

var fileHandler *FileHandler

func NewFileHandler(uploadUseCase *usecase.UploadUseCase) *FileHandler {
	return &FileHandler{
		uploadUseCase: uploadUseCase,
	}
}

func SetupFileHandler(uploadUseCase *usecase.UploadUseCase) {
	fileHandler = NewFileHandler(uploadUseCase)
}

func GetFileHandler() *FileHandler {
	return fileHandler
}

func (h *FileHandler) UploadFile(c echo.Context) error {
	user, err := principal(c)
	if err != nil {
		return response.Error(c, err)
	}

	file, err := c.FormFile("file")
	if err != nil {
		return response.Error(c, errors.BadRequest("Missing or invalid file", err))
	}

	contentType := file.Header.Get(echo.HeaderContentType)
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = mediaType
	}
	logger.Debug("upload %s (%d bytes, %s) from %s", file.Filename, file.Size, contentType, user.ID)

	src, err := file.Open()
	if err != nil {
		return response.Error(c, errors.Internal("Unable to read file", err))
	}
	defer src.Close()

	result, err := h.uploadUseCase.Upload(c.Request().Context(), user.ID, src, file.Size, contentType)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, result)
}
