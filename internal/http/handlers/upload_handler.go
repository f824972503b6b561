package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/academic-services-backend/internal/http/handlers/common"
	"github.com/ignatzorin/academic-services-backend/internal/pkg/apperror"
	"github.com/ignatzorin/academic-services-backend/internal/storage"
)

// UploadHandler принимает файлы чеков и результатов работ.
type UploadHandler struct {
	storage *storage.FileStorage
}

// NewUploadHandler создаёт новый хэндлер.
func NewUploadHandler(storage *storage.FileStorage) *UploadHandler {
	return &UploadHandler{storage: storage}
}

// Upload обрабатывает POST /uploads (multipart, поле file).
func (h *UploadHandler) Upload(c *gin.Context) {
	caller, err := common.ActiveCaller(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		common.RespondAppError(c, apperror.New(apperror.ErrCodeValidation, "поле file обязательно"))
		return
	}

	src, err := file.Open()
	if err != nil {
		common.RespondAppError(c, apperror.Wrap(err, apperror.ErrCodeBadRequest, "не удалось прочитать файл"))
		return
	}
	defer src.Close()

	stored, err := h.storage.Save(c.Request.Context(), caller.UserID, file.Filename, src)
	if err != nil {
		common.RespondAppError(c, mapStorageErr(err))
		return
	}

	c.JSON(http.StatusCreated, stored)
}

func mapStorageErr(err error) error {
	switch {
	case errors.Is(err, storage.ErrEmptyFile),
		errors.Is(err, storage.ErrUnsupportedType),
		errors.Is(err, storage.ErrFileTooLarge):
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	default:
		return apperror.Dependency(err, "файловое хранилище недоступно")
	}
}
