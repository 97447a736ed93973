package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"parampara-foods/apperror"
	"parampara-foods/storage"
	"parampara-foods/utils"
)

type UploadController struct {
	store *storage.ImageStore
}

func NewUploadController(store *storage.ImageStore) *UploadController {
	return &UploadController{store: store}
}

// storageError maps image store errors onto the API error kinds.
func storageError(err error, msg string) error {
	switch {
	case errors.Is(err, storage.ErrFileNotFound):
		return apperror.NotFound("File not found")
	case errors.Is(err, storage.ErrInvalidType),
		errors.Is(err, storage.ErrInvalidExtension),
		errors.Is(err, storage.ErrNotImage),
		errors.Is(err, storage.ErrInvalidFileName),
		errors.Is(err, storage.ErrEmptyFile),
		errors.Is(err, storage.ErrTooLarge):
		return apperror.Validation(capitalize(err.Error()))
	}
	return apperror.Wrap(err, msg)
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

// Upload handles POST /images/upload?type= with a multipart "file" field.
func (ctl *UploadController) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "No file uploaded")
		return
	}

	f, err := fh.Open()
	if err != nil {
		respondError(c, apperror.Wrap(err, "Failed to read upload"))
		return
	}
	defer f.Close()

	url, err := ctl.store.Save(c.Query("type"), fh.Filename, fh.Size, f)
	if err != nil {
		respondError(c, storageError(err, "Failed to store image"))
		return
	}
	utils.Zlog.Info("image uploaded", zap.String("url", url), zap.Int64("size", fh.Size))
	c.JSON(http.StatusOK, gin.H{"image_url": url})
}

func (ctl *UploadController) List(c *gin.Context) {
	urls, err := ctl.store.List(c.Param("type"))
	if err != nil {
		respondError(c, storageError(err, "Failed to list images"))
		return
	}
	c.JSON(http.StatusOK, urls)
}

func (ctl *UploadController) Delete(c *gin.Context) {
	if err := ctl.store.Delete(c.Param("type"), c.Param("file")); err != nil {
		respondError(c, storageError(err, "Failed to delete image"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Image deleted successfully"})
}
