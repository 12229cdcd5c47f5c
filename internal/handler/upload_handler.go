package handler

import (
	"net/http"
	"time"

	"upload-registry/internal/domain/upload"
	"upload-registry/internal/services"
	"upload-registry/internal/transport/httpdto"
	"upload-registry/pkg/logger"

	"github.com/gin-gonic/gin"
)

type UploadHandler struct {
	service *services.UploadService
	cleanup *services.CleanupService
	logger  *logger.Logger
}

func NewUploadHandler(service *services.UploadService, cleanup *services.CleanupService, l *logger.Logger) *UploadHandler {
	if l == nil {
		l = logger.Nop()
	}
	return &UploadHandler{service: service, cleanup: cleanup, logger: l.Named("http")}
}

func (h *UploadHandler) Check(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req httpdto.CheckUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	found, err := h.service.CheckExists(c.Request.Context(), services.Lookup{
		UploadID: req.UploadID,
		UserID:   userID,
		FileID:   req.FileID,
		FileName: req.FileName,
		FileSize: req.FileSize,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	resp := httpdto.CheckUploadResponse{Exists: found != nil}
	if found != nil {
		dto := httpdto.ToUploadDTO(*found)
		resp.Upload = &dto
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(resp))
}

func (h *UploadHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req httpdto.CreateUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	params := req.Params(userID)
	if params.ObjectKey == "" {
		params.ObjectKey = services.BuildObjectKey(userID, params.FileName)
	}
	created, err := h.service.AddEntry(c.Request.Context(), params)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.ToUploadDTO(created)))
}

func (h *UploadHandler) GetByID(c *gin.Context) {
	item, ok := h.ownedUpload(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ToUploadDTO(item)))
}

func (h *UploadHandler) Update(c *gin.Context) {
	item, ok := h.ownedUpload(c)
	if !ok {
		return
	}
	var req httpdto.UpdateUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	updated, err := h.service.UpdateEntry(c.Request.Context(), item, req.Params())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ToUploadDTO(updated)))
}

func (h *UploadHandler) Delete(c *gin.Context) {
	item, ok := h.ownedUpload(c)
	if !ok {
		return
	}
	if err := h.service.RemoveEntry(c.Request.Context(), item); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

func (h *UploadHandler) Cleanup(c *gin.Context) {
	item, ok := h.ownedUpload(c)
	if !ok {
		return
	}
	if err := h.cleanup.Cleanup(c.Request.Context(), item); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

func (h *UploadHandler) GetByResumableID(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	item, err := h.service.FindByResumableID(c.Request.Context(), userID, c.Param("resumable_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if item == nil {
		c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("upload not found", "NOT_FOUND"))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ToUploadDTO(*item)))
}

func (h *UploadHandler) ListStale(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req httpdto.ListStaleUploadsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid older_than_sec", "INVALID_REQUEST"))
		return
	}
	cutoff := time.Now().Add(-time.Duration(req.OlderThanSec) * time.Second)
	items, err := h.service.OlderThan(c.Request.Context(), cutoff)
	if err != nil {
		h.fail(c, err)
		return
	}
	owned := make([]upload.Upload, 0, len(items))
	for _, u := range items {
		if u.UserID == userID {
			owned = append(owned, u)
		}
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ListUploadsResponse{
		Uploads: httpdto.ToUploadDTOs(owned),
		Total:   len(owned),
	}))
}

// ownedUpload loads the :id record and answers 404 when it is missing or
// belongs to someone else.
func (h *UploadHandler) ownedUpload(c *gin.Context) (upload.Upload, bool) {
	userID, ok := currentUser(c)
	if !ok {
		return upload.Upload{}, false
	}
	found, err := h.service.CheckExists(c.Request.Context(), services.Lookup{
		UploadID: c.Param("id"),
		UserID:   userID,
	})
	if err != nil {
		h.fail(c, err)
		return upload.Upload{}, false
	}
	if found == nil {
		c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("upload not found", "NOT_FOUND"))
		return upload.Upload{}, false
	}
	return *found, true
}

// fail answers client errors directly and leaves infrastructure errors to
// the error middleware.
func (h *UploadHandler) fail(c *gin.Context, err error) {
	status, code := services.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.WithContext(c.Request.Context()).Debugf("%s %s failed", c.Request.Method, c.FullPath())
		_ = c.Error(err)
		return
	}
	c.JSON(status, httpdto.NewErrorResponse(err.Error(), code))
}

func currentUser(c *gin.Context) (string, bool) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		c.Abort()
		return "", false
	}
	return userID, true
}
