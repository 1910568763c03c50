// Package sync binds the sync protocol endpoints to the datasite service.
package sync

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openmined/syftbox/internal/server/datasite"
	"github.com/openmined/syftbox/internal/server/handlers/api"
	"github.com/openmined/syftbox/internal/server/middlewares"
	"github.com/openmined/syftbox/internal/server/store"
)

type Handler struct {
	svc *datasite.Service
}

func New(svc *datasite.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) DatasiteStates(ctx *gin.Context) {
	user := middlewares.CurrentUser(ctx)

	states, err := h.svc.DatasiteStates(user)
	if err != nil {
		api.AbortWithError(ctx, http.StatusInternalServerError, api.CodeSyncStoreFailed, err)
		return
	}

	ctx.PureJSON(http.StatusOK, DatasiteStatesResponse{Datasites: states})
}

func (h *Handler) DirState(ctx *gin.Context) {
	var req DirStateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, err)
		return
	}

	files, err := h.svc.DirState(middlewares.CurrentUser(ctx), req.Dir)
	if err != nil {
		h.abortServiceError(ctx, err)
		return
	}

	ctx.PureJSON(http.StatusOK, DirStateResponse{Files: files})
}

func (h *Handler) GetMetadata(ctx *gin.Context) {
	var req GetMetadataRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, err)
		return
	}

	files, err := h.svc.GetMetadata(middlewares.CurrentUser(ctx), req.Path)
	if err != nil {
		h.abortServiceError(ctx, err)
		return
	}
	if len(files) == 0 {
		api.AbortWithError(ctx, http.StatusNotFound, api.CodeSyncNotFound, store.ErrNotExist)
		return
	}

	ctx.PureJSON(http.StatusOK, GetMetadataResponse{Files: files})
}

func (h *Handler) GetDiff(ctx *gin.Context) {
	var req GetDiffRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, err)
		return
	}

	diff, hash, err := h.svc.GetDiff(middlewares.CurrentUser(ctx), req.Path, req.Signature)
	if err != nil {
		h.abortServiceError(ctx, err)
		return
	}

	ctx.PureJSON(http.StatusOK, GetDiffResponse{
		Path: req.Path,
		Diff: diff,
		Hash: hash,
	})
}

func (h *Handler) ApplyDiff(ctx *gin.Context) {
	var req ApplyDiffRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, err)
		return
	}

	meta, err := h.svc.ApplyDiff(middlewares.CurrentUser(ctx), req.Path, req.Diff, req.ExpectedHash)
	if err != nil {
		h.abortServiceError(ctx, err)
		return
	}

	ctx.PureJSON(http.StatusOK, ApplyDiffResponse{
		Path:        req.Path,
		CurrentHash: meta.Hash,
	})
}

func (h *Handler) Create(ctx *gin.Context) {
	path := ctx.PostForm("path")
	if path == "" {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, datasite.ErrInvalidPath)
		return
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, err)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, err)
		return
	}
	defer file.Close()

	body, err := io.ReadAll(file)
	if err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, err)
		return
	}

	meta, err := h.svc.Create(middlewares.CurrentUser(ctx), path, body)
	if err != nil {
		h.abortServiceError(ctx, err)
		return
	}

	ctx.PureJSON(http.StatusOK, meta)
}

func (h *Handler) Delete(ctx *gin.Context) {
	var req DeleteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, err)
		return
	}

	if err := h.svc.Delete(middlewares.CurrentUser(ctx), req.Path); err != nil {
		h.abortServiceError(ctx, err)
		return
	}

	ctx.PureJSON(http.StatusOK, gin.H{"path": req.Path})
}

func (h *Handler) Download(ctx *gin.Context) {
	var req DownloadRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, err)
		return
	}

	body, err := h.svc.Download(middlewares.CurrentUser(ctx), req.Path)
	if err != nil {
		h.abortServiceError(ctx, err)
		return
	}

	ctx.Data(http.StatusOK, "application/octet-stream", body)
}

func (h *Handler) DownloadBulk(ctx *gin.Context) {
	var req DownloadBulkRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, err)
		return
	}

	archive, err := h.svc.DownloadBulk(middlewares.CurrentUser(ctx), req.Paths)
	if err != nil {
		h.abortServiceError(ctx, err)
		return
	}

	ctx.Data(http.StatusOK, "application/x-tar", archive)
}

func (h *Handler) abortServiceError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, datasite.ErrInvalidPath):
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeSyncInvalidPath, err)
	case errors.Is(err, datasite.ErrAccessDenied):
		api.AbortWithError(ctx, http.StatusForbidden, api.CodeAccessDenied, err)
	case errors.Is(err, datasite.ErrFileTooLarge):
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, err)
	case errors.Is(err, store.ErrNotExist):
		api.AbortWithError(ctx, http.StatusNotFound, api.CodeSyncNotFound, err)
	case errors.Is(err, store.ErrExists):
		api.AbortWithError(ctx, http.StatusConflict, api.CodeSyncAlreadyExists, err)
	case errors.Is(err, store.ErrHashMismatch):
		api.AbortWithError(ctx, http.StatusConflict, api.CodeSyncHashMismatch, err)
	default:
		api.AbortWithError(ctx, http.StatusInternalServerError, api.CodeInternalError, err)
	}
}
