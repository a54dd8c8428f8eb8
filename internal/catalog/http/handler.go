package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gymbook/reservation-api/internal/auth"
	"github.com/gymbook/reservation-api/internal/cache"
	"github.com/gymbook/reservation-api/internal/catalog"
	"github.com/gymbook/reservation-api/internal/file"
	fileHttp "github.com/gymbook/reservation-api/internal/file/http"
	"github.com/gymbook/reservation-api/internal/pkg/request"
	"github.com/gymbook/reservation-api/internal/pkg/response"
)

// CacheGroup names the response cache entries owned by the service endpoints.
const CacheGroup = "services"

const maxImageBytes = 5 << 20

var allowedImageTypes = []string{"image/jpeg", "image/png"}

type Handler struct {
	service     catalog.Service
	fileService file.Service
	fileHandler *fileHttp.Handler
	cache       *cache.ResponseCache
	log         *zap.Logger
}

func NewHandler(service catalog.Service, fileService file.Service, fileHandler *fileHttp.Handler, rc *cache.ResponseCache, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		service:     service,
		fileService: fileService,
		fileHandler: fileHandler,
		cache:       rc,
		log:         log,
	}
}

func (h *Handler) invalidate(ctx context.Context) {
	h.cache.Invalidate(ctx, CacheGroup)
}

func (h *Handler) List(c *gin.Context) {
	var req ListServicesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	req.Normalize()

	items, total, err := h.service.List(c.Request.Context(), catalog.Filter{
		Keyword:   req.Q,
		OwnerID:   req.OwnerID,
		Page:      req.Page,
		PageSize:  req.PageSize,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]ServiceResponse, len(items))
	for i, o := range items {
		out[i] = NewServiceResponse(o)
	}

	c.JSON(http.StatusOK, response.NewPageResponse(out, req.Page, req.PageSize, total))
}

func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid service id", err)
		return
	}

	o, reservations, err := h.service.GetDetail(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewServiceDetailResponse(o, reservations))
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateServiceRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "name and price are required", err)
		return
	}

	o, err := h.service.Create(c.Request.Context(), catalog.CreateRequest{
		OwnerID:     auth.GetUserID(c),
		Name:        body.Name,
		Description: body.Description,
		Price:       *body.Price,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	h.invalidate(c.Request.Context())

	c.JSON(http.StatusCreated, ServiceMessageResponse{
		Message: "service created",
		Service: NewServiceResponse(o),
	})
}

func (h *Handler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid service id", err)
		return
	}

	var body UpdateServiceRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	o, err := h.service.Update(c.Request.Context(), auth.GetUserID(c), uri.ID, catalog.UpdateRequest{
		Name:        body.Name,
		Description: body.Description,
		Price:       body.Price,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	h.invalidate(c.Request.Context())

	c.JSON(http.StatusOK, ServiceMessageResponse{
		Message: "service updated",
		Service: NewServiceResponse(o),
	})
}

func (h *Handler) Delete(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid service id", err)
		return
	}

	ctx := c.Request.Context()
	o, err := h.service.AuthorizeOwner(ctx, auth.GetUserID(c), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.service.Delete(ctx, auth.GetUserID(c), uri.ID); err != nil {
		response.Error(c, err)
		return
	}
	if o.ImageFileID != nil {
		h.removeFile(ctx, *o.ImageFileID)
	}
	h.invalidate(ctx)

	c.Status(http.StatusNoContent)
}

// UploadImage stores an image for the service and replaces the previous one.
func (h *Handler) UploadImage(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid service id", err)
		return
	}

	// Check ownership before accepting the upload.
	if _, err := h.service.AuthorizeOwner(c.Request.Context(), auth.GetUserID(c), uri.ID); err != nil {
		response.Error(c, err)
		return
	}

	h.fileHandler.HandleFileUpload(c, fileHttp.FileUploadConfig{
		FormFieldName: "image",
		MaxSizeBytes:  maxImageBytes,
		AllowedTypes:  allowedImageTypes,
		ResizeImage:   true,
		AfterUpload: func(ctx context.Context, fileID string) error {
			previous, err := h.service.SetImage(ctx, uri.ID, fileID)
			if err != nil {
				return err
			}
			if previous != nil {
				h.removeFile(ctx, *previous)
			}
			h.invalidate(ctx)
			return nil
		},
	})
}

func (h *Handler) removeFile(ctx context.Context, id string) {
	if err := h.fileService.Delete(ctx, id); err != nil {
		h.log.Warn("failed to delete service image", zap.String("file_id", id), zap.Error(err))
	}
}
