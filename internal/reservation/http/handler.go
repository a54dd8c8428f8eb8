package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gymbook/reservation-api/internal/auth"
	"github.com/gymbook/reservation-api/internal/cache"
	catalogHttp "github.com/gymbook/reservation-api/internal/catalog/http"
	"github.com/gymbook/reservation-api/internal/pkg/request"
	"github.com/gymbook/reservation-api/internal/pkg/response"
	"github.com/gymbook/reservation-api/internal/reservation"
)

type Handler struct {
	service reservation.Service
	cache   *cache.ResponseCache
}

// NewHandler builds the reservation handler. rc holds the cached catalog
// responses, which embed reservations and counts; it may be nil.
func NewHandler(service reservation.Service, rc *cache.ResponseCache) *Handler {
	return &Handler{service: service, cache: rc}
}

// invalidateCatalog drops cached service list and detail responses after a reservation write.
func (h *Handler) invalidateCatalog(ctx context.Context) {
	h.cache.Invalidate(ctx, catalogHttp.CacheGroup)
}

// List returns the caller's reservations only.
func (h *Handler) List(c *gin.Context) {
	var req ListReservationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	req.Normalize()

	filter := reservation.Filter{
		UserID:    auth.GetUserID(c),
		ServiceID: req.ServiceID,
		Status:    req.Status,
		From:      req.From,
		To:        req.To,
		Page:      req.Page,
		PageSize:  req.PageSize,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	}

	items, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]ReservationResponse, len(items))
	for i, r := range items {
		out[i] = NewReservationResponse(r)
	}

	c.JSON(http.StatusOK, response.NewPageResponse(out, req.Page, req.PageSize, total))
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateReservationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, reservation.ErrMissingFields.Message, err)
		return
	}

	res, err := h.service.Create(c.Request.Context(), reservation.CreateRequest{
		UserID:    auth.GetUserID(c),
		ServiceID: body.ServiceID,
		StartTime: *body.StartTime,
		EndTime:   *body.EndTime,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	h.invalidateCatalog(c.Request.Context())

	c.JSON(http.StatusCreated, ReservationMessageResponse{
		Message:     "reservation created",
		Reservation: NewReservationResponse(res),
	})
}

func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid reservation id", err)
		return
	}

	res, err := h.service.Get(c.Request.Context(), auth.GetUserID(c), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewReservationResponse(res))
}

func (h *Handler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid reservation id", err)
		return
	}

	var body UpdateReservationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	res, err := h.service.Update(c.Request.Context(), auth.GetUserID(c), uri.ID, reservation.UpdateRequest{
		StartTime: body.StartTime,
		EndTime:   body.EndTime,
		Status:    body.Status,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	h.invalidateCatalog(c.Request.Context())

	c.JSON(http.StatusOK, ReservationMessageResponse{
		Message:     "reservation updated",
		Reservation: NewReservationResponse(res),
	})
}

func (h *Handler) Delete(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid reservation id", err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), auth.GetUserID(c), uri.ID); err != nil {
		response.Error(c, err)
		return
	}
	h.invalidateCatalog(c.Request.Context())

	c.Status(http.StatusNoContent)
}
