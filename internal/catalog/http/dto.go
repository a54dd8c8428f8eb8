package http

import (
	"time"

	"github.com/gymbook/reservation-api/internal/catalog"
	"github.com/gymbook/reservation-api/internal/file"
	"github.com/gymbook/reservation-api/internal/pkg/request"
)

// ListServicesRequest defines query parameters for the public service listing.
type ListServicesRequest struct {
	request.ListParams
	Q       string `form:"q"`
	OwnerID string `form:"owner_id" binding:"omitempty,uuid"`
	SortBy  string `form:"sort_by" binding:"omitempty,oneof=name price created_at"`
}

type OwnerTag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ServiceResponse struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	Price             float64   `json:"price"`
	Owner             OwnerTag  `json:"owner"`
	ImageURL          *string   `json:"image_url"`
	ThumbnailURL      *string   `json:"thumbnail_url"`
	ReservationsCount int       `json:"reservations_count"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func NewServiceResponse(o *catalog.Offering) ServiceResponse {
	resp := ServiceResponse{
		ID:                o.ID,
		Name:              o.Name,
		Description:       o.Description,
		Price:             o.Price,
		Owner:             OwnerTag{ID: o.OwnerID, Name: o.OwnerName},
		ReservationsCount: o.ReservationCount,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
	if o.ImageFileID != nil {
		img := file.FileURL(*o.ImageFileID)
		thumb := file.ThumbnailURL(*o.ImageFileID)
		resp.ImageURL = &img
		resp.ThumbnailURL = &thumb
	}
	return resp
}

type ReservationBriefResponse struct {
	ID        string    `json:"id"`
	User      OwnerTag  `json:"user"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Status    string    `json:"status"`
}

type ServiceDetailResponse struct {
	ServiceResponse
	Reservations []ReservationBriefResponse `json:"reservations"`
}

func NewServiceDetailResponse(o *catalog.Offering, reservations []*catalog.ReservationBrief) ServiceDetailResponse {
	items := make([]ReservationBriefResponse, len(reservations))
	for i, r := range reservations {
		items[i] = ReservationBriefResponse{
			ID:        r.ID,
			User:      OwnerTag{ID: r.UserID, Name: r.UserName},
			StartTime: r.StartTime,
			EndTime:   r.EndTime,
			Status:    r.Status,
		}
	}
	return ServiceDetailResponse{ServiceResponse: NewServiceResponse(o), Reservations: items}
}

type CreateServiceRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Price       *float64 `json:"price" binding:"required"`
}

type UpdateServiceRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
}

type ServiceMessageResponse struct {
	Message string          `json:"message"`
	Service ServiceResponse `json:"service"`
}
