package http

import (
	"time"

	"github.com/gymbook/reservation-api/internal/pkg/request"
	"github.com/gymbook/reservation-api/internal/reservation"
)

// ListReservationsRequest defines query parameters for listing the caller's reservations.
type ListReservationsRequest struct {
	request.ListParams
	ServiceID string     `form:"service_id" binding:"omitempty,uuid"`
	Status    string     `form:"status" binding:"omitempty,oneof=pending confirmed cancelled completed"`
	From      *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To        *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	SortBy    string     `form:"sort_by" binding:"omitempty,oneof=start_time end_time created_at status"`
}

type ServiceTag struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type UserTag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ReservationResponse struct {
	ID        string     `json:"id"`
	Service   ServiceTag `json:"service"`
	User      UserTag    `json:"user"`
	StartTime time.Time  `json:"start_time"`
	EndTime   time.Time  `json:"end_time"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func NewReservationResponse(r *reservation.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:        r.ID,
		Service:   ServiceTag{ID: r.ServiceID, Name: r.ServiceName, Price: r.ServicePrice},
		User:      UserTag{ID: r.UserID, Name: r.UserName},
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
		Status:    string(r.Status),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type CreateReservationRequest struct {
	ServiceID string     `json:"service_id" binding:"required,uuid"`
	StartTime *time.Time `json:"start_time" binding:"required"`
	EndTime   *time.Time `json:"end_time" binding:"required"`
}

type UpdateReservationRequest struct {
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Status    *string    `json:"status"`
}

// ReservationMessageResponse wraps a reservation with a human readable message.
type ReservationMessageResponse struct {
	Message     string              `json:"message"`
	Reservation ReservationResponse `json:"reservation"`
}
