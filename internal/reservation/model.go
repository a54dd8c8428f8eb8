package reservation

import (
	"net/http"
	"time"

	"github.com/gymbook/reservation-api/internal/pkg/apperror"
)

var (
	ErrNotFound         = apperror.New(http.StatusNotFound, "reservation not found")
	ErrServiceNotFound  = apperror.New(http.StatusNotFound, "service not found")
	ErrMissingFields    = apperror.New(http.StatusBadRequest, "service_id, start_time and end_time are required")
	ErrInvalidTimeRange = apperror.New(http.StatusBadRequest, "start time must be before end time")
	ErrStartTimePast    = apperror.New(http.StatusBadRequest, "cannot book a start time in the past")
	ErrInvalidStatus    = apperror.New(http.StatusBadRequest, "invalid reservation status")
	ErrTimeConflict     = apperror.New(http.StatusConflict, "the service is already booked for that time")
	ErrPermissionDenied = apperror.New(http.StatusForbidden, "you can only access your own reservations")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Active reports whether the reservation still holds its time slot.
func (s Status) Active() bool {
	return s != StatusCancelled
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and [bStart, bEnd) intersect.
// Back-to-back bookings do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

type Reservation struct {
	ID           string
	ServiceID    string
	ServiceName  string
	ServicePrice float64
	UserID       string
	UserName     string
	StartTime    time.Time
	EndTime      time.Time
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Filter struct {
	UserID    string
	ServiceID string
	Status    string
	From      *time.Time // reservations ending after this instant
	To        *time.Time // reservations starting before this instant
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
