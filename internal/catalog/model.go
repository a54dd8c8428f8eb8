package catalog

import (
	"net/http"
	"time"

	"github.com/gymbook/reservation-api/internal/pkg/apperror"
)

var (
	ErrNotFound         = apperror.New(http.StatusNotFound, "service not found")
	ErrNameRequired     = apperror.New(http.StatusBadRequest, "name is required")
	ErrInvalidPrice     = apperror.New(http.StatusBadRequest, "price must be greater than zero")
	ErrPermissionDenied = apperror.New(http.StatusForbidden, "only the owner can modify this service")
)

// Offering is a bookable service with a price, published by one user.
type Offering struct {
	ID               string
	OwnerID          string
	OwnerName        string
	Name             string
	Description      string
	Price            float64
	ImageFileID      *string
	ReservationCount int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ReservationBrief is how a reservation appears inside a service detail.
type ReservationBrief struct {
	ID        string
	UserID    string
	UserName  string
	StartTime time.Time
	EndTime   time.Time
	Status    string
}

// Filter defines parameters for listing services.
type Filter struct {
	Keyword   string
	OwnerID   string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
