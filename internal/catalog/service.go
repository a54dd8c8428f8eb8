package catalog

import (
	"context"
	"math"
	"strings"
)

// maxPrice is the largest value that fits NUMERIC(10,2).
const maxPrice = 99999999.99

type CreateRequest struct {
	OwnerID     string
	Name        string
	Description string
	Price       float64
}

type UpdateRequest struct {
	Name        *string
	Description *string
	Price       *float64
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Offering, error)
	GetByID(ctx context.Context, id string) (*Offering, error)
	GetDetail(ctx context.Context, id string) (*Offering, []*ReservationBrief, error)
	List(ctx context.Context, filter Filter) ([]*Offering, int, error)
	Update(ctx context.Context, actorID, id string, req UpdateRequest) (*Offering, error)
	Delete(ctx context.Context, actorID, id string) error
	// AuthorizeOwner loads the service and fails with ErrPermissionDenied unless actorID owns it.
	AuthorizeOwner(ctx context.Context, actorID, id string) (*Offering, error)
	// SetImage links an uploaded file and returns the previously linked file, if any.
	SetImage(ctx context.Context, id, fileID string) (*string, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func validPrice(p float64) bool {
	return !math.IsNaN(p) && p > 0 && p <= maxPrice
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Offering, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if !validPrice(req.Price) {
		return nil, ErrInvalidPrice
	}

	o := &Offering{
		OwnerID:     req.OwnerID,
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Price:       math.Round(req.Price*100) / 100,
	}

	if err := s.repo.Create(ctx, o); err != nil {
		return nil, err
	}

	// Reload to pick up owner name and counters.
	return s.repo.GetByID(ctx, o.ID)
}

func (s *service) GetByID(ctx context.Context, id string) (*Offering, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetDetail(ctx context.Context, id string) (*Offering, []*ReservationBrief, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	reservations, err := s.repo.ListReservations(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return o, reservations, nil
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Offering, int, error) {
	filter.Keyword = strings.TrimSpace(filter.Keyword)
	return s.repo.List(ctx, filter)
}

func (s *service) AuthorizeOwner(ctx context.Context, actorID, id string) (*Offering, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.OwnerID != actorID {
		return nil, ErrPermissionDenied
	}
	return o, nil
}

func (s *service) Update(ctx context.Context, actorID, id string, req UpdateRequest) (*Offering, error) {
	o, err := s.AuthorizeOwner(ctx, actorID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		o.Name = name
	}
	if req.Description != nil {
		o.Description = strings.TrimSpace(*req.Description)
	}
	if req.Price != nil {
		if !validPrice(*req.Price) {
			return nil, ErrInvalidPrice
		}
		o.Price = math.Round(*req.Price*100) / 100
	}

	if err := s.repo.Update(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *service) Delete(ctx context.Context, actorID, id string) error {
	if _, err := s.AuthorizeOwner(ctx, actorID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *service) SetImage(ctx context.Context, id, fileID string) (*string, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetImage(ctx, id, &fileID); err != nil {
		return nil, err
	}
	return o.ImageFileID, nil
}
