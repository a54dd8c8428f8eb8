package reservation

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/gymbook/reservation-api/internal/catalog"
	"github.com/gymbook/reservation-api/internal/events"
	"github.com/gymbook/reservation-api/internal/metrics"
)

type CreateRequest struct {
	UserID    string
	ServiceID string
	StartTime time.Time
	EndTime   time.Time
}

type UpdateRequest struct {
	StartTime *time.Time
	EndTime   *time.Time
	Status    *string
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Reservation, error)
	// Get returns the reservation if actorID owns it.
	Get(ctx context.Context, actorID, id string) (*Reservation, error)
	List(ctx context.Context, filter Filter) ([]*Reservation, int, error)
	Update(ctx context.Context, actorID, id string, req UpdateRequest) (*Reservation, error)
	Delete(ctx context.Context, actorID, id string) error
}

// ServiceLookup resolves the catalog entry a reservation is made for.
type ServiceLookup interface {
	GetByID(ctx context.Context, id string) (*catalog.Offering, error)
}

type service struct {
	repo      Repository
	catalog   ServiceLookup
	publisher events.Publisher
	metrics   *metrics.Metrics
	log       *zap.Logger
	now       func() time.Time
}

type Option func(*service)

// WithClock overrides the time source used for the past-start check.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

func NewService(repo Repository, lookup ServiceLookup, publisher events.Publisher, m *metrics.Metrics, log *zap.Logger, opts ...Option) Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &service{
		repo:      repo,
		catalog:   lookup,
		publisher: publisher,
		metrics:   m,
		log:       log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) validateInterval(start, end time.Time) error {
	if !start.Before(end) {
		return ErrInvalidTimeRange
	}
	if start.Before(s.now()) {
		return ErrStartTimePast
	}
	return nil
}

func (s *service) ensureFree(ctx context.Context, serviceID string, start, end time.Time, excludeID string) error {
	taken, err := s.repo.HasOverlap(ctx, serviceID, start, end, excludeID)
	if err != nil {
		return err
	}
	if taken {
		s.metrics.ReservationConflict()
		return ErrTimeConflict
	}
	return nil
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Reservation, error) {
	if req.ServiceID == "" || req.StartTime.IsZero() || req.EndTime.IsZero() {
		return nil, ErrMissingFields
	}

	offering, err := s.catalog.GetByID(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}

	if err := s.validateInterval(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}
	if err := s.ensureFree(ctx, req.ServiceID, req.StartTime, req.EndTime, ""); err != nil {
		return nil, err
	}

	res := &Reservation{
		ServiceID:    req.ServiceID,
		ServiceName:  offering.Name,
		ServicePrice: offering.Price,
		UserID:       req.UserID,
		StartTime:    req.StartTime.UTC(),
		EndTime:      req.EndTime.UTC(),
		Status:       StatusPending,
	}
	if err := s.repo.Create(ctx, res); err != nil {
		if errors.Is(err, ErrTimeConflict) {
			s.metrics.ReservationConflict()
		}
		return nil, err
	}

	s.metrics.ReservationTransition(string(res.Status))
	s.publish(ctx, events.TypeReservationCreated, res, "")

	// Reload for the joined user name; the insert already succeeded.
	if full, err := s.repo.GetByID(ctx, res.ID); err == nil {
		return full, nil
	}
	return res, nil
}

func (s *service) Get(ctx context.Context, actorID, id string) (*Reservation, error) {
	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.UserID != actorID {
		return nil, ErrPermissionDenied
	}
	return res, nil
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Reservation, int, error) {
	if filter.Status != "" && !Status(filter.Status).Valid() {
		return nil, 0, ErrInvalidStatus
	}
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return nil, 0, ErrInvalidTimeRange
	}
	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, actorID, id string, req UpdateRequest) (*Reservation, error) {
	res, err := s.Get(ctx, actorID, id)
	if err != nil {
		return nil, err
	}

	newStatus := res.Status
	if req.Status != nil {
		newStatus = Status(*req.Status)
		if !newStatus.Valid() {
			return nil, ErrInvalidStatus
		}
	}

	newStart, newEnd := res.StartTime, res.EndTime
	if req.StartTime != nil {
		newStart = req.StartTime.UTC()
	}
	if req.EndTime != nil {
		newEnd = req.EndTime.UTC()
	}
	timeChanged := !newStart.Equal(res.StartTime) || !newEnd.Equal(res.EndTime)

	if timeChanged {
		if err := s.validateInterval(newStart, newEnd); err != nil {
			return nil, err
		}
	}

	// A slot must be re-checked whenever this reservation (re)claims it.
	reactivated := !res.Status.Active() && newStatus.Active()
	if newStatus.Active() && (timeChanged || reactivated) {
		if err := s.ensureFree(ctx, res.ServiceID, newStart, newEnd, res.ID); err != nil {
			return nil, err
		}
	}

	previous := res.Status
	res.StartTime, res.EndTime, res.Status = newStart, newEnd, newStatus

	if err := s.repo.Update(ctx, res); err != nil {
		if errors.Is(err, ErrTimeConflict) {
			s.metrics.ReservationConflict()
		}
		return nil, err
	}

	if previous != newStatus {
		s.metrics.ReservationTransition(string(newStatus))
		s.publish(ctx, events.TypeReservationStatusChanged, res, previous)
	}
	if timeChanged {
		s.publish(ctx, events.TypeReservationRescheduled, res, "")
	}

	return res, nil
}

func (s *service) Delete(ctx context.Context, actorID, id string) error {
	if _, err := s.Get(ctx, actorID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// publish is best effort: the reservation is already stored, so a broker outage is only logged.
func (s *service) publish(ctx context.Context, eventType string, res *Reservation, previous Status) {
	ev := events.ReservationEvent{
		Type:           eventType,
		ReservationID:  res.ID,
		ServiceID:      res.ServiceID,
		ServiceName:    res.ServiceName,
		UserID:         res.UserID,
		StartTime:      res.StartTime,
		EndTime:        res.EndTime,
		Status:         string(res.Status),
		PreviousStatus: string(previous),
		OccurredAt:     s.now().UTC(),
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	err := s.publisher.Publish(pubCtx, ev)
	s.metrics.EventPublished(eventType, err)
	if err != nil {
		s.log.Warn("publish reservation event failed",
			zap.String("type", eventType),
			zap.String("reservation_id", res.ID),
			zap.Error(err),
		)
	}
}
