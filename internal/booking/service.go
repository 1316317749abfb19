package booking

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/expohub/expo-reservation/internal/model"
	"github.com/expohub/expo-reservation/internal/queue"
)

// EventPublisher delivers reservation events to the message broker.
// Delivery is fire-and-forget: a publish failure never rolls back a
// committed transition.
type EventPublisher interface {
	PublishReservationEvent(ctx context.Context, ev queue.ReservationEvent) error
}

// Service is the reservation state machine. It validates ownership and
// transition legality, delegates the atomic capacity check-and-commit
// to the Store, and emits events on successful transitions.
type Service struct {
	store  Store
	events EventPublisher // may be nil; events are then dropped
	now    func() time.Time
}

// NewService constructs a Service. events may be nil when no broker is
// configured (the service then skips publishing).
func NewService(store Store, events EventPublisher) *Service {
	if store == nil {
		panic("nil store passed to NewService")
	}
	return &Service{store: store, events: events, now: func() time.Time { return time.Now().UTC() }}
}

// Book claims one slot on the resource for the principal. The pre-check
// outside the critical section gives fast failures for closed parents;
// the store repeats every guard under the per-resource lock, so two
// racing calls for the last slot resolve to exactly one CONFIRMED
// reservation and one ErrCapacityExceeded.
func (s *Service) Book(ctx context.Context, ref model.ResourceRef, principal model.Principal) (*model.Reservation, error) {
	info, err := s.store.Resource(ctx, ref)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if !info.Open(now) {
		return nil, ErrLifecycleClosed
	}
	res, err := s.store.Book(ctx, ref, principal.ID, uuid.NewString(), now)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, queue.KindReservationConfirmed, info.ExpoID, res)
	return res, nil
}

// Cancel transitions a reservation to CANCELLED and releases its slot.
// Repeating a cancel is a success with identical resulting state, so a
// caller that timed out can retry safely. Terminal REJECTED rows stay
// terminal.
func (s *Service) Cancel(ctx context.Context, reservationID uint64, principal model.Principal) (*model.Reservation, error) {
	res, err := s.store.Reservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if res.UserID != principal.ID && !principal.IsStaff() {
		return nil, ErrNotOwner
	}
	if res.Status == model.ReservationCancelled {
		return res, nil // idempotent repeat
	}
	if !model.CanTransitionReservation(res.Status, model.ReservationCancelled) {
		return nil, ErrInvalidTransition
	}
	ok, err := s.store.CancelConfirmed(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost a race with another cancel. Re-read to tell the
		// idempotent repeat apart from an illegal transition.
		cur, err := s.store.Reservation(ctx, reservationID)
		if err != nil {
			return nil, err
		}
		if cur.Status == model.ReservationCancelled {
			return cur, nil
		}
		return nil, ErrInvalidTransition
	}
	res.Status = model.ReservationCancelled
	info, err := s.store.Resource(ctx, res.Ref())
	expoID := uint64(0)
	if err == nil {
		expoID = info.ExpoID
	}
	s.emit(ctx, queue.KindReservationCancelled, expoID, res)
	return res, nil
}

// Reservation returns a reservation visible to the principal: its owner
// or staff. Others receive ErrNotFound rather than ErrNotOwner to avoid
// leaking reservation existence.
func (s *Service) Reservation(ctx context.Context, reservationID uint64, principal model.Principal) (*model.Reservation, error) {
	res, err := s.store.Reservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if res.UserID != principal.ID && !principal.IsStaff() {
		return nil, ErrNotFound
	}
	return res, nil
}

// Available returns the resources under the expo that currently accept
// reservations: parent open and at least one free slot.
func (s *Service) Available(ctx context.Context, expoID uint64) ([]model.ResourceInfo, error) {
	resources, err := s.store.ExpoResources(ctx, expoID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]model.ResourceInfo, 0, len(resources))
	for _, r := range resources {
		if r.Open(now) && r.Remaining() > 0 {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Service) emit(ctx context.Context, kind string, expoID uint64, res *model.Reservation) {
	if s.events == nil {
		return
	}
	ev := queue.ReservationEvent{
		Kind:          kind,
		Reference:     res.Reference,
		ReservationID: res.ID,
		UserID:        res.UserID,
		ResourceType:  string(res.ResourceType),
		ResourceID:    res.ResourceID,
		ExpoID:        expoID,
		OccurredAt:    s.now().Format(time.RFC3339),
	}
	if err := s.events.PublishReservationEvent(ctx, ev); err != nil {
		log.Printf("booking: publish %s failed: %v", kind, err)
	}
}
