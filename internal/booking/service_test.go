package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expohub/expo-reservation/internal/model"
	"github.com/expohub/expo-reservation/internal/queue"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []queue.ReservationEvent
}

func (p *capturePublisher) PublishReservationEvent(_ context.Context, ev queue.ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *capturePublisher) kinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Kind
	}
	return out
}

func newTestService(t *testing.T, infos ...model.ResourceInfo) (*Service, *MemStore, *capturePublisher) {
	t.Helper()
	store := NewMemStore()
	for _, info := range infos {
		store.AddResource(info)
	}
	pub := &capturePublisher{}
	return NewService(store, pub), store, pub
}

func boothInfo(id, expoID uint64, capacity uint32) model.ResourceInfo {
	return model.ResourceInfo{
		Ref:        model.ResourceRef{Type: model.ResourceBooth, ID: id},
		ExpoID:     expoID,
		Label:      "booth",
		Capacity:   capacity,
		ExpoStatus: model.ExpoPublished,
		ClosesAt:   time.Now().UTC().Add(48 * time.Hour),
	}
}

func sessionInfo(id, expoID uint64, seats uint32) model.ResourceInfo {
	info := boothInfo(id, expoID, seats)
	info.Ref.Type = model.ResourceSession
	info.Label = "session"
	return info
}

func exhibitor(id uint64) model.Principal {
	return model.Principal{ID: id, Role: model.RoleExhibitor}
}

func TestBookConfirmsAndEmitsEvent(t *testing.T) {
	svc, store, pub := newTestService(t, boothInfo(1, 10, 1))
	ref := model.ResourceRef{Type: model.ResourceBooth, ID: 1}

	res, err := svc.Book(context.Background(), ref, exhibitor(7))
	require.NoError(t, err)
	assert.Equal(t, model.ReservationConfirmed, res.Status)
	assert.Equal(t, uint64(7), res.UserID)
	assert.NotEmpty(t, res.Reference)

	info, err := store.Resource(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), info.ConfirmedCount)
	assert.Equal(t, []string{queue.KindReservationConfirmed}, pub.kinds())
}

func TestBookUnknownResource(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Book(context.Background(), model.ResourceRef{Type: model.ResourceBooth, ID: 99}, exhibitor(1))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBookDraftParentFailsWithoutPartialState(t *testing.T) {
	info := boothInfo(1, 10, 1)
	info.ExpoStatus = model.ExpoDraft
	svc, store, pub := newTestService(t, info)
	ref := info.Ref

	_, err := svc.Book(context.Background(), ref, exhibitor(7))
	assert.ErrorIs(t, err, ErrLifecycleClosed)

	got, err := store.Resource(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), got.ConfirmedCount)
	assert.Zero(t, store.ConfirmedReservations(ref))
	assert.Empty(t, pub.kinds())
}

func TestBookElapsedSessionWindowFails(t *testing.T) {
	info := sessionInfo(3, 10, 5)
	info.ClosesAt = time.Now().UTC().Add(-time.Minute)
	svc, _, _ := newTestService(t, info)

	_, err := svc.Book(context.Background(), info.Ref, model.Principal{ID: 4, Role: model.RoleAttendee})
	assert.ErrorIs(t, err, ErrLifecycleClosed)
}

func TestBookTwiceSamePrincipal(t *testing.T) {
	svc, _, _ := newTestService(t, boothInfo(1, 10, 5))
	ref := model.ResourceRef{Type: model.ResourceBooth, ID: 1}

	_, err := svc.Book(context.Background(), ref, exhibitor(7))
	require.NoError(t, err)
	_, err = svc.Book(context.Background(), ref, exhibitor(7))
	assert.ErrorIs(t, err, ErrAlreadyReserved)
}

func TestCapacityOneRace(t *testing.T) {
	// Two exhibitors race for a capacity-1 booth: exactly one wins,
	// the loser gets ErrCapacityExceeded, never a generic failure.
	svc, store, _ := newTestService(t, boothInfo(1, 10, 1))
	ref := model.ResourceRef{Type: model.ResourceBooth, ID: 1}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Book(context.Background(), ref, exhibitor(uint64(100+i)))
		}(i)
	}
	wg.Wait()

	var won, lost int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, ErrCapacityExceeded):
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, 1, lost)
	assert.Equal(t, uint32(1), store.ConfirmedReservations(ref))
}

func TestConcurrentBooksNeverExceedCapacity(t *testing.T) {
	const capacity = 5
	const callers = 64
	svc, store, _ := newTestService(t, sessionInfo(2, 10, capacity))
	ref := model.ResourceRef{Type: model.ResourceSession, ID: 2}

	var wg sync.WaitGroup
	var mu sync.Mutex
	confirmed := 0
	capacityErrs := 0
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Book(context.Background(), ref, model.Principal{ID: uint64(1000 + i), Role: model.RoleAttendee})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				confirmed++
			case errors.Is(err, ErrCapacityExceeded):
				capacityErrs++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, capacity, confirmed)
	assert.Equal(t, callers-capacity, capacityErrs)

	// The materialized counter reconciles with the reservation rows.
	info, err := store.Resource(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, uint32(capacity), info.ConfirmedCount)
	assert.Equal(t, info.ConfirmedCount, store.ConfirmedReservations(ref))
}

func TestCancelReleasesSlotAndRebookSucceeds(t *testing.T) {
	svc, store, pub := newTestService(t, boothInfo(1, 10, 1))
	ref := model.ResourceRef{Type: model.ResourceBooth, ID: 1}

	first, err := svc.Book(context.Background(), ref, exhibitor(7))
	require.NoError(t, err)

	cancelled, err := svc.Cancel(context.Background(), first.ID, exhibitor(7))
	require.NoError(t, err)
	assert.Equal(t, model.ReservationCancelled, cancelled.Status)
	assert.Zero(t, store.ConfirmedReservations(ref))

	// Slot was released: the same exhibitor can book again.
	second, err := svc.Book(context.Background(), ref, exhibitor(7))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, []string{
		queue.KindReservationConfirmed,
		queue.KindReservationCancelled,
		queue.KindReservationConfirmed,
	}, pub.kinds())
}

func TestCancelIsIdempotent(t *testing.T) {
	svc, store, _ := newTestService(t, boothInfo(1, 10, 2))
	ref := model.ResourceRef{Type: model.ResourceBooth, ID: 1}

	res, err := svc.Book(context.Background(), ref, exhibitor(7))
	require.NoError(t, err)

	first, err := svc.Cancel(context.Background(), res.ID, exhibitor(7))
	require.NoError(t, err)
	second, err := svc.Cancel(context.Background(), res.ID, exhibitor(7))
	require.NoError(t, err)

	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.ID, second.ID)
	// Double cancel must not release the slot twice.
	info, err := store.Resource(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), info.ConfirmedCount)
}

func TestCancelOwnership(t *testing.T) {
	svc, _, _ := newTestService(t, boothInfo(1, 10, 2))
	ref := model.ResourceRef{Type: model.ResourceBooth, ID: 1}

	res, err := svc.Book(context.Background(), ref, exhibitor(7))
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), res.ID, exhibitor(8))
	assert.ErrorIs(t, err, ErrNotOwner)

	// Staff may cancel on behalf of the owner.
	_, err = svc.Cancel(context.Background(), res.ID, model.Principal{ID: 99, Role: model.RoleOrganizer})
	require.NoError(t, err)
}

func TestCancelRejectedIsInvalid(t *testing.T) {
	svc, store, _ := newTestService(t, boothInfo(1, 10, 1))
	store.PutReservation(model.Reservation{
		ID:           500,
		ResourceType: model.ResourceBooth,
		ResourceID:   1,
		UserID:       7,
		Status:       model.ReservationRejected,
	})

	_, err := svc.Cancel(context.Background(), 500, exhibitor(7))
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestReservationVisibility(t *testing.T) {
	svc, _, _ := newTestService(t, boothInfo(1, 10, 2))
	res, err := svc.Book(context.Background(), model.ResourceRef{Type: model.ResourceBooth, ID: 1}, exhibitor(7))
	require.NoError(t, err)

	_, err = svc.Reservation(context.Background(), res.ID, exhibitor(7))
	require.NoError(t, err)
	_, err = svc.Reservation(context.Background(), res.ID, model.Principal{ID: 42, Role: model.RoleAdmin})
	require.NoError(t, err)
	// Strangers see not-found, not not-owner.
	_, err = svc.Reservation(context.Background(), res.ID, exhibitor(8))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAvailableFiltersClosedAndFull(t *testing.T) {
	open := boothInfo(1, 10, 2)
	full := boothInfo(2, 10, 1)
	draft := sessionInfo(3, 10, 5)
	draft.ExpoStatus = model.ExpoDraft
	svc, _, _ := newTestService(t, open, full, draft)

	_, err := svc.Book(context.Background(), full.Ref, exhibitor(7))
	require.NoError(t, err)

	avail, err := svc.Available(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, avail, 1)
	assert.Equal(t, open.Ref, avail[0].Ref)
}
