package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/expohub/expo-reservation/internal/model"
)

// MemStore is an in-memory Store. It is the reference implementation of
// the locking contract — a per-resource mutex held across the capacity
// check and the counter write, mirroring the row lock the SQL store
// takes — and is what the booking tests drive. It is also handy for
// local development without a database.
type MemStore struct {
	mu           sync.RWMutex
	resources    map[model.ResourceRef]*memResource
	reservations map[uint64]*model.Reservation
	nextID       uint64
}

// memResource pairs a resource snapshot with its critical-section lock.
// active tracks, per user, the id of their non-terminal reservation so
// duplicate bookings are rejected inside the critical section.
type memResource struct {
	mu     sync.Mutex
	info   model.ResourceInfo
	active map[uint64]uint64
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		resources:    make(map[model.ResourceRef]*memResource),
		reservations: make(map[uint64]*model.Reservation),
	}
}

// AddResource registers a resource. Existing state for the same ref is
// replaced.
func (s *MemStore) AddResource(info model.ResourceInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources[info.Ref] = &memResource{info: info, active: make(map[uint64]uint64)}
}

// SetExpoStatus flips the parent status on every resource of the expo.
// Lifecycle tests use it to close or reopen a parent underneath
// existing resources.
func (s *MemStore) SetExpoStatus(expoID uint64, status string) {
	s.mu.RLock()
	targets := make([]*memResource, 0)
	for _, r := range s.resources {
		if r.info.ExpoID == expoID {
			targets = append(targets, r)
		}
	}
	s.mu.RUnlock()
	for _, r := range targets {
		r.mu.Lock()
		r.info.ExpoStatus = status
		r.mu.Unlock()
	}
}

// PutReservation inserts a reservation row as-is, bypassing the ledger.
// Tests use it to stage terminal rows.
func (s *MemStore) PutReservation(res model.Reservation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if res.ID >= s.nextID {
		s.nextID = res.ID
	}
	cp := res
	s.reservations[res.ID] = &cp
}

// ConfirmedReservations recomputes the confirmed count for a resource
// from the reservation rows. The ledger counter must always reconcile
// with this value.
func (s *MemStore) ConfirmedReservations(ref model.ResourceRef) uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n uint32
	for _, res := range s.reservations {
		if res.ResourceType == ref.Type && res.ResourceID == ref.ID && res.Status == model.ReservationConfirmed {
			n++
		}
	}
	return n
}

func (s *MemStore) resource(ref model.ResourceRef) (*memResource, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.resources[ref]
	return r, ok
}

// Resource implements Store.
func (s *MemStore) Resource(_ context.Context, ref model.ResourceRef) (*model.ResourceInfo, error) {
	r, ok := s.resource(ref)
	if !ok {
		return nil, ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	info := r.info
	return &info, nil
}

// ExpoResources implements Store. Results are ordered by type then id
// for deterministic output.
func (s *MemStore) ExpoResources(_ context.Context, expoID uint64) ([]model.ResourceInfo, error) {
	s.mu.RLock()
	targets := make([]*memResource, 0)
	for _, r := range s.resources {
		if r.info.ExpoID == expoID {
			targets = append(targets, r)
		}
	}
	s.mu.RUnlock()
	out := make([]model.ResourceInfo, 0, len(targets))
	for _, r := range targets {
		r.mu.Lock()
		out = append(out, r.info)
		r.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Ref.Type != out[j].Ref.Type {
			return out[i].Ref.Type < out[j].Ref.Type
		}
		return out[i].Ref.ID < out[j].Ref.ID
	})
	return out, nil
}

// Book implements Store. The whole guard sequence runs under the
// resource lock; bookkeeping of the shared reservation map nests the
// store lock inside it (resource lock before store lock, everywhere).
func (s *MemStore) Book(_ context.Context, ref model.ResourceRef, userID uint64, reference string, now time.Time) (*model.Reservation, error) {
	r, ok := s.resource(ref)
	if !ok {
		return nil, ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.info.Open(now) {
		return nil, ErrLifecycleClosed
	}
	if _, dup := r.active[userID]; dup {
		return nil, ErrAlreadyReserved
	}
	if r.info.ConfirmedCount >= r.info.Capacity {
		return nil, ErrCapacityExceeded
	}
	r.info.ConfirmedCount++

	s.mu.Lock()
	s.nextID++
	res := &model.Reservation{
		ID:           s.nextID,
		Reference:    reference,
		ResourceType: ref.Type,
		ResourceID:   ref.ID,
		UserID:       userID,
		Status:       model.ReservationConfirmed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.reservations[res.ID] = res
	s.mu.Unlock()

	r.active[userID] = res.ID
	cp := *res
	return &cp, nil
}

// Reservation implements Store.
func (s *MemStore) Reservation(_ context.Context, id uint64) (*model.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.reservations[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *res
	return &cp, nil
}

// CancelConfirmed implements Store. The status flip and the counter
// release share the resource critical section, so the counter can
// never drift from the reservation rows.
func (s *MemStore) CancelConfirmed(_ context.Context, id uint64) (bool, error) {
	s.mu.RLock()
	res, ok := s.reservations[id]
	if !ok {
		s.mu.RUnlock()
		return false, ErrNotFound
	}
	ref := res.Ref()
	s.mu.RUnlock()

	r, ok := s.resource(ref)
	if !ok {
		return false, ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	res = s.reservations[id]
	if res == nil || res.Status != model.ReservationConfirmed {
		return false, nil
	}
	res.Status = model.ReservationCancelled
	res.UpdatedAt = time.Now().UTC()
	if r.info.ConfirmedCount > 0 {
		r.info.ConfirmedCount--
	}
	delete(r.active, res.UserID)
	return true, nil
}
