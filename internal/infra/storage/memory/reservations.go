package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"staybook/internal/domain/listings"
	"staybook/internal/domain/reservation"
	"staybook/internal/domain/shared/events"
)

var ErrVersionConflict = errors.New("memory: stale aggregate version")

// ReservationStore keeps reservations in process memory with optimistic
// version checks on save.
type ReservationStore struct {
	mu    sync.RWMutex
	items map[reservation.ReservationID]reservation.Reservation
}

func NewReservationStore() *ReservationStore {
	return &ReservationStore{items: make(map[reservation.ReservationID]reservation.Reservation)}
}

func (s *ReservationStore) ByID(ctx context.Context, id reservation.ReservationID) (*reservation.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return nil, reservation.ErrReservationNotFound
	}
	clone := cloneReservation(item)
	return &clone, nil
}

func (s *ReservationStore) Save(ctx context.Context, r *reservation.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.items[r.ID]; ok && current.Version != r.Version {
		return ErrVersionConflict
	}
	clone := cloneReservation(*r)
	clone.Version = r.Version + 1
	clone.EventRecorder = events.EventRecorder{}
	s.items[r.ID] = clone
	r.Version = clone.Version
	return nil
}

func (s *ReservationStore) ListByListing(ctx context.Context, listingID listings.ListingID) ([]*reservation.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*reservation.Reservation
	for _, item := range s.items {
		if item.ListingID != listingID {
			continue
		}
		clone := cloneReservation(item)
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func cloneReservation(r reservation.Reservation) reservation.Reservation {
	clone := r
	clone.Price = r.Price.Copy()
	return clone
}
