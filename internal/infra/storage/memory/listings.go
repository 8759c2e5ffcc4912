package memory

import (
	"context"
	"sync"

	"staybook/internal/domain/listings"
	"staybook/internal/domain/pricing"
	"staybook/internal/domain/shared/events"
)

// ListingStore keeps listings in process memory. Suited for tests and
// single-node development runs.
type ListingStore struct {
	mu    sync.RWMutex
	items map[listings.ListingID]listings.Listing
}

func NewListingStore() *ListingStore {
	return &ListingStore{items: make(map[listings.ListingID]listings.Listing)}
}

func (s *ListingStore) ByID(ctx context.Context, id listings.ListingID) (*listings.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return nil, listings.ErrListingNotFound
	}
	clone := item
	clone.Addons = append([]pricing.Addon(nil), item.Addons...)
	return &clone, nil
}

func (s *ListingStore) Save(ctx context.Context, listing *listings.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *listing
	clone.Addons = append([]pricing.Addon(nil), listing.Addons...)
	clone.Version = listing.Version + 1
	clone.EventRecorder = events.EventRecorder{}
	s.items[listing.ID] = clone
	listing.Version = clone.Version
	return nil
}
