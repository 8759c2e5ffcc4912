package calendar

import (
	"context"

	"staybook/internal/app/dto"
	"staybook/internal/domain/availability"
	"staybook/internal/domain/listings"
	"staybook/internal/domain/reservation"
)

const GetCalendarKey = "availability.calendar"

type GetCalendarQuery struct {
	ListingID string
}

func (GetCalendarQuery) Key() string { return GetCalendarKey }

// GetCalendarHandler derives a listing's blocked dates from its live
// reservations on every read. No calendar state is stored, so cancelled
// stays free their dates the moment the cancellation is persisted.
type GetCalendarHandler struct {
	listings     listings.Repository
	reservations reservation.Repository
}

func NewGetCalendarHandler(listingRepo listings.Repository, reservations reservation.Repository) *GetCalendarHandler {
	return &GetCalendarHandler{listings: listingRepo, reservations: reservations}
}

func (h *GetCalendarHandler) Handle(ctx context.Context, query GetCalendarQuery) (dto.Calendar, error) {
	listing, err := h.listings.ByID(ctx, listings.ListingID(query.ListingID))
	if err != nil {
		return dto.Calendar{}, err
	}
	existing, err := h.reservations.ListByListing(ctx, listing.ID)
	if err != nil {
		return dto.Calendar{}, err
	}
	snapshots := make([]reservation.Snapshot, 0, len(existing))
	for _, res := range existing {
		snapshots = append(snapshots, res.AsSnapshot())
	}
	return dto.Calendar{
		ListingID:   string(listing.ID),
		Unavailable: availability.SortedUnavailableDates(snapshots),
	}, nil
}
