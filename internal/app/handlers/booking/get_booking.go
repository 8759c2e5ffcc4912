package booking

import (
	"context"

	"staybook/internal/app/dto"
	"staybook/internal/domain/listings"
	"staybook/internal/domain/reservation"
)

const GetBookingKey = "booking.get"

type GetBookingQuery struct {
	ReservationID string
}

func (GetBookingQuery) Key() string { return GetBookingKey }

// GetBookingHandler reads a single reservation with its listing snapshot
// attached. Read side only, no unit of work.
type GetBookingHandler struct {
	reservations reservation.Repository
	listings     listings.Repository
}

func NewGetBookingHandler(reservations reservation.Repository, listingRepo listings.Repository) *GetBookingHandler {
	return &GetBookingHandler{reservations: reservations, listings: listingRepo}
}

func (h *GetBookingHandler) Handle(ctx context.Context, query GetBookingQuery) (dto.ReservationSummary, error) {
	res, err := h.reservations.ByID(ctx, reservation.ReservationID(query.ReservationID))
	if err != nil {
		return dto.ReservationSummary{}, err
	}
	listing, err := h.listings.ByID(ctx, res.ListingID)
	if err != nil {
		// The summary degrades to IDs only when the listing is gone.
		listing = nil
	}
	return dto.MapReservationSummary(res, listing), nil
}
