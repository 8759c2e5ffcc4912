package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"staybook/internal/domain/listings"
	"staybook/internal/domain/pricing"
	"staybook/internal/domain/reservation"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/infra/storage/memory"
)

var testNow = time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)

func day(d int) time.Time {
	return time.Date(2026, time.September, d, 0, 0, 0, 0, time.UTC)
}

func seed(t *testing.T) (*memory.ListingStore, *memory.ReservationStore, *listings.Listing) {
	t.Helper()
	listingStore := memory.NewListingStore()
	reservations := memory.NewReservationStore()
	listing, err := listings.NewListing(listings.CreateParams{
		ID:          "lst-1",
		Host:        "host-1",
		Title:       "Garden flat",
		Address:     listings.Address{Line1: "Oak 5", City: "Ghent", Country: "BE"},
		GuestsLimit: 3,
		MinNights:   1,
		Currency:    "EUR",
		NightlyRate: 90,
		Now:         testNow,
	})
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if err := listingStore.Save(context.Background(), listing); err != nil {
		t.Fatalf("save: %v", err)
	}
	return listingStore, reservations, listing
}

func addReservation(t *testing.T, store *memory.ReservationStore, listing *listings.Listing, id string, in, out int, status reservation.Status) {
	t.Helper()
	breakdown, err := pricing.ComputeBreakdown(
		pricing.QuoteInput{NightlyRate: 90, Nights: out - in},
		listing.PricingRules(),
	)
	if err != nil {
		t.Fatalf("breakdown: %v", err)
	}
	res, err := reservation.NewReservation(reservation.CreateParams{
		ID:        reservation.ReservationID(id),
		ListingID: listing.ID,
		GuestID:   "guest-1",
		Range:     daterange.DateRange{CheckIn: day(in), CheckOut: day(out)},
		Guests:    2,
		Price:     breakdown,
		CreatedAt: testNow,
	})
	if err != nil {
		t.Fatalf("reservation: %v", err)
	}
	res.Status = status
	if err := store.Save(context.Background(), res); err != nil {
		t.Fatalf("save: %v", err)
	}
}

func TestCalendarListsBlockedDaysSorted(t *testing.T) {
	listingStore, reservations, listing := seed(t)
	addReservation(t, reservations, listing, "res-late", 10, 12, reservation.StatusConfirmed)
	addReservation(t, reservations, listing, "res-early", 4, 6, reservation.StatusPending)
	handler := NewGetCalendarHandler(listingStore, reservations)

	cal, err := handler.Handle(context.Background(), GetCalendarQuery{ListingID: "lst-1"})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	want := []string{
		"2026-09-04", "2026-09-05", "2026-09-06",
		"2026-09-10", "2026-09-11", "2026-09-12",
	}
	if len(cal.Unavailable) != len(want) {
		t.Fatalf("unavailable = %v, want %v", cal.Unavailable, want)
	}
	for i, day := range want {
		if cal.Unavailable[i] != day {
			t.Fatalf("unavailable[%d] = %s, want %s", i, cal.Unavailable[i], day)
		}
	}
}

func TestCalendarIgnoresCancelledAndRejected(t *testing.T) {
	listingStore, reservations, listing := seed(t)
	addReservation(t, reservations, listing, "res-cancelled", 10, 12, reservation.StatusCancelled)
	addReservation(t, reservations, listing, "res-rejected", 14, 16, reservation.StatusRejected)
	handler := NewGetCalendarHandler(listingStore, reservations)

	cal, err := handler.Handle(context.Background(), GetCalendarQuery{ListingID: "lst-1"})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(cal.Unavailable) != 0 {
		t.Fatalf("unavailable = %v, want empty", cal.Unavailable)
	}
}

func TestCalendarUnknownListing(t *testing.T) {
	listingStore, reservations, _ := seed(t)
	handler := NewGetCalendarHandler(listingStore, reservations)

	_, err := handler.Handle(context.Background(), GetCalendarQuery{ListingID: "lst-missing"})
	if !errors.Is(err, listings.ErrListingNotFound) {
		t.Fatalf("err = %v, want ErrListingNotFound", err)
	}
}
