package quote

import (
	"context"
	"errors"
	"testing"
	"time"

	"staybook/internal/domain/availability"
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

func seedListing(t *testing.T, store *memory.ListingStore) *listings.Listing {
	t.Helper()
	listing, err := listings.NewListing(listings.CreateParams{
		ID:                  "lst-1",
		Host:                "host-1",
		Title:               "Harbour studio",
		Address:             listings.Address{Line1: "Kaai 3", City: "Antwerp", Country: "BE"},
		GuestsLimit:         2,
		MinNights:           2,
		Currency:            "EUR",
		NightlyRate:         80,
		CleaningFee:         20,
		WeeklyDiscountRate:  0.10,
		MonthlyDiscountRate: 0.25,
		Addons: []pricing.Addon{
			{ID: "addon-bikes", Name: "Bike rental", Price: 12},
		},
		Now: testNow,
	})
	if err != nil {
		t.Fatalf("new listing: %v", err)
	}
	if err := listing.Publish(testNow); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := store.Save(context.Background(), listing); err != nil {
		t.Fatalf("save: %v", err)
	}
	return listing
}

func TestQuoteAppliesWeeklyDiscount(t *testing.T) {
	listingStore := memory.NewListingStore()
	reservations := memory.NewReservationStore()
	seedListing(t, listingStore)
	handler := NewGetQuoteHandler(listingStore, reservations, nil)

	res, err := handler.Handle(context.Background(), GetQuoteQuery{
		ListingID: "lst-1",
		CheckIn:   day(1),
		CheckOut:  day(8),
		Guests:    2,
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Nights != 7 {
		t.Fatalf("nights = %d, want 7", res.Nights)
	}
	if len(res.Price.Discounts) != 1 || res.Price.Discounts[0].Type != pricing.DiscountTypeWeekly {
		t.Fatalf("discounts = %+v, want one weekly discount", res.Price.Discounts)
	}
	// base 560, discount 56, cleaning 20, fee 78.40 on pre-discount base
	if res.Price.ServiceFee != 78.4 {
		t.Fatalf("service fee = %v, want 78.4", res.Price.ServiceFee)
	}
	if res.Price.TotalPrice != 602.4 {
		t.Fatalf("total = %v, want 602.4", res.Price.TotalPrice)
	}
}

func TestQuoteReservesNothing(t *testing.T) {
	listingStore := memory.NewListingStore()
	reservations := memory.NewReservationStore()
	listing := seedListing(t, listingStore)
	handler := NewGetQuoteHandler(listingStore, reservations, nil)

	q := GetQuoteQuery{ListingID: "lst-1", CheckIn: day(1), CheckOut: day(4), Guests: 2}
	for i := 0; i < 3; i++ {
		if _, err := handler.Handle(context.Background(), q); err != nil {
			t.Fatalf("quote %d: %v", i, err)
		}
	}
	stored, err := reservations.ListByListing(context.Background(), listing.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(stored) != 0 {
		t.Fatalf("quoting persisted %d reservations", len(stored))
	}
}

func TestQuoteSeesExistingBookings(t *testing.T) {
	listingStore := memory.NewListingStore()
	reservations := memory.NewReservationStore()
	listing := seedListing(t, listingStore)
	handler := NewGetQuoteHandler(listingStore, reservations, nil)

	breakdown, err := pricing.ComputeBreakdown(
		pricing.QuoteInput{NightlyRate: 80, Nights: 3},
		listing.PricingRules(),
	)
	if err != nil {
		t.Fatalf("breakdown: %v", err)
	}
	res, err := reservation.NewReservation(reservation.CreateParams{
		ID:        "res-1",
		ListingID: listing.ID,
		GuestID:   "guest-1",
		Range:     mustRange(t, day(5), day(8)),
		Guests:    2,
		Price:     breakdown,
		CreatedAt: testNow,
	})
	if err != nil {
		t.Fatalf("reservation: %v", err)
	}
	if err := reservations.Save(context.Background(), res); err != nil {
		t.Fatalf("save: %v", err)
	}

	_, err = handler.Handle(context.Background(), GetQuoteQuery{
		ListingID: "lst-1", CheckIn: day(6), CheckOut: day(9), Guests: 2,
	})
	if !errors.Is(err, availability.ErrDateBlocked) {
		t.Fatalf("err = %v, want ErrDateBlocked", err)
	}
}

func TestQuoteRejectsUnknownAddon(t *testing.T) {
	listingStore := memory.NewListingStore()
	reservations := memory.NewReservationStore()
	seedListing(t, listingStore)
	handler := NewGetQuoteHandler(listingStore, reservations, nil)

	_, err := handler.Handle(context.Background(), GetQuoteQuery{
		ListingID: "lst-1",
		CheckIn:   day(1),
		CheckOut:  day(4),
		Guests:    2,
		Addons:    []AddonSelection{{ID: "addon-sauna", Quantity: 1}},
	})
	if !errors.Is(err, pricing.ErrUnknownAddon) {
		t.Fatalf("err = %v, want ErrUnknownAddon", err)
	}
}

func mustRange(t *testing.T, in, out time.Time) daterange.DateRange {
	t.Helper()
	r, err := daterange.New(in, out)
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	return r
}
