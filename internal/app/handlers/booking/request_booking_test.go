package booking

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"staybook/internal/app/policies"
	"staybook/internal/app/uow"
	"staybook/internal/domain/availability"
	"staybook/internal/domain/listings"
	"staybook/internal/domain/pricing"
	"staybook/internal/domain/reservation"
	"staybook/internal/infra/storage/memory"
)

var testNow = time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)

func day(d int) time.Time {
	return time.Date(2026, time.September, d, 0, 0, 0, 0, time.UTC)
}

type fixture struct {
	listings     *memory.ListingStore
	reservations *memory.ReservationStore
	outbox       *memory.OutboxStore
	handler      *RequestBookingHandler
	listing      *listings.Listing
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	listing, err := listings.NewListing(listings.CreateParams{
		ID:          "lst-1",
		Host:        "host-1",
		Title:       "Canal-side loft",
		Address:     listings.Address{Line1: "Prinsengracht 12", City: "Amsterdam", Country: "NL"},
		GuestsLimit: 4,
		MinNights:   2,
		MaxNights:   30,
		Currency:    "EUR",
		NightlyRate: 100,
		CleaningFee: 30,
		Addons: []pricing.Addon{
			{ID: "addon-crib", Name: "Baby crib", Price: 15},
		},
		CancellationPolicyID: policies.PolicyFlexible,
		Now:                  testNow,
	})
	if err != nil {
		t.Fatalf("new listing: %v", err)
	}
	if err := listing.Publish(testNow); err != nil {
		t.Fatalf("publish: %v", err)
	}

	f := &fixture{
		listings:     memory.NewListingStore(),
		reservations: memory.NewReservationStore(),
		outbox:       memory.NewOutboxStore(),
		listing:      listing,
	}
	if err := f.listings.Save(context.Background(), listing); err != nil {
		t.Fatalf("save listing: %v", err)
	}

	seq := 0
	f.handler = NewRequestBookingHandler(nil, nil, f.outbox).
		WithClock(func() time.Time { return testNow }).
		WithIDGenerator(func() string { seq++; return fmt.Sprintf("res-%d", seq) })
	return f
}

func (f *fixture) ctx(t *testing.T) context.Context {
	t.Helper()
	unit, err := memory.NewFactory(f.listings, f.reservations).Begin(context.Background(), uow.TxOptions{})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	return uow.ContextWithUnitOfWork(context.Background(), unit)
}

func (f *fixture) request(checkIn, checkOut int) RequestBookingCommand {
	return RequestBookingCommand{
		ListingID: string(f.listing.ID),
		GuestID:   "guest-1",
		CheckIn:   day(checkIn),
		CheckOut:  day(checkOut),
		Guests:    2,
	}
}

func TestRequestBookingHappyPath(t *testing.T) {
	f := newFixture(t)

	res, err := f.handler.Handle(f.ctx(t), f.request(10, 13))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Status != string(reservation.StatusPending) {
		t.Fatalf("status = %s, want PENDING", res.Status)
	}
	// 3 nights * 100 + 30 cleaning + 42 service fee (14% of 300)
	if res.Total.Amount != 37200 || res.Total.Currency != "EUR" {
		t.Fatalf("total = %d %s, want 37200 EUR", res.Total.Amount, res.Total.Currency)
	}
	if res.Price.ServiceFee != 42 {
		t.Fatalf("service fee = %v, want 42", res.Price.ServiceFee)
	}

	stored, err := f.reservations.ByID(context.Background(), reservation.ReservationID(res.ReservationID))
	if err != nil {
		t.Fatalf("stored reservation: %v", err)
	}
	if stored.Status != reservation.StatusPending {
		t.Fatalf("stored status = %s", stored.Status)
	}
	if stored.Policy.PolicyID != policies.PolicyFlexible {
		t.Fatalf("policy = %q, want FLEXIBLE snapshot", stored.Policy.PolicyID)
	}
}

func TestRequestBookingRecordsOutboxEvent(t *testing.T) {
	f := newFixture(t)

	if _, err := f.handler.Handle(f.ctx(t), f.request(10, 12)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if err := f.outbox.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if got := f.outbox.PendingCount(); got != 1 {
		t.Fatalf("pending outbox records = %d, want 1", got)
	}
}

func TestSubmissionRevalidatesAgainstFreshReservations(t *testing.T) {
	f := newFixture(t)

	if _, err := f.handler.Handle(f.ctx(t), f.request(10, 13)); err != nil {
		t.Fatalf("first submission: %v", err)
	}
	// A second guest racing for overlapping dates loses at submission,
	// not before: validation held nothing.
	cmd := f.request(12, 15)
	cmd.GuestID = "guest-2"
	if _, err := f.handler.Handle(f.ctx(t), cmd); !errors.Is(err, availability.ErrDateBlocked) {
		t.Fatalf("err = %v, want ErrDateBlocked", err)
	}
}

func TestTurnoverDayCannotBeNextCheckIn(t *testing.T) {
	f := newFixture(t)

	if _, err := f.handler.Handle(f.ctx(t), f.request(10, 13)); err != nil {
		t.Fatalf("first submission: %v", err)
	}
	cmd := f.request(13, 16)
	cmd.GuestID = "guest-2"
	if _, err := f.handler.Handle(f.ctx(t), cmd); !errors.Is(err, availability.ErrDateBlocked) {
		t.Fatalf("err = %v, want ErrDateBlocked on the checkout day", err)
	}
}

func TestCheckoutOntoExistingCheckInAllowed(t *testing.T) {
	f := newFixture(t)

	if _, err := f.handler.Handle(f.ctx(t), f.request(13, 16)); err != nil {
		t.Fatalf("first submission: %v", err)
	}
	cmd := f.request(11, 13)
	cmd.GuestID = "guest-2"
	if _, err := f.handler.Handle(f.ctx(t), cmd); err != nil {
		t.Fatalf("checkout onto an existing check-in should pass: %v", err)
	}
}

func TestCancelledStayFreesItsDates(t *testing.T) {
	f := newFixture(t)

	first, err := f.handler.Handle(f.ctx(t), f.request(10, 13))
	if err != nil {
		t.Fatalf("first submission: %v", err)
	}
	stored, err := f.reservations.ByID(context.Background(), reservation.ReservationID(first.ReservationID))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, _, err := stored.Cancel("plans changed", testNow); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := f.reservations.Save(context.Background(), stored); err != nil {
		t.Fatalf("save: %v", err)
	}

	cmd := f.request(10, 13)
	cmd.GuestID = "guest-2"
	if _, err := f.handler.Handle(f.ctx(t), cmd); err != nil {
		t.Fatalf("cancelled stay should not block: %v", err)
	}
}

func TestUnknownAddonFailsSubmission(t *testing.T) {
	f := newFixture(t)

	cmd := f.request(10, 13)
	cmd.Addons = []AddonSelection{{ID: "addon-jacuzzi", Quantity: 1}}
	if _, err := f.handler.Handle(f.ctx(t), cmd); !errors.Is(err, pricing.ErrUnknownAddon) {
		t.Fatalf("err = %v, want ErrUnknownAddon", err)
	}
	remaining, err := f.reservations.ListByListing(context.Background(), f.listing.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("failed submission persisted %d reservations", len(remaining))
	}
}

func TestStayRulesEnforced(t *testing.T) {
	f := newFixture(t)

	if _, err := f.handler.Handle(f.ctx(t), f.request(10, 11)); !errors.Is(err, availability.ErrTooShort) {
		t.Fatalf("1 night err = %v, want ErrTooShort", err)
	}
	cmd := f.request(1, 1)
	cmd.CheckOut = day(1).AddDate(0, 0, 45)
	if _, err := f.handler.Handle(f.ctx(t), cmd); !errors.Is(err, availability.ErrTooLong) {
		t.Fatalf("45 nights err = %v, want ErrTooLong", err)
	}
	cmd = f.request(13, 10)
	if _, err := f.handler.Handle(f.ctx(t), cmd); !errors.Is(err, availability.ErrInvalidOrder) {
		t.Fatalf("inverted range err = %v, want ErrInvalidOrder", err)
	}
}

func TestPartySizeAndListingState(t *testing.T) {
	f := newFixture(t)

	cmd := f.request(10, 13)
	cmd.Guests = 5
	if _, err := f.handler.Handle(f.ctx(t), cmd); !errors.Is(err, ErrGuestsExceeded) {
		t.Fatalf("err = %v, want ErrGuestsExceeded", err)
	}

	if err := f.listing.Suspend(testNow); err != nil {
		t.Fatalf("suspend: %v", err)
	}
	if err := f.listings.Save(context.Background(), f.listing); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := f.handler.Handle(f.ctx(t), f.request(10, 13)); !errors.Is(err, ErrListingUnavailable) {
		t.Fatalf("err = %v, want ErrListingUnavailable", err)
	}
}

type fixedTax struct{ amount float64 }

func (f fixedTax) Amount(ctx context.Context, listing *listings.Listing, totalBeforeTaxes float64) (float64, error) {
	return f.amount, nil
}

func TestExternalTaxFoldedIntoTotal(t *testing.T) {
	f := newFixture(t)
	f.handler.tax = fixedTax{amount: 25.5}

	res, err := f.handler.Handle(f.ctx(t), f.request(10, 13))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Price.TaxAmount != 25.5 {
		t.Fatalf("tax = %v, want 25.5", res.Price.TaxAmount)
	}
	// 372 before taxes + 25.5 tax
	if res.Price.TotalPrice != 397.5 {
		t.Fatalf("total = %v, want 397.5", res.Price.TotalPrice)
	}
	if res.Total.Amount != 39750 {
		t.Fatalf("charge = %d, want 39750", res.Total.Amount)
	}
}
