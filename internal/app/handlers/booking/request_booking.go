package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"staybook/internal/app/dto"
	"staybook/internal/app/outbox"
	"staybook/internal/app/policies"
	"staybook/internal/app/uow"
	"staybook/internal/domain/availability"
	"staybook/internal/domain/listings"
	"staybook/internal/domain/pricing"
	"staybook/internal/domain/reservation"
	"staybook/internal/domain/shared/daterange"
)

var (
	ErrListingUnavailable = errors.New("booking: listing is not open for booking")
	ErrGuestsExceeded     = errors.New("booking: party exceeds the listing guest limit")
	ErrListingRequired    = errors.New("booking: listing id is required")
	ErrGuestRequired      = errors.New("booking: guest id is required")
	ErrPartySize          = errors.New("booking: at least one guest must stay")
)

const RequestBookingKey = "booking.request"

type AddonSelection struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

type RequestBookingCommand struct {
	CommandID       string
	ListingID       string
	GuestID         string
	CheckIn         time.Time
	CheckOut        time.Time
	Guests          int
	Addons          []AddonSelection
	IdempotencyKeyV string
}

func (RequestBookingCommand) Key() string { return RequestBookingKey }

func (c RequestBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (RequestBookingCommand) ResultPrototype() any { return &RequestBookingResult{} }

// Validate checks the command shape; date and calendar rules stay with
// the domain.
func (c RequestBookingCommand) Validate() error {
	if c.ListingID == "" {
		return ErrListingRequired
	}
	if c.GuestID == "" {
		return ErrGuestRequired
	}
	if c.Guests < 1 {
		return ErrPartySize
	}
	return nil
}

type RequestBookingResult struct {
	ReservationID string           `json:"reservation_id"`
	Status        string           `json:"status"`
	Price         dto.BreakdownDTO `json:"price"`
	Total         dto.MoneyDTO     `json:"total"`
}

// RequestBookingHandler runs the submission path: re-validate the dates
// against a fresh reservation list, price the stay and persist the
// pending reservation. Validation earlier in the flow holds nothing, so
// two guests racing for the same dates are only separated here, by
// whichever submission reads the other's saved reservation first.
type RequestBookingHandler struct {
	tax      policies.TaxPort
	policyBk *policies.CancellationPolicies
	box      outbox.Outbox
	encoder  outbox.EventEncoder
	clock    func() time.Time
	newID    func() string
}

func NewRequestBookingHandler(tax policies.TaxPort, policyBook *policies.CancellationPolicies, box outbox.Outbox) *RequestBookingHandler {
	if tax == nil {
		tax = policies.ZeroTax{}
	}
	if policyBook == nil {
		policyBook = policies.DefaultCancellationPolicies()
	}
	return &RequestBookingHandler{
		tax:      tax,
		policyBk: policyBook,
		box:      box,
		encoder:  outbox.JSONEventEncoder{IDGenerator: uuid.NewString},
		clock:    time.Now,
		newID:    uuid.NewString,
	}
}

// WithClock overrides the handler clock, for tests.
func (h *RequestBookingHandler) WithClock(clock func() time.Time) *RequestBookingHandler {
	h.clock = clock
	return h
}

// WithIDGenerator overrides reservation ID generation, for tests.
func (h *RequestBookingHandler) WithIDGenerator(gen func() string) *RequestBookingHandler {
	h.newID = gen
	return h
}

func (h *RequestBookingHandler) Handle(ctx context.Context, cmd RequestBookingCommand) (*RequestBookingResult, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}

	listing, err := unit.Listings().ByID(ctx, listings.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}
	if listing.State != listings.ListingActive {
		return nil, ErrListingUnavailable
	}
	if cmd.Guests > listing.GuestsLimit {
		return nil, ErrGuestsExceeded
	}

	candidate := daterange.DateRange{CheckIn: cmd.CheckIn.UTC(), CheckOut: cmd.CheckOut.UTC()}
	existing, err := unit.Reservations().ListByListing(ctx, listing.ID)
	if err != nil {
		return nil, err
	}
	snapshots := make([]reservation.Snapshot, 0, len(existing))
	for _, res := range existing {
		snapshots = append(snapshots, res.AsSnapshot())
	}
	blocked := availability.UnavailableDates(snapshots)
	valid, err := availability.ValidateRange(candidate, blocked, availability.StayRules{
		MinNights: listing.MinNights,
		MaxNights: listing.MaxNights,
	})
	if err != nil {
		return nil, err
	}

	breakdown, err := h.price(ctx, listing, valid.Nights, cmd.Addons)
	if err != nil {
		return nil, err
	}

	now := h.clock().UTC()
	res, err := reservation.NewReservation(reservation.CreateParams{
		ID:        reservation.ReservationID(h.newID()),
		ListingID: listing.ID,
		GuestID:   cmd.GuestID,
		Range:     valid.Range,
		Guests:    cmd.Guests,
		Price:     breakdown,
		Policy:    h.policyBk.Snapshot(listing.CancellationPolicyID, valid.Range.CheckIn),
		CreatedAt: now,
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Reservations().Save(ctx, res); err != nil {
		return nil, err
	}
	if err := outbox.RecordDomainEvents(ctx, h.box, h.encoder, res.PendingEvents()); err != nil {
		return nil, err
	}
	res.ClearEvents()

	return &RequestBookingResult{
		ReservationID: string(res.ID),
		Status:        string(res.Status),
		Price:         dto.MapBreakdown(res.Price),
		Total:         dto.MapMoney(res.Charge),
	}, nil
}

// price runs the breakdown twice: once without taxes to learn the
// taxable total, then again with the externally supplied amount folded
// in. ComputeBreakdown is pure, so the second pass costs nothing.
func (h *RequestBookingHandler) price(ctx context.Context, listing *listings.Listing, nights int, addons []AddonSelection) (pricing.PriceBreakdown, error) {
	rules := listing.PricingRules()
	input := pricing.QuoteInput{
		NightlyRate: listing.NightlyRate,
		Nights:      nights,
		Selections:  mapSelections(addons),
	}
	preTax, err := pricing.ComputeBreakdown(input, rules)
	if err != nil {
		return pricing.PriceBreakdown{}, err
	}
	taxAmount, err := h.tax.Amount(ctx, listing, preTax.TotalBeforeTaxes)
	if err != nil {
		return pricing.PriceBreakdown{}, err
	}
	if taxAmount == 0 {
		return preTax, nil
	}
	input.TaxAmount = taxAmount
	return pricing.ComputeBreakdown(input, rules)
}

func mapSelections(addons []AddonSelection) []pricing.Selection {
	if len(addons) == 0 {
		return nil
	}
	selections := make([]pricing.Selection, 0, len(addons))
	for _, a := range addons {
		selections = append(selections, pricing.Selection{AddonID: a.ID, Quantity: a.Quantity})
	}
	return selections
}
