package quote

import (
	"context"
	"errors"
	"time"

	"staybook/internal/app/dto"
	"staybook/internal/app/policies"
	"staybook/internal/domain/availability"
	"staybook/internal/domain/listings"
	"staybook/internal/domain/pricing"
	"staybook/internal/domain/reservation"
	"staybook/internal/domain/shared/daterange"
)

var (
	ErrListingUnavailable = errors.New("quote: listing is not open for booking")
	ErrGuestsExceeded     = errors.New("quote: party exceeds the listing guest limit")
	ErrListingRequired    = errors.New("quote: listing id is required")
	ErrPartySize          = errors.New("quote: at least one guest must stay")
)

const GetQuoteKey = "pricing.quote"

type AddonSelection struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

type GetQuoteQuery struct {
	ListingID string
	CheckIn   time.Time
	CheckOut  time.Time
	Guests    int
	Addons    []AddonSelection
}

func (GetQuoteQuery) Key() string { return GetQuoteKey }

func (q GetQuoteQuery) Validate() error {
	if q.ListingID == "" {
		return ErrListingRequired
	}
	if q.Guests < 1 {
		return ErrPartySize
	}
	return nil
}

type QuoteResult struct {
	ListingID string           `json:"listing_id"`
	CheckIn   time.Time        `json:"check_in"`
	CheckOut  time.Time        `json:"check_out"`
	Nights    int              `json:"nights"`
	Price     dto.BreakdownDTO `json:"price"`
}

// GetQuoteHandler validates the requested dates and prices the stay
// without creating anything. A successful quote reserves nothing: the
// same dates are validated again at submission time, and may be gone by
// then.
type GetQuoteHandler struct {
	listings     listings.Repository
	reservations reservation.Repository
	tax          policies.TaxPort
}

func NewGetQuoteHandler(listingRepo listings.Repository, reservations reservation.Repository, tax policies.TaxPort) *GetQuoteHandler {
	if tax == nil {
		tax = policies.ZeroTax{}
	}
	return &GetQuoteHandler{listings: listingRepo, reservations: reservations, tax: tax}
}

func (h *GetQuoteHandler) Handle(ctx context.Context, query GetQuoteQuery) (QuoteResult, error) {
	listing, err := h.listings.ByID(ctx, listings.ListingID(query.ListingID))
	if err != nil {
		return QuoteResult{}, err
	}
	if listing.State != listings.ListingActive {
		return QuoteResult{}, ErrListingUnavailable
	}
	if query.Guests > listing.GuestsLimit {
		return QuoteResult{}, ErrGuestsExceeded
	}

	existing, err := h.reservations.ListByListing(ctx, listing.ID)
	if err != nil {
		return QuoteResult{}, err
	}
	snapshots := make([]reservation.Snapshot, 0, len(existing))
	for _, res := range existing {
		snapshots = append(snapshots, res.AsSnapshot())
	}
	candidate := daterange.DateRange{CheckIn: query.CheckIn.UTC(), CheckOut: query.CheckOut.UTC()}
	valid, err := availability.ValidateRange(candidate, availability.UnavailableDates(snapshots), availability.StayRules{
		MinNights: listing.MinNights,
		MaxNights: listing.MaxNights,
	})
	if err != nil {
		return QuoteResult{}, err
	}

	rules := listing.PricingRules()
	input := pricing.QuoteInput{
		NightlyRate: listing.NightlyRate,
		Nights:      valid.Nights,
		Selections:  mapSelections(query.Addons),
	}
	breakdown, err := pricing.ComputeBreakdown(input, rules)
	if err != nil {
		return QuoteResult{}, err
	}
	taxAmount, err := h.tax.Amount(ctx, listing, breakdown.TotalBeforeTaxes)
	if err != nil {
		return QuoteResult{}, err
	}
	if taxAmount != 0 {
		input.TaxAmount = taxAmount
		if breakdown, err = pricing.ComputeBreakdown(input, rules); err != nil {
			return QuoteResult{}, err
		}
	}

	return QuoteResult{
		ListingID: string(listing.ID),
		CheckIn:   valid.Range.CheckIn,
		CheckOut:  valid.Range.CheckOut,
		Nights:    valid.Nights,
		Price:     dto.MapBreakdown(breakdown),
	}, nil
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
