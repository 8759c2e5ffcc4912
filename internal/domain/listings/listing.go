package listings

import (
	"context"
	"errors"
	"strings"
	"time"

	"staybook/internal/domain/pricing"
	"staybook/internal/domain/shared/events"
)

var (
	ErrGuestsLimit     = errors.New("listings: guests limit must be at least 1")
	ErrNightsRange     = errors.New("listings: min nights must be <= max nights")
	ErrMinNights       = errors.New("listings: min nights must be at least 1")
	ErrInvalidState    = errors.New("listings: invalid state transition")
	ErrTitleRequired   = errors.New("listings: title is required")
	ErrNightlyRate     = errors.New("listings: nightly rate must be positive")
	ErrCurrency        = errors.New("listings: currency must be a 3-letter code")
	ErrNegativeFee     = errors.New("listings: cleaning fee cannot be negative")
	ErrDiscountRate    = errors.New("listings: discount rates must be within [0,1)")
	ErrAddonCatalog    = errors.New("listings: addon catalog entries need id, name and non-negative price")
	ErrAddressRequired = errors.New("listings: address must be provided when activating")
	ErrListingNotFound = errors.New("listings: not found")
)

type ListingID string
type HostID string

type ListingState string

const (
	ListingDraft     ListingState = "DRAFT"
	ListingActive    ListingState = "ACTIVE"
	ListingSuspended ListingState = "SUSPENDED"
)

type Address struct {
	Line1   string
	Line2   string
	City    string
	Country string
	Lat     float64
	Lon     float64
}

func (a Address) Valid() bool {
	return strings.TrimSpace(a.Line1) != "" && strings.TrimSpace(a.City) != "" && strings.TrimSpace(a.Country) != ""
}

// Listing is the host-managed aggregate holding the pricing and stay
// configuration the booking flow reads.
type Listing struct {
	ID                   ListingID
	Host                 HostID
	Title                string
	Description          string
	Address              Address
	GuestsLimit          int
	MinNights            int
	MaxNights            int
	State                ListingState
	Currency             string
	NightlyRate          float64
	CleaningFee          float64
	ServiceFeeRate       float64
	WeeklyDiscountRate   float64
	MonthlyDiscountRate  float64
	Addons               []pricing.Addon
	CancellationPolicyID string
	ThumbnailURL         string
	CreatedAt            time.Time
	UpdatedAt            time.Time
	Version              int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	Save(ctx context.Context, listing *Listing) error
}

type CreateParams struct {
	ID                   ListingID
	Host                 HostID
	Title                string
	Description          string
	Address              Address
	GuestsLimit          int
	MinNights            int
	MaxNights            int
	Currency             string
	NightlyRate          float64
	CleaningFee          float64
	ServiceFeeRate       float64
	WeeklyDiscountRate   float64
	MonthlyDiscountRate  float64
	Addons               []pricing.Addon
	CancellationPolicyID string
	ThumbnailURL         string
	Now                  time.Time
}

func NewListing(params CreateParams) (*Listing, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errors.New("listings: id required")
	}
	if strings.TrimSpace(params.Title) == "" {
		return nil, ErrTitleRequired
	}
	if params.GuestsLimit < 1 {
		return nil, ErrGuestsLimit
	}
	if params.MinNights < 1 {
		return nil, ErrMinNights
	}
	if params.MaxNights != 0 && params.MaxNights < params.MinNights {
		return nil, ErrNightsRange
	}
	if params.NightlyRate <= 0 {
		return nil, ErrNightlyRate
	}
	if len(params.Currency) != 3 {
		return nil, ErrCurrency
	}
	if params.CleaningFee < 0 {
		return nil, ErrNegativeFee
	}
	for _, rate := range []float64{params.WeeklyDiscountRate, params.MonthlyDiscountRate} {
		if rate < 0 || rate >= 1 {
			return nil, ErrDiscountRate
		}
	}
	for _, addon := range params.Addons {
		if strings.TrimSpace(addon.ID) == "" || strings.TrimSpace(addon.Name) == "" || addon.Price < 0 {
			return nil, ErrAddonCatalog
		}
	}
	feeRate := params.ServiceFeeRate
	if feeRate == 0 {
		feeRate = pricing.DefaultServiceFeeRate
	}
	now := params.Now.UTC()
	l := &Listing{
		ID:                   params.ID,
		Host:                 params.Host,
		Title:                params.Title,
		Description:          params.Description,
		Address:              params.Address,
		GuestsLimit:          params.GuestsLimit,
		MinNights:            params.MinNights,
		MaxNights:            params.MaxNights,
		State:                ListingDraft,
		Currency:             strings.ToUpper(params.Currency),
		NightlyRate:          params.NightlyRate,
		CleaningFee:          params.CleaningFee,
		ServiceFeeRate:       feeRate,
		WeeklyDiscountRate:   params.WeeklyDiscountRate,
		MonthlyDiscountRate:  params.MonthlyDiscountRate,
		Addons:               append([]pricing.Addon(nil), params.Addons...),
		CancellationPolicyID: params.CancellationPolicyID,
		ThumbnailURL:         params.ThumbnailURL,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	l.Record(ListingCreated{ListingID: l.ID, Host: l.Host, At: now})
	return l, nil
}

// PricingRules snapshots the listing configuration the pricing engine
// consumes.
func (l *Listing) PricingRules() pricing.Rules {
	return pricing.Rules{
		Currency:            l.Currency,
		CleaningFee:         l.CleaningFee,
		ServiceFeeRate:      l.ServiceFeeRate,
		WeeklyDiscountRate:  l.WeeklyDiscountRate,
		MonthlyDiscountRate: l.MonthlyDiscountRate,
		Catalog:             append([]pricing.Addon(nil), l.Addons...),
	}
}

func (l *Listing) Publish(now time.Time) error {
	if l.State != ListingDraft && l.State != ListingSuspended {
		return ErrInvalidState
	}
	if !l.Address.Valid() {
		return ErrAddressRequired
	}
	l.State = ListingActive
	l.UpdatedAt = now.UTC()
	l.Record(ListingPublished{ListingID: l.ID, At: l.UpdatedAt})
	return nil
}

func (l *Listing) Suspend(now time.Time) error {
	if l.State != ListingActive {
		return ErrInvalidState
	}
	l.State = ListingSuspended
	l.UpdatedAt = now.UTC()
	l.Record(ListingSuspendedEvent{ListingID: l.ID, At: l.UpdatedAt})
	return nil
}
