package pricing

import (
	"errors"
	"fmt"

	"staybook/internal/domain/shared/money"
)

var (
	ErrInvalidNights   = errors.New("pricing: nights must be at least one")
	ErrUnknownAddon    = errors.New("pricing: addon not present in listing catalog")
	ErrInvalidQuantity = errors.New("pricing: addon quantity must be positive")
	ErrRateUnset       = errors.New("pricing: nightly rate must be set")
	ErrCurrencyUnset   = errors.New("pricing: currency must be defined")
)

// DefaultServiceFeeRate is the platform service fee charged on the
// pre-discount subtotal of every booking.
const DefaultServiceFeeRate = 0.14

// Addon is a bookable extra from a listing's catalog. Addons are resolved
// by stable ID; Name is display metadata only.
type Addon struct {
	ID    string
	Name  string
	Price float64
}

// Selection references a catalog addon chosen by the guest.
type Selection struct {
	AddonID  string
	Quantity int
}

// Rules carries a listing's pricing configuration. All rates are
// fractions in [0,1]; zero discount rates mean the discount is not
// offered.
type Rules struct {
	Currency            string
	CleaningFee         float64
	ServiceFeeRate      float64
	WeeklyDiscountRate  float64
	MonthlyDiscountRate float64
	Catalog             []Addon
}

func (r Rules) Validate() error {
	if r.Currency == "" {
		return ErrCurrencyUnset
	}
	return nil
}

type Discount struct {
	Type   string
	Name   string
	Amount float64
}

// AddonCharge is a priced line item for one selected addon.
type AddonCharge struct {
	AddonID  string
	Name     string
	Quantity int
	Amount   float64
}

// PriceBreakdown is the itemized result of a quote. Amounts are kept
// unrounded; rounding to two decimals happens only at the display
// boundary so component rounding errors never compound.
type PriceBreakdown struct {
	Nights           int
	NightlyRate      float64
	BasePrice        float64
	Discounts        []Discount
	Addons           []AddonCharge
	AddonsTotal      float64
	CleaningFee      float64
	ServiceFee       float64
	TaxAmount        float64
	TotalBeforeTaxes float64
	TotalPrice       float64
	Currency         string
}

// DiscountTotal sums every applied discount.
func (p PriceBreakdown) DiscountTotal() float64 {
	var total float64
	for _, d := range p.Discounts {
		total += d.Amount
	}
	return total
}

// ChargeTotal converts the final price into minor-unit money for the
// submission boundary. This is the only point the engine rounds.
func (p PriceBreakdown) ChargeTotal() (money.Money, error) {
	return money.FromDecimal(p.TotalPrice, p.Currency)
}

// Copy returns a deep copy so callers cannot alias the line-item slices.
func (p PriceBreakdown) Copy() PriceBreakdown {
	clone := p
	clone.Discounts = append([]Discount(nil), p.Discounts...)
	clone.Addons = append([]AddonCharge(nil), p.Addons...)
	return clone
}

// QuoteInput is the per-request half of a quote: the validated night
// count, the guest's addon picks and the externally supplied tax amount.
type QuoteInput struct {
	NightlyRate float64
	Nights      int
	Selections  []Selection
	TaxAmount   float64
}

// ComputeBreakdown produces the itemized price for a stay. It is a pure
// function: identical inputs always yield the identical breakdown, which
// lets display layers recompute on every input change.
//
// The service fee is charged on the pre-discount, post-addon subtotal:
// discounts reduce what the guest pays the host, not the platform fee.
func ComputeBreakdown(in QuoteInput, rules Rules) (PriceBreakdown, error) {
	var zero PriceBreakdown
	if err := rules.Validate(); err != nil {
		return zero, err
	}
	if in.NightlyRate <= 0 {
		return zero, ErrRateUnset
	}
	if in.Nights < 1 {
		return zero, ErrInvalidNights
	}

	basePrice := in.NightlyRate * float64(in.Nights)

	addons, addonsTotal, err := resolveAddons(in.Selections, rules.Catalog)
	if err != nil {
		return zero, err
	}

	discounts := evaluateDiscounts(rules.DiscountRules(), in.Nights, basePrice)

	serviceFee := (basePrice + addonsTotal) * rules.ServiceFeeRate

	breakdown := PriceBreakdown{
		Nights:      in.Nights,
		NightlyRate: in.NightlyRate,
		BasePrice:   basePrice,
		Discounts:   discounts,
		Addons:      addons,
		AddonsTotal: addonsTotal,
		CleaningFee: rules.CleaningFee,
		ServiceFee:  serviceFee,
		TaxAmount:   in.TaxAmount,
		Currency:    rules.Currency,
	}
	breakdown.TotalBeforeTaxes = basePrice - breakdown.DiscountTotal() + addonsTotal + rules.CleaningFee + serviceFee
	breakdown.TotalPrice = breakdown.TotalBeforeTaxes + in.TaxAmount
	return breakdown, nil
}

// resolveAddons prices each selection against the catalog. Unknown IDs
// fail the whole quote rather than being dropped silently.
func resolveAddons(selections []Selection, catalog []Addon) ([]AddonCharge, float64, error) {
	if len(selections) == 0 {
		return nil, 0, nil
	}
	byID := make(map[string]Addon, len(catalog))
	for _, a := range catalog {
		byID[a.ID] = a
	}
	charges := make([]AddonCharge, 0, len(selections))
	var total float64
	for _, sel := range selections {
		addon, ok := byID[sel.AddonID]
		if !ok {
			return nil, 0, fmt.Errorf("%w: %s", ErrUnknownAddon, sel.AddonID)
		}
		if sel.Quantity < 1 {
			return nil, 0, fmt.Errorf("%w: %s", ErrInvalidQuantity, sel.AddonID)
		}
		amount := addon.Price * float64(sel.Quantity)
		charges = append(charges, AddonCharge{
			AddonID:  addon.ID,
			Name:     addon.Name,
			Quantity: sel.Quantity,
			Amount:   amount,
		})
		total += amount
	}
	return charges, total, nil
}
