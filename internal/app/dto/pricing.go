package dto

import (
	"math"

	"staybook/internal/domain/pricing"
)

type DiscountDTO struct {
	Type   string  `json:"type"`
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

type AddonChargeDTO struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Amount   float64 `json:"amount"`
}

type BreakdownDTO struct {
	Nights           int              `json:"nights"`
	NightlyRate      float64          `json:"nightly_rate"`
	BasePrice        float64          `json:"base_price"`
	Discounts        []DiscountDTO    `json:"discounts"`
	Addons           []AddonChargeDTO `json:"addons"`
	AddonsTotal      float64          `json:"addons_total"`
	CleaningFee      float64          `json:"cleaning_fee"`
	ServiceFee       float64          `json:"service_fee"`
	TaxAmount        float64          `json:"tax_amount"`
	TotalBeforeTaxes float64          `json:"total_before_taxes"`
	TotalPrice       float64          `json:"total_price"`
	Currency         string           `json:"currency"`
}

// MapBreakdown renders a breakdown for clients. Components are rounded
// to two decimals here and nowhere earlier, so intermediate arithmetic
// never compounds rounding error.
func MapBreakdown(b pricing.PriceBreakdown) BreakdownDTO {
	discounts := make([]DiscountDTO, 0, len(b.Discounts))
	for _, d := range b.Discounts {
		discounts = append(discounts, DiscountDTO{Type: d.Type, Name: d.Name, Amount: round2(d.Amount)})
	}
	addons := make([]AddonChargeDTO, 0, len(b.Addons))
	for _, a := range b.Addons {
		addons = append(addons, AddonChargeDTO{ID: a.AddonID, Name: a.Name, Quantity: a.Quantity, Amount: round2(a.Amount)})
	}
	return BreakdownDTO{
		Nights:           b.Nights,
		NightlyRate:      round2(b.NightlyRate),
		BasePrice:        round2(b.BasePrice),
		Discounts:        discounts,
		Addons:           addons,
		AddonsTotal:      round2(b.AddonsTotal),
		CleaningFee:      round2(b.CleaningFee),
		ServiceFee:       round2(b.ServiceFee),
		TaxAmount:        round2(b.TaxAmount),
		TotalBeforeTaxes: round2(b.TotalBeforeTaxes),
		TotalPrice:       round2(b.TotalPrice),
		Currency:         b.Currency,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
