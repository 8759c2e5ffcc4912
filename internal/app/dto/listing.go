package dto

import (
	"staybook/internal/domain/listings"
)

type AddonDTO struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type ListingOverview struct {
	ID                  string     `json:"id"`
	Title               string     `json:"title"`
	Description         string     `json:"description"`
	City                string     `json:"city"`
	Country             string     `json:"country"`
	State               string     `json:"state"`
	GuestsLimit         int        `json:"guests_limit"`
	MinNights           int        `json:"min_nights"`
	MaxNights           int        `json:"max_nights,omitempty"`
	Currency            string     `json:"currency"`
	NightlyRate         float64    `json:"nightly_rate"`
	CleaningFee         float64    `json:"cleaning_fee"`
	ServiceFeeRate      float64    `json:"service_fee_rate"`
	WeeklyDiscountRate  float64    `json:"weekly_discount_rate,omitempty"`
	MonthlyDiscountRate float64    `json:"monthly_discount_rate,omitempty"`
	Addons              []AddonDTO `json:"addons"`
	ThumbnailURL        string     `json:"thumbnail_url,omitempty"`
}

func MapListingOverview(l *listings.Listing) ListingOverview {
	addons := make([]AddonDTO, 0, len(l.Addons))
	for _, a := range l.Addons {
		addons = append(addons, AddonDTO{ID: a.ID, Name: a.Name, Price: round2(a.Price)})
	}
	return ListingOverview{
		ID:                  string(l.ID),
		Title:               l.Title,
		Description:         l.Description,
		City:                l.Address.City,
		Country:             l.Address.Country,
		State:               string(l.State),
		GuestsLimit:         l.GuestsLimit,
		MinNights:           l.MinNights,
		MaxNights:           l.MaxNights,
		Currency:            l.Currency,
		NightlyRate:         round2(l.NightlyRate),
		CleaningFee:         round2(l.CleaningFee),
		ServiceFeeRate:      l.ServiceFeeRate,
		WeeklyDiscountRate:  l.WeeklyDiscountRate,
		MonthlyDiscountRate: l.MonthlyDiscountRate,
		Addons:              addons,
		ThumbnailURL:        l.ThumbnailURL,
	}
}
