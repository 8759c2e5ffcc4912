package dto

import (
	"time"

	"staybook/internal/domain/listings"
	"staybook/internal/domain/reservation"
	"staybook/internal/domain/shared/money"
)

type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func MapMoney(value money.Money) MoneyDTO {
	return MoneyDTO{Amount: value.Amount, Currency: value.Currency}
}

type ListingSnapshot struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	City         string `json:"city"`
	Country      string `json:"country"`
	ThumbnailURL string `json:"thumbnail_url"`
}

type ReservationSummary struct {
	ID        string          `json:"id"`
	Listing   ListingSnapshot `json:"listing"`
	CheckIn   time.Time       `json:"check_in"`
	CheckOut  time.Time       `json:"check_out"`
	Guests    int             `json:"guests"`
	Status    string          `json:"status"`
	Total     MoneyDTO        `json:"total"`
	Price     BreakdownDTO    `json:"price"`
	CreatedAt time.Time       `json:"created_at"`
}

func MapReservationSummary(res *reservation.Reservation, listing *listings.Listing) ReservationSummary {
	snapshot := ListingSnapshot{ID: string(res.ListingID)}
	if listing != nil {
		snapshot.Title = listing.Title
		snapshot.City = listing.Address.City
		snapshot.Country = listing.Address.Country
		snapshot.ThumbnailURL = listing.ThumbnailURL
	}
	return ReservationSummary{
		ID:        string(res.ID),
		Listing:   snapshot,
		CheckIn:   res.Range.CheckIn,
		CheckOut:  res.Range.CheckOut,
		Guests:    res.Guests,
		Status:    string(res.Status),
		Total:     MapMoney(res.Charge),
		Price:     MapBreakdown(res.Price),
		CreatedAt: res.CreatedAt,
	}
}
