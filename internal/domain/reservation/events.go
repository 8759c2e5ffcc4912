package reservation

import (
	"time"

	"staybook/internal/domain/listings"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
)

type ReservationRequested struct {
	ReservationID ReservationID
	ListingID     listings.ListingID
	GuestID       string
	Range         daterange.DateRange
	Guests        int
	QuotedTotal   money.Money
	At            time.Time
}

func (e ReservationRequested) EventName() string     { return "reservation.requested" }
func (e ReservationRequested) AggregateID() string   { return string(e.ReservationID) }
func (e ReservationRequested) OccurredAt() time.Time { return e.At }

type ReservationConfirmed struct {
	ReservationID ReservationID
	ListingID     listings.ListingID
	Range         daterange.DateRange
	Total         money.Money
	At            time.Time
}

func (e ReservationConfirmed) EventName() string     { return "reservation.confirmed" }
func (e ReservationConfirmed) AggregateID() string   { return string(e.ReservationID) }
func (e ReservationConfirmed) OccurredAt() time.Time { return e.At }

type ReservationRejected struct {
	ReservationID ReservationID
	Reason        string
	At            time.Time
}

func (e ReservationRejected) EventName() string     { return "reservation.rejected" }
func (e ReservationRejected) AggregateID() string   { return string(e.ReservationID) }
func (e ReservationRejected) OccurredAt() time.Time { return e.At }

type ReservationCancelled struct {
	ReservationID ReservationID
	Refund        money.Money
	Penalty       money.Money
	Reason        string
	At            time.Time
}

func (e ReservationCancelled) EventName() string     { return "reservation.cancelled" }
func (e ReservationCancelled) AggregateID() string   { return string(e.ReservationID) }
func (e ReservationCancelled) OccurredAt() time.Time { return e.At }

type GuestCheckedIn struct {
	ReservationID ReservationID
	At            time.Time
}

func (e GuestCheckedIn) EventName() string     { return "reservation.checked_in" }
func (e GuestCheckedIn) AggregateID() string   { return string(e.ReservationID) }
func (e GuestCheckedIn) OccurredAt() time.Time { return e.At }

type GuestCheckedOut struct {
	ReservationID ReservationID
	At            time.Time
}

func (e GuestCheckedOut) EventName() string     { return "reservation.checked_out" }
func (e GuestCheckedOut) AggregateID() string   { return string(e.ReservationID) }
func (e GuestCheckedOut) OccurredAt() time.Time { return e.At }
