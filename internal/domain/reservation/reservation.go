package reservation

import (
	"context"
	"errors"
	"time"

	"staybook/internal/domain/listings"
	"staybook/internal/domain/pricing"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/events"
	"staybook/internal/domain/shared/money"
)

var (
	ErrInvalidGuests       = errors.New("reservation: guests count must be positive")
	ErrGuestRequired       = errors.New("reservation: guest id required")
	ErrInvalidState        = errors.New("reservation: invalid state transition")
	ErrReservationNotFound = errors.New("reservation: not found")
)

type ReservationID string

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusCheckedIn  Status = "CHECKED_IN"
	StatusCheckedOut Status = "CHECKED_OUT"
	StatusCancelled  Status = "CANCELLED"
	StatusRejected   Status = "REJECTED"
)

// Occupies reports whether a reservation in this status blocks calendar
// dates. Cancelled and rejected stays free their dates.
func (s Status) Occupies() bool {
	return s != StatusCancelled && s != StatusRejected
}

// Snapshot is the read-only view the availability calculator consumes.
type Snapshot struct {
	Range  daterange.DateRange
	Status Status
}

// Reservation is a guest's stay on a listing, from request through
// checkout. The aggregate never recomputes its price: the breakdown is
// frozen at request time and the charge total derived from it once.
type Reservation struct {
	ID          ReservationID
	ListingID   listings.ListingID
	GuestID     string
	Range       daterange.DateRange
	Guests      int
	Price       pricing.PriceBreakdown
	Charge      money.Money
	Status      Status
	Policy      CancellationPolicySnapshot
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ReservationID) (*Reservation, error)
	Save(ctx context.Context, r *Reservation) error
	ListByListing(ctx context.Context, listingID listings.ListingID) ([]*Reservation, error)
}

type CreateParams struct {
	ID        ReservationID
	ListingID listings.ListingID
	GuestID   string
	Range     daterange.DateRange
	Guests    int
	Price     pricing.PriceBreakdown
	Policy    CancellationPolicySnapshot
	CreatedAt time.Time
}

func NewReservation(params CreateParams) (*Reservation, error) {
	if params.Guests <= 0 {
		return nil, ErrInvalidGuests
	}
	if params.GuestID == "" {
		return nil, ErrGuestRequired
	}
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}
	charge, err := params.Price.ChargeTotal()
	if err != nil {
		return nil, err
	}
	now := params.CreatedAt.UTC()
	r := &Reservation{
		ID:        params.ID,
		ListingID: params.ListingID,
		GuestID:   params.GuestID,
		Range:     params.Range,
		Guests:    params.Guests,
		Price:     params.Price.Copy(),
		Charge:    charge,
		Policy:    params.Policy,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.Record(ReservationRequested{
		ReservationID: r.ID,
		ListingID:     r.ListingID,
		GuestID:       r.GuestID,
		Range:         r.Range,
		Guests:        r.Guests,
		QuotedTotal:   r.Charge,
		At:            now,
	})
	return r, nil
}

// AsSnapshot projects the aggregate into the availability read model.
func (r *Reservation) AsSnapshot() Snapshot {
	return Snapshot{Range: r.Range, Status: r.Status}
}

func (r *Reservation) Confirm(now time.Time) error {
	if r.Status != StatusPending {
		return ErrInvalidState
	}
	r.Status = StatusConfirmed
	r.UpdatedAt = now.UTC()
	r.Record(ReservationConfirmed{ReservationID: r.ID, ListingID: r.ListingID, Range: r.Range, Total: r.Charge, At: r.UpdatedAt})
	return nil
}

func (r *Reservation) Reject(reason string, now time.Time) error {
	if r.Status != StatusPending {
		return ErrInvalidState
	}
	r.Status = StatusRejected
	r.UpdatedAt = now.UTC()
	r.Record(ReservationRejected{ReservationID: r.ID, Reason: reason, At: r.UpdatedAt})
	return nil
}

func (r *Reservation) Cancel(reason string, now time.Time) (money.Money, money.Money, error) {
	switch r.Status {
	case StatusPending, StatusConfirmed:
	default:
		return money.Money{}, money.Money{}, ErrInvalidState
	}
	refund, penalty, err := r.Policy.CalculateRefund(r.Charge, now, r.Range.CheckIn)
	if err != nil {
		return money.Money{}, money.Money{}, err
	}
	r.Status = StatusCancelled
	r.UpdatedAt = now.UTC()
	r.Record(ReservationCancelled{ReservationID: r.ID, Refund: refund, Penalty: penalty, Reason: reason, At: r.UpdatedAt})
	return refund, penalty, nil
}

func (r *Reservation) CheckIn(now time.Time) error {
	if r.Status != StatusConfirmed {
		return ErrInvalidState
	}
	r.Status = StatusCheckedIn
	r.UpdatedAt = now.UTC()
	r.Record(GuestCheckedIn{ReservationID: r.ID, At: r.UpdatedAt})
	return nil
}

func (r *Reservation) CheckOut(now time.Time) error {
	if r.Status != StatusCheckedIn {
		return ErrInvalidState
	}
	r.Status = StatusCheckedOut
	r.UpdatedAt = now.UTC()
	r.Record(GuestCheckedOut{ReservationID: r.ID, At: r.UpdatedAt})
	return nil
}
