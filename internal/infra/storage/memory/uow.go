package memory

import (
	"context"

	"staybook/internal/app/uow"
	"staybook/internal/domain/listings"
	"staybook/internal/domain/reservation"
)

// Factory hands out units of work over the shared in-memory stores.
// There is no transaction to speak of: Commit and Rollback are no-ops
// and writes are visible immediately, which matches the lock-free
// booking flow this store backs.
type Factory struct {
	listings     *ListingStore
	reservations *ReservationStore
}

func NewFactory(listingStore *ListingStore, reservationStore *ReservationStore) *Factory {
	return &Factory{listings: listingStore, reservations: reservationStore}
}

func (f *Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	return &Unit{factory: f}, nil
}

type Unit struct {
	factory *Factory
}

func (u *Unit) Listings() listings.Repository        { return u.factory.listings }
func (u *Unit) Reservations() reservation.Repository { return u.factory.reservations }

func (u *Unit) Commit(ctx context.Context) error   { return nil }
func (u *Unit) Rollback(ctx context.Context) error { return nil }
