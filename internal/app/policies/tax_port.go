package policies

import (
	"context"

	"staybook/internal/domain/listings"
)

// TaxPort supplies the externally computed tax amount for a quote.
// Jurisdiction logic lives in a separate service; the engine only adds
// whatever amount comes back.
type TaxPort interface {
	Amount(ctx context.Context, listing *listings.Listing, totalBeforeTaxes float64) (float64, error)
}

// ZeroTax is the default port for deployments without a tax service.
type ZeroTax struct{}

func (ZeroTax) Amount(ctx context.Context, listing *listings.Listing, totalBeforeTaxes float64) (float64, error) {
	return 0, nil
}

var _ TaxPort = ZeroTax{}
