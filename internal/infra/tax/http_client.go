package tax

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"staybook/internal/app/policies"
	"staybook/internal/domain/listings"
)

// HTTPClient asks an external tax service for the amount owed on a
// stay. Jurisdiction rules live entirely in that service; a quote just
// folds the returned amount into its total.
type HTTPClient struct {
	Client   *http.Client
	Endpoint string
	Logger   *slog.Logger
}

type taxRequest struct {
	ListingID string  `json:"listing_id"`
	City      string  `json:"city"`
	Country   string  `json:"country"`
	Currency  string  `json:"currency"`
	Taxable   float64 `json:"taxable_amount"`
}

type taxResponse struct {
	TaxAmount float64 `json:"tax_amount"`
}

func (c *HTTPClient) Amount(ctx context.Context, listing *listings.Listing, totalBeforeTaxes float64) (float64, error) {
	if c == nil || c.Client == nil {
		return 0, errors.New("tax: http client not configured")
	}
	if c.Endpoint == "" {
		return 0, errors.New("tax: endpoint not configured")
	}
	if listing == nil {
		return 0, errors.New("tax: listing missing")
	}

	body, err := json.Marshal(taxRequest{
		ListingID: string(listing.ID),
		City:      listing.Address.City,
		Country:   listing.Address.Country,
		Currency:  listing.Currency,
		Taxable:   totalBeforeTaxes,
	})
	if err != nil {
		return 0, err
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	request.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(request)
	if err != nil {
		c.logError("tax request failed", listing.ID, err)
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("tax service returned status %d: %s", resp.StatusCode, string(snippet))
		c.logError("tax service returned error", listing.ID, err)
		return 0, err
	}

	var decoded taxResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		c.logError("tax decode failed", listing.ID, err)
		return 0, err
	}
	if decoded.TaxAmount < 0 {
		return 0, fmt.Errorf("tax: negative amount %v from service", decoded.TaxAmount)
	}
	return decoded.TaxAmount, nil
}

func (c *HTTPClient) logError(msg string, listingID listings.ListingID, err error) {
	if c.Logger == nil {
		return
	}
	c.Logger.Error(msg, "listing_id", listingID, "error", err)
}

var _ policies.TaxPort = (*HTTPClient)(nil)
