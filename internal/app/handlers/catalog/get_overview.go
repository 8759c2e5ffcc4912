package catalog

import (
	"context"

	"staybook/internal/app/dto"
	"staybook/internal/domain/listings"
)

const GetOverviewKey = "listings.overview"

type GetOverviewQuery struct {
	ListingID string
}

func (GetOverviewQuery) Key() string { return GetOverviewKey }

type GetOverviewHandler struct {
	listings listings.Repository
}

func NewGetOverviewHandler(listingRepo listings.Repository) *GetOverviewHandler {
	return &GetOverviewHandler{listings: listingRepo}
}

func (h *GetOverviewHandler) Handle(ctx context.Context, query GetOverviewQuery) (dto.ListingOverview, error) {
	listing, err := h.listings.ByID(ctx, listings.ListingID(query.ListingID))
	if err != nil {
		return dto.ListingOverview{}, err
	}
	return dto.MapListingOverview(listing), nil
}
