package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlistings "staybook/internal/domain/listings"
	domainpricing "staybook/internal/domain/pricing"
)

type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{col: db.Collection("agg_listing")}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	var doc listingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainlistings.ErrListingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	doc := newListingDocument(listing)
	filter := bson.M{"_id": doc.ID, "version": listing.Version}
	doc.Version = listing.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	result, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if result.MatchedCount == 0 && result.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	listing.Version = doc.Version
	return nil
}

type listingDocument struct {
	ID                  string            `bson:"_id"`
	Host                string            `bson:"host_id"`
	Title               string            `bson:"title"`
	Description         string            `bson:"description"`
	Address             addressDocument   `bson:"address"`
	GuestsLimit         int               `bson:"guests_limit"`
	MinNights           int               `bson:"min_nights"`
	MaxNights           int               `bson:"max_nights"`
	State               string            `bson:"state"`
	Currency            string            `bson:"currency"`
	NightlyRate         float64           `bson:"nightly_rate"`
	CleaningFee         float64           `bson:"cleaning_fee"`
	ServiceFeeRate      float64           `bson:"service_fee_rate"`
	WeeklyDiscountRate  float64           `bson:"weekly_discount_rate"`
	MonthlyDiscountRate float64           `bson:"monthly_discount_rate"`
	Addons              []addonDocument   `bson:"addons"`
	CancellationPolicy  string            `bson:"cancellation_policy_id"`
	ThumbnailURL        string            `bson:"thumbnail_url"`
	CreatedAt           int64             `bson:"created_at"`
	UpdatedAt           int64             `bson:"updated_at"`
	Version             int64             `bson:"version"`
}

type addressDocument struct {
	Line1   string  `bson:"line1"`
	Line2   string  `bson:"line2"`
	City    string  `bson:"city"`
	Country string  `bson:"country"`
	Lat     float64 `bson:"lat"`
	Lon     float64 `bson:"lon"`
}

type addonDocument struct {
	ID    string  `bson:"id"`
	Name  string  `bson:"name"`
	Price float64 `bson:"price"`
}

func newListingDocument(l *domainlistings.Listing) listingDocument {
	addons := make([]addonDocument, 0, len(l.Addons))
	for _, a := range l.Addons {
		addons = append(addons, addonDocument{ID: a.ID, Name: a.Name, Price: a.Price})
	}
	return listingDocument{
		ID:          string(l.ID),
		Host:        string(l.Host),
		Title:       l.Title,
		Description: l.Description,
		Address: addressDocument{
			Line1:   l.Address.Line1,
			Line2:   l.Address.Line2,
			City:    l.Address.City,
			Country: l.Address.Country,
			Lat:     l.Address.Lat,
			Lon:     l.Address.Lon,
		},
		GuestsLimit:         l.GuestsLimit,
		MinNights:           l.MinNights,
		MaxNights:           l.MaxNights,
		State:               string(l.State),
		Currency:            l.Currency,
		NightlyRate:         l.NightlyRate,
		CleaningFee:         l.CleaningFee,
		ServiceFeeRate:      l.ServiceFeeRate,
		WeeklyDiscountRate:  l.WeeklyDiscountRate,
		MonthlyDiscountRate: l.MonthlyDiscountRate,
		Addons:              addons,
		CancellationPolicy:  l.CancellationPolicyID,
		ThumbnailURL:        l.ThumbnailURL,
		CreatedAt:           l.CreatedAt.UnixMilli(),
		UpdatedAt:           l.UpdatedAt.UnixMilli(),
		Version:             l.Version,
	}
}

func (d listingDocument) toAggregate() *domainlistings.Listing {
	addons := make([]domainpricing.Addon, 0, len(d.Addons))
	for _, a := range d.Addons {
		addons = append(addons, domainpricing.Addon{ID: a.ID, Name: a.Name, Price: a.Price})
	}
	return &domainlistings.Listing{
		ID:          domainlistings.ListingID(d.ID),
		Host:        domainlistings.HostID(d.Host),
		Title:       d.Title,
		Description: d.Description,
		Address: domainlistings.Address{
			Line1:   d.Address.Line1,
			Line2:   d.Address.Line2,
			City:    d.Address.City,
			Country: d.Address.Country,
			Lat:     d.Address.Lat,
			Lon:     d.Address.Lon,
		},
		GuestsLimit:          d.GuestsLimit,
		MinNights:            d.MinNights,
		MaxNights:            d.MaxNights,
		State:                domainlistings.ListingState(d.State),
		Currency:             d.Currency,
		NightlyRate:          d.NightlyRate,
		CleaningFee:          d.CleaningFee,
		ServiceFeeRate:       d.ServiceFeeRate,
		WeeklyDiscountRate:   d.WeeklyDiscountRate,
		MonthlyDiscountRate:  d.MonthlyDiscountRate,
		Addons:               addons,
		CancellationPolicyID: d.CancellationPolicy,
		ThumbnailURL:         d.ThumbnailURL,
		CreatedAt:            timestampToTime(d.CreatedAt),
		UpdatedAt:            timestampToTime(d.UpdatedAt),
		Version:              d.Version,
	}
}
