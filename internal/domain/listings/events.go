package listings

import "time"

type ListingCreated struct {
	ListingID ListingID
	Host      HostID
	At        time.Time
}

func (e ListingCreated) EventName() string     { return "listing.created" }
func (e ListingCreated) AggregateID() string   { return string(e.ListingID) }
func (e ListingCreated) OccurredAt() time.Time { return e.At }

type ListingPublished struct {
	ListingID ListingID
	At        time.Time
}

func (e ListingPublished) EventName() string     { return "listing.published" }
func (e ListingPublished) AggregateID() string   { return string(e.ListingID) }
func (e ListingPublished) OccurredAt() time.Time { return e.At }

type ListingSuspendedEvent struct {
	ListingID ListingID
	At        time.Time
}

func (e ListingSuspendedEvent) EventName() string     { return "listing.suspended" }
func (e ListingSuspendedEvent) AggregateID() string   { return string(e.ListingID) }
func (e ListingSuspendedEvent) OccurredAt() time.Time { return e.At }
