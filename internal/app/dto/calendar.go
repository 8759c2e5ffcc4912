package dto

// Calendar lists the days of a listing that cannot be booked, as sorted
// ISO calendar dates.
type Calendar struct {
	ListingID   string   `json:"listing_id"`
	Unavailable []string `json:"unavailable"`
}
