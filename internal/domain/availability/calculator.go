package availability

import (
	"errors"
	"sort"

	"staybook/internal/domain/reservation"
	"staybook/internal/domain/shared/daterange"
)

var (
	ErrInvalidOrder = errors.New("availability: checkout must be after checkin")
	ErrTooShort     = errors.New("availability: stay is shorter than the listing minimum")
	ErrTooLong      = errors.New("availability: stay is longer than the listing maximum")
	ErrDateBlocked  = errors.New("availability: requested dates are already booked")
)

// StayRules bounds the length of a stay. MaxNights zero means unbounded.
type StayRules struct {
	MinNights int
	MaxNights int
}

// ValidRange is a candidate range that passed validation, with its night
// count resolved.
type ValidRange struct {
	Range  daterange.DateRange
	Nights int
}

// UnavailableDates derives the set of blocked calendar days from a
// listing's reservations. Cancelled and rejected stays do not occupy
// dates. Every day of a stay including the check-out day is blocked:
// the turnover day cannot become another stay's check-in, which avoids
// same-day back-to-back ambiguity.
//
// Pure function of its input; keys are ISO calendar days (2006-01-02).
func UnavailableDates(reservations []reservation.Snapshot) map[string]struct{} {
	blocked := make(map[string]struct{})
	for _, res := range reservations {
		if !res.Status.Occupies() {
			continue
		}
		if res.Range.Validate() != nil {
			continue
		}
		for _, day := range res.Range.DaysInclusive() {
			blocked[daterange.DayKey(day)] = struct{}{}
		}
	}
	return blocked
}

// SortedUnavailableDates renders the blocked set as a sorted slice for
// stable calendar responses.
func SortedUnavailableDates(reservations []reservation.Snapshot) []string {
	blocked := UnavailableDates(reservations)
	days := make([]string, 0, len(blocked))
	for day := range blocked {
		days = append(days, day)
	}
	sort.Strings(days)
	return days
}

// ValidateRange checks a candidate stay against the blocked set and the
// listing's stay rules. Only the nights the guest actually occupies,
// [checkIn, checkOut), are tested against the blocked set: a stay may
// check out on a day that an existing stay's inclusive block covers,
// consistent with turnover.
//
// Validation holds nothing: between a successful validation and the
// booking submission another actor may take the same dates, so callers
// re-validate with a fresh reservation snapshot at submission time.
func ValidateRange(candidate daterange.DateRange, blocked map[string]struct{}, rules StayRules) (ValidRange, error) {
	if candidate.Validate() != nil {
		return ValidRange{}, ErrInvalidOrder
	}
	nights := candidate.Nights()
	if rules.MinNights > 0 && nights < rules.MinNights {
		return ValidRange{}, ErrTooShort
	}
	if rules.MaxNights > 0 && nights > rules.MaxNights {
		return ValidRange{}, ErrTooLong
	}
	for _, day := range candidate.Days() {
		if _, taken := blocked[daterange.DayKey(day)]; taken {
			return ValidRange{}, ErrDateBlocked
		}
	}
	return ValidRange{Range: candidate, Nights: nights}, nil
}
