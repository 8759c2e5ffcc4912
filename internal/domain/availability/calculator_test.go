package availability

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"staybook/internal/domain/reservation"
	"staybook/internal/domain/shared/daterange"
)

func day(d int) time.Time {
	return time.Date(2026, time.March, d, 0, 0, 0, 0, time.UTC)
}

func stay(checkIn, checkOut int, status reservation.Status) reservation.Snapshot {
	return reservation.Snapshot{
		Range:  daterange.DateRange{CheckIn: day(checkIn), CheckOut: day(checkOut)},
		Status: status,
	}
}

func TestUnavailableDatesUnionOfStays(t *testing.T) {
	blocked := UnavailableDates([]reservation.Snapshot{
		stay(1, 3, reservation.StatusConfirmed),
		stay(10, 12, reservation.StatusPending),
	})
	want := []string{"2026-03-01", "2026-03-02", "2026-03-03", "2026-03-10", "2026-03-11", "2026-03-12"}
	for _, w := range want {
		if _, ok := blocked[w]; !ok {
			t.Errorf("expected %s to be blocked", w)
		}
	}
	if len(blocked) != len(want) {
		t.Errorf("blocked set has %d days, want %d", len(blocked), len(want))
	}
}

func TestUnavailableDatesSkipsCancelledAndRejected(t *testing.T) {
	blocked := UnavailableDates([]reservation.Snapshot{
		stay(1, 5, reservation.StatusCancelled),
		stay(8, 10, reservation.StatusRejected),
	})
	if len(blocked) != 0 {
		t.Errorf("cancelled/rejected stays must not block dates, got %v", blocked)
	}
}

func TestUnavailableDatesOverlappingStaysCollapse(t *testing.T) {
	blocked := UnavailableDates([]reservation.Snapshot{
		stay(1, 4, reservation.StatusConfirmed),
		stay(3, 6, reservation.StatusCheckedIn),
	})
	// 1..6 inclusive, no double counting
	if len(blocked) != 6 {
		t.Errorf("blocked set has %d days, want 6", len(blocked))
	}
}

func TestSortedUnavailableDatesIsStable(t *testing.T) {
	input := []reservation.Snapshot{
		stay(10, 12, reservation.StatusConfirmed),
		stay(1, 3, reservation.StatusConfirmed),
	}
	first := SortedUnavailableDates(input)
	second := SortedUnavailableDates(input)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("results differ between calls: %v vs %v", first, second)
	}
	if first[0] != "2026-03-01" {
		t.Errorf("dates not sorted: %v", first)
	}
}

func TestValidateRangeOrdering(t *testing.T) {
	blocked := map[string]struct{}{}
	rules := StayRules{MinNights: 1}

	cases := []struct {
		name     string
		checkIn  int
		checkOut int
	}{
		{"same day", 5, 5},
		{"reversed", 7, 5},
	}
	for _, tc := range cases {
		candidate := daterange.DateRange{CheckIn: day(tc.checkIn), CheckOut: day(tc.checkOut)}
		if _, err := ValidateRange(candidate, blocked, rules); !errors.Is(err, ErrInvalidOrder) {
			t.Errorf("%s: error = %v, want ErrInvalidOrder", tc.name, err)
		}
	}
}

func TestValidateRangeStayRules(t *testing.T) {
	blocked := map[string]struct{}{}
	rules := StayRules{MinNights: 2, MaxNights: 5}

	short := daterange.DateRange{CheckIn: day(1), CheckOut: day(2)}
	if _, err := ValidateRange(short, blocked, rules); !errors.Is(err, ErrTooShort) {
		t.Errorf("1 night: error = %v, want ErrTooShort", err)
	}
	long := daterange.DateRange{CheckIn: day(1), CheckOut: day(10)}
	if _, err := ValidateRange(long, blocked, rules); !errors.Is(err, ErrTooLong) {
		t.Errorf("9 nights: error = %v, want ErrTooLong", err)
	}
	ok := daterange.DateRange{CheckIn: day(1), CheckOut: day(4)}
	valid, err := ValidateRange(ok, blocked, rules)
	if err != nil {
		t.Fatalf("3 nights: unexpected error: %v", err)
	}
	if valid.Nights != 3 {
		t.Errorf("nights = %d, want 3", valid.Nights)
	}
}

func TestValidateRangeBlockedDates(t *testing.T) {
	blocked := UnavailableDates([]reservation.Snapshot{stay(10, 13, reservation.StatusConfirmed)})
	rules := StayRules{MinNights: 1}

	inside := daterange.DateRange{CheckIn: day(11), CheckOut: day(12)}
	if _, err := ValidateRange(inside, blocked, rules); !errors.Is(err, ErrDateBlocked) {
		t.Errorf("inside confirmed span: error = %v, want ErrDateBlocked", err)
	}

	// starting on the existing stay's checkout day is still blocked
	startOnTurnover := daterange.DateRange{CheckIn: day(13), CheckOut: day(15)}
	if _, err := ValidateRange(startOnTurnover, blocked, rules); !errors.Is(err, ErrDateBlocked) {
		t.Errorf("check-in on turnover day: error = %v, want ErrDateBlocked", err)
	}

	// ending on the existing stay's check-in day is fine: the candidate's
	// own checkout day is exempt from the blocked check
	endOnCheckIn := daterange.DateRange{CheckIn: day(8), CheckOut: day(10)}
	if _, err := ValidateRange(endOnCheckIn, blocked, rules); err != nil {
		t.Errorf("check-out onto blocked check-in day: unexpected error: %v", err)
	}
}

func TestValidateRangeCancelledSpanDoesNotBlock(t *testing.T) {
	blocked := UnavailableDates([]reservation.Snapshot{stay(10, 13, reservation.StatusCancelled)})
	candidate := daterange.DateRange{CheckIn: day(10), CheckOut: day(13)}
	if _, err := ValidateRange(candidate, blocked, StayRules{MinNights: 1}); err != nil {
		t.Errorf("identical span of a cancelled stay: unexpected error: %v", err)
	}
}

func TestValidateRangeIsIdempotent(t *testing.T) {
	blocked := UnavailableDates([]reservation.Snapshot{stay(20, 22, reservation.StatusConfirmed)})
	candidate := daterange.DateRange{CheckIn: day(1), CheckOut: day(4)}
	rules := StayRules{MinNights: 1}

	first, err1 := ValidateRange(candidate, blocked, rules)
	second, err2 := ValidateRange(candidate, blocked, rules)
	if err1 != nil || err2 != nil {
		t.Fatalf("unexpected errors: %v, %v", err1, err2)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated validation differs: %v vs %v", first, second)
	}
}
