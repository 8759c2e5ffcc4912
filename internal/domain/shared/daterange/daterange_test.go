package daterange

import (
	"errors"
	"testing"
	"time"
)

func date(d int) time.Time {
	return time.Date(2026, time.June, d, 0, 0, 0, 0, time.UTC)
}

func TestNewRejectsBadOrder(t *testing.T) {
	if _, err := New(date(5), date(5)); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("zero-night range: error = %v, want ErrInvalidRange", err)
	}
	if _, err := New(date(7), date(5)); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("reversed range: error = %v, want ErrInvalidRange", err)
	}
}

func TestNights(t *testing.T) {
	dr, err := New(date(1), date(5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dr.Nights() != 4 {
		t.Errorf("nights = %d, want 4", dr.Nights())
	}
}

func TestOverlaps(t *testing.T) {
	a := DateRange{CheckIn: date(1), CheckOut: date(5)}
	b := DateRange{CheckIn: date(4), CheckOut: date(8)}
	c := DateRange{CheckIn: date(5), CheckOut: date(9)}
	if !a.Overlaps(b) {
		t.Error("expected overlap between [1,5) and [4,8)")
	}
	if a.Overlaps(c) {
		t.Error("half-open ranges sharing an endpoint must not overlap")
	}
}

func TestDays(t *testing.T) {
	dr := DateRange{CheckIn: date(1), CheckOut: date(4)}
	days := dr.Days()
	if len(days) != 3 {
		t.Fatalf("days = %d, want 3", len(days))
	}
	if DayKey(days[0]) != "2026-06-01" || DayKey(days[2]) != "2026-06-03" {
		t.Errorf("unexpected days: %v", days)
	}
	inclusive := dr.DaysInclusive()
	if len(inclusive) != 4 || DayKey(inclusive[3]) != "2026-06-04" {
		t.Errorf("inclusive days should append the checkout day: %v", inclusive)
	}
}

func TestTruncateDropsTimeOfDay(t *testing.T) {
	late := time.Date(2026, time.June, 3, 23, 15, 0, 0, time.UTC)
	if got := DayKey(late); got != "2026-06-03" {
		t.Errorf("day key = %s, want 2026-06-03", got)
	}
	if !Truncate(late).Equal(date(3)) {
		t.Errorf("truncate = %v, want %v", Truncate(late), date(3))
	}
}
