package report

import (
	"errors"
	"testing"
	"time"
)

func TestSelectorRange(t *testing.T) {
	cases := []struct {
		quarter int
		endDay  string
	}{
		{1, "2023-03-31T23:00:00+03:00"},
		{2, "2023-06-30T23:00:00+03:00"},
		{3, "2023-09-30T23:00:00+03:00"},
		{4, "2023-12-31T23:00:00+03:00"},
	}
	for _, tc := range cases {
		sel, err := NewSelector(tc.quarter, 2023)
		if err != nil {
			t.Fatalf("new selector q%d: %v", tc.quarter, err)
		}
		rng, err := sel.Range()
		if err != nil {
			t.Fatalf("range q%d: %v", tc.quarter, err)
		}
		if rng.StartParam() != "2023-01-01T00:00:00+03:00" {
			t.Fatalf("q%d: expected year start, got %s", tc.quarter, rng.StartParam())
		}
		if rng.EndParam() != tc.endDay {
			t.Fatalf("q%d: expected end %s, got %s", tc.quarter, tc.endDay, rng.EndParam())
		}
		if rng.End.Before(rng.Start) {
			t.Fatalf("q%d: end before start", tc.quarter)
		}
	}
}

func TestSelectorRejectsInvalidInput(t *testing.T) {
	if _, err := NewSelector(0, 2023); !errors.Is(err, ErrInvalidQuarter) {
		t.Fatalf("expected ErrInvalidQuarter, got %v", err)
	}
	if _, err := NewSelector(5, 2023); !errors.Is(err, ErrInvalidQuarter) {
		t.Fatalf("expected ErrInvalidQuarter, got %v", err)
	}
	if _, err := NewSelector(1, 2014); !errors.Is(err, ErrInvalidYear) {
		t.Fatalf("expected ErrInvalidYear, got %v", err)
	}
	if _, err := (Selector{Quarter: 7, Year: 2023}).Range(); !errors.Is(err, ErrInvalidQuarter) {
		t.Fatalf("expected range to fail for quarter 7, got %v", err)
	}
}

func TestPreviousQuarter(t *testing.T) {
	cases := []struct {
		now  time.Time
		want Selector
	}{
		{time.Date(2024, time.February, 10, 0, 0, 0, 0, time.UTC), Selector{Quarter: 4, Year: 2023}},
		{time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC), Selector{Quarter: 1, Year: 2024}},
		{time.Date(2024, time.September, 30, 0, 0, 0, 0, time.UTC), Selector{Quarter: 2, Year: 2024}},
		{time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC), Selector{Quarter: 3, Year: 2024}},
	}
	for _, tc := range cases {
		if got := PreviousQuarter(tc.now); got != tc.want {
			t.Fatalf("now=%s: expected %v, got %v", tc.now.Format("2006-01-02"), tc.want, got)
		}
	}
}

func TestSelectorFileName(t *testing.T) {
	sel := Selector{Quarter: 3, Year: 2024}
	if sel.FileName() != "2024-Q3-Data.xlsx" {
		t.Fatalf("unexpected file name %s", sel.FileName())
	}
}
