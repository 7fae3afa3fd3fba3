package report

import (
	"fmt"
	"time"
)

// MinYear is the first year the transparency platform serves data for.
const MinYear = 2015

const payloadLayout = "2006-01-02T15:04:05-07:00"

// MarketZone is the fixed UTC+3 offset the platform expects in date payloads.
var MarketZone = time.FixedZone("TRT", 3*60*60)

// Selector identifies a reporting quarter.
type Selector struct {
	Quarter int `json:"quarter"`
	Year    int `json:"year"`
}

// NewSelector validates and builds a Selector.
func NewSelector(quarter, year int) (Selector, error) {
	s := Selector{Quarter: quarter, Year: year}
	if err := s.Validate(); err != nil {
		return Selector{}, err
	}
	return s, nil
}

// PreviousQuarter returns the quarter before the one containing now.
func PreviousQuarter(now time.Time) Selector {
	current := (int(now.Month())-1)/3 + 1
	if current == 1 {
		return Selector{Quarter: 4, Year: now.Year() - 1}
	}
	return Selector{Quarter: current - 1, Year: now.Year()}
}

// Validate checks quarter and year bounds.
func (s Selector) Validate() error {
	if s.Quarter < 1 || s.Quarter > 4 {
		return fmt.Errorf("%w: %d", ErrInvalidQuarter, s.Quarter)
	}
	if s.Year < MinYear {
		return fmt.Errorf("%w: %d", ErrInvalidYear, s.Year)
	}
	return nil
}

// Range returns the cumulative year-to-date range ending at the last hour of the quarter.
func (s Selector) Range() (Range, error) {
	if s.Quarter < 1 || s.Quarter > 4 {
		return Range{}, fmt.Errorf("%w: %d", ErrInvalidQuarter, s.Quarter)
	}
	start := time.Date(s.Year, time.January, 1, 0, 0, 0, 0, MarketZone)
	end := time.Date(s.Year, time.Month(s.Quarter*3+1), 1, 0, 0, 0, 0, MarketZone).Add(-time.Hour)
	return Range{Start: start, End: end}, nil
}

// FileName is the name of the generated workbook.
func (s Selector) FileName() string {
	return fmt.Sprintf("%d-Q%d-Data.xlsx", s.Year, s.Quarter)
}

// SummaryFileName is the name of the summary PDF.
func (s Selector) SummaryFileName() string {
	return fmt.Sprintf("%d-Q%d-Summary.pdf", s.Year, s.Quarter)
}

func (s Selector) String() string {
	return fmt.Sprintf("%d Q%d", s.Year, s.Quarter)
}

// Range is an inclusive time window in MarketZone.
type Range struct {
	Start time.Time
	End   time.Time
}

// StartParam formats the range start for request payloads.
func (r Range) StartParam() string { return r.Start.In(MarketZone).Format(payloadLayout) }

// EndParam formats the range end for request payloads.
func (r Range) EndParam() string { return r.End.In(MarketZone).Format(payloadLayout) }
