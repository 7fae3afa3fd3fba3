package report

import "errors"

var (
	// ErrInvalidQuarter is returned when the quarter is outside 1..4.
	ErrInvalidQuarter = errors.New("report: invalid quarter")
	// ErrInvalidYear is returned when the year is before MinYear.
	ErrInvalidYear = errors.New("report: invalid year")
	// ErrInvalidRecord is returned when a record payload is not a JSON object.
	ErrInvalidRecord = errors.New("report: invalid record")
	// ErrNonNumericValue is returned when a reduction meets a non-numeric cell.
	ErrNonNumericValue = errors.New("report: non-numeric value")
	// ErrUnknownCategory is returned when a category id is not in the catalog.
	ErrUnknownCategory = errors.New("report: unknown category")
)
