package report

import (
	"regexp"
	"time"
)

const (
	fieldDate     = "date"
	fieldHour     = "hour"
	fieldContract = "kontratAdi"
)

var (
	dateLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	// two-character market prefix followed by YYMMDDHH, e.g. PH23010110.
	contractPattern = regexp.MustCompile(`^..(\d{8})$`)
)

// Row is a normalized upstream record keyed by its naive local timestamp.
type Row struct {
	At     time.Time
	Values map[string]any
}

// Series is one category's normalized table.
type Series struct {
	Category CategoryID
	Columns  []string
	Rows     []Row
	Measures map[Measure]string
	Dropped  int
}

// Empty reports whether the series contributes nothing to a merge.
func (s Series) Empty() bool {
	return len(s.Rows) == 0 || len(s.Columns) == 0
}

// Normalize converts raw records into a time-keyed series with prefixed columns.
func Normalize(cat Category, records []Record) Series {
	series := Series{Category: cat.ID, Measures: map[Measure]string{}}
	if len(records) == 0 {
		return series
	}

	skip := map[string]bool{fieldDate: true}
	if cat.Key == KeyDate {
		skip[fieldHour] = true
	}

	var sourceColumns []string
	seen := map[string]bool{}
	for _, rec := range records {
		at, ok := rowKey(cat.Key, rec)
		if !ok {
			series.Dropped++
			continue
		}
		values := make(map[string]any, len(rec.Fields))
		for _, f := range rec.Fields {
			if skip[f.Name] {
				continue
			}
			if !seen[f.Name] {
				seen[f.Name] = true
				sourceColumns = append(sourceColumns, f.Name)
			}
			// later duplicates overwrite, as in Record.Get
			values[cat.Prefix+f.Name] = f.Value
		}
		series.Rows = append(series.Rows, Row{At: at, Values: values})
	}

	for _, name := range sourceColumns {
		series.Columns = append(series.Columns, cat.Prefix+name)
	}
	for _, rule := range cat.Measures {
		for _, name := range sourceColumns {
			if rule.matches(name) {
				series.Measures[rule.Measure] = cat.Prefix + name
				break
			}
		}
	}
	return series
}

func rowKey(source KeySource, rec Record) (time.Time, bool) {
	switch source {
	case KeyContract:
		value, ok := rec.Get(fieldContract)
		if !ok {
			return time.Time{}, false
		}
		name, ok := value.(string)
		if !ok {
			return time.Time{}, false
		}
		return ParseContractHour(name)
	default:
		value, ok := rec.Get(fieldDate)
		if !ok {
			return time.Time{}, false
		}
		raw, ok := value.(string)
		if !ok {
			return time.Time{}, false
		}
		return ParseNaive(raw)
	}
}

// ParseNaive parses a timestamp and drops its offset, keeping the wall clock.
func ParseNaive(value string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return naive(t), true
		}
	}
	return time.Time{}, false
}

// ParseContractHour derives the delivery hour from an intraday contract name.
func ParseContractHour(name string) (time.Time, bool) {
	m := contractPattern.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, false
	}
	t, err := time.Parse("06010215", m[1])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
