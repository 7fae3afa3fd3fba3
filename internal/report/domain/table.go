package report

import (
	"sort"
	"strconv"
	"time"
)

type measureKey struct {
	category CategoryID
	measure  Measure
}

// Table is the merged, time-indexed report table.
// Index is sorted and unique; a nil cell means the value is missing.
type Table struct {
	Index    []time.Time
	Columns  []string
	cells    map[string][]any
	measures map[measureKey]string
}

// Merge outer-joins series on their timestamps. For every series only the
// first row seen at a timestamp is kept.
func Merge(series ...Series) *Table {
	t := &Table{cells: map[string][]any{}, measures: map[measureKey]string{}}

	stamps := map[int64]time.Time{}
	for _, s := range series {
		if s.Empty() {
			continue
		}
		for _, row := range s.Rows {
			stamps[row.At.UnixNano()] = row.At
		}
	}
	if len(stamps) == 0 {
		return t
	}
	t.Index = make([]time.Time, 0, len(stamps))
	for _, at := range stamps {
		t.Index = append(t.Index, at)
	}
	sort.Slice(t.Index, func(i, j int) bool { return t.Index[i].Before(t.Index[j]) })
	position := make(map[int64]int, len(t.Index))
	for i, at := range t.Index {
		position[at.UnixNano()] = i
	}

	for _, s := range series {
		if s.Empty() {
			continue
		}
		names := make(map[string]string, len(s.Columns))
		for _, col := range s.Columns {
			name := t.uniqueName(col)
			names[col] = name
			t.Columns = append(t.Columns, name)
			t.cells[name] = make([]any, len(t.Index))
		}
		filled := make([]bool, len(t.Index))
		for _, row := range s.Rows {
			pos := position[row.At.UnixNano()]
			if filled[pos] {
				continue
			}
			filled[pos] = true
			for col, value := range row.Values {
				if name, ok := names[col]; ok {
					t.cells[name][pos] = value
				}
			}
		}
		for measure, col := range s.Measures {
			if name, ok := names[col]; ok {
				t.measures[measureKey{category: s.Category, measure: measure}] = name
			}
		}
	}
	return t
}

// uniqueName suffixes a column name already taken by an earlier series.
func (t *Table) uniqueName(name string) string {
	if _, taken := t.cells[name]; !taken {
		return name
	}
	for i := 1; ; i++ {
		candidate := name + "." + strconv.Itoa(i)
		if _, taken := t.cells[candidate]; !taken {
			return candidate
		}
	}
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool {
	return t == nil || len(t.Index) == 0
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Index)
}

// Column returns the cells of a column aligned with Index.
func (t *Table) Column(name string) ([]any, bool) {
	if t == nil {
		return nil, false
	}
	values, ok := t.cells[name]
	return values, ok
}

// Value returns a single cell, nil when missing.
func (t *Table) Value(row int, column string) any {
	values, ok := t.Column(column)
	if !ok || row < 0 || row >= len(values) {
		return nil
	}
	return values[row]
}

// MeasureColumn returns the column bound to a category measure.
func (t *Table) MeasureColumn(category CategoryID, measure Measure) (string, bool) {
	if t == nil {
		return "", false
	}
	name, ok := t.measures[measureKey{category: category, measure: measure}]
	return name, ok
}
