package export

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	report "epias-report/internal/report/domain"
)

const (
	SummarySheet = "Özet"
	DetailSheet  = "Detay"

	// TimestampLayout is used for every timestamp written to the workbook.
	TimestampLayout = "2006-01-02 15:04:05"

	summaryLabelHeader = "Gösterge"
	summaryValueHeader = "Değer"
	detailIndexHeader  = "date"
	statusHeader       = "Durum"
	noDataMessage      = "Veri bulunamadı"
)

// detailRenames maps merged column names to friendlier detail headers.
// Names not listed pass through unchanged.
var detailRenames = map[string]string{
	"sysdir_direction":  "Sistem Yönü",
	"pfc_amount_amount": "pfc_amount",
	"pfp_price_price":   "pfp_price",
	"sfc_amount_amount": "sfc_amount",
	"sfp_price_price":   "sfp_price",
}

// DetailHeader returns the detail sheet header for a merged column.
func DetailHeader(column string) string {
	if renamed, ok := detailRenames[column]; ok {
		return renamed
	}
	return column
}

// BuildWorkbook renders the summary and detail sheets as XLSX bytes.
func BuildWorkbook(summary report.Summary, table *report.Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return nil, fmt.Errorf("export: rename summary sheet: %w", err)
	}
	if _, err := f.NewSheet(DetailSheet); err != nil {
		return nil, fmt.Errorf("export: create detail sheet: %w", err)
	}
	if err := writeSummary(f, summary); err != nil {
		return nil, err
	}
	if err := writeDetail(f, table); err != nil {
		return nil, err
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("export: write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSummary(f *excelize.File, summary report.Summary) error {
	if err := f.SetColWidth(SummarySheet, "A", "A", 70); err != nil {
		return fmt.Errorf("export: summary width: %w", err)
	}
	if err := f.SetColWidth(SummarySheet, "B", "B", 25); err != nil {
		return fmt.Errorf("export: summary width: %w", err)
	}
	if err := f.SetSheetRow(SummarySheet, "A1", &[]any{summaryLabelHeader, summaryValueHeader}); err != nil {
		return fmt.Errorf("export: summary header: %w", err)
	}
	for i, ind := range summary {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &[]any{ind.Label, ind.Value}); err != nil {
			return fmt.Errorf("export: summary row %d: %w", i+1, err)
		}
	}
	return nil
}

func writeDetail(f *excelize.File, table *report.Table) error {
	sw, err := f.NewStreamWriter(DetailSheet)
	if err != nil {
		return fmt.Errorf("export: detail stream: %w", err)
	}
	if table.Empty() {
		if err := sw.SetRow("A1", []any{statusHeader}); err != nil {
			return fmt.Errorf("export: detail status header: %w", err)
		}
		if err := sw.SetRow("A2", []any{noDataMessage}); err != nil {
			return fmt.Errorf("export: detail status row: %w", err)
		}
		return flush(sw)
	}

	header := make([]any, 0, len(table.Columns)+1)
	header = append(header, detailIndexHeader)
	for _, col := range table.Columns {
		header = append(header, DetailHeader(col))
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("export: detail header: %w", err)
	}

	columns := make([][]any, len(table.Columns))
	for i, col := range table.Columns {
		columns[i], _ = table.Column(col)
	}
	row := make([]any, len(table.Columns)+1)
	for r, at := range table.Index {
		row[0] = at.Format(TimestampLayout)
		for c := range columns {
			row[c+1] = CellValue(columns[c][r])
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("export: detail row %d: %w", r+1, err)
		}
	}
	return flush(sw)
}

func flush(sw *excelize.StreamWriter) error {
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("export: flush detail: %w", err)
	}
	return nil
}

// CellValue converts a merged cell into a value safe to write.
// Timestamps, including offset-bearing strings, become naive fixed-format strings.
func CellValue(v any) any {
	switch value := v.(type) {
	case nil:
		return nil
	case time.Time:
		return value.Format(TimestampLayout)
	case string:
		if ts, ok := parseOffsetTimestamp(value); ok {
			return ts.Format(TimestampLayout)
		}
		return value
	case json.RawMessage:
		return string(value)
	default:
		return value
	}
}

func parseOffsetTimestamp(value string) (time.Time, bool) {
	if len(value) < len("2006-01-02T15:04:05Z") || value[10] != 'T' {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
