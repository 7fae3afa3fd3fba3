package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	report "epias-report/internal/report/domain"
)

// core PDF fonts are cp1252; letters outside it are transliterated.
var turkishFallback = strings.NewReplacer(
	"ş", "s", "Ş", "S",
	"ğ", "g", "Ğ", "G",
	"ı", "i", "İ", "I",
)

// BuildSummaryPDF renders the indicator summary as a one-page PDF.
func BuildSummaryPDF(sel report.Selector, summary report.Summary, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	text := func(s string) string { return tr(turkishFallback.Replace(s)) }

	pdf.SetFont("Arial", "B", 12)
	pdf.AddPage()
	pdf.Cell(0, 8, text(fmt.Sprintf("Çeyreklik Veri Raporu %s", sel)))
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 9)
	pdf.Cell(0, 5, fmt.Sprintf("Generated: %s", generatedAt.Format(time.RFC3339)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(150, 6, text(summaryLabelHeader), "1", 0, "L", false, 0, "")
	pdf.CellFormat(35, 6, text(summaryValueHeader), "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 8)
	for _, ind := range summary {
		pdf.CellFormat(150, 6, text(ind.Label), "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.4f", ind.Value), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("export: render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
