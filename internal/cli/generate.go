package cli

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"epias-report/internal/config"
	"epias-report/internal/observability/metrics"
	"epias-report/internal/report/application"
	report "epias-report/internal/report/domain"
	"epias-report/internal/report/infrastructure/export"
)

type generateCmd struct {
	cfg      config.Config
	logger   *log.Logger
	quarter  int
	year     int
	outDir   string
	pdf      bool
	username string
	password string
}

// NewGenerateCmd builds the one-shot report command.
func NewGenerateCmd(cfg config.Config, logger *log.Logger) *cobra.Command {
	gc := &generateCmd{cfg: cfg, logger: logger}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Fetch a quarter and write the Excel report",
		RunE:  gc.run,
	}

	cmd.Flags().IntVar(&gc.quarter, "quarter", 0, "Quarter 1-4 (default: previous quarter)")
	cmd.Flags().IntVar(&gc.year, "year", 0, "Year (default: year of the previous quarter)")
	cmd.Flags().StringVar(&gc.outDir, "out", cfg.OutputDir, "Output directory")
	cmd.Flags().BoolVar(&gc.pdf, "pdf", false, "Also write the summary as PDF")
	cmd.Flags().StringVar(&gc.username, "username", cfg.Username, "EPİAŞ username (env EPIAS_USERNAME)")
	cmd.Flags().StringVar(&gc.password, "password", cfg.Password, "EPİAŞ password (env EPIAS_PASSWORD)")
	return cmd
}

func (gc *generateCmd) run(cmd *cobra.Command, _ []string) error {
	catalog, err := gc.cfg.Catalog()
	if err != nil {
		return err
	}
	svc, err := newService(gc.cfg, catalog, gc.logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	req := application.Request{
		Username: gc.username,
		Password: gc.password,
		Progress: func(msg string) { fmt.Fprintln(out, msg) },
	}
	if gc.quarter != 0 || gc.year != 0 {
		sel := report.PreviousQuarter(time.Now())
		if gc.quarter != 0 {
			sel.Quarter = gc.quarter
		}
		if gc.year != 0 {
			sel.Year = gc.year
		}
		req.Selector = &sel
	}

	rep, err := svc.Generate(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("generate report: %w", err)
	}

	if err := os.MkdirAll(gc.outDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(gc.outDir, rep.FileName)
	if err := os.WriteFile(path, rep.Workbook, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(out, "Saved %s\n", path)

	if gc.pdf {
		data, err := export.BuildSummaryPDF(rep.Selector, rep.Summary, time.Now())
		if err != nil {
			metrics.IncReportExport("pdf", metrics.ResultError)
			return err
		}
		metrics.IncReportExport("pdf", metrics.ResultSuccess)
		pdfPath := filepath.Join(gc.outDir, rep.Selector.SummaryFileName())
		if err := os.WriteFile(pdfPath, data, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(out, "Saved %s\n", pdfPath)
	}

	for _, o := range rep.Outcomes {
		if o.Err != nil {
			fmt.Fprintf(out, "warning: %s not included: %v\n", o.Label, o.Err)
		}
	}
	return nil
}
