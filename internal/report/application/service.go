package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"epias-report/internal/epias"
	"epias-report/internal/observability/metrics"
	report "epias-report/internal/report/domain"
	"epias-report/internal/report/infrastructure/export"
)

// Authenticator exchanges credentials for a session ticket.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (string, error)
}

// Fetcher retrieves one category for a date range.
type Fetcher interface {
	Fetch(ctx context.Context, tgt string, cat report.Category, rng report.Range) epias.FetchResult
}

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Request describes one report run.
type Request struct {
	// RunID is generated when empty.
	RunID    string
	Username string
	Password string
	// Selector defaults to the previous quarter when nil.
	Selector *report.Selector
	// Progress receives a message at every major step.
	Progress func(msg string)
}

// CategoryOutcome records what a category contributed to the run.
type CategoryOutcome struct {
	Category report.CategoryID
	Label    string
	Rows     int
	Dropped  int
	Err      error
}

// Report is the result of a run.
type Report struct {
	RunID    string
	Selector report.Selector
	Range    report.Range
	Table    *report.Table
	Summary  report.Summary
	Outcomes []CategoryOutcome
	Workbook []byte
	FileName string
}

// Service builds quarterly reports.
type Service struct {
	auth    Authenticator
	fetcher Fetcher
	catalog []report.Category
	logger  *log.Logger
	clock   Clock
}

// Option configures a Service.
type Option func(*Service)

// WithCatalog replaces the default category catalog.
func WithCatalog(catalog []report.Category) Option {
	return func(s *Service) {
		if len(catalog) > 0 {
			s.catalog = catalog
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock overrides the clock used for the default quarter.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewService constructs a Service.
func NewService(auth Authenticator, fetcher Fetcher, opts ...Option) (*Service, error) {
	if auth == nil {
		return nil, errors.New("report service: nil authenticator")
	}
	if fetcher == nil {
		return nil, errors.New("report service: nil fetcher")
	}
	s := &Service{
		auth:    auth,
		fetcher: fetcher,
		catalog: report.DefaultCatalog(),
		clock:   systemClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Generate runs authentication, fetch, merge, indicators and serialization.
// Only authentication and serialization failures abort the run.
func (s *Service) Generate(ctx context.Context, req Request) (*Report, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveReportGenerate(result, time.Since(start))
	}()

	rep, err := s.generate(ctx, req)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	return rep, nil
}

func (s *Service) generate(ctx context.Context, req Request) (*Report, error) {
	progress := req.Progress
	if progress == nil {
		progress = func(string) {}
	}

	sel := report.PreviousQuarter(s.clock.Now())
	if req.Selector != nil {
		sel = *req.Selector
	}
	if err := sel.Validate(); err != nil {
		return nil, err
	}
	rng, err := sel.Range()
	if err != nil {
		return nil, err
	}

	runID := req.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	rep := &Report{
		RunID:    runID,
		Selector: sel,
		Range:    rng,
		FileName: sel.FileName(),
	}

	progress("Starting quarterly report")
	progress("Authenticating")
	tgt, err := s.auth.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		progress(fmt.Sprintf("Authentication failed: %v", err))
		return nil, err
	}
	progress(fmt.Sprintf("Period: %s (%s - %s)", sel, rng.Start.Format("2006-01-02"), rng.End.Format("2006-01-02")))

	progress("Fetching data")
	series := make([]report.Series, 0, len(s.catalog))
	for _, cat := range s.catalog {
		progress(fmt.Sprintf("- %s", cat.Label))
		fetched := s.fetcher.Fetch(ctx, tgt, cat, rng)
		normalized := report.Normalize(cat, fetched.Items)
		series = append(series, normalized)

		outcome := CategoryOutcome{
			Category: cat.ID,
			Label:    cat.Label,
			Rows:     len(normalized.Rows),
			Dropped:  normalized.Dropped,
			Err:      fetched.Err,
		}
		rep.Outcomes = append(rep.Outcomes, outcome)
		s.observeFetch(fetched)

		switch {
		case fetched.Failed():
			progress(fmt.Sprintf("  ! %s failed: %v", cat.Label, fetched.Err))
		case len(fetched.Items) > 0:
			progress(fmt.Sprintf("  %d records (%s)", len(fetched.Items), cat.ID))
		}
		if normalized.Dropped > 0 {
			s.logf("report %s: category=%s dropped %d rows without a usable timestamp", rep.RunID, cat.ID, normalized.Dropped)
		}
	}

	rep.Table = report.Merge(series...)
	if rep.Table.Empty() {
		progress("Warning: no data could be fetched, an empty report will be produced")
	} else {
		progress(fmt.Sprintf("Merged %d rows", rep.Table.Len()))
	}

	progress("Computing indicators")
	rep.Summary = report.ComputeIndicators(rep.Table, func(key report.IndicatorKey, err error) {
		metrics.IncIndicatorFailure(string(key))
		s.logf("report %s: indicator %s defaulted to 0: %v", rep.RunID, key, err)
		progress(fmt.Sprintf("Warning: %s could not be computed: %v", key, err))
	})

	progress("Preparing workbook")
	workbook, err := export.BuildWorkbook(rep.Summary, rep.Table)
	if err != nil {
		metrics.IncReportExport("xlsx", metrics.ResultError)
		progress(fmt.Sprintf("Workbook error: %v", err))
		return nil, err
	}
	metrics.IncReportExport("xlsx", metrics.ResultSuccess)
	rep.Workbook = workbook
	progress("Workbook ready")
	return rep, nil
}

func (s *Service) observeFetch(fetched epias.FetchResult) {
	result := metrics.ResultSuccess
	switch {
	case fetched.Failed():
		result = metrics.ResultError
	case fetched.NoData():
		result = metrics.ResultEmpty
	}
	metrics.ObserveFetch(string(fetched.Category), result, len(fetched.Items), fetched.Duration)
}

func (s *Service) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
