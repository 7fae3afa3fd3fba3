package application

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"epias-report/internal/epias"
	report "epias-report/internal/report/domain"
	"epias-report/internal/report/infrastructure/export"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type fakePlatform struct {
	authStatus   int
	responses    map[string]string
	dataRequests atomic.Int32
}

func (p *fakePlatform) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/cas/v1/tickets" {
			w.WriteHeader(p.authStatus)
			if p.authStatus == http.StatusCreated {
				_, _ = w.Write([]byte("TGT-1"))
			} else {
				_, _ = w.Write([]byte("invalid credentials"))
			}
			return
		}
		p.dataRequests.Add(1)
		if r.Header.Get("TGT") != "TGT-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, ok := p.responses[r.URL.Path]
		if !ok {
			_, _ = w.Write([]byte(`{"items":[]}`))
			return
		}
		if body == "fail" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(body))
	})
}

func newTestService(t *testing.T, platform *fakePlatform) (*Service, func()) {
	t.Helper()
	server := httptest.NewServer(platform.handler())
	client, err := epias.NewClient(server.URL, epias.WithAuthURL(server.URL+"/cas/v1/tickets"), epias.WithRequestDelay(0))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	svc, err := NewService(client, client, WithClock(fixedClock{now: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, server.Close
}

func TestGenerateAuthFailureAbortsBeforeFetch(t *testing.T) {
	platform := &fakePlatform{authStatus: http.StatusUnauthorized}
	svc, closeFn := newTestService(t, platform)
	defer closeFn()

	rep, err := svc.Generate(context.Background(), Request{Username: "u", Password: "p"})
	var authErr *epias.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if authErr.StatusCode != http.StatusUnauthorized || authErr.Body != "invalid credentials" {
		t.Fatalf("unexpected auth error %+v", authErr)
	}
	if rep != nil {
		t.Fatal("expected no report")
	}
	if got := platform.dataRequests.Load(); got != 0 {
		t.Fatalf("expected no data requests, got %d", got)
	}
}

func TestGenerateRejectsInvalidQuarterBeforeAuth(t *testing.T) {
	platform := &fakePlatform{authStatus: http.StatusCreated}
	svc, closeFn := newTestService(t, platform)
	defer closeFn()

	_, err := svc.Generate(context.Background(), Request{Username: "u", Password: "p", Selector: &report.Selector{Quarter: 5, Year: 2024}})
	if !errors.Is(err, report.ErrInvalidQuarter) {
		t.Fatalf("expected ErrInvalidQuarter, got %v", err)
	}
}

func TestGenerateAllEmpty(t *testing.T) {
	platform := &fakePlatform{authStatus: http.StatusCreated}
	svc, closeFn := newTestService(t, platform)
	defer closeFn()

	var messages []string
	rep, err := svc.Generate(context.Background(), Request{
		Username: "u",
		Password: "p",
		Progress: func(msg string) { messages = append(messages, msg) },
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if rep.Selector != (report.Selector{Quarter: 4, Year: 2023}) {
		t.Fatalf("expected previous quarter default, got %v", rep.Selector)
	}
	if rep.FileName != "2023-Q4-Data.xlsx" {
		t.Fatalf("unexpected file name %s", rep.FileName)
	}
	if got := int(platform.dataRequests.Load()); got != len(report.DefaultCatalog()) {
		t.Fatalf("expected %d data requests, got %d", len(report.DefaultCatalog()), got)
	}
	if !rep.Table.Empty() {
		t.Fatalf("expected empty table, got %d rows", rep.Table.Len())
	}
	if len(rep.Summary) != 16 {
		t.Fatalf("expected 16 indicators, got %d", len(rep.Summary))
	}
	for _, ind := range rep.Summary {
		if ind.Value != 0 {
			t.Fatalf("expected %s 0, got %v", ind.Key, ind.Value)
		}
	}
	f, err := excelize.OpenReader(bytes.NewReader(rep.Workbook))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(export.DetailSheet)
	if err != nil {
		t.Fatalf("detail rows: %v", err)
	}
	if len(rows) != 2 || rows[1][0] != "Veri bulunamadı" {
		t.Fatalf("expected single status row, got %v", rows)
	}
	if len(messages) == 0 || !strings.Contains(strings.Join(messages, "\n"), "no data") {
		t.Fatalf("expected progress to mention missing data, got %v", messages)
	}
}

func TestGenerateMergesAndComputes(t *testing.T) {
	platform := &fakePlatform{
		authStatus: http.StatusCreated,
		responses: map[string]string{
			"/v1/markets/dam/data/mcp": `{"items":[
				{"date":"2023-01-01T00:00:00+03:00","hour":"00:00","price":100},
				{"date":"2023-01-01T01:00:00+03:00","hour":"01:00","price":300}]}`,
			"/v1/markets/bpm/data/system-marginal-price": "fail",
			"/v1/markets/dam/data/clearing-quantity": `{"body":{"items":[
				{"date":"2023-01-01T00:00:00+03:00","matchedBids":1000000},
				{"date":"2023-01-01T01:00:00+03:00","matchedBids":3000000}]}}`,
			"/v1/markets/idm/data/weighted-average-price": `{"items":[
				{"date":"2023-01-01T00:00:00+03:00","wap":10},
				{"date":"2023-01-01T01:00:00+03:00","wap":20}]}`,
			"/v1/markets/idm/data/matching-quantity": `{"items":[
				{"kontratAdi":"PH23010100","clearingQuantityAsk":2},
				{"kontratAdi":"PH23010101","clearingQuantityAsk":4},
				{"kontratAdi":"bogus","clearingQuantityAsk":100}]}`,
		},
	}
	svc, closeFn := newTestService(t, platform)
	defer closeFn()

	sel := report.Selector{Quarter: 1, Year: 2023}
	rep, err := svc.Generate(context.Background(), Request{Username: "u", Password: "p", Selector: &sel})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if rep.Table.Len() != 2 {
		t.Fatalf("expected 2 merged rows, got %d", rep.Table.Len())
	}
	checks := map[report.IndicatorKey]float64{
		report.IndicatorPTF:          200,
		report.IndicatorSMF:          0,
		report.IndicatorDAMMatched:   4,
		report.IndicatorIDMWAP:       15,
		report.IndicatorIDMYearPrice: 100.0 / 6.0,
	}
	for key, want := range checks {
		if got := rep.Summary.Value(key); got-want > 1e-9 || want-got > 1e-9 {
			t.Fatalf("%s: expected %v, got %v", key, want, got)
		}
	}

	var smf, idmQuantity *CategoryOutcome
	for i := range rep.Outcomes {
		switch rep.Outcomes[i].Category {
		case report.CategorySMF:
			smf = &rep.Outcomes[i]
		case report.CategoryIDMQuantity:
			idmQuantity = &rep.Outcomes[i]
		}
	}
	var fetchErr *epias.FetchError
	if smf == nil || !errors.As(smf.Err, &fetchErr) || fetchErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected smf outcome to carry the failure, got %+v", smf)
	}
	if idmQuantity == nil || idmQuantity.Rows != 2 || idmQuantity.Dropped != 1 {
		t.Fatalf("expected 2 contract rows and 1 dropped, got %+v", idmQuantity)
	}
	if len(rep.Workbook) == 0 || rep.RunID == "" {
		t.Fatal("expected workbook bytes and run id")
	}
}
