package epias

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	report "epias-report/internal/report/domain"
)

func testRange(t *testing.T) report.Range {
	t.Helper()
	rng, err := report.Selector{Quarter: 1, Year: 2023}.Range()
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	return rng
}

func testCategory(t *testing.T, id report.CategoryID) report.Category {
	t.Helper()
	cat, ok := report.FindCategory(report.DefaultCatalog(), id)
	if !ok {
		t.Fatalf("missing category %s", id)
	}
	return cat
}

func newTestClient(t *testing.T, server *httptest.Server, sleeps *int) *Client {
	t.Helper()
	client, err := NewClient(server.URL, WithAuthURL(server.URL+"/cas/v1/tickets"), WithRequestDelay(1500*time.Millisecond))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	client.sleep = func(_ context.Context, d time.Duration) {
		if d != 1500*time.Millisecond {
			t.Fatalf("expected 1.5s delay, got %s", d)
		}
		*sleeps++
	}
	return client
}

func TestAuthenticateSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		form, err := url.ParseQuery(string(body))
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.Header.Get("Content-Type") != "application/x-www-form-urlencoded" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if form.Get("username") != "user" || form.Get("password") != "p&ss" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("  TGT-123-abc \n"))
	}))
	defer server.Close()

	var sleeps int
	client := newTestClient(t, server, &sleeps)
	tgt, err := client.Authenticate(context.Background(), "user", "p&ss")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if tgt != "TGT-123-abc" {
		t.Fatalf("expected trimmed ticket, got %q", tgt)
	}
	if sleeps != 0 {
		t.Fatalf("expected no delay after authentication, got %d", sleeps)
	}
}

func TestAuthenticateFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("bad credentials"))
	}))
	defer server.Close()

	var sleeps int
	client := newTestClient(t, server, &sleeps)
	_, err := client.Authenticate(context.Background(), "user", "wrong")
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if authErr.StatusCode != http.StatusUnauthorized || authErr.Body != "bad credentials" {
		t.Fatalf("unexpected auth error %+v", authErr)
	}
	if _, err := client.Authenticate(context.Background(), "", "x"); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
}

func TestFetchTopLevelItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/markets/dam/data/mcp" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("TGT") != "ticket" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if payload["startDate"] != "2023-01-01T00:00:00+03:00" || payload["endDate"] != "2023-03-31T23:00:00+03:00" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"items":[{"date":"2023-01-01T00:00:00+03:00","hour":"00:00","price":1000}]}`))
	}))
	defer server.Close()

	var sleeps int
	client := newTestClient(t, server, &sleeps)
	result := client.Fetch(context.Background(), "ticket", testCategory(t, report.CategoryPTF), testRange(t))
	if result.Failed() {
		t.Fatalf("unexpected failure: %v", result.Err)
	}
	if len(result.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(result.Items))
	}
	if v, _ := result.Items[0].Get("price"); v != 1000.0 {
		t.Fatalf("expected price 1000, got %v", v)
	}
	if sleeps != 1 {
		t.Fatalf("expected one delay, got %d", sleeps)
	}
}

func TestFetchNestedBodyItemsAndExtraParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		if payload["region"] != "TR1" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"items":[],"body":{"items":[{"date":"2023-01-01T00:00:00+03:00","amount":5}]}}`))
	}))
	defer server.Close()

	var sleeps int
	client := newTestClient(t, server, &sleeps)
	cat := testCategory(t, report.CategoryPrimaryAmount)
	cat.Extra = map[string]any{"region": "TR1"}
	result := client.Fetch(context.Background(), "ticket", cat, testRange(t))
	if result.Failed() || len(result.Items) != 1 {
		t.Fatalf("expected nested items, got %d items err=%v", len(result.Items), result.Err)
	}
}

func TestFetchFailuresAreReportedNotRaised(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/markets/bpm/data/system-marginal-price":
			w.WriteHeader(http.StatusInternalServerError)
		case "/v1/markets/bpm/data/system-direction":
			_, _ = w.Write([]byte(`not json`))
		default:
			_, _ = w.Write([]byte(`{"items":[]}`))
		}
	}))
	defer server.Close()

	var sleeps int
	client := newTestClient(t, server, &sleeps)
	rng := testRange(t)

	status := client.Fetch(context.Background(), "ticket", testCategory(t, report.CategorySMF), rng)
	var fetchErr *FetchError
	if !errors.As(status.Err, &fetchErr) || fetchErr.Reason != ReasonStatus || fetchErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected status failure, got %v", status.Err)
	}

	decode := client.Fetch(context.Background(), "ticket", testCategory(t, report.CategorySystemDirection), rng)
	if !errors.As(decode.Err, &fetchErr) || fetchErr.Reason != ReasonDecode {
		t.Fatalf("expected decode failure, got %v", decode.Err)
	}

	empty := client.Fetch(context.Background(), "ticket", testCategory(t, report.CategoryBilateral), rng)
	if !empty.NoData() || empty.Failed() {
		t.Fatalf("expected no-data result, got %+v", empty)
	}
	if sleeps != 3 {
		t.Fatalf("expected a delay after every request, got %d", sleeps)
	}
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	var sleeps int
	client := newTestClient(t, server, &sleeps)
	WithRequestTimeout(50 * time.Millisecond)(client)
	result := client.Fetch(context.Background(), "ticket", testCategory(t, report.CategoryPTF), testRange(t))
	var fetchErr *FetchError
	if !errors.As(result.Err, &fetchErr) || fetchErr.Reason != ReasonTimeout {
		t.Fatalf("expected timeout failure, got %v", result.Err)
	}
	if sleeps != 1 {
		t.Fatalf("expected delay after timeout, got %d", sleeps)
	}
}
