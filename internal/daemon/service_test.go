package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/expediterhq/loadpilot/internal/config"
	"github.com/expediterhq/loadpilot/internal/engine"
	"github.com/expediterhq/loadpilot/internal/finance"
	"github.com/expediterhq/loadpilot/internal/model"
	"github.com/expediterhq/loadpilot/internal/store"
)

func newTestService(t *testing.T, principal string) (*Service, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	cache := config.CacheConfig{TTLSeconds: 30, PollIntervalMS: 1, MaxWaitAttempts: 5}
	loader := finance.NewLoader(mem, nil, principal, cache, config.DefaultCostRates)
	svc := New(Config{Interval: time.Minute}, engine.Default(), loader, mem)
	return svc, mem
}

func TestDiffSnapshots(t *testing.T) {
	prev := Snapshot{
		Loads:    10,
		Expenses: 4,
		KPIs:     model.KPISet{TotalRevenue: 5000, TotalExpenses: 1800, NetProfit: 3200},
	}
	curr := Snapshot{
		Loads:    12,
		Expenses: 5,
		KPIs:     model.KPISet{TotalRevenue: 6100, TotalExpenses: 2000, NetProfit: 4100},
	}

	delta := diffSnapshots(prev, curr)
	if delta.Loads != 2 {
		t.Fatalf("Loads delta = %d, want 2", delta.Loads)
	}
	if delta.Expenses != 1 {
		t.Fatalf("Expenses delta = %d, want 1", delta.Expenses)
	}
	if math.Abs(delta.TotalRevenue-1100) > 1e-9 {
		t.Fatalf("Revenue delta = %.2f, want 1100", delta.TotalRevenue)
	}
	if math.Abs(delta.NetProfit-900) > 1e-9 {
		t.Fatalf("NetProfit delta = %.2f, want 900", delta.NetProfit)
	}
	if delta.isZero() {
		t.Fatal("delta unexpectedly reported as zero")
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	svc, _ := newTestService(t, "driver-1")
	svc.cfg.EventsBuffer = 2

	svc.publishEvent(Event{ID: 1})
	svc.publishEvent(Event{ID: 2})
	svc.publishEvent(Event{ID: 3})

	svc.mu.RLock()
	defer svc.mu.RUnlock()

	if len(svc.events) != 2 {
		t.Fatalf("events = %d, want 2", len(svc.events))
	}
	if svc.events[0].ID != 2 || svc.events[1].ID != 3 {
		t.Fatalf("events = [%d %d], want [2 3]", svc.events[0].ID, svc.events[1].ID)
	}
}

func TestHandleEvaluate(t *testing.T) {
	svc, _ := newTestService(t, "driver-1")
	ts := httptest.NewServer(svc.Handler())
	defer ts.Close()

	body := `{"origin":"Atlanta, GA","destination":"Dallas, TX","loaded_miles":350,"rate_per_mile":1.20}`
	resp, err := http.Post(ts.URL+"/v1/evaluate", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("POST /v1/evaluate: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var eval model.Evaluation
	if err := json.NewDecoder(resp.Body).Decode(&eval); err != nil {
		t.Fatalf("decoding evaluation: %v", err)
	}
	if eval.Decision.Verdict != model.VerdictAccept {
		t.Errorf("verdict = %s, want ACCEPT", eval.Decision.Verdict)
	}
	if eval.Decision.Confidence != model.ConfidenceHigh {
		t.Errorf("confidence = %s, want High", eval.Decision.Confidence)
	}
}

func TestHandleEvaluateInvalidInput(t *testing.T) {
	svc, _ := newTestService(t, "driver-1")
	ts := httptest.NewServer(svc.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/v1/evaluate", "application/json",
		bytes.NewBufferString(`{"loaded_miles":0,"rate":500}`))
	if err != nil {
		t.Fatalf("POST /v1/evaluate: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHandleFinancials(t *testing.T) {
	svc, mem := newTestService(t, "driver-1")
	ctx := context.Background()
	mem.PutTrip(ctx, "driver-1", "t1",
		store.Document{"id": "t1", "date": "2026-08-01", "miles": 500.0, "loadedMiles": 460.0, "rate": 700.0})
	mem.PutExpense(ctx, "driver-1", "e1",
		store.Document{"id": "e1", "date": "2026-08-05", "amount": 120.0})

	ts := httptest.NewServer(svc.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/financials?period=2026-08")
	if err != nil {
		t.Fatalf("GET /v1/financials: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var view model.FinancialView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decoding view: %v", err)
	}
	if len(view.Loads) != 1 || len(view.Expenses) != 1 {
		t.Fatalf("view = %d loads, %d expenses, want 1/1", len(view.Loads), len(view.Expenses))
	}
	if view.KPIs.NetProfit != 580 {
		t.Errorf("netProfit = %v, want 580", view.KPIs.NetProfit)
	}
}

func TestHandleFinancialsUnauthenticated(t *testing.T) {
	svc, _ := newTestService(t, "")
	ts := httptest.NewServer(svc.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/financials")
	if err != nil {
		t.Fatalf("GET /v1/financials: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestPutTripInvalidatesCache(t *testing.T) {
	svc, _ := newTestService(t, "driver-1")
	ts := httptest.NewServer(svc.Handler())
	defer ts.Close()

	// Warm the cache on an empty store.
	resp, err := http.Get(ts.URL + "/v1/financials")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	req, err := http.NewRequest(http.MethodPut, ts.URL+"/v1/trips/t9",
		bytes.NewBufferString(`{"date":"2026-08-20","miles":400,"rate":560}`))
	if err != nil {
		t.Fatal(err)
	}
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT /v1/trips/t9: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("PUT status = %d, want 204", resp.StatusCode)
	}

	// The write must bust the TTL cache; this query sees the new trip.
	resp, err = http.Get(ts.URL + "/v1/financials")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var view model.FinancialView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decoding view: %v", err)
	}
	if len(view.Loads) != 1 {
		t.Fatalf("loads after PUT = %d, want 1", len(view.Loads))
	}
}

func TestPostTripMintsID(t *testing.T) {
	svc, mem := newTestService(t, "driver-1")
	ts := httptest.NewServer(svc.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/v1/trips", "application/json",
		bytes.NewBufferString(`{"date":"2026-08-21","miles":250,"rate":340}`))
	if err != nil {
		t.Fatalf("POST /v1/trips: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if created.ID == "" {
		t.Fatal("response carries no id")
	}

	docs, err := mem.FetchTrips(context.Background(), "driver-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 || docs[0].ID() != created.ID {
		t.Fatalf("stored trips = %v, want one with id %s", docs, created.ID)
	}
}

func TestDeleteTrip(t *testing.T) {
	svc, mem := newTestService(t, "driver-1")
	ctx := context.Background()
	mem.PutTrip(ctx, "driver-1", "t1", store.Document{"id": "t1", "date": "2026-08-01", "miles": 100.0})

	ts := httptest.NewServer(svc.Handler())
	defer ts.Close()

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/v1/trips/t1", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE /v1/trips/t1: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("DELETE status = %d, want 204", resp.StatusCode)
	}

	docs, err := mem.FetchTrips(ctx, "driver-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 0 {
		t.Fatalf("trips after DELETE = %d, want 0", len(docs))
	}
}

func TestHandleInvalidate(t *testing.T) {
	svc, _ := newTestService(t, "driver-1")
	ts := httptest.NewServer(svc.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/v1/invalidate", "", nil)
	if err != nil {
		t.Fatalf("POST /v1/invalidate: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}
}

func TestHandleHealth(t *testing.T) {
	svc, _ := newTestService(t, "driver-1")
	rec := httptest.NewRecorder()
	svc.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok\n" {
		t.Fatalf("healthz = %d %q", rec.Code, rec.Body.String())
	}
}
