// Package daemon provides the long-running HTTP service exposing load
// evaluation and the financial dashboard API.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/expediterhq/loadpilot/internal/engine"
	"github.com/expediterhq/loadpilot/internal/finance"
	"github.com/expediterhq/loadpilot/internal/model"
	"github.com/expediterhq/loadpilot/internal/store"
)

// Config controls the daemon runtime behavior.
type Config struct {
	Addr         string
	Interval     time.Duration
	EventsBuffer int
}

// Snapshot is a compact financial state for status/event payloads. It
// always covers the full record history, not a filtered period.
type Snapshot struct {
	At       time.Time    `json:"at"`
	Loads    int          `json:"loads"`
	Expenses int          `json:"expenses"`
	KPIs     model.KPISet `json:"kpis"`
}

// Delta captures snapshot deltas between polls.
type Delta struct {
	Loads         int     `json:"loads"`
	Expenses      int     `json:"expenses"`
	TotalRevenue  float64 `json:"total_revenue"`
	TotalExpenses float64 `json:"total_expenses"`
	NetProfit     float64 `json:"net_profit"`
}

func (d Delta) isZero() bool {
	return d.Loads == 0 &&
		d.Expenses == 0 &&
		d.TotalRevenue == 0 &&
		d.TotalExpenses == 0 &&
		d.NetProfit == 0
}

// Event is emitted whenever the financial snapshot changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg     Config
	engine  *engine.Engine
	loader  *finance.Loader
	records store.RecordStore

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	hasSnapshot bool
	snapshot    Snapshot
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service wired to the decision engine, the
// financial loader, and the record store backing it.
func New(cfg Config, eng *engine.Engine, loader *finance.Loader, records store.RecordStore) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 60 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}

	return &Service{
		cfg:       cfg,
		engine:    eng,
		loader:    loader,
		records:   records,
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Handler builds the HTTP mux. Split out from Run so tests can drive the
// API without a listener.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/stream", s.handleStream)
	mux.HandleFunc("/v1/evaluate", s.handleEvaluate)
	mux.HandleFunc("/v1/financials", s.handleFinancials)
	mux.HandleFunc("/v1/invalidate", s.handleInvalidate)
	mux.HandleFunc("/v1/trips", s.handleTripCreate)
	mux.HandleFunc("/v1/trips/", s.handleTrip)
	mux.HandleFunc("/v1/expenses", s.handleExpenseCreate)
	mux.HandleFunc("/v1/expenses/", s.handleExpense)
	return mux
}

// Run starts the HTTP endpoints and the refresh loop until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Seed the initial snapshot so status is useful immediately.
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.loader.Invalidate()
			s.pollOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

func (s *Service) pollOnce(ctx context.Context) {
	view, err := s.loader.Load(ctx, "all")
	now := time.Now()
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = now
		s.pollCount++
		s.mu.Unlock()
		log.Printf("loadpilot daemon poll error: %v", err)
		return
	}

	snap := Snapshot{
		At:       now,
		Loads:    len(view.Loads),
		Expenses: len(view.Expenses),
		KPIs:     view.KPIs,
	}

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""

	if !prevExists {
		s.nextEventID++
		ev = Event{
			ID:        s.nextEventID,
			Type:      "snapshot",
			Timestamp: now,
			Snapshot:  snap,
			Delta:     Delta{},
		}
		publish = true
	} else {
		delta := diffSnapshots(prev, snap)
		if !delta.isZero() {
			s.nextEventID++
			ev = Event{
				ID:        s.nextEventID,
				Type:      "financials_delta",
				Timestamp: now,
				Snapshot:  snap,
				Delta:     delta,
			}
			publish = true
		}
	}
	s.mu.Unlock()

	if publish {
		s.publishEvent(ev)
	}
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Loads:         curr.Loads - prev.Loads,
		Expenses:      curr.Expenses - prev.Expenses,
		TotalRevenue:  curr.KPIs.TotalRevenue - prev.KPIs.TotalRevenue,
		TotalExpenses: curr.KPIs.TotalExpenses - prev.KPIs.TotalExpenses,
		NetProfit:     curr.KPIs.NetProfit - prev.KPIs.NetProfit,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

// evaluateRequest is the POST /v1/evaluate body: the candidate load plus
// optional user-asserted factor overrides.
type evaluateRequest struct {
	model.LoadInput
	Factors *model.SpecialFactors `json:"factors,omitempty"`
}

func (s *Service) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
		return
	}

	eval, err := s.engine.Evaluate(req.LoadInput, req.Factors)
	if err != nil {
		if errors.Is(err, engine.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, eval)
}

func (s *Service) handleFinancials(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	view, err := s.loader.Load(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, financialsErrorCode(err), err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

func financialsErrorCode(err error) int {
	switch {
	case errors.Is(err, finance.ErrUnauthenticated), errors.Is(err, store.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, store.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Service) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.loader.Invalidate()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleTrip(w http.ResponseWriter, r *http.Request) {
	s.handleRecord(w, r, "/v1/trips/", s.records.PutTrip, s.records.DeleteTrip)
}

func (s *Service) handleExpense(w http.ResponseWriter, r *http.Request) {
	s.handleRecord(w, r, "/v1/expenses/", s.records.PutExpense, s.records.DeleteExpense)
}

func (s *Service) handleTripCreate(w http.ResponseWriter, r *http.Request) {
	s.handleCreate(w, r, "trip", s.records.PutTrip)
}

func (s *Service) handleExpenseCreate(w http.ResponseWriter, r *http.Request) {
	s.handleCreate(w, r, "exp", s.records.PutExpense)
}

// handleCreate covers POST on a collection: the server mints the id.
func (s *Service) handleCreate(
	w http.ResponseWriter,
	r *http.Request,
	idPrefix string,
	put func(context.Context, string, string, store.Document) error,
) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	principal := s.loader.Principal()
	if principal == "" {
		writeError(w, http.StatusUnauthorized, finance.ErrUnauthenticated)
		return
	}

	var doc store.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decoding record: %w", err))
		return
	}
	if doc == nil {
		doc = store.Document{}
	}

	id := doc.ID()
	if id == "" {
		id = fmt.Sprintf("%s-%d", idPrefix, time.Now().UnixNano())
		doc["id"] = id
	}

	if err := put(r.Context(), principal, id, doc); err != nil {
		writeError(w, financialsErrorCode(err), err)
		return
	}

	s.loader.Invalidate()
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// handleRecord covers PUT and DELETE on one record. Every successful write
// invalidates the financial cache so the next query refetches.
func (s *Service) handleRecord(
	w http.ResponseWriter,
	r *http.Request,
	prefix string,
	put func(context.Context, string, string, store.Document) error,
	del func(context.Context, string, string) error,
) {
	id := strings.TrimPrefix(r.URL.Path, prefix)
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "record id required", http.StatusBadRequest)
		return
	}
	principal := s.loader.Principal()
	if principal == "" {
		writeError(w, http.StatusUnauthorized, finance.ErrUnauthenticated)
		return
	}

	switch r.Method {
	case http.MethodPut:
		var doc store.Document
		if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("decoding record: %w", err))
			return
		}
		if err := put(r.Context(), principal, id, doc); err != nil {
			writeError(w, financialsErrorCode(err), err)
			return
		}
	case http.MethodDelete:
		if err := del(r.Context(), principal, id); err != nil {
			writeError(w, financialsErrorCode(err), err)
			return
		}
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.loader.Invalidate()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	current := Event{
		Type:      "snapshot",
		Timestamp: time.Now(),
		Snapshot:  s.snapshotStatus().Summary,
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
