package finance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/expediterhq/loadpilot/internal/config"
	"github.com/expediterhq/loadpilot/internal/model"
	"github.com/expediterhq/loadpilot/internal/store"
)

// ErrUnauthenticated indicates no principal is configured for the loader.
var ErrUnauthenticated = errors.New("finance: no authenticated principal")

// Loader is the single-flight TTL cache over the remote record store. It
// owns the canonical unfiltered record collections; callers get filtered
// views. At most one remote fetch is in flight per process, and the
// in-flight flag is released on every exit path.
type Loader struct {
	store     store.RecordStore
	archive   *store.Archive // optional last-good snapshot
	principal string
	rates     config.CostRates

	ttl        time.Duration
	waitBudget time.Duration
	now        func() time.Time

	mu         sync.Mutex
	loads      []model.LoadRecord    // canonical, unfiltered
	expenses   []model.ExpenseRecord // canonical, unfiltered
	lastLoad   time.Time
	lastPeriod string
	inFlight   bool
	done       chan struct{} // closed when the current flight lands
	skipped    int           // malformed records dropped by the last fetch
}

// NewLoader creates a loader for the given principal. archive may be nil.
func NewLoader(rs store.RecordStore, archive *store.Archive, principal string, cache config.CacheConfig, rates config.CostRates) *Loader {
	ttl := time.Duration(cache.TTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	interval := time.Duration(cache.PollIntervalMS) * time.Millisecond
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	attempts := cache.MaxWaitAttempts
	if attempts <= 0 {
		attempts = 50
	}

	return &Loader{
		store:      rs,
		archive:    archive,
		principal:  principal,
		rates:      rates,
		ttl:        ttl,
		waitBudget: interval * time.Duration(attempts),
		now:        time.Now,
	}
}

// Load returns the trips, expenses, and KPIs for the period. Within the TTL
// window a repeat query for the same period is served from cache with no
// remote call. While a fetch is in flight, callers wait up to the configured
// budget and then degrade to the cached (possibly stale) data.
func (l *Loader) Load(ctx context.Context, periodKey string) (model.FinancialView, error) {
	if l.principal == "" {
		return model.FinancialView{}, ErrUnauthenticated
	}
	period := CanonicalPeriod(periodKey)

	l.mu.Lock()
	if !l.lastLoad.IsZero() && l.now().Sub(l.lastLoad) < l.ttl && l.lastPeriod == period {
		view := l.viewLocked(period, false)
		l.mu.Unlock()
		return view, nil
	}

	if l.inFlight {
		done := l.done
		l.mu.Unlock()
		return l.awaitFlight(ctx, done, period)
	}

	l.inFlight = true
	l.done = make(chan struct{})
	l.mu.Unlock()

	// The flag must be released on every exit path, including panics.
	defer l.land()

	return l.fetch(ctx, period)
}

// awaitFlight waits for the in-flight fetch to land, bounded by the wait
// budget. Exceeding the budget is not a failure: the caller gets whatever
// is cached, marked stale.
func (l *Loader) awaitFlight(ctx context.Context, done chan struct{}, period string) (model.FinancialView, error) {
	timer := time.NewTimer(l.waitBudget)
	defer timer.Stop()

	stale := false
	select {
	case <-done:
	case <-timer.C:
		stale = true
	case <-ctx.Done():
		return model.FinancialView{}, ctx.Err()
	}

	l.mu.Lock()
	view := l.viewLocked(period, stale)
	l.mu.Unlock()
	return view, nil
}

// fetch performs the remote load: both collections, normalized, stored
// atomically as the new canonical snapshot.
func (l *Loader) fetch(ctx context.Context, period string) (model.FinancialView, error) {
	rawTrips, err := l.store.FetchTrips(ctx, l.principal)
	if err != nil {
		return model.FinancialView{}, fmt.Errorf("fetching trips: %w", err)
	}
	rawExpenses, err := l.store.FetchExpenses(ctx, l.principal)
	if err != nil {
		return model.FinancialView{}, fmt.Errorf("fetching expenses: %w", err)
	}

	now := l.now()
	skipped := 0

	loads := make([]model.LoadRecord, 0, len(rawTrips))
	for _, doc := range rawTrips {
		rec, err := NormalizeLoad(doc, l.rates, now)
		if err != nil {
			skipped++
			continue
		}
		loads = append(loads, rec)
	}

	expenses := make([]model.ExpenseRecord, 0, len(rawExpenses))
	for _, doc := range rawExpenses {
		rec, err := NormalizeExpense(doc, now)
		if err != nil {
			skipped++
			continue
		}
		expenses = append(expenses, rec)
	}

	// Replace the canonical collections wholesale; readers never observe a
	// partially built snapshot.
	l.mu.Lock()
	l.loads = loads
	l.expenses = expenses
	l.lastLoad = now
	l.lastPeriod = period
	l.skipped = skipped
	view := l.viewLocked(period, false)
	l.mu.Unlock()

	if l.archive != nil {
		if err := l.archive.ReplaceAll(loads, expenses); err != nil {
			log.Printf("loadpilot: archiving snapshot: %v", err)
		}
	}

	return view, nil
}

// land clears the in-flight flag and wakes the waiters.
func (l *Loader) land() {
	l.mu.Lock()
	if l.inFlight {
		l.inFlight = false
		close(l.done)
	}
	l.mu.Unlock()
}

// viewLocked builds a filtered view from the canonical collections.
// Callers must hold l.mu.
func (l *Loader) viewLocked(period string, stale bool) model.FinancialView {
	loads := FilterLoads(l.loads, period)
	expenses := FilterExpenses(l.expenses, period)
	return model.FinancialView{
		Loads:    loads,
		Expenses: expenses,
		KPIs:     AggregateKPIs(loads, expenses),
		Stale:    stale,
	}
}

// Invalidate clears the cache stamps so the next Load always refetches.
// Called after any write to a trip or expense record.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	l.lastLoad = time.Time{}
	l.lastPeriod = ""
	l.mu.Unlock()
}

// LoadArchived serves a view from the local snapshot archive, for use when
// the remote store is unreachable. Always marked stale.
func (l *Loader) LoadArchived(periodKey string) (model.FinancialView, error) {
	if l.archive == nil {
		return model.FinancialView{}, errors.New("finance: no archive configured")
	}
	loads, expenses, err := l.archive.LoadAll()
	if err != nil {
		return model.FinancialView{}, fmt.Errorf("reading archive: %w", err)
	}

	period := CanonicalPeriod(periodKey)
	fl := FilterLoads(loads, period)
	fe := FilterExpenses(expenses, period)
	return model.FinancialView{
		Loads:    fl,
		Expenses: fe,
		KPIs:     AggregateKPIs(fl, fe),
		Stale:    true,
	}, nil
}

// Principal reports the account the loader fetches for; empty means
// unauthenticated.
func (l *Loader) Principal() string {
	return l.principal
}

// Skipped reports how many malformed records the last fetch dropped.
func (l *Loader) Skipped() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.skipped
}
