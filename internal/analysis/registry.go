package analysis

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Registry deduplicates and caches analysis jobs keyed by document
// fingerprint. It owns the in-flight map, the completed-result cache,
// and the durable store; external code interacts only through its
// operations.
//
// Construct one Registry at application start and pass it by reference
// to every consumer.
type Registry struct {
	mu        sync.Mutex
	active    map[string]*Job
	completed map[string]Result

	dispatcher Dispatcher
	store      ResultStore // optional
	bus        *ListenerBus
	logger     *slog.Logger
}

// RegistryConfig configures a new Registry.
type RegistryConfig struct {
	Dispatcher Dispatcher
	Store      ResultStore // nil disables durable caching
	Bus        *ListenerBus
	Logger     *slog.Logger
}

// NewRegistry creates a job registry.
func NewRegistry(cfg RegistryConfig) *Registry {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	bus := cfg.Bus
	if bus == nil {
		bus = NewListenerBus(logger)
	}
	return &Registry{
		active:     make(map[string]*Job),
		completed:  make(map[string]Result),
		dispatcher: cfg.Dispatcher,
		store:      cfg.Store,
		bus:        bus,
		logger:     logger.With("component", "analysis"),
	}
}

// Bus returns the registry's listener bus.
func (r *Registry) Bus() *ListenerBus { return r.bus }

// AddListener subscribes to job settlements. Shorthand for Bus().AddListener.
func (r *Registry) AddListener(fn ListenerFunc) func() {
	return r.bus.AddListener(fn)
}

// StartAnalysis starts (or joins) the analysis job for a document.
//
// If the fingerprint already has a running job, or a completed result
// in the in-memory cache, no new request is dispatched and isNew is
// false; a cached result is replayed over the bus asynchronously.
// Otherwise the request is dispatched on a detached goroutine with no
// timeout: the job outlives any view that started it, and settlement
// is delivered through the listener bus only.
func (r *Registry) StartAnalysis(req Request) (fingerprint string, isNew bool) {
	fingerprint = req.Fingerprint
	if fingerprint == "" {
		fingerprint = Fingerprint(req.FileName, req.FileSize)
	}

	r.mu.Lock()
	if _, ok := r.active[fingerprint]; ok {
		r.mu.Unlock()
		return fingerprint, false
	}
	if res, ok := r.completed[fingerprint]; ok {
		r.mu.Unlock()
		go r.bus.notify(fingerprint, res)
		return fingerprint, false
	}
	r.active[fingerprint] = &Job{
		Fingerprint: fingerprint,
		State:       StateRunning,
		StartedAt:   time.Now(),
	}
	r.mu.Unlock()

	r.logger.Info("analysis dispatched",
		"fingerprint", fingerprint, "file", req.FileName, "language", req.Language)
	go r.dispatch(fingerprint, req)
	return fingerprint, true
}

// dispatch runs the underlying request to settlement. It deliberately
// uses a background context: navigating away from the initiating view
// must not cancel the analysis.
func (r *Registry) dispatch(fingerprint string, req Request) {
	ctx := context.Background()
	fields, err := r.dispatcher.Analyze(ctx, req)

	if err != nil {
		res := Result{Success: false, Err: err.Error(), Timestamp: time.Now()}
		// Failures are never cached: the next StartAnalysis for this
		// fingerprint re-dispatches.
		r.mu.Lock()
		delete(r.active, fingerprint)
		r.mu.Unlock()
		r.logger.Warn("analysis failed", "fingerprint", fingerprint, "error", err)
		r.bus.notify(fingerprint, res)
		return
	}

	res := Result{Success: true, Fields: fields, Timestamp: time.Now()}
	r.mu.Lock()
	delete(r.active, fingerprint)
	r.completed[fingerprint] = res
	r.mu.Unlock()

	if r.store != nil {
		rec := StoredResult{
			Fingerprint: fingerprint,
			Result:      res,
			FileName:    req.FileName,
			FileSize:    req.FileSize,
			Language:    req.Language,
		}
		if err := r.store.Put(ctx, rec); err != nil {
			r.logger.Warn("failed to persist analysis result",
				"fingerprint", fingerprint, "error", err)
		}
	}

	r.logger.Info("analysis completed", "fingerprint", fingerprint, "fields", len(fields))
	r.bus.notify(fingerprint, res)
}

// IsAnalyzing reports whether a job for the fingerprint is in flight.
func (r *Registry) IsAnalyzing(fingerprint string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.active[fingerprint]
	return ok
}

// ActiveJob returns the in-flight job record for a fingerprint.
func (r *Registry) ActiveJob(fingerprint string) (Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job, ok := r.active[fingerprint]; ok {
		return *job, true
	}
	return Job{}, false
}

// GetCompleted returns the in-memory cached result for a fingerprint.
// Callers that subscribed after settlement use this instead of waiting
// on the bus.
func (r *Registry) GetCompleted(fingerprint string) (Result, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.completed[fingerprint]
	return res, ok
}

// GetFromStore reads the durable tier. Store errors degrade to a cache
// miss; the caller re-fetches.
func (r *Registry) GetFromStore(ctx context.Context, fingerprint string) (StoredResult, bool) {
	if r.store == nil {
		return StoredResult{}, false
	}
	rec, ok, err := r.store.Get(ctx, fingerprint)
	if err != nil {
		r.logger.Warn("durable store read failed", "fingerprint", fingerprint, "error", err)
		return StoredResult{}, false
	}
	return rec, ok
}

// Clear removes a settled job from all three tiers: active map,
// in-memory cache, and durable store. Clearing an in-flight job is
// refused with ErrJobInFlight.
func (r *Registry) Clear(ctx context.Context, fingerprint string) error {
	r.mu.Lock()
	if _, ok := r.active[fingerprint]; ok {
		r.mu.Unlock()
		return ErrJobInFlight
	}
	delete(r.completed, fingerprint)
	r.mu.Unlock()

	if r.store != nil {
		if err := r.store.Delete(ctx, fingerprint); err != nil {
			return err
		}
	}
	return nil
}

// ClearAll resets the caches and the durable store. In-flight jobs
// still settle and will re-populate the cache; this is primarily a
// test and maintenance hook.
func (r *Registry) ClearAll(ctx context.Context) error {
	r.mu.Lock()
	r.completed = make(map[string]Result)
	r.mu.Unlock()

	if r.store != nil {
		return r.store.Clear(ctx)
	}
	return nil
}
