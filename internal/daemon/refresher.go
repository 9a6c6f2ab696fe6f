package daemon

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jmylchreest/tokentray/internal/quota"
	"github.com/jmylchreest/tokentray/internal/store"
)

// DefaultFetchTimeout bounds a single background fetch.
const DefaultFetchTimeout = 60 * time.Second

// QuotaFetcher is implemented by quota.Fetcher.
type QuotaFetcher interface {
	Fetch(ctx context.Context) (*quota.Result, error)
}

// UpdateFunc receives every fetch outcome. res is nil when err is set.
// Called on the refresher's goroutine.
type UpdateFunc func(res *quota.Result, err error)

// Refresher fetches the quota on its own goroutine, periodically and on
// demand. Concurrent refreshes share one helper invocation.
type Refresher struct {
	fetcher QuotaFetcher
	history store.History
	logger  *slog.Logger
	group   singleflight.Group

	mu       sync.RWMutex
	interval time.Duration
	timeout  time.Duration
	onUpdate []UpdateFunc
	last     *quota.Result
	lastErr  error

	triggerCh  chan struct{}
	intervalCh chan struct{}
}

// NewRefresher creates a refresher. history may be nil.
func NewRefresher(fetcher QuotaFetcher, history store.History, interval time.Duration, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{
		fetcher:    fetcher,
		history:    history,
		logger:     logger,
		interval:   interval,
		timeout:    DefaultFetchTimeout,
		triggerCh:  make(chan struct{}, 1),
		intervalCh: make(chan struct{}, 1),
	}
}

// OnUpdate registers a callback for fetch outcomes.
func (r *Refresher) OnUpdate(fn UpdateFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onUpdate = append(r.onUpdate, fn)
}

// SetInterval changes the periodic refresh interval. Zero disables it.
func (r *Refresher) SetInterval(d time.Duration) {
	r.mu.Lock()
	changed := r.interval != d
	r.interval = d
	r.mu.Unlock()

	if changed {
		select {
		case r.intervalCh <- struct{}{}:
		default:
		}
	}
}

// Interval returns the periodic refresh interval.
func (r *Refresher) Interval() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.interval
}

// Trigger requests a refresh without blocking. Triggers that arrive while
// one is pending are coalesced.
func (r *Refresher) Trigger() {
	select {
	case r.triggerCh <- struct{}{}:
	default:
	}
}

// Last returns the most recent successful result and the most recent error.
// The error is cleared by the next success.
func (r *Refresher) Last() (*quota.Result, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last, r.lastErr
}

// Refresh fetches now. Callers that overlap an in-flight fetch receive its outcome.
func (r *Refresher) Refresh(ctx context.Context) (*quota.Result, error) {
	v, err, shared := r.group.Do("quota", func() (any, error) {
		return r.fetch(ctx)
	})
	if shared {
		r.logger.Debug("refresh coalesced with in-flight fetch")
	}
	if err != nil {
		return nil, err
	}
	return v.(*quota.Result), nil
}

func (r *Refresher) fetch(ctx context.Context) (*quota.Result, error) {
	r.mu.RLock()
	timeout := r.timeout
	r.mu.RUnlock()

	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := r.fetcher.Fetch(fetchCtx)

	r.mu.Lock()
	if err != nil {
		r.lastErr = err
	} else {
		r.last = res
		r.lastErr = nil
	}
	callbacks := append([]UpdateFunc(nil), r.onUpdate...)
	r.mu.Unlock()

	if err != nil {
		r.logger.Warn("quota refresh failed", "kind", quota.KindOf(err).String(), "error", err)
	} else {
		r.record(res)
	}

	for _, fn := range callbacks {
		fn(res, err)
	}
	return res, err
}

// record appends a history sample for documents with recognised windows.
func (r *Refresher) record(res *quota.Result) {
	if r.history == nil {
		return
	}
	u, err := quota.ParseUsage(res)
	if err != nil {
		r.logger.Debug("quota document not recorded", "error", err)
		return
	}
	s, err := store.NewSample(u)
	if err != nil {
		r.logger.Warn("failed to build history sample", "error", err)
		return
	}
	if err := r.history.Append(s); err != nil {
		r.logger.Warn("failed to append history sample", "error", err)
	}
}

// Run refreshes once immediately, then on every interval tick and trigger,
// until ctx is cancelled.
func (r *Refresher) Run(ctx context.Context) error {
	_, _ = r.Refresh(ctx)

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	reset := func() {
		if timer != nil {
			timer.Stop()
		}
		timer, timerC = nil, nil
		if d := r.Interval(); d > 0 {
			timer = time.NewTimer(d)
			timerC = timer.C
		}
	}
	reset()
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-r.intervalCh:
			r.logger.Debug("refresh interval changed", "interval", r.Interval())
		case <-r.triggerCh:
			_, _ = r.Refresh(ctx)
		case <-timerC:
			_, _ = r.Refresh(ctx)
		}
		reset()
	}
}
