// Package browse drives a filtered, paginated anime listing. It guarantees
// that at most one request's result is ever shown: every request carries a
// sequence number and only the newest one may update the state.
package browse

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/anistream/internal/domain"
)

// DefaultDebounce collapses bursts of filter edits made through Submit.
const DefaultDebounce = 800 * time.Millisecond

// Fetcher loads one page of a filtered listing.
type Fetcher interface {
	Browse(ctx context.Context, filter domain.Filter) (*domain.AnimePage, error)
}

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Snapshot is a copy of the controller state.
type Snapshot struct {
	Status Status            `json:"status" yaml:"status"`
	Filter domain.Filter     `json:"filter" yaml:"filter"`
	Page   *domain.AnimePage `json:"page,omitempty" yaml:"page,omitempty"`
	Err    error             `json:"-" yaml:"-"`
	Seq    uint64            `json:"seq" yaml:"seq"`
}

// Empty reports the explicit "no results" state: a successful load that
// returned nothing.
func (s Snapshot) Empty() bool {
	return s.Status == StatusSuccess && (s.Page == nil || len(s.Page.Animes) == 0)
}

type Controller struct {
	log      zerolog.Logger
	fetcher  Fetcher
	debounce time.Duration
	onChange func(Snapshot)

	mu       sync.Mutex
	filter   domain.Filter
	issued   bool
	lastKey  string
	seq      uint64
	cancel   context.CancelFunc
	state    Snapshot
	pageKey  string
	previous Snapshot
	pending  *domain.Filter
	timer    *time.Timer
	closed   bool
	inflight sync.WaitGroup
}

type Option func(*Controller)

func WithDebounce(d time.Duration) Option {
	return func(c *Controller) {
		c.debounce = d
	}
}

// WithOnChange registers fn to receive every state transition. fn runs
// outside the controller lock and may be called from any goroutine.
func WithOnChange(fn func(Snapshot)) Option {
	return func(c *Controller) {
		c.onChange = fn
	}
}

// WithFilter sets the filter the first Apply is compared against.
func WithFilter(f domain.Filter) Option {
	return func(c *Controller) {
		c.filter = f.Normalize()
	}
}

func NewController(log zerolog.Logger, fetcher Fetcher, opts ...Option) *Controller {
	c := &Controller{
		log:      log.With().Str("module", "browse").Logger(),
		fetcher:  fetcher,
		debounce: DefaultDebounce,
		filter:   domain.Filter{Categories: []string{}, Page: 1},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.state = Snapshot{Status: StatusIdle, Filter: c.filter}
	c.previous = c.state
	return c
}

// Apply issues a request for f right away, cancelling any pending debounce.
// A change of categories or ranges restarts at page 1.
func (c *Controller) Apply(f domain.Filter) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.stopTimerLocked()

	f = f.Normalize()
	if c.issued && f.CriteriaKey() != c.filter.CriteriaKey() {
		f.Page = 1
	}

	snap, ok := c.issueLocked(f, false)
	c.mu.Unlock()

	if ok {
		c.notify(snap)
	}
	return ok
}

// Submit schedules f after the debounce delay. Further calls within the
// delay replace f and restart the delay.
func (c *Controller) Submit(f domain.Filter) {
	if c.debounce <= 0 {
		c.Apply(f)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.pending = &f
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, c.flush)
}

func (c *Controller) flush() {
	c.mu.Lock()
	f := c.pending
	c.pending = nil
	c.timer = nil
	c.mu.Unlock()

	if f != nil {
		c.Apply(*f)
	}
}

// SetPage moves to page n. Pages below 1 or past the last known page are
// ignored and nothing is issued. While the page count of the current criteria
// is unknown only page 1 may be requested.
func (c *Controller) SetPage(n int) bool {
	c.mu.Lock()
	if c.closed || n < 1 {
		c.mu.Unlock()
		return false
	}
	if last := c.lastPageLocked(); n > last {
		c.log.Debug().Int("page", n).Int("last", last).Msg("page out of range")
		c.mu.Unlock()
		return false
	}

	snap, ok := c.issueLocked(c.filter.WithPage(n), false)
	c.mu.Unlock()

	if ok {
		c.notify(snap)
	}
	return ok
}

func (c *Controller) NextPage() bool {
	return c.SetPage(c.Filter().Page + 1)
}

func (c *Controller) PrevPage() bool {
	return c.SetPage(c.Filter().Page - 1)
}

// Refresh re-issues the current filter even if it was already requested.
func (c *Controller) Refresh() bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.stopTimerLocked()

	snap, ok := c.issueLocked(c.filter, true)
	c.mu.Unlock()

	if ok {
		c.notify(snap)
	}
	return ok
}

// Filter returns the most recently requested filter.
func (c *Controller) Filter() domain.Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

func (c *Controller) State() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Wait blocks until every issued request has returned.
func (c *Controller) Wait() {
	c.inflight.Wait()
}

// Close drops any pending debounce and cancels the in-flight request.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.stopTimerLocked()
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()

	c.inflight.Wait()
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.pending = nil
}

// lastPageLocked returns the last page of the current criteria. The stored
// page only counts when it was loaded for those criteria.
func (c *Controller) lastPageLocked() int {
	if c.state.Page == nil || c.pageKey != c.filter.CriteriaKey() {
		return 1
	}
	if c.state.Page.TotalPages < 1 {
		return 1
	}
	return c.state.Page.TotalPages
}

// issueLocked starts a request for f unless f equals the last issued filter
// and force is false.
func (c *Controller) issueLocked(f domain.Filter, force bool) (Snapshot, bool) {
	key := f.Key()
	if !force && c.issued && key == c.lastKey {
		c.log.Trace().Str("filter", key).Msg("filter unchanged, skipping request")
		return Snapshot{}, false
	}

	if c.cancel != nil {
		c.cancel()
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.seq++
	c.issued = true
	c.lastKey = key
	c.filter = f

	if c.state.Status != StatusLoading {
		c.previous = c.state
	}
	c.state.Status = StatusLoading
	c.state.Err = nil
	c.state.Filter = f
	c.state.Seq = c.seq

	seq := c.seq
	c.inflight.Add(1)
	go c.run(ctx, cancel, seq, f)

	c.log.Debug().Uint64("seq", seq).Str("filter", key).Msg("request issued")

	return c.state, true
}

func (c *Controller) run(ctx context.Context, cancel context.CancelFunc, seq uint64, f domain.Filter) {
	defer c.inflight.Done()
	defer cancel()

	page, err := c.fetcher.Browse(ctx, f)

	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		c.log.Debug().Uint64("seq", seq).Uint64("current", c.seq).Msg("discarding superseded result")
		return
	}

	switch {
	case errors.Is(err, context.Canceled) || ctx.Err() != nil:
		c.state.Status = c.previous.Status
		c.state.Err = c.previous.Err
		c.log.Debug().Uint64("seq", seq).Msg("request canceled")
	case err != nil:
		c.state.Status = StatusError
		c.state.Err = err
		c.lastKey = ""
		c.log.Error().Err(err).Uint64("seq", seq).Msg("browse request failed")
	default:
		if page == nil {
			page = domain.EmptyAnimePage()
		}
		c.state.Status = StatusSuccess
		c.state.Page = page
		c.state.Err = nil
		c.pageKey = f.CriteriaKey()
	}
	snap := c.state
	c.mu.Unlock()

	c.notify(snap)
}

func (c *Controller) notify(s Snapshot) {
	if c.onChange != nil {
		c.onChange(s)
	}
}
