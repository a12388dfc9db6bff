package browse

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varoOP/anistream/internal/domain"
)

// gatedFetcher answers each filter only once its gate is opened, and ignores
// cancellation so that late answers can be observed.
type gatedFetcher struct {
	mu    sync.Mutex
	calls []domain.Filter
	gates map[string]chan struct{}
	pages map[string]*domain.AnimePage
	errs  map[string]error
	gated bool
}

func newGatedFetcher(gated bool) *gatedFetcher {
	return &gatedFetcher{
		gates: map[string]chan struct{}{},
		pages: map[string]*domain.AnimePage{},
		errs:  map[string]error{},
		gated: gated,
	}
}

func (g *gatedFetcher) gate(f domain.Filter) chan struct{} {
	key := f.Normalize().Key()
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[key]
	if !ok {
		ch = make(chan struct{})
		g.gates[key] = ch
	}
	return ch
}

func (g *gatedFetcher) release(f domain.Filter) {
	close(g.gate(f))
}

func (g *gatedFetcher) respond(f domain.Filter, page *domain.AnimePage) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pages[f.Normalize().Key()] = page
}

func (g *gatedFetcher) fail(f domain.Filter, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.errs[f.Normalize().Key()] = err
}

func (g *gatedFetcher) Browse(ctx context.Context, f domain.Filter) (*domain.AnimePage, error) {
	g.mu.Lock()
	g.calls = append(g.calls, f)
	g.mu.Unlock()

	if g.gated {
		<-g.gate(f)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	key := f.Key()
	if err, ok := g.errs[key]; ok {
		return nil, err
	}
	if page, ok := g.pages[key]; ok {
		return page, nil
	}
	return &domain.AnimePage{
		Animes:     []domain.Anime{{Slug: fmt.Sprintf("p%d-%s", f.Page, f.CriteriaKey())}},
		TotalPages: 3,
		Page:       f.Page,
	}, nil
}

func (g *gatedFetcher) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

// cancelAwareFetcher blocks until its context ends.
type cancelAwareFetcher struct{ started chan struct{} }

func (f *cancelAwareFetcher) Browse(ctx context.Context, _ domain.Filter) (*domain.AnimePage, error) {
	close(f.started)
	<-ctx.Done()
	return domain.EmptyAnimePage(), ctx.Err()
}

func action() domain.Filter {
	return domain.Filter{Categories: []string{"aksiyon"}, Page: 1}
}

func comedy() domain.Filter {
	return domain.Filter{Categories: []string{"komedi"}, Page: 1}
}

func settled(c *Controller) func() bool {
	return func() bool {
		s := c.State().Status
		return s != StatusLoading && s != StatusIdle
	}
}

func TestController_StaleResultNeverOverwrites(t *testing.T) {
	fetcher := newGatedFetcher(true)
	c := NewController(zerolog.Nop(), fetcher)
	defer c.Close()

	fetcher.respond(action(), &domain.AnimePage{Animes: []domain.Anime{{Slug: "a"}}, Page: 1, TotalPages: 1})
	fetcher.respond(comedy(), &domain.AnimePage{Animes: []domain.Anime{{Slug: "b"}}, Page: 1, TotalPages: 1})

	require.True(t, c.Apply(action()))
	require.True(t, c.Apply(comedy()))

	// Newer answer arrives first, the older one afterwards.
	fetcher.release(comedy())
	require.Eventually(t, settled(c), time.Second, 5*time.Millisecond)
	fetcher.release(action())
	c.Wait()

	s := c.State()
	assert.Equal(t, StatusSuccess, s.Status)
	require.Len(t, s.Page.Animes, 1)
	assert.Equal(t, "b", s.Page.Animes[0].Slug)
	assert.Equal(t, uint64(2), s.Seq)
}

func TestController_OnlySecondFilterIsShown(t *testing.T) {
	fetcher := newGatedFetcher(true)

	var mu sync.Mutex
	var shown []string
	c := NewController(zerolog.Nop(), fetcher, WithOnChange(func(s Snapshot) {
		if s.Status == StatusSuccess {
			mu.Lock()
			shown = append(shown, s.Page.Animes[0].Slug)
			mu.Unlock()
		}
	}))
	defer c.Close()

	fetcher.respond(action(), &domain.AnimePage{Animes: []domain.Anime{{Slug: "action"}}, Page: 1})
	fetcher.respond(comedy(), &domain.AnimePage{Animes: []domain.Anime{{Slug: "comedy"}}, Page: 1})

	c.Apply(action())
	c.Apply(comedy())
	fetcher.release(action())
	fetcher.release(comedy())
	c.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"comedy"}, shown)
}

func TestController_IdenticalFilterIssuesOnce(t *testing.T) {
	fetcher := newGatedFetcher(false)
	c := NewController(zerolog.Nop(), fetcher)
	defer c.Close()

	assert.True(t, c.Apply(action()))
	c.Wait()
	assert.False(t, c.Apply(domain.Filter{Categories: []string{" aksiyon "}, Page: 0}))
	c.Wait()

	assert.Equal(t, 1, fetcher.callCount())

	assert.True(t, c.Refresh())
	c.Wait()
	assert.Equal(t, 2, fetcher.callCount())
}

func TestController_EmptyResult(t *testing.T) {
	fetcher := newGatedFetcher(false)
	fetcher.respond(action(), domain.EmptyAnimePage())
	c := NewController(zerolog.Nop(), fetcher)
	defer c.Close()

	c.Apply(action())
	c.Wait()

	s := c.State()
	assert.Equal(t, StatusSuccess, s.Status)
	assert.True(t, s.Empty())
}

func TestController_Error(t *testing.T) {
	fetcher := newGatedFetcher(false)
	fetcher.fail(action(), errors.New("boom"))
	c := NewController(zerolog.Nop(), fetcher)
	defer c.Close()

	c.Apply(action())
	c.Wait()

	s := c.State()
	assert.Equal(t, StatusError, s.Status)
	assert.EqualError(t, s.Err, "boom")
	assert.False(t, s.Empty())

	// The same filter may be retried after a failure.
	assert.True(t, c.Apply(action()))
	c.Wait()
}

func TestController_Pagination(t *testing.T) {
	fetcher := newGatedFetcher(false)
	c := NewController(zerolog.Nop(), fetcher)
	defer c.Close()

	assert.False(t, c.PrevPage(), "no page below 1")

	c.Apply(action())
	c.Wait()

	assert.True(t, c.NextPage())
	c.Wait()
	assert.True(t, c.SetPage(3))
	c.Wait()
	assert.Equal(t, 3, c.State().Page.Page)

	calls := fetcher.callCount()
	assert.False(t, c.NextPage(), "already at the last page")
	assert.False(t, c.SetPage(0))
	assert.Equal(t, calls, fetcher.callCount())

	assert.True(t, c.PrevPage())
	c.Wait()
	assert.Equal(t, 2, c.Filter().Page)

	// Changing the criteria starts over at page 1.
	c.Apply(domain.Filter{Categories: []string{"komedi"}, Page: 2})
	c.Wait()
	assert.Equal(t, 1, c.Filter().Page)
}

func TestController_PageLimitFollowsCriteria(t *testing.T) {
	fetcher := newGatedFetcher(true)
	c := NewController(zerolog.Nop(), fetcher)
	defer c.Close()

	fetcher.respond(action(), &domain.AnimePage{Animes: []domain.Anime{{Slug: "a"}}, Page: 1, TotalPages: 5})
	fetcher.respond(comedy(), &domain.AnimePage{Animes: []domain.Anime{{Slug: "c"}}, Page: 1, TotalPages: 1})
	fetcher.release(action())

	c.Apply(action())
	c.Wait()
	require.Equal(t, 5, c.State().Page.TotalPages)

	// The new criteria are still loading, so their page count is unknown.
	c.Apply(comedy())
	calls := fetcher.callCount()
	assert.False(t, c.NextPage())
	assert.False(t, c.SetPage(3))
	assert.Equal(t, calls, fetcher.callCount())

	fetcher.release(comedy())
	c.Wait()

	// Loaded: a single page.
	assert.False(t, c.NextPage())
	assert.Equal(t, calls, fetcher.callCount())
	assert.Equal(t, 1, c.Filter().Page)
	assert.Equal(t, "c", c.State().Page.Animes[0].Slug)
}

func TestController_ErrorClearedOnNextRequest(t *testing.T) {
	fetcher := newGatedFetcher(true)
	c := NewController(zerolog.Nop(), fetcher)
	defer c.Close()

	fetcher.respond(action(), &domain.AnimePage{Animes: []domain.Anime{{Slug: "a"}}, Page: 1, TotalPages: 1})
	fetcher.fail(comedy(), errors.New("boom"))
	fetcher.release(action())
	fetcher.release(comedy())

	c.Apply(action())
	c.Wait()
	c.Apply(comedy())
	c.Wait()

	s := c.State()
	require.Equal(t, StatusError, s.Status)
	assert.EqualError(t, s.Err, "boom")
	assert.Equal(t, "a", s.Page.Animes[0].Slug, "displayed data is kept on failure")

	drama := domain.Filter{Categories: []string{"dram"}, Page: 1}
	c.Apply(drama)
	s = c.State()
	assert.Equal(t, StatusLoading, s.Status)
	assert.NoError(t, s.Err)

	fetcher.release(drama)
	c.Wait()
	assert.Equal(t, StatusSuccess, c.State().Status)
}

func TestController_CancelRestoresError(t *testing.T) {
	fetcher := &cancelAwareFetcher{started: make(chan struct{})}
	failing := newGatedFetcher(false)
	failing.fail(action(), errors.New("boom"))

	c := NewController(zerolog.Nop(), failing)
	c.Apply(action())
	c.Wait()
	require.Equal(t, StatusError, c.State().Status)

	c.fetcher = fetcher
	c.Apply(comedy())
	<-fetcher.started
	c.Close()

	s := c.State()
	assert.Equal(t, StatusError, s.Status)
	assert.EqualError(t, s.Err, "boom")
}

func TestController_Debounce(t *testing.T) {
	fetcher := newGatedFetcher(false)
	c := NewController(zerolog.Nop(), fetcher, WithDebounce(30*time.Millisecond))
	defer c.Close()

	c.Submit(domain.Filter{Categories: []string{"dram"}, Page: 1})
	c.Submit(domain.Filter{Categories: []string{"dram", "korku"}, Page: 1})
	c.Submit(comedy())

	assert.Zero(t, fetcher.callCount())
	require.Eventually(t, func() bool { return fetcher.callCount() == 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, settled(c), time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{"komedi"}, c.State().Filter.Categories)

	// Nothing else fires later.
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, fetcher.callCount())
}

func TestController_CloseCancels(t *testing.T) {
	fetcher := &cancelAwareFetcher{started: make(chan struct{})}
	c := NewController(zerolog.Nop(), fetcher)

	c.Apply(action())
	<-fetcher.started
	c.Close()

	s := c.State()
	assert.Equal(t, StatusIdle, s.Status, "canceled returns to the previous state")
	assert.Nil(t, s.Page)
	assert.NoError(t, s.Err)

	assert.False(t, c.Apply(comedy()))
}

func TestController_CloseDropsPendingSubmit(t *testing.T) {
	fetcher := newGatedFetcher(false)
	c := NewController(zerolog.Nop(), fetcher, WithDebounce(20*time.Millisecond))

	c.Submit(action())
	c.Close()

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, fetcher.callCount())
}
