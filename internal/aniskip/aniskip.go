// Package aniskip fetches opening and ending skip intervals from AniSkip.
package aniskip

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/anistream/internal/domain"
	"github.com/varoOP/anistream/internal/openani"
)

// NotFoundTTL is how long a "no skip data" answer stays cached.
const NotFoundTTL = 24 * time.Hour

// Service resolves skip intervals. A nil result means none are known; the
// only error ever returned is the caller's context error.
type Service interface {
	SkipTimes(ctx context.Context, malID, episode int) (*domain.SkipTimes, error)
}

type service struct {
	log     zerolog.Logger
	baseURL string
	client  *http.Client
	cache   domain.SkipCacheRepo
	now     func() time.Time
}

type Option func(*service)

func WithHTTPClient(c *http.Client) Option {
	return func(s *service) {
		s.client = c
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// NewService returns a client for cfg.AniSkipURL. cache may be nil.
func NewService(log zerolog.Logger, cfg *domain.Config, cache domain.SkipCacheRepo, opts ...Option) Service {
	s := &service{
		log:     log.With().Str("module", "aniskip").Logger(),
		baseURL: cfg.AniSkipURL,
		cache:   cache,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = openani.NewHTTPClient(cfg.UserAgent, cfg.RequestRate)
	}
	return s
}

type apiResponse struct {
	Found   bool `json:"found"`
	Results []struct {
		Interval struct {
			StartTime float64 `json:"startTime"`
			EndTime   float64 `json:"endTime"`
		} `json:"interval"`
		SkipType string `json:"skipType"`
	} `json:"results"`
}

func (s *service) SkipTimes(ctx context.Context, malID, episode int) (*domain.SkipTimes, error) {
	if malID <= 0 || episode <= 0 {
		return nil, nil
	}

	if times, hit := s.cached(ctx, malID, episode); hit {
		return times, nil
	}

	times, found, err := s.fetch(ctx, malID, episode)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.log.Warn().Err(err).Int("mal_id", malID).Int("episode", episode).Msg("skip times unavailable")
		return nil, nil
	}

	s.store(ctx, malID, episode, found, times)

	return times, nil
}

func (s *service) cached(ctx context.Context, malID, episode int) (*domain.SkipTimes, bool) {
	if s.cache == nil {
		return nil, false
	}

	entry, err := s.cache.Get(ctx, malID, episode)
	if err != nil {
		s.log.Warn().Err(err).Int("mal_id", malID).Msg("failed to read skip cache")
		return nil, false
	}
	if entry == nil {
		return nil, false
	}

	if entry.Found {
		return entry.Times, true
	}
	if s.now().Sub(entry.CachedAt) < NotFoundTTL {
		return nil, true
	}

	return nil, false
}

func (s *service) store(ctx context.Context, malID, episode int, found bool, times *domain.SkipTimes) {
	if s.cache == nil {
		return
	}

	entry := &domain.SkipCacheEntry{
		MalID:    malID,
		Episode:  episode,
		Found:    found,
		Times:    times,
		CachedAt: s.now(),
	}
	if err := s.cache.Upsert(ctx, entry); err != nil {
		s.log.Warn().Err(err).Int("mal_id", malID).Msg("failed to update skip cache")
	}
}

// fetch reports found=false when AniSkip has no usable interval for the episode.
func (s *service) fetch(ctx context.Context, malID, episode int) (*domain.SkipTimes, bool, error) {
	url := fmt.Sprintf("%s/skip-times/%d/%d?types[]=%s&types[]=%s", s.baseURL, malID, episode, domain.SkipTypeOpening, domain.SkipTypeEnding)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to fetch skip times")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, &openani.HTTPError{StatusCode: resp.StatusCode, URL: url}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to read response")
	}

	var data apiResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, false, errors.Wrap(err, "failed to decode skip times")
	}

	if !data.Found || len(data.Results) == 0 {
		return nil, false, nil
	}

	times := &domain.SkipTimes{}
	for _, result := range data.Results {
		interval := domain.Interval{Start: result.Interval.StartTime, End: result.Interval.EndTime}
		if !interval.Valid() {
			continue
		}
		switch result.SkipType {
		case domain.SkipTypeOpening:
			times.Opening = &interval
		case domain.SkipTypeEnding:
			times.Ending = &interval
		}
	}

	if times.Empty() {
		return nil, false, nil
	}

	return times, true, nil
}
