package openani

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"
	"github.com/varoOP/anistream/internal/dedupe"
	"github.com/varoOP/anistream/internal/domain"
)

// maxSeasonFetches bounds the concurrent season requests of Episodes.
const maxSeasonFetches = 4

// Service talks to the OpenAnime content API.
//
// Listing calls (Search, Browse, All, Latest, Episodes, Similar) never fail
// because of upstream trouble: they log and return an empty value. The only
// error they return is the caller's context error. Details and Stream
// surface every failure.
type Service interface {
	Search(ctx context.Context, query string) ([]domain.SearchResult, error)
	Browse(ctx context.Context, filter domain.Filter) (*domain.AnimePage, error)
	All(ctx context.Context, page, limit int) ([]domain.Anime, error)
	Latest(ctx context.Context, page, limit int) (*domain.LatestPage, error)
	Details(ctx context.Context, slug string) (*domain.AnimeDetails, error)
	Episodes(ctx context.Context, slug string) ([]domain.Episode, error)
	Stream(ctx context.Context, slug string, season, episode int) ([]domain.StreamSource, error)
	Similar(ctx context.Context, slug string) ([]domain.SearchResult, error)
	Playable(ctx context.Context, streamURL string) bool
	Forward(ctx context.Context, path string, query url.Values) (*domain.UpstreamResponse, error)
	ForwardEpisodes(ctx context.Context, slug string) (*domain.UpstreamResponse, error)
}

type service struct {
	log    zerolog.Logger
	config *domain.Config
	client *http.Client
}

type Option func(*service)

// WithHTTPClient replaces the default client, mostly for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(s *service) {
		s.client = c
	}
}

func NewService(log zerolog.Logger, config *domain.Config, opts ...Option) Service {
	s := &service{
		log:    log.With().Str("module", "openani").Logger(),
		config: config,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = NewHTTPClient(config.UserAgent, config.RequestRate)
	}
	return s
}

func (s *service) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.SearchResult{}, nil
	}

	var records []animeRecord
	if err := s.getJSON(ctx, s.config.APIURL, "/anime/search", url.Values{"q": {query}}, &records); err != nil {
		return []domain.SearchResult{}, s.listFailure(ctx, err, "search failed")
	}

	_, results := dedupe.SearchResults(lo.Map(records, func(r animeRecord, _ int) domain.SearchResult {
		return r.searchResult()
	}))

	return results, nil
}

func (s *service) Browse(ctx context.Context, filter domain.Filter) (*domain.AnimePage, error) {
	f := filter.Normalize()

	q := url.Values{}
	q.Set("page", strconv.Itoa(f.Page))
	if len(f.Categories) > 0 {
		for _, c := range f.Categories {
			if !domain.IsKnownCategory(c) {
				s.log.Debug().Str("category", c).Msg("unknown category")
			}
		}
		q.Set("keywords", strings.Join(f.Categories, ","))
	}
	if f.Score != nil {
		q.Set("score", formatRange(*f.Score))
	}
	if f.Years != nil {
		q.Set("date", formatRange(*f.Years))
	}

	var record animePageRecord
	if err := s.getJSON(ctx, s.config.APIURL, "/anime", q, &record); err != nil {
		return domain.EmptyAnimePage(), s.listFailure(ctx, err, "browse failed")
	}

	page := record.normalize()
	if dupes, animes := dedupe.Anime(page.Animes); dupes > 0 {
		s.log.Debug().Int("dupes", dupes).Msg("dropped repeated anime from page")
		page.Animes = animes
	}

	return page, nil
}

func (s *service) All(ctx context.Context, page, limit int) ([]domain.Anime, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = s.config.BrowseLimit
	}

	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	var record animePageRecord
	if err := s.getJSON(ctx, s.config.APIURL, "/anime", q, &record); err != nil {
		return []domain.Anime{}, s.listFailure(ctx, err, "listing anime failed")
	}

	return record.normalize().Animes, nil
}

func (s *service) Latest(ctx context.Context, page, limit int) (*domain.LatestPage, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = s.config.LatestLimit
	}

	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("page", strconv.Itoa(page))

	var record latestPageRecord
	if err := s.getJSON(ctx, s.config.APIURL, "/anime/episodes/latest", q, &record); err != nil {
		return domain.EmptyLatestPage(), s.listFailure(ctx, err, "latest episodes failed")
	}

	latest := record.normalize()
	_, latest.Episodes = dedupe.Latest(latest.Episodes)

	return latest, nil
}

func (s *service) Details(ctx context.Context, slug string) (*domain.AnimeDetails, error) {
	if strings.TrimSpace(slug) == "" {
		return nil, errors.New("slug is empty")
	}

	var record detailsRecord
	if err := s.getJSON(ctx, s.config.APIURL, "/anime/"+url.PathEscape(slug), nil, &record); err != nil {
		if ctx.Err() == nil {
			s.log.Error().Err(err).Str("slug", slug).Msg("failed to fetch anime details")
		}
		return nil, errors.Wrapf(err, "could not load anime %q", slug)
	}

	details := record.normalize()
	if details.Slug == "" {
		details.Slug = slug
		details.Title = record.display(slug)
	}

	return details, nil
}

func (s *service) Episodes(ctx context.Context, slug string) ([]domain.Episode, error) {
	details, err := s.Details(ctx, slug)
	if err != nil {
		return []domain.Episode{}, s.listFailure(ctx, err, "episodes unavailable")
	}

	p := pool.NewWithResults[[]domain.Episode]().WithMaxGoroutines(maxSeasonFetches)
	for season := 1; season <= details.SeasonCount(); season++ {
		season := season
		p.Go(func() []domain.Episode {
			return s.seasonEpisodes(ctx, slug, season)
		})
	}

	var all []domain.Episode
	for _, batch := range p.Wait() {
		all = append(all, batch...)
	}

	if err := ctx.Err(); err != nil {
		return []domain.Episode{}, err
	}

	dupes, episodes := dedupe.Episodes(all)
	if dupes > 0 {
		s.log.Debug().Str("slug", slug).Int("dupes", dupes).Msg("dropped duplicate episodes")
	}

	return episodes, nil
}

// seasonEpisodes returns nil when the season cannot be loaded.
func (s *service) seasonEpisodes(ctx context.Context, slug string, season int) []domain.Episode {
	path := "/anime/" + url.PathEscape(slug) + "/season/" + strconv.Itoa(season)

	var resp seasonResponse
	if err := s.getJSON(ctx, s.config.APIURL, path, nil, &resp); err != nil {
		if ctx.Err() == nil {
			s.log.Warn().Err(err).Str("slug", slug).Int("season", season).Msg("skipping season")
		}
		return nil
	}

	return lo.Map(resp.Season.Episodes, func(r episodeRecord, _ int) domain.Episode {
		return r.normalize(slug, season)
	})
}

func (s *service) Stream(ctx context.Context, slug string, season, episode int) ([]domain.StreamSource, error) {
	path := "/anime/" + url.PathEscape(slug) + "/season/" + strconv.Itoa(season) + "/episode/" + strconv.Itoa(episode)

	var resp streamResponse
	if err := s.getJSON(ctx, s.config.APIURL, path, nil, &resp); err != nil {
		if ctx.Err() == nil {
			s.log.Error().Err(err).Str("slug", slug).Int("season", season).Int("episode", episode).Msg("failed to fetch stream")
		}
		return nil, errors.Wrap(err, "could not load stream")
	}

	if resp.EpisodeData == nil {
		return nil, ErrNoSources
	}

	sources := lo.Map(normalizeFiles(resp.EpisodeData.Files), func(f domain.EpisodeFile, _ int) domain.StreamSource {
		return domain.StreamSource{Resolution: f.Resolution, URL: s.config.PlayerURL + "/stream/" + f.File}
	})
	if len(sources) == 0 {
		return nil, ErrNoSources
	}

	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].Resolution > sources[j].Resolution
	})

	return sources, nil
}

func (s *service) Similar(ctx context.Context, slug string) ([]domain.SearchResult, error) {
	var records []animeRecord
	if err := s.getJSON(ctx, s.config.APIURL, "/anime/"+url.PathEscape(slug)+"/similar", nil, &records); err != nil {
		return []domain.SearchResult{}, s.listFailure(ctx, err, "similar anime failed")
	}

	_, results := dedupe.SearchResults(lo.Map(records, func(r animeRecord, _ int) domain.SearchResult {
		return r.searchResult()
	}))

	return results, nil
}

func (s *service) Playable(ctx context.Context, streamURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, streamURL, nil)
	if err != nil {
		s.log.Warn().Err(err).Str("url", streamURL).Msg("invalid stream url")
		return false
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Warn().Err(err).Str("url", streamURL).Msg("stream check failed")
		return false
	}
	defer resp.Body.Close()

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	return resp.StatusCode >= 200 && resp.StatusCode < 300 &&
		(strings.HasPrefix(contentType, "video/") || strings.HasPrefix(contentType, "application/"))
}

func (s *service) Forward(ctx context.Context, path string, query url.Values) (*domain.UpstreamResponse, error) {
	return s.forward(ctx, s.config.APIURL, path, query)
}

func (s *service) ForwardEpisodes(ctx context.Context, slug string) (*domain.UpstreamResponse, error) {
	return s.forward(ctx, s.config.EpisodesUpstreamURL, "/anime/"+url.PathEscape(slug)+"/episodes", nil)
}

func (s *service) forward(ctx context.Context, base, path string, query url.Values) (*domain.UpstreamResponse, error) {
	u := buildURL(base, path, query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch %s", u)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response")
	}

	return &domain.UpstreamResponse{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

func (s *service) getJSON(ctx context.Context, base, path string, query url.Values, out any) error {
	u := buildURL(base, path, query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "failed to fetch %s", u)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return &HTTPError{StatusCode: resp.StatusCode, URL: u}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response")
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrapf(err, "failed to decode response from %s", u)
	}

	return nil
}

// listFailure logs an upstream failure of a listing call. It returns the
// context error when the caller gave up, nil otherwise.
func (s *service) listFailure(ctx context.Context, err error, msg string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	s.log.Error().Err(err).Msg(msg)
	return nil
}

func buildURL(base, path string, query url.Values) string {
	u := strings.TrimRight(base, "/") + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func formatRange(r domain.Range) string {
	return strconv.Itoa(r.Low) + "," + strconv.Itoa(r.High)
}
