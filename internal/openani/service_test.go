package openani

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varoOP/anistream/internal/domain"
)

func newTestService(t *testing.T, handler http.Handler) (Service, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &domain.Config{
		APIURL:              srv.URL,
		PlayerURL:           "https://player.test",
		EpisodesUpstreamURL: srv.URL,
		UserAgent:           "anistream-test",
		LatestLimit:         32,
		BrowseLimit:         50,
	}

	return NewService(zerolog.Nop(), cfg), srv
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(body))
}

func TestService_Search(t *testing.T) {
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/anime/search", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "one piece", r.URL.Query().Get("q"))
		assert.Equal(t, "anistream-test", r.Header.Get("User-Agent"))
		writeJSON(w, `[
			{"slug":"one-piece","title":{"english":"One Piece","romaji":"Wan Pīsu"},"description":"<p>Pirates &amp; treasure</p>","pictures":{"poster":"p.jpg"}},
			{"slug":"one-piece-film","turkish":"One Piece Film","english":"OP Film","pictures":{"avatar":"a.jpg","poster":"p.jpg"}},
			{"slug":"one-piece","turkish":"duplicate"}
		]`)
	})
	svc, _ := newTestService(t, mux)

	t.Run("blank query issues no request", func(t *testing.T) {
		results, err := svc.Search(context.Background(), "   ")
		require.NoError(t, err)
		assert.Empty(t, results)
		assert.Zero(t, hits.Load())
	})

	t.Run("maps heterogeneous fields", func(t *testing.T) {
		results, err := svc.Search(context.Background(), "one piece")
		require.NoError(t, err)
		require.Len(t, results, 2)

		assert.Equal(t, "One Piece", results[0].Title)
		assert.Equal(t, "One Piece", results[0].English)
		assert.Equal(t, "Wan Pīsu", results[0].Romaji)
		assert.Equal(t, "Pirates & treasure", results[0].Summary)
		assert.Equal(t, "p.jpg", results[0].ImageURL)

		assert.Equal(t, "One Piece Film", results[1].Title)
		assert.Equal(t, "a.jpg", results[1].ImageURL)
	})
}

func TestService_Browse(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/anime", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("page") == "9" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "aksiyon,komedi", q.Get("keywords"))
		assert.Equal(t, "5,9", q.Get("score"))
		assert.Equal(t, "2001,2010", q.Get("date"))
		writeJSON(w, `{"animes":[{"slug":"a","english":"A","score":8.1,"malId":"42"}],"totalCount":41,"totalPages":3,"page":2}`)
	})
	svc, _ := newTestService(t, mux)

	t.Run("sends filter as query", func(t *testing.T) {
		page, err := svc.Browse(context.Background(), domain.Filter{
			Categories: []string{"aksiyon", " komedi "},
			Score:      &domain.Range{Low: 9, High: 5},
			Years:      &domain.Range{Low: 2001, High: 2010},
			Page:       2,
		})
		require.NoError(t, err)

		assert.Equal(t, 3, page.TotalPages)
		assert.Equal(t, 41, page.TotalCount)
		assert.Equal(t, 2, page.Page)
		require.Len(t, page.Animes, 1)
		assert.Equal(t, "A", page.Animes[0].Title)
		assert.Equal(t, 42, page.Animes[0].MalID)
		assert.Equal(t, 8.1, page.Animes[0].Score)
	})

	t.Run("non-2xx yields an empty page", func(t *testing.T) {
		page, err := svc.Browse(context.Background(), domain.Filter{Page: 9})
		require.NoError(t, err)
		assert.Equal(t, domain.EmptyAnimePage(), page)
	})

	t.Run("cancellation is reported", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		page, err := svc.Browse(ctx, domain.Filter{Page: 2})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, page.Animes)
	})
}

func TestService_Details(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/anime/frieren", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{
			"slug":"frieren","english":"Frieren","originalName":"Sousou no Frieren",
			"tmdbID":209867,"malID":"52991","numberOfSeasons":2,
			"seasons":[{"season_number":1,"name":"S1","episode_count":28}],
			"nextEpisodeToAir":{"air_date":"2026-01-10","episode_number":1,"season_number":2}
		}`)
	})
	mux.HandleFunc("/anime/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/anime/broken", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"slug":`)
	})
	svc, _ := newTestService(t, mux)

	details, err := svc.Details(context.Background(), "frieren")
	require.NoError(t, err)
	assert.Equal(t, "Frieren", details.Title)
	assert.Equal(t, "209867", details.TmdbID)
	assert.Equal(t, 52991, details.MalID)
	assert.Equal(t, 2, details.SeasonCount())
	assert.Equal(t, []domain.Season{{Number: 1, Name: "S1", EpisodeCount: 28}}, details.Seasons)
	require.NotNil(t, details.NextEpisodeToAir)
	assert.Equal(t, 2, details.NextEpisodeToAir.SeasonNumber)

	_, err = svc.Details(context.Background(), "missing")
	require.Error(t, err)
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.True(t, httpErr.NotFound())

	_, err = svc.Details(context.Background(), "broken")
	assert.Error(t, err)
}

func TestService_Episodes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/anime/show", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"slug":"show","numberOfSeasons":3}`)
	})
	mux.HandleFunc("/anime/show/season/1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"season":{"episodes":[
			{"episodeNumber":2,"name":"Second","files":[{"file":"s1e2.mp4","resolution":1080}]},
			{"episode":1},
			{"number":2}
		]}}`)
	})
	mux.HandleFunc("/anime/show/season/2", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	mux.HandleFunc("/anime/show/season/3", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"season":{"episodes":[
			{"episodeNumber":1,"thumbnail":"t.jpg"},
			{"episodeNumber":"2","name":"Quoted"}
		]}}`)
	})
	mux.HandleFunc("/anime/gone", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	svc, _ := newTestService(t, mux)

	episodes, err := svc.Episodes(context.Background(), "show")
	require.NoError(t, err)
	require.Len(t, episodes, 4)

	assert.Equal(t, domain.EpisodeKey{Slug: "show", Season: 1, Episode: 1}, episodes[0].Key())
	assert.Equal(t, "Bölüm 1", episodes[0].Title)
	assert.Equal(t, domain.EpisodeKey{Slug: "show", Season: 1, Episode: 2}, episodes[1].Key())
	assert.Equal(t, "Second", episodes[1].Title)
	assert.Equal(t, domain.EpisodeKey{Slug: "show", Season: 3, Episode: 1}, episodes[2].Key())
	assert.Equal(t, "t.jpg", episodes[2].Thumbnail)
	assert.Equal(t, domain.EpisodeKey{Slug: "show", Season: 3, Episode: 2}, episodes[3].Key())
	assert.Equal(t, "Quoted", episodes[3].Title)

	empty, err := svc.Episodes(context.Background(), "gone")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestService_Stream(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/anime/show/season/1/episode/1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"episodeData":{"files":[
			{"file":"480.mp4","resolution":480},
			{"file":"","resolution":2160},
			{"file":"nores.mp4"},
			{"file":"1080.mp4","resolution":1080}
		]}}`)
	})
	mux.HandleFunc("/anime/show/season/1/episode/2", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"episodeData":{"files":[{"file":""}]}}`)
	})
	mux.HandleFunc("/anime/show/season/1/episode/3", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	svc, _ := newTestService(t, mux)

	sources, err := svc.Stream(context.Background(), "show", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []domain.StreamSource{
		{Resolution: 1080, URL: "https://player.test/stream/1080.mp4"},
		{Resolution: 720, URL: "https://player.test/stream/nores.mp4"},
		{Resolution: 480, URL: "https://player.test/stream/480.mp4"},
	}, sources)

	_, err = svc.Stream(context.Background(), "show", 1, 2)
	assert.ErrorIs(t, err, ErrNoSources)

	_, err = svc.Stream(context.Background(), "show", 1, 3)
	assert.Error(t, err)
}

func TestService_LatestAndAll(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/anime/episodes/latest", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "32", r.URL.Query().Get("limit"))
		writeJSON(w, `{"episodes":[{"id":7,"slug":"a","turkish":"A","season":1,"episode":5,"createdAt":1700000000},{"id":8,"slug":"b","season":"2","episodeNumber":"3"}],"totalCount":2,"totalPages":1,"page":1}`)
	})
	mux.HandleFunc("/anime", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		writeJSON(w, `{"animes":[{"slug":"a"},{"slug":"b","romaji":"Bee"}]}`)
	})
	svc, _ := newTestService(t, mux)

	latest, err := svc.Latest(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Len(t, latest.Episodes, 2)
	assert.Equal(t, "7", latest.Episodes[0].ID)
	assert.Equal(t, 5, latest.Episodes[0].Number)
	assert.Equal(t, "A", latest.Episodes[0].Title)
	assert.Equal(t, domain.EpisodeKey{Slug: "b", Season: 2, Episode: 3}, latest.Episodes[1].Key())

	all, err := svc.All(context.Background(), 1, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].Title)
	assert.Equal(t, "Bee", all[1].Title)
}

func TestService_Similar(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/anime/x/similar", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	svc, _ := newTestService(t, mux)

	results, err := svc.Similar(context.Background(), "x")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestService_Playable(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/video", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.Header().Set("Content-Type", "video/mp4")
	})
	mux.HandleFunc("/octet", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
	})
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
	})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.WriteHeader(http.StatusNotFound)
	})
	svc, srv := newTestService(t, mux)

	ctx := context.Background()
	assert.True(t, svc.Playable(ctx, srv.URL+"/video"))
	assert.True(t, svc.Playable(ctx, srv.URL+"/octet"))
	assert.False(t, svc.Playable(ctx, srv.URL+"/page"))
	assert.False(t, svc.Playable(ctx, srv.URL+"/gone"))
	assert.False(t, svc.Playable(ctx, "http://127.0.0.1:0/unreachable"))
}

func TestService_Forward(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/anime/search", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte(`{"message":"short and stout"}`))
	})
	mux.HandleFunc("/anime/x/episodes", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[]`)
	})
	svc, _ := newTestService(t, mux)

	resp, err := svc.Forward(context.Background(), "/anime/search", url.Values{"q": {"tea"}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.Equal(t, "application/json", resp.ContentType)
	assert.JSONEq(t, `{"message":"short and stout"}`, string(resp.Body))
	assert.False(t, resp.OK())

	resp, err = svc.ForwardEpisodes(context.Background(), "x")
	require.NoError(t, err)
	assert.True(t, resp.OK())
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "plain", plainText("  plain  "))
	assert.Equal(t, "one\ntwo & three", plainText("<p>one</p><p>two &amp;   three</p>"))
	assert.Equal(t, "a\nb", plainText("a<br/>b"))
}
