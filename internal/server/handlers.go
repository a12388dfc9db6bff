package server

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/anistream/internal/aniskip"
	"github.com/varoOP/anistream/internal/domain"
	"github.com/varoOP/anistream/internal/openani"
)

type handler struct {
	log     zerolog.Logger
	content openani.Service
	skip    aniskip.Service
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// proxySearch forwards upstream status and body unchanged.
func (h *handler) proxySearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "query parameter q is required", nil)
		return
	}

	resp, err := h.content.Forward(r.Context(), "/anime/search", url.Values{"q": {q}})
	if err != nil {
		h.log.Error().Err(err).Str("request_id", RequestID(r.Context())).Msg("search proxy failed")
		writeError(w, http.StatusInternalServerError, "search failed", err)
		return
	}

	writeRaw(w, resp)
}

func (h *handler) proxyAnime(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]

	resp, err := h.content.Forward(r.Context(), "/anime/"+url.PathEscape(slug), nil)
	h.relay(w, r, resp, err, "failed to load anime")
}

func (h *handler) proxyEpisodes(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]

	resp, err := h.content.ForwardEpisodes(r.Context(), slug)
	h.relay(w, r, resp, err, "failed to load episodes")
}

// relay passes a 2xx body through and turns anything else into a 500.
func (h *handler) relay(w http.ResponseWriter, r *http.Request, resp *domain.UpstreamResponse, err error, msg string) {
	if err == nil && !resp.OK() {
		err = errors.Errorf("upstream answered %d", resp.StatusCode)
	}
	if err != nil {
		h.log.Error().Err(err).Str("request_id", RequestID(r.Context())).Str("path", r.URL.Path).Msg(msg)
		writeError(w, http.StatusInternalServerError, msg, err)
		return
	}

	writeRaw(w, resp)
}

func writeRaw(w http.ResponseWriter, resp *domain.UpstreamResponse) {
	contentType := resp.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(resp.StatusCode)
	w.Write(resp.Body)
}

func (h *handler) browse(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid filter", err)
		return
	}

	page, err := h.content.Browse(r.Context(), filter)
	if err != nil {
		// Only the client's own cancellation ends up here.
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (h *handler) latest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	latest, err := h.content.Latest(r.Context(), page, limit)
	if err != nil {
		return
	}

	writeJSON(w, http.StatusOK, latest)
}

func (h *handler) details(w http.ResponseWriter, r *http.Request) {
	details, err := h.content.Details(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		writeError(w, upstreamStatus(err), "failed to load anime", err)
		return
	}

	writeJSON(w, http.StatusOK, details)
}

func (h *handler) episodes(w http.ResponseWriter, r *http.Request) {
	episodes, err := h.content.Episodes(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		return
	}

	writeJSON(w, http.StatusOK, episodes)
}

func (h *handler) similar(w http.ResponseWriter, r *http.Request) {
	results, err := h.content.Similar(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		return
	}

	writeJSON(w, http.StatusOK, results)
}

func (h *handler) stream(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	season, err1 := strconv.Atoi(vars["season"])
	episode, err2 := strconv.Atoi(vars["episode"])
	if err1 != nil || err2 != nil || season < 1 || episode < 1 {
		writeError(w, http.StatusBadRequest, "season and episode must be positive numbers", nil)
		return
	}

	sources, err := h.content.Stream(r.Context(), vars["slug"], season, episode)
	if err != nil {
		writeError(w, upstreamStatus(err), "failed to load stream", err)
		return
	}

	writeJSON(w, http.StatusOK, sources)
}

func (h *handler) skipTimes(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	malID, err1 := strconv.Atoi(vars["malId"])
	episode, err2 := strconv.Atoi(vars["episode"])
	if err1 != nil || err2 != nil {
		writeError(w, http.StatusBadRequest, "malId and episode must be numbers", nil)
		return
	}

	times, err := h.skip.SkipTimes(r.Context(), malID, episode)
	if err != nil {
		return
	}
	if times == nil {
		times = &domain.SkipTimes{}
	}

	writeJSON(w, http.StatusOK, times)
}

// parseFilter reads page, categories (CSV), score=lo,hi and years=lo,hi.
func parseFilter(q url.Values) (domain.Filter, error) {
	f := domain.Filter{Page: 1}

	if p := q.Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return f, errors.Errorf("page %q is not a number", p)
		}
		f.Page = n
	}

	if c := q.Get("categories"); c != "" {
		f.Categories = strings.Split(c, ",")
	}

	var err error
	if f.Score, err = domain.ParseRange(q.Get("score")); err != nil {
		return f, errors.Wrap(err, "score")
	}
	if f.Years, err = domain.ParseRange(q.Get("years")); err != nil {
		return f, errors.Wrap(err, "years")
	}

	return f.Normalize(), nil
}
