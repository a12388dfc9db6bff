package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/anistream/internal/aniskip"
	"github.com/varoOP/anistream/internal/openani"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	log    zerolog.Logger
	addr   string
	router *mux.Router
}

func New(log zerolog.Logger, addr string, content openani.Service, skip aniskip.Service) *Server {
	log = log.With().Str("module", "server").Logger()

	return &Server{
		log:    log,
		addr:   addr,
		router: NewRouter(log, content, skip),
	}
}

// NewRouter wires every route onto a gorilla/mux router.
func NewRouter(log zerolog.Logger, content openani.Service, skip aniskip.Service) *mux.Router {
	h := &handler{log: log, content: content, skip: skip}

	r := mux.NewRouter()
	r.Use(requestIDMiddleware, accessLogMiddleware(log))

	r.HandleFunc("/health", h.health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(corsMiddleware)

	api.HandleFunc("/search", h.proxySearch).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/anime/{slug}", h.proxyAnime).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/anime/{slug}/episodes", h.proxyEpisodes).Methods(http.MethodGet, http.MethodOptions)

	v1 := api.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/browse", h.browse).Methods(http.MethodGet, http.MethodOptions)
	v1.HandleFunc("/latest", h.latest).Methods(http.MethodGet, http.MethodOptions)
	v1.HandleFunc("/anime/{slug}", h.details).Methods(http.MethodGet, http.MethodOptions)
	v1.HandleFunc("/anime/{slug}/episodes", h.episodes).Methods(http.MethodGet, http.MethodOptions)
	v1.HandleFunc("/anime/{slug}/similar", h.similar).Methods(http.MethodGet, http.MethodOptions)
	v1.HandleFunc("/anime/{slug}/season/{season:[0-9]+}/episode/{episode:[0-9]+}/stream", h.stream).Methods(http.MethodGet, http.MethodOptions)
	v1.HandleFunc("/skip/{malId}/{episode}", h.skipTimes).Methods(http.MethodGet, http.MethodOptions)

	return r
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "server failed")
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "graceful shutdown failed")
	}

	return nil
}
