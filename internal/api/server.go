package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/game-genres-crawler/internal/crawler"
	"github.com/JakeFAU/game-genres-crawler/internal/metrics"
	"github.com/JakeFAU/game-genres-crawler/internal/middleware"
)

// Server wires HTTP handlers to the catalog store.
type Server struct {
	router chi.Router
	store  crawler.CatalogStore
	logger *zap.Logger
}

// NewServer constructs a Server with middleware and routes. A zero timeout
// disables the per-request deadline.
func NewServer(store crawler.CatalogStore, timeout time.Duration, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		store:  store,
		logger: logger.Named("api"),
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(middleware.Recoverer(s.logger))
	r.Use(metrics.Middleware)
	if timeout > 0 {
		r.Use(timeoutMiddleware(timeout))
	}

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/games", s.listGames)
		r.Get("/game/{name}", s.getGame)
		r.Get("/genres", s.listGenres)
		r.Get("/genre/{name}", s.getGenre)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.store.Games(r.Context())
	if err != nil {
		s.writeStoreError(w, "list games", err)
		return
	}
	if games == nil {
		games = []crawler.Game{}
	}
	s.writeJSON(w, http.StatusOK, games)
}

func (s *Server) getGame(w http.ResponseWriter, r *http.Request) {
	game, err := s.store.Game(r.Context(), nameParam(r))
	if err != nil {
		s.writeStoreError(w, "get game", err)
		return
	}
	s.writeJSON(w, http.StatusOK, game)
}

func (s *Server) listGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := s.store.Genres(r.Context())
	if err != nil {
		s.writeStoreError(w, "list genres", err)
		return
	}
	if genres == nil {
		genres = []crawler.Genre{}
	}
	s.writeJSON(w, http.StatusOK, genres)
}

func (s *Server) getGenre(w http.ResponseWriter, r *http.Request) {
	genre, err := s.store.Genre(r.Context(), nameParam(r))
	if err != nil {
		s.writeStoreError(w, "get genre", err)
		return
	}
	s.writeJSON(w, http.StatusOK, genre)
}

func (s *Server) writeStoreError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, crawler.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}
	s.logger.Error(op+" failed", zap.Error(err))
	s.writeError(w, http.StatusInternalServerError, "internal server error")
}

// nameParam returns the decoded {name} segment. chi matches on RawPath when
// the client escaped characters such as parentheses.
func nameParam(r *http.Request) string {
	name := chi.URLParam(r, "name")
	if decoded, err := url.PathUnescape(name); err == nil {
		return decoded
	}
	return name
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		s.logger.Error("write JSON failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
