package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"cinesearch/internal/config"
	"cinesearch/internal/embedding"
	"cinesearch/internal/logger"
	"cinesearch/internal/models"
	"cinesearch/internal/search"
	"cinesearch/internal/store"
)

type server struct {
	facade *search.Facade
	cfg    *config.Config
	log    *logrus.Logger
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to yaml config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.File)

	db, err := store.New(cfg.Credentials.MongoURI, cfg.DB, log)
	if err != nil {
		log.Fatalf("connecting to mongo: %v", err)
	}
	defer db.Close()

	facade := search.NewFacade(search.FacadeOptions{
		Movies:       db.Documents(models.KindMovie),
		TV:           db.Documents(models.KindTV),
		Embedder:     embedding.NewOpenAI(cfg.Credentials.OpenAIAPIKey, cfg.Embedding.Model, cfg.Embedding.Dimensions),
		CacheTTL:     time.Duration(cfg.Search.CacheTTLSec) * time.Second,
		DefaultLimit: cfg.Search.DefaultLimit,
		Log:          log,
	})

	s := &server{facade: facade, cfg: cfg, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/api/search", s.handleSearch)
	r.Get("/api/{kind}/{id}", s.handleGet)
	r.Get("/api/{kind}/{id}/similar", s.handleSimilar)
	r.Handle("/public/*", http.StripPrefix("/public/", http.FileServer(http.Dir("public"))))

	srv := &http.Server{
		Addr:         cfg.Search.Address,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("shutdown failed")
		}
	}()

	log.WithField("address", cfg.Search.Address).Info("search service listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server: %v", err)
	}
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}

	limit := s.cfg.Search.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	filter := buildFilter(r)

	var (
		results []models.CatalogDocument
		err     error
	)
	switch r.URL.Query().Get("type") {
	case "", "all":
		results, err = s.facade.SearchAll(r.Context(), q, limit, filter)
	case "movie":
		results, err = s.facade.SearchMovies(r.Context(), q, limit, filter)
	case "tv":
		results, err = s.facade.SearchTV(r.Context(), q, limit, filter)
	default:
		writeError(w, http.StatusBadRequest, "type must be movie, tv or all")
		return
	}
	if err != nil {
		s.log.WithError(err).WithField("query", q).Error("search failed")
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results, "count": len(results)})
}

func (s *server) handleGet(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseKind(chi.URLParam(r, "kind"))
	if !ok {
		writeError(w, http.StatusBadRequest, "kind must be movie or tv")
		return
	}
	doc, err := s.facade.Get(r.Context(), kind, chi.URLParam(r, "id"))
	if errors.Is(err, search.ErrNoDocument) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		s.log.WithError(err).Error("lookup failed")
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseKind(chi.URLParam(r, "kind"))
	if !ok {
		writeError(w, http.StatusBadRequest, "kind must be movie or tv")
		return
	}
	limit := s.cfg.Search.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	results, err := s.facade.Similar(r.Context(), kind, chi.URLParam(r, "id"), limit)
	if errors.Is(err, search.ErrNoDocument) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		s.log.WithError(err).Error("similar lookup failed")
		writeError(w, http.StatusInternalServerError, "similar lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results, "count": len(results)})
}

func parseKind(raw string) (models.MediaKind, bool) {
	switch raw {
	case "movie", "movies":
		return models.KindMovie, true
	case "tv", "tvshows":
		return models.KindTV, true
	default:
		return "", false
	}
}

// buildFilter assembles the optional metadata filter from query
// parameters. Multiple parameters are conjoined.
func buildFilter(r *http.Request) search.Filter {
	var filters []search.Filter
	if raw := r.URL.Query().Get("genre"); raw != "" {
		filters = append(filters, search.ByCategory{Genres: strings.Split(raw, ",")})
	}
	if person := r.URL.Query().Get("person"); person != "" {
		filters = append(filters, search.ByPerson{Name: person})
	}
	if provider := r.URL.Query().Get("provider"); provider != "" {
		filters = append(filters, search.ByProvider{
			Provider: provider,
			Region:   r.URL.Query().Get("region"),
		})
	}
	switch len(filters) {
	case 0:
		return nil
	case 1:
		return filters[0]
	default:
		return search.And{Filters: filters}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
