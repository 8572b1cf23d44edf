// Package handler exposes analysis runs over REST, Connect and WebSocket.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/semaphore"

	"repo2pipe/internal/analyzer"
	"repo2pipe/internal/gateway/middleware"
	"repo2pipe/internal/results"
)

// Runner performs one analysis, reporting journal entries to obs.
type Runner interface {
	RunObserved(ctx context.Context, req analyzer.Request, obs analyzer.Observer) (*analyzer.Response, error)
}

// Service holds the gateway's dependencies.
type Service struct {
	runner  Runner
	results *results.Service
	slots   *semaphore.Weighted
}

// NewService bounds concurrent runs to maxRuns (at least 1). results may be
// nil, in which case the /v1/runs endpoints answer 404.
func NewService(runner Runner, res *results.Service, maxRuns int) *Service {
	if maxRuns < 1 {
		maxRuns = 1
	}
	return &Service{runner: runner, results: res, slots: semaphore.NewWeighted(int64(maxRuns))}
}

// Routes builds the router.
func (s *Service) Routes(allowedOrigins ...string) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(allowedOrigins...))

	r.Get("/healthz", s.handleHealth)
	r.Post("/v1/analyze", s.handleAnalyze)
	r.Get("/v1/analyze/stream", s.handleStream)
	r.Get("/v1/runs/{runID}", s.handleGetRun)
	r.Get("/v1/runs/{runID}/files/{name}", s.handleGetFile)

	path, h := s.connectAnalyzeHandler()
	r.Handle(path, h)
	return r
}

var errBusy = errors.New("too many analyses in progress")

// run executes req while holding a concurrency slot. When every slot is
// taken it fails at once with errBusy.
func (s *Service) run(ctx context.Context, req analyzer.Request, obs analyzer.Observer) (*analyzer.Response, error) {
	if !s.slots.TryAcquire(1) {
		return nil, errBusy
	}
	defer s.slots.Release(1)
	return s.runner.RunObserved(ctx, req, obs)
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type analyzeBody struct {
	Repository string `json:"repository"`
	Branch     string `json:"branch"`
	Type       string `json:"type"`
}

func (b analyzeBody) request() (analyzer.Request, error) {
	repo := strings.TrimSpace(b.Repository)
	if repo == "" {
		return analyzer.Request{}, errors.New("repository is required")
	}
	return analyzer.Request{
		Repository: repo,
		Branch:     strings.TrimSpace(b.Branch),
		Target:     strings.TrimSpace(b.Type),
	}, nil
}

func (s *Service) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var body analyzeBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	req, err := body.request()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := s.run(r.Context(), req, nil)
	switch {
	case errors.Is(err, errBusy):
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	case err != nil:
		log.Printf("gateway: analyze %s: %v", req.Repository, err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	status := http.StatusOK
	if !resp.OK() {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, resp)
}

func (s *Service) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.results == nil {
		writeError(w, http.StatusNotFound, "result storage is disabled")
		return
	}
	resp, err := s.results.Load(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) handleGetFile(w http.ResponseWriter, r *http.Request) {
	if s.results == nil {
		writeError(w, http.StatusNotFound, "result storage is disabled")
		return
	}
	name := chi.URLParam(r, "name")
	data, err := s.results.File(r.Context(), chi.URLParam(r, "runID"), name)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	ct := "text/plain; charset=utf-8"
	if strings.HasSuffix(name, ".json") {
		ct = "application/json"
	}
	w.Header().Set("Content-Type", ct)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeStoreError(w http.ResponseWriter, err error) {
	if results.IsNotFound(err) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if errors.Is(err, results.ErrInvalidKey) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	log.Printf("gateway: result store: %v", err)
	writeError(w, http.StatusInternalServerError, "result store unavailable")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("gateway: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
