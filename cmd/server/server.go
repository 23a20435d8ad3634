package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Simplici0/rab/internal/estimate"
	"github.com/Simplici0/rab/internal/logger"
	"github.com/Simplici0/rab/internal/recipe"
	"github.com/Simplici0/rab/internal/store"
	"github.com/Simplici0/rab/internal/volume"
	"github.com/Simplici0/rab/internal/workspace"
)

const requestIDHeader = "X-Request-Id"

type server struct {
	ws      *workspace.Workspace
	store   *store.Store
	log     *logger.Logger
	metrics http.Handler
}

func newServer(a *app) *server {
	return &server{
		ws:      a.workspace,
		store:   a.store,
		log:     a.log,
		metrics: promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}),
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID, middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", s.metrics)

	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog", s.handleCatalogList)

		r.Get("/estimates", s.handleEstimatesList)
		r.Post("/estimates", s.handleEstimateCreate)
		r.Get("/estimates/{id}", s.handleEstimateOpen)
		r.Delete("/estimates/{id}", s.handleEstimateDelete)
		r.Post("/estimates/{id}/commands", s.handleEstimateCommand)
		r.Post("/estimates/{id}/save", s.handleEstimateSave)
		r.Post("/estimates/{id}/discard", s.handleEstimateDiscard)
		r.Get("/estimates/{id}/summary", s.handleEstimateSummary)

		r.Get("/recipes/{catalogItemID}", s.handleRecipeOpen)
		r.Post("/recipes/{catalogItemID}/commands", s.handleRecipeCommand)
		r.Post("/recipes/{catalogItemID}/close", s.handleRecipeClose)
	})
	return r
}

func (s *server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, reqID)
		next.ServeHTTP(w, r.WithContext(s.log.WithRequestID(r.Context(), reqID)))
	})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleCatalogList(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListCatalog(r.Context())
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *server) handleEstimatesList(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListEstimates(r.Context())
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *server) handleEstimateCreate(w http.ResponseWriter, r *http.Request) {
	var in workspace.ProfileInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	view, err := s.ws.Create(r.Context(), in)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (s *server) handleEstimateOpen(w http.ResponseWriter, r *http.Request) {
	view, err := s.ws.Open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *server) handleEstimateDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.DeleteEstimate(r.Context(), id); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	if err := s.ws.Discard(id); err != nil && !errors.Is(err, workspace.ErrNotOpen) {
		s.log.Error(s.log.WithEstimateID(r.Context(), id), "discard deleted estimate", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleEstimateCommand(w http.ResponseWriter, r *http.Request) {
	var cmd workspace.Command
	if err := decodeJSON(r, &cmd); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	res, err := s.ws.Apply(r.Context(), chi.URLParam(r, "id"), cmd)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) handleEstimateSave(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.ws.Save(r.Context(), id); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	view, err := s.ws.View(id)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *server) handleEstimateDiscard(w http.ResponseWriter, r *http.Request) {
	if err := s.ws.Discard(chi.URLParam(r, "id")); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleEstimateSummary(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.ws.Open(r.Context(), id); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := s.ws.WriteSummary(id, w); err != nil {
		s.log.Error(r.Context(), "write summary", err)
	}
}

func (s *server) handleRecipeOpen(w http.ResponseWriter, r *http.Request) {
	view, err := s.ws.OpenRecipe(r.Context(), chi.URLParam(r, "catalogItemID"))
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *server) handleRecipeCommand(w http.ResponseWriter, r *http.Request) {
	var cmd workspace.RecipeCommand
	if err := decodeJSON(r, &cmd); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	view, err := s.ws.ApplyRecipe(r.Context(), chi.URLParam(r, "catalogItemID"), cmd)
	var batch *recipe.BatchError
	switch {
	case errors.As(err, &batch):
		s.log.Warn(s.log.WithField(r.Context(), "failed", batch.Failed()), "partial recipe commit")
		writeJSON(w, http.StatusConflict, view)
	case err != nil:
		s.writeError(r.Context(), w, err)
	default:
		writeJSON(w, http.StatusOK, view)
	}
}

func (s *server) handleRecipeClose(w http.ResponseWriter, r *http.Request) {
	s.ws.CloseRecipe(chi.URLParam(r, "catalogItemID"))
	w.WriteHeader(http.StatusNoContent)
}

var errBadJSON = errors.New("malformed request body")

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %w", errBadJSON, err)
	}
	return nil
}

type apiError struct {
	Error string `json:"error"`
}

func (s *server) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error(ctx, "request.error", err)
	}
	writeJSON(w, status, apiError{Error: err.Error()})
}

func statusFor(err error) int {
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, errBadJSON),
		errors.Is(err, workspace.ErrInvalidCommand),
		errors.As(err, &verrs),
		errors.Is(err, estimate.ErrIndexOutOfRange),
		errors.Is(err, estimate.ErrAmbiguousSection),
		errors.Is(err, recipe.ErrInvalidGroup):
		return http.StatusBadRequest
	case errors.Is(err, workspace.ErrNotOpen),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, estimate.ErrSectionNotFound),
		errors.Is(err, estimate.ErrGroupNotFound),
		errors.Is(err, estimate.ErrItemNotFound),
		errors.Is(err, volume.ErrRowNotFound),
		errors.Is(err, recipe.ErrComponentNotFound),
		errors.Is(err, recipe.ErrMasterItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, estimate.ErrNotEditing),
		errors.Is(err, recipe.ErrNotStaged):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		fmt.Printf(`{"level":"error","msg":"failed to encode response","err":"%v"}`+"\n", err)
	}
}
