// Package api exposes the delivery pipeline to the presentation layer
// over HTTP: timeline and suggestion snapshots, the submit/retry/clear
// operations, and connectivity signal injection.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/justinas/alice"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"bazachat/internal/connectivity"
	"bazachat/internal/models"
	"bazachat/internal/pipeline"
	"bazachat/internal/profile"
	"bazachat/internal/queue"
)

type Server struct {
	pipeline *pipeline.Pipeline
	monitor  *connectivity.Monitor
	queue    *queue.Store
	profiles *profile.Store
}

func NewServer(p *pipeline.Pipeline, m *connectivity.Monitor, q *queue.Store, profiles *profile.Store) *Server {
	return &Server{pipeline: p, monitor: m, queue: q, profiles: profiles}
}

// Router builds the HTTP routes with the shared middleware chain.
func (s *Server) Router() *mux.Router {
	chain := alice.New(requestLogger, jsonContentType)

	r := mux.NewRouter()
	r.Handle("/timeline", chain.Then(s.Timeline())).Methods(http.MethodGet)
	r.Handle("/suggestions", chain.Then(s.Suggestions())).Methods(http.MethodGet)
	r.Handle("/status", chain.Then(s.Status())).Methods(http.MethodGet)
	r.Handle("/messages", chain.Then(s.Submit())).Methods(http.MethodPost)
	r.Handle("/messages/{id}/retry", chain.Then(s.Retry())).Methods(http.MethodPost)
	r.Handle("/clear", chain.Then(s.Clear())).Methods(http.MethodPost)
	r.Handle("/connectivity", chain.Then(s.Connectivity())).Methods(http.MethodPost)
	r.Handle("/profile", chain.Then(s.GetProfile())).Methods(http.MethodGet)
	r.Handle("/profile", chain.Then(s.SaveProfile())).Methods(http.MethodPatch)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return r
}

// Timeline returns a read-only snapshot of the ordered timeline.
func (s *Server) Timeline() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.respondWithJSON(w, http.StatusOK, map[string]interface{}{
			"messages": s.pipeline.Timeline(),
		})
	}
}

// Suggestions returns the current quick-reply list.
func (s *Server) Suggestions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.respondWithJSON(w, http.StatusOK, map[string]interface{}{
			"suggestions": s.pipeline.Suggestions(),
		})
	}
}

// Status reports the pipeline-busy flag, connectivity, and queue depth.
func (s *Server) Status() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		queued, err := s.queue.Len(r.Context())
		if err != nil {
			log.Error().Err(err).Msg("Failed to read queue length")
		}
		s.respondWithJSON(w, http.StatusOK, map[string]interface{}{
			"busy":      s.pipeline.Busy(),
			"reachable": s.monitor.Reachable(),
			"queued":    queued,
		})
	}
}

type submitRequest struct {
	Text         string `json:"text"`
	RecipientID  string `json:"recipientId,omitempty"`
	LanguageHint string `json:"languageHint,omitempty"`
}

// Submit accepts a composed message. Recipient and language default to
// the cached profile when the request omits them.
func (s *Server) Submit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondWithJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
			return
		}

		recipientID, languageHint, ok := s.resolveIdentity(r.Context(), req.RecipientID, req.LanguageHint)
		if !ok {
			s.respondWithJSON(w, http.StatusUnprocessableEntity, errorBody("no recipient configured; register a profile first"))
			return
		}

		if err := s.pipeline.Submit(r.Context(), req.Text, recipientID, languageHint); err != nil {
			s.respondWithJSON(w, http.StatusBadRequest, errorBody(err.Error()))
			return
		}

		s.respondWithJSON(w, http.StatusAccepted, map[string]interface{}{
			"messages":    s.pipeline.Timeline(),
			"suggestions": s.pipeline.Suggestions(),
		})
	}
}

// Retry re-submits the text behind a failed timeline entry.
func (s *Server) Retry() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		messageID := mux.Vars(r)["id"]
		if messageID == "" {
			s.respondWithJSON(w, http.StatusBadRequest, errorBody("message ID is required"))
			return
		}

		var req submitRequest
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&req) // body is optional
		}
		recipientID, languageHint, ok := s.resolveIdentity(r.Context(), req.RecipientID, req.LanguageHint)
		if !ok {
			s.respondWithJSON(w, http.StatusUnprocessableEntity, errorBody("no recipient configured; register a profile first"))
			return
		}

		err := s.pipeline.Retry(r.Context(), messageID, recipientID, languageHint)
		if err == models.ErrMessageNotFound {
			s.respondWithJSON(w, http.StatusNotFound, errorBody("message not found"))
			return
		}
		if err != nil {
			s.respondWithJSON(w, http.StatusBadRequest, errorBody(err.Error()))
			return
		}

		s.respondWithJSON(w, http.StatusAccepted, map[string]interface{}{
			"messages": s.pipeline.Timeline(),
		})
	}
}

// Clear empties the visible timeline. Queued unsent messages survive.
func (s *Server) Clear() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.pipeline.Clear()
		s.respondWithJSON(w, http.StatusOK, map[string]interface{}{
			"messages":    s.pipeline.Timeline(),
			"suggestions": s.pipeline.Suggestions(),
		})
	}
}

// Connectivity ingests a platform reachability signal.
func (s *Server) Connectivity() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sig connectivity.Signal
		if err := json.NewDecoder(r.Body).Decode(&sig); err != nil {
			s.respondWithJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
			return
		}
		s.monitor.Apply(sig)
		s.respondWithJSON(w, http.StatusOK, map[string]interface{}{
			"reachable": s.monitor.Reachable(),
		})
	}
}

// GetProfile returns the locally cached profile.
func (s *Server) GetProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := s.profiles.Load(r.Context())
		if err != nil {
			s.respondWithJSON(w, http.StatusInternalServerError, errorBody("failed to load profile"))
			return
		}
		s.respondWithJSON(w, http.StatusOK, p)
	}
}

// SaveProfile merges the submitted fields into the cached profile.
func (s *Server) SaveProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p profile.Profile
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			s.respondWithJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
			return
		}
		merged, err := s.profiles.Save(r.Context(), p)
		if err != nil {
			s.respondWithJSON(w, http.StatusInternalServerError, errorBody("failed to save profile"))
			return
		}
		s.respondWithJSON(w, http.StatusOK, merged)
	}
}

// resolveIdentity fills recipient and language from the cached profile
// when the request did not carry them.
func (s *Server) resolveIdentity(ctx context.Context, recipientID, languageHint string) (string, string, bool) {
	if recipientID != "" && languageHint != "" {
		return recipientID, languageHint, true
	}
	p, err := s.profiles.Load(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load profile for identity resolution")
	}
	if recipientID == "" {
		recipientID = p.Phone
	}
	if languageHint == "" {
		languageHint = p.Language
	}
	return recipientID, languageHint, recipientID != ""
}

func (s *Server) respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}
