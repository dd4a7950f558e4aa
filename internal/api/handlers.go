package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/yourusername/prop-scout/internal/models"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type acceptedResponse struct {
	Status  string `json:"status"`
	Domain  string `json:"domain"`
	Message string `json:"message"`
}

type statusResponse struct {
	Domain      string  `json:"domain"`
	HasData     bool    `json:"hasData"`
	IsLoading   bool    `json:"isLoading"`
	LastUpdated *string `json:"lastUpdated"`
	ItemCount   int     `json:"itemCount"`
}

// handleGetPredictions serves the cached snapshot for a domain. An empty
// cache answers 202 and, when idle, triggers a refresh in the background so
// the caller's retry finds data.
func (s *Server) handleGetPredictions(w http.ResponseWriter, r *http.Request) {
	domain := mux.Vars(r)["domain"]

	snap, err := s.service.Snapshot(domain)
	if err != nil {
		s.writeDomainError(w, domain, err)
		return
	}

	if snap.HasData() {
		writeJSON(w, http.StatusOK, presentDomainResult(snap))
		return
	}

	if !snap.IsLoading {
		go func() {
			if err := s.service.RefreshDomain(context.Background(), domain); err != nil {
				s.logger.WithError(err).WithField("domain", domain).Warn("On-demand refresh failed")
			}
		}()
	}

	writeJSON(w, http.StatusAccepted, acceptedResponse{
		Status:  "accepted",
		Domain:  domain,
		Message: "predictions are being generated, retry shortly",
	})
}

// handleGetStatus reports cache state without touching the pipeline.
func (s *Server) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	domain := mux.Vars(r)["domain"]

	snap, err := s.service.Snapshot(domain)
	if err != nil {
		s.writeDomainError(w, domain, err)
		return
	}

	resp := statusResponse{
		Domain:    domain,
		HasData:   snap.HasData(),
		IsLoading: snap.IsLoading,
		ItemCount: snap.Data.ItemCount(),
	}
	if !snap.LastUpdated.IsZero() {
		ts := snap.LastUpdated.UTC().Format(time.RFC3339)
		resp.LastUpdated = &ts
	}
	writeJSON(w, http.StatusOK, resp)
}

// handlePostRefresh triggers a refresh without waiting for it.
func (s *Server) handlePostRefresh(w http.ResponseWriter, r *http.Request) {
	domain := mux.Vars(r)["domain"]

	snap, err := s.service.Snapshot(domain)
	if err != nil {
		s.writeDomainError(w, domain, err)
		return
	}

	if snap.IsLoading {
		writeJSON(w, http.StatusAccepted, acceptedResponse{
			Status:  "already_refreshing",
			Domain:  domain,
			Message: "a refresh is already in progress",
		})
		return
	}

	go func() {
		if err := s.service.RefreshDomain(context.Background(), domain); err != nil {
			s.logger.WithError(err).WithField("domain", domain).Warn("Manual refresh failed")
		}
	}()

	writeJSON(w, http.StatusAccepted, acceptedResponse{
		Status:  "started",
		Domain:  domain,
		Message: "refresh started",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"service":   "prop-scout",
		"domains":   s.service.Domains(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) writeDomainError(w http.ResponseWriter, domain string, err error) {
	if errors.Is(err, models.ErrUnknownDomain) {
		writeJSON(w, http.StatusNotFound, errorResponse{
			Error:   "unknown_domain",
			Message: "no such prediction domain: " + domain,
		})
		return
	}
	s.logger.WithError(err).WithField("domain", domain).Error("Request failed")
	writeJSON(w, http.StatusInternalServerError, errorResponse{
		Error:   "internal_error",
		Message: "unexpected error",
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
