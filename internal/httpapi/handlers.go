package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"budgetbox/internal/amqp"
	"budgetbox/internal/auth"
	"budgetbox/internal/core"
	"budgetbox/internal/log"
	"budgetbox/internal/remote"
)

type (
	syncResponse struct {
		Success   bool        `json:"success"`
		Timestamp time.Time   `json:"timestamp"`
		Data      core.Budget `json:"data"`
	}

	loginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	loginResponse struct {
		Success bool          `json:"success"`
		User    core.Identity `json:"user"`
	}

	healthResponse struct {
		Status    string    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
	}

	errorResponse struct {
		Error string `json:"error"`
	}
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Timestamp: time.Now().UTC()})
}

// handlePush stores a full budget record under its (owner, period) key.
// Last write wins: whatever arrives replaces the stored record wholesale.
func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context()).WithComponent(log.ComponentRemote)

	var b core.Budget
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		s.metrics.pushes.WithLabelValues(outcomeRejected).Inc()
		writeError(w, http.StatusBadRequest, "invalid budget payload")
		return
	}

	accepted, err := s.store.Push(r.Context(), b)
	switch {
	case errors.Is(err, core.ErrMissingOwner), errors.Is(err, core.ErrMissingPeriod):
		s.metrics.pushes.WithLabelValues(outcomeRejected).Inc()
		writeError(w, http.StatusBadRequest, "owner and period are required")
		return
	case err != nil:
		s.metrics.pushes.WithLabelValues(outcomeError).Inc()
		logger.Error("push failed",
			log.FieldOwner, b.Owner,
			log.FieldPeriod, b.Period,
			log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to store budget")
		return
	}

	s.metrics.pushes.WithLabelValues(outcomeAccepted).Inc()
	logger.Info("budget stored",
		log.FieldOwner, accepted.Owner,
		log.FieldPeriod, accepted.Period)

	if s.events != nil {
		msg := amqp.NewBudgetSyncedMessage(accepted.Owner, accepted.Period, accepted.UpdatedAt)
		if err := s.events.PublishBudgetSynced(r.Context(), msg); err != nil {
			// The push already succeeded; a lost event is not worth a 500.
			logger.Warn("failed to publish sync event",
				log.FieldOwner, accepted.Owner,
				log.FieldPeriod, accepted.Period,
				log.FieldError, err)
		}
	}

	var stamp time.Time
	if accepted.LastSyncAt != nil {
		stamp = *accepted.LastSyncAt
	}
	writeJSON(w, http.StatusOK, syncResponse{Success: true, Timestamp: stamp, Data: accepted})
}

// handleFetch returns the record for ?owner=&period=, or the owner's most
// recently updated record when period is omitted.
func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	period := r.URL.Query().Get("period")

	if owner == "" {
		s.metrics.fetches.WithLabelValues(outcomeInvalid).Inc()
		writeError(w, http.StatusBadRequest, "owner is required")
		return
	}

	var (
		b   core.Budget
		err error
	)
	if period != "" {
		b, err = s.store.Fetch(r.Context(), owner, period)
	} else {
		b, err = s.store.FetchLatest(r.Context(), owner)
	}

	switch {
	case errors.Is(err, remote.ErrNotFound):
		s.metrics.fetches.WithLabelValues(outcomeInvalid).Inc()
		writeError(w, http.StatusNotFound, "no budget found")
		return
	case err != nil:
		s.metrics.fetches.WithLabelValues(outcomeError).Inc()
		log.FromContext(r.Context()).WithComponent(log.ComponentRemote).Error("fetch failed",
			log.FieldOwner, owner,
			log.FieldPeriod, period,
			log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to load budget")
		return
	}

	s.metrics.fetches.WithLabelValues(outcomeOK).Inc()
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context()).WithComponent(log.ComponentAuth)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.metrics.logins.WithLabelValues(outcomeInvalid).Inc()
		writeError(w, http.StatusBadRequest, "invalid login payload")
		return
	}
	if req.Email == "" || req.Password == "" {
		s.metrics.logins.WithLabelValues(outcomeInvalid).Inc()
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := s.auth.Authenticate(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		s.metrics.logins.WithLabelValues(outcomeRejected).Inc()
		logger.Info("login rejected", log.FieldEmail, req.Email)
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	case err != nil:
		s.metrics.logins.WithLabelValues(outcomeError).Inc()
		logger.Error("login failed", log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	s.metrics.logins.WithLabelValues(outcomeOK).Inc()
	logger.Info("login accepted", log.FieldEmail, user.Email)
	writeJSON(w, http.StatusOK, loginResponse{Success: true, User: user})
}
