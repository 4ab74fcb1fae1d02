package httpapi

import (
	"errors"
	"net/http"

	"festivalrisk/internal/feed"
	"festivalrisk/internal/logging"
	"festivalrisk/internal/reconcile"
)

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if s.sync == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "sync is not configured"})
		return
	}

	logging.WithContext(r.Context()).Info().Msg("manual sync requested")
	rep, err := s.sync.TriggerNow(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, rep)
	case errors.Is(err, reconcile.ErrSyncInProgress):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, feed.ErrFetch), errors.Is(err, reconcile.ErrEmptySnapshot):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "sync failed"})
	}
}
