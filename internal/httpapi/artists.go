package httpapi

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"festivalrisk/internal/app/assessments"
	"festivalrisk/internal/logging"
	"festivalrisk/internal/models"
	"festivalrisk/internal/store"
)

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := s.artists.Overview(r.Context())
	if err != nil {
		logging.WithContext(r.Context()).Error().Err(err).Msg("load overview")
		s.views.render(w, http.StatusInternalServerError, "error", s.page(r, "Error", "The overview could not be loaded."))
		return
	}
	s.views.render(w, http.StatusOK, "overview", s.page(r, "Kunstnere", overview))
}

func (s *Server) handleArtist(w http.ResponseWriter, r *http.Request) {
	detail, err := s.artists.Detail(r.Context(), r.PathValue("slug"))
	if err != nil {
		if errors.Is(err, store.ErrArtistNotFound) {
			s.views.render(w, http.StatusNotFound, "error", s.page(r, "Not found", "No artist with that name."))
			return
		}
		logging.WithContext(r.Context()).Error().Err(err).Msg("load artist")
		s.views.render(w, http.StatusInternalServerError, "error", s.page(r, "Error", "The artist could not be loaded."))
		return
	}
	s.views.render(w, http.StatusOK, "artist", s.page(r, detail.Title, detail))
}

func (s *Server) handleAssessmentsPage(w http.ResponseWriter, r *http.Request) {
	rows, err := s.artists.WithAssessments(r.Context())
	if err != nil {
		logging.WithContext(r.Context()).Error().Err(err).Msg("load assessments")
		s.views.render(w, http.StatusInternalServerError, "error", s.page(r, "Error", "Assessments could not be loaded."))
		return
	}
	s.views.render(w, http.StatusOK, "assessments", s.page(r, "Risikovurderinger", rows))
}

// handleSaveAssessment accepts a JSON body from API clients and a plain form
// post from the admin page. Form posts are redirected back to the page.
func (s *Server) handleSaveAssessment(w http.ResponseWriter, r *http.Request) {
	in, isForm, err := decodeAssessment(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	saved, err := s.assessments.Save(r.Context(), r.PathValue("slug"), in)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrArtistNotFound):
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "artist not found"})
		case errors.Is(err, assessments.ErrInvalidLevel):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		default:
			logging.WithContext(r.Context()).Error().Err(err).Str("artist", r.PathValue("slug")).Msg("save assessment")
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "could not save assessment"})
		}
		return
	}

	logging.WithContext(r.Context()).Info().Str("artist", saved.ArtistSlug).Str("risk_level", string(saved.RiskLevel)).Msg("assessment saved")
	if isForm {
		http.Redirect(w, r, "/admin/assessments", http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func decodeAssessment(r *http.Request) (models.AssessmentInput, bool, error) {
	var in models.AssessmentInput
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/x-www-form-urlencoded" || ct == "multipart/form-data" {
		if err := r.ParseForm(); err != nil {
			return in, true, err
		}
		in = models.AssessmentInput{
			RiskLevel:      models.Level(r.PostForm.Get("risk_level")),
			IntensityLevel: models.Level(r.PostForm.Get("intensity_level")),
			DensityLevel:   models.Level(r.PostForm.Get("density_level")),
			Remarks:        r.PostForm.Get("remarks"),
			CrowdProfile:   r.PostForm.Get("crowd_profile"),
			Notes:          r.PostForm.Get("notes"),
		}
		return in, true, nil
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		return in, false, err
	}
	return in, false, nil
}
