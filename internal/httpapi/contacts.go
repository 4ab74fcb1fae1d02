package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"festivalrisk/internal/app/contacts"
	"festivalrisk/internal/logging"
	"festivalrisk/internal/models"
	"festivalrisk/internal/store"
)

type contactsView struct {
	Filter     models.ContactFilter `json:"-"`
	Contacts   []models.Contact     `json:"contacts"`
	Categories []string             `json:"categories"`
}

func (s *Server) loadContacts(r *http.Request) (contactsView, error) {
	q := r.URL.Query()
	view := contactsView{Filter: models.ContactFilter{Search: q.Get("q"), Category: q.Get("category")}}

	list, err := s.contacts.List(r.Context(), view.Filter)
	if err != nil {
		return view, err
	}
	categories, err := s.contacts.Categories(r.Context())
	if err != nil {
		return view, err
	}
	view.Contacts = list
	view.Categories = categories
	if view.Contacts == nil {
		view.Contacts = []models.Contact{}
	}
	if view.Categories == nil {
		view.Categories = []string{}
	}
	return view, nil
}

func (s *Server) handleContactsPage(w http.ResponseWriter, r *http.Request) {
	view, err := s.loadContacts(r)
	if err != nil {
		logging.WithContext(r.Context()).Error().Err(err).Msg("load contacts")
		s.views.render(w, http.StatusInternalServerError, "error", s.page(r, "Error", "Contacts could not be loaded."))
		return
	}
	s.views.render(w, http.StatusOK, "contacts", s.page(r, "Kontakter", view))
}

func (s *Server) handleListContacts(w http.ResponseWriter, r *http.Request) {
	view, err := s.loadContacts(r)
	if err != nil {
		logging.WithContext(r.Context()).Error().Err(err).Msg("load contacts")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "could not load contacts"})
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleCreateContact(w http.ResponseWriter, r *http.Request) {
	var c models.Contact
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	created, err := s.contacts.Create(r.Context(), c)
	if err != nil {
		s.contactError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateContact(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid contact ID"})
		return
	}

	var c models.Contact
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	updated, err := s.contacts.Update(r.Context(), id, c)
	if err != nil {
		s.contactError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteContact(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid contact ID"})
		return
	}

	if err := s.contacts.Delete(r.Context(), id); err != nil {
		s.contactError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) contactError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, contacts.ErrInvalidContact):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, store.ErrContactNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "contact not found"})
	default:
		logging.WithContext(r.Context()).Error().Err(err).Msg("contact write")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "could not save contact"})
	}
}
