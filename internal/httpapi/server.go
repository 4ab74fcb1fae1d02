package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"festivalrisk/internal/app/calendar"
	"festivalrisk/internal/app/users"
	"festivalrisk/internal/festival"
	"festivalrisk/internal/models"
	"festivalrisk/internal/reconcile"
)

// UserService captures the login and session checks used by the handlers.
type UserService interface {
	Login(ctx context.Context, username, password string) (users.Login, error)
	Session(ctx context.Context, token string) (models.User, error)
}

// ArtistService describes the artist read views.
type ArtistService interface {
	Overview(ctx context.Context) ([]models.ArtistDetail, error)
	Detail(ctx context.Context, slug string) (models.ArtistDetail, error)
	WithAssessments(ctx context.Context) ([]models.ArtistAssessment, error)
}

// AssessmentService saves staff assessments.
type AssessmentService interface {
	Save(ctx context.Context, slug string, in models.AssessmentInput) (models.RiskAssessment, error)
}

// CalendarService builds the festival-day views.
type CalendarService interface {
	Days(ctx context.Context) []calendar.DayLink
	DefaultDay(ctx context.Context) time.Time
	Page(ctx context.Context, day time.Time) calendar.Page
	Events(ctx context.Context, day time.Time) []festival.EventView
	PrintLayout(ctx context.Context, day time.Time, opts festival.PrintOptions) festival.Layout
	Location() *time.Location
	Label(day time.Time) string
}

// ContactService manages the contact directory.
type ContactService interface {
	List(ctx context.Context, filter models.ContactFilter) ([]models.Contact, error)
	Categories(ctx context.Context) ([]string, error)
	Create(ctx context.Context, c models.Contact) (models.Contact, error)
	Update(ctx context.Context, id int64, c models.Contact) (models.Contact, error)
	Delete(ctx context.Context, id int64) error
}

// SyncTrigger runs a sync cycle on demand.
type SyncTrigger interface {
	TriggerNow(ctx context.Context) (reconcile.Report, error)
}

// SessionCookies writes and clears the session cookie.
type SessionCookies interface {
	SetCookie(w http.ResponseWriter, token string, expires time.Time)
	ClearCookie(w http.ResponseWriter)
}

// Pinger reports database health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services groups the dependencies of a Server. Sync, Health and Metrics
// are optional.
type Services struct {
	Users       UserService
	Cookies     SessionCookies
	Artists     ArtistService
	Assessments AssessmentService
	Calendar    CalendarService
	Contacts    ContactService
	Sync        SyncTrigger
	Health      Pinger
	Metrics     http.Handler
}

// Server wires HTTP handlers to the underlying services.
type Server struct {
	users       UserService
	cookies     SessionCookies
	artists     ArtistService
	assessments AssessmentService
	calendar    CalendarService
	contacts    ContactService
	sync        SyncTrigger
	health      Pinger
	metrics     http.Handler
	views       *renderer
	now         func() time.Time
}

// New configures a Server and parses its templates.
func New(svc Services) (*Server, error) {
	views, err := newRenderer()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Server{
		users:       svc.Users,
		cookies:     svc.Cookies,
		artists:     svc.Artists,
		assessments: svc.Assessments,
		calendar:    svc.Calendar,
		contacts:    svc.Contacts,
		sync:        svc.Sync,
		health:      svc.Health,
		metrics:     svc.Metrics,
		views:       views,
		now:         time.Now,
	}, nil
}

// Routes exposes the pages and the JSON API.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}

	mux.HandleFunc("GET /login", s.handleLoginForm)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("GET /logout", s.handleLogout)

	mux.HandleFunc("GET /{$}", s.requireUser(s.handleOverview))
	mux.HandleFunc("GET /artists/{slug}", s.requireUser(s.handleArtist))

	mux.HandleFunc("GET /calendar", s.requireUser(s.handleCalendarRedirect))
	mux.HandleFunc("GET /calendar/{date}", s.requireUser(s.handleCalendarPage))
	mux.HandleFunc("GET /calendar/{date}/print", s.requireUser(s.handleCalendarPrint))
	mux.HandleFunc("GET /calendar/{date}/ics", s.requireUser(s.handleCalendarICS))
	mux.HandleFunc("GET /api/v1/calendar/{date}", s.requireUser(s.handleCalendarJSON))

	mux.HandleFunc("GET /admin/assessments", s.requireAdmin(s.handleAssessmentsPage))
	mux.HandleFunc("POST /api/assessments/{slug}", s.requireAdmin(s.handleSaveAssessment))
	mux.HandleFunc("POST /api/v1/assessments/{slug}", s.requireAdmin(s.handleSaveAssessment))

	mux.HandleFunc("GET /contacts", s.requireUser(s.handleContactsPage))
	mux.HandleFunc("GET /api/v1/contacts", s.requireUser(s.handleListContacts))
	mux.HandleFunc("POST /api/v1/contacts", s.requireAdmin(s.handleCreateContact))
	mux.HandleFunc("PUT /api/v1/contacts/{id}", s.requireAdmin(s.handleUpdateContact))
	mux.HandleFunc("DELETE /api/v1/contacts/{id}", s.requireAdmin(s.handleDeleteContact))

	mux.HandleFunc("POST /api/v1/admin/sync", s.requireAdmin(s.handleSync))

	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.health.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "database unavailable"})
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}
