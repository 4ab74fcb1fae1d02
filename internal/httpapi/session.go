package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"festivalrisk/internal/app/users"
	"festivalrisk/internal/auth"
	"festivalrisk/internal/logging"
	"festivalrisk/internal/models"
	"festivalrisk/internal/store"
)

type ctxKey int

const userKey ctxKey = iota

func currentUser(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey).(*models.User)
	return u
}

func (s *Server) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return s.withSession(next, false)
}

func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return s.withSession(next, true)
}

// withSession resolves the session cookie. Pages redirect to the login form
// when there is no usable session; API routes answer 401 instead.
func (s *Server) withSession(next http.HandlerFunc, admin bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		api := isAPI(r)
		token := auth.FromRequest(r)

		u, err := s.users.Session(r.Context(), token)
		switch {
		case errors.Is(err, users.ErrDisabled):
			s.forbidden(w, r, "account disabled")
			return
		case errors.Is(err, users.ErrUnauthorized):
			if token != "" {
				s.cookies.ClearCookie(w)
			}
			if api {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "login required"})
				return
			}
			http.Redirect(w, r, loginURL(r.URL.RequestURI()), http.StatusSeeOther)
			return
		case err != nil:
			logging.WithContext(r.Context()).Error().Err(err).Msg("resolve session")
			if api {
				writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
				return
			}
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		if admin && !u.IsAdmin() {
			s.forbidden(w, r, "admin access required")
			return
		}

		ctx := context.WithValue(r.Context(), userKey, &u)
		ctx = context.WithValue(ctx, logging.UsernameKey, u.Username)
		next(w, r.WithContext(ctx))
	}
}

func (s *Server) forbidden(w http.ResponseWriter, r *http.Request, msg string) {
	if isAPI(r) {
		writeJSON(w, http.StatusForbidden, errorResponse{Error: msg})
		return
	}
	s.views.render(w, http.StatusForbidden, "error", s.page(r, "Forbidden", msg))
}

func isAPI(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}

func loginURL(next string) string {
	if next == "" || next == "/" {
		return "/login"
	}
	return "/login?next=" + url.QueryEscape(next)
}

// safeNext only allows local absolute paths as post-login targets.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

type loginView struct {
	Next     string
	Username string
	Error    string
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	next := safeNext(r.URL.Query().Get("next"))
	if token := auth.FromRequest(r); token != "" {
		if _, err := s.users.Session(r.Context(), token); err == nil {
			http.Redirect(w, r, next, http.StatusSeeOther)
			return
		}
	}
	s.views.render(w, http.StatusOK, "login", s.page(r, "Log in", loginView{Next: next}))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.views.render(w, http.StatusBadRequest, "login", s.page(r, "Log in", loginView{Error: "invalid form"}))
		return
	}
	username := strings.TrimSpace(r.PostForm.Get("username"))
	next := safeNext(r.PostForm.Get("next"))

	login, err := s.users.Login(r.Context(), username, r.PostForm.Get("password"))
	if err != nil {
		view := loginView{Next: next, Username: username}
		status := http.StatusUnauthorized
		switch {
		case errors.Is(err, store.ErrInvalidCredentials):
			view.Error = "Invalid username or password"
		case errors.Is(err, users.ErrDisabled):
			view.Error = "This account has been disabled"
			status = http.StatusForbidden
		default:
			logging.WithContext(r.Context()).Error().Err(err).Msg("login")
			view.Error = "Login is unavailable right now"
			status = http.StatusInternalServerError
		}
		s.views.render(w, status, "login", s.page(r, "Log in", view))
		return
	}

	logging.WithContext(r.Context()).Info().Str("user", login.User.Username).Msg("user logged in")
	s.cookies.SetCookie(w, login.Token, login.ExpiresAt)
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.cookies.ClearCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
