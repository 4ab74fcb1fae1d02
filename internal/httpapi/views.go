package httpapi

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"time"

	"festivalrisk/internal/festival"
	"festivalrisk/internal/logging"
	"festivalrisk/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"login", "overview", "artist", "calendar", "assessments", "contacts", "error"}

type renderer struct {
	pages map[string]*template.Template
}

var templateFuncs = template.FuncMap{
	"clock": func(t time.Time) string { return t.Format("15:04") },
	"clockPtr": func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format("15:04")
	},
	"date":      func(t time.Time) string { return t.Format(festival.DateLayout) },
	"riskClass": func(l models.Level) string { return string(festival.RiskClassFor(l)) },
	"levelOf": func(a *models.RiskAssessment, field string) models.Level {
		if a == nil {
			return models.LevelUnset
		}
		switch field {
		case "risk":
			return a.RiskLevel
		case "intensity":
			return a.IntensityLevel
		case "density":
			return a.DensityLevel
		}
		return models.LevelUnset
	},
	"list3": func(a, b, c string) []string { return []string{a, b, c} },
	"levels": func() []models.Level {
		return []models.Level{models.LevelUnset, models.LevelLow, models.LevelMedium, models.LevelHigh}
	},
}

func newRenderer() (*renderer, error) {
	base, err := template.New("layout.html").Funcs(templateFuncs).ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, err
	}
	r := &renderer{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(templateFS, "templates/"+name+".html"); err != nil {
			return nil, err
		}
		r.pages[name] = t
	}
	return r, nil
}

// render executes into a buffer first so a template error never leaves a
// half-written page behind.
func (v *renderer) render(w http.ResponseWriter, status int, name string, data pageData) {
	t, ok := v.pages[name]
	if !ok {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		logging.Error(err, "render template "+name)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

type pageData struct {
	Title string
	User  *models.User
	Data  any
}

func (s *Server) page(r *http.Request, title string, data any) pageData {
	return pageData{Title: title, User: currentUser(r.Context()), Data: data}
}
