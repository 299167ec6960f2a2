package api

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/kdimtricp/movierec/internal/catalog"
	"github.com/kdimtricp/movierec/internal/logging"
	"github.com/kdimtricp/movierec/internal/models"
	"github.com/kdimtricp/movierec/internal/recommend"
)

// MaxK caps the k query parameter so a single request cannot fan out to the
// whole catalog.
const MaxK = 50

//go:embed templates/*.html
var templateFiles embed.FS

//go:embed static
var staticFiles embed.FS

// Recommender is the part of recommend.Service the handlers use.
type Recommender interface {
	Titles() []string
	K() int
	RecommendK(ctx context.Context, title string, k int) ([]models.Recommendation, error)
}

type App struct {
	Recommender Recommender
	// HealthCheck reports backing store health. Nil means always healthy.
	HealthCheck func(context.Context) error

	templates *template.Template
}

func NewApp(rec Recommender) (*App, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"year": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			return strconv.Itoa(t.Year())
		},
	}).ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &App{Recommender: rec, templates: tmpl}, nil
}

func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}

func (app *App) HomeHandler(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Title  string
		Titles []string
		K      int
	}{
		Title:  "Movie Recommender",
		Titles: app.Recommender.Titles(),
		K:      app.Recommender.K(),
	}

	app.render(w, r, "index.html", data)
}

// RecommendPartialHandler renders the result cards for ?title=. It serves the
// htmx request from the home page and plain form submits alike.
func (app *App) RecommendPartialHandler(w http.ResponseWriter, r *http.Request) {
	title := strings.TrimSpace(r.URL.Query().Get("title"))
	if title == "" {
		app.renderError(w, r, http.StatusBadRequest, "Pick a movie first")
		return
	}

	recs, err := app.Recommender.RecommendK(r.Context(), title, app.Recommender.K())
	if err != nil {
		status := statusFor(err)
		app.renderError(w, r, status, userMessage(status, title))
		return
	}

	data := struct {
		Query           string
		Recommendations []models.Recommendation
	}{
		Query:           title,
		Recommendations: recs,
	}

	app.render(w, r, "_recommendations.html", data)
}

func (app *App) TitlesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, app.Recommender.Titles())
}

type recommendationResponse struct {
	Index       int        `json:"index"`
	Title       string     `json:"title"`
	PosterURL   string     `json:"poster_url,omitempty"`
	TrailerURL  string     `json:"trailer_url"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func (app *App) RecommendationsHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	title := strings.TrimSpace(query.Get("title"))
	if title == "" {
		writeError(w, r, http.StatusBadRequest, "title is required")
		return
	}

	k := app.Recommender.K()
	if raw := query.Get("k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > MaxK {
			writeError(w, r, http.StatusBadRequest, fmt.Sprintf("k must be an integer between 1 and %d", MaxK))
			return
		}
		k = parsed
	}

	recs, err := app.Recommender.RecommendK(r.Context(), title, k)
	if err != nil {
		status := statusFor(err)
		writeError(w, r, status, userMessage(status, title))
		return
	}

	out := make([]recommendationResponse, len(recs))
	for i, rec := range recs {
		out[i] = recommendationResponse{
			Index:       rec.Movie.Index,
			Title:       rec.Movie.Title,
			PosterURL:   rec.PosterURL,
			TrailerURL:  rec.Enrichment.TrailerURL,
			PublishedAt: rec.Enrichment.PublishedAt,
		}
	}

	writeJSON(w, r, http.StatusOK, out)
}

func (app *App) HealthHandler(w http.ResponseWriter, r *http.Request) {
	resp := struct {
		Status string `json:"status"`
		Movies int    `json:"movies"`
		Error  string `json:"error,omitempty"`
	}{
		Status: "ok",
		Movies: len(app.Recommender.Titles()),
	}

	status := http.StatusOK
	if app.HealthCheck != nil {
		if err := app.HealthCheck(r.Context()); err != nil {
			resp.Status = "unavailable"
			resp.Error = err.Error()
			status = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, r, status, resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrOutOfRange), errors.Is(err, recommend.ErrInvalidK):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func userMessage(status int, title string) string {
	switch status {
	case http.StatusNotFound:
		return fmt.Sprintf("%q is not in the catalog", title)
	case http.StatusBadRequest:
		return "Invalid request"
	default:
		return "Something went wrong, please try again"
	}
}

func (app *App) render(w http.ResponseWriter, r *http.Request, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := app.templates.ExecuteTemplate(w, name, data); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("template", name).Msg("Error rendering template")
		http.Error(w, "Error rendering template", http.StatusInternalServerError)
	}
}

// renderError writes an alert fragment. htmx only swaps 2xx responses, so
// htmx requests get the alert with 200 and the real status in a header.
func (app *App) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	if status >= http.StatusInternalServerError {
		logging.Ctx(r.Context()).Error().Int("status", status).Msg(message)
	}
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("X-Error-Status", strconv.Itoa(status))
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<div class="alert alert-error">%s</div>`, template.HTMLEscapeString(message))
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Error encoding response")
		http.Error(w, "Error encoding response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	if status >= http.StatusInternalServerError {
		logging.Ctx(r.Context()).Error().Int("status", status).Msg(message)
	}
	writeJSON(w, r, status, errorResponse{
		Error:     message,
		RequestID: logging.RequestID(r.Context()),
	})
}
