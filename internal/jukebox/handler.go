package jukebox

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"

	"jukebox/internal/platform/metrics"

	"github.com/cespare/xxhash/v2"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(
	template.New("pages").Funcs(template.FuncMap{
		"inc":         func(i int) int { return i + 1 },
		"waitMinutes": func(i, avg int) int { return i * avg },
	}).ParseFS(templateFS, "templates/*.html"),
)

// Handler exposes the jukebox pages and JSON API using go-chi.
type Handler struct {
	svc     *Service
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewHandler returns a Handler that uses the given Service, Logger, and optional Metrics.
// Metrics may be nil to disable metric recording (e.g. in tests).
func NewHandler(svc *Service, log *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{svc: svc, log: log, metrics: m}
}

type flashMessage struct {
	Kind    string
	Message string
}

type historyView struct {
	Entries []Entry
	When    string
	Empty   string
}

type queueView struct {
	Pending            []Entry
	AverageSongMinutes int
}

type indexPage struct {
	queueView
	Flash    *flashMessage
	Played   historyView
	Rejected historyView
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Index handles GET /: queue, played and rejected histories (newest first) and the submit form.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	snap := h.svc.Repository().Snapshot()
	page := indexPage{
		queueView: queueView{Pending: snap.Pending, AverageSongMinutes: h.svc.AverageSongMinutes()},
		Played:    historyView{Entries: newestFirst(snap.Played), When: "Played At", Empty: "No songs played yet."},
		Rejected:  historyView{Entries: newestFirst(snap.Rejected), When: "Rejected At", Empty: "No rejected requests."},
	}
	if msg := r.URL.Query().Get("flash"); msg != "" {
		kind := "success"
		if r.URL.Query().Get("kind") == "error" {
			kind = "error"
		}
		page.Flash = &flashMessage{Kind: kind, Message: msg}
	}
	h.render(w, "index.html", page)
}

// SubmitForm handles POST / from the web form and redirects back to / with a flash message.
func (h *Handler) SubmitForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	rawURL := r.PostForm.Get("url")
	if rawURL == "" {
		redirectWithFlash(w, r, "Please enter a URL.", "error")
		return
	}

	e, err := h.svc.Submit(r.Context(), Submission{
		URL:      rawURL,
		Username: r.PostForm.Get("username"),
		IP:       clientIP(r),
		Source:   "web",
	})
	switch {
	case errors.Is(err, ErrInvalidURL):
		redirectWithFlash(w, r, "Invalid YouTube URL.", "error")
	case err != nil:
		h.log.Error("form submission failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
	default:
		redirectWithFlash(w, r, fmt.Sprintf("Successfully added '%s'!", e.Title), "success")
	}
}

// Player handles GET /player, the now-playing page.
func (h *Handler) Player(w http.ResponseWriter, r *http.Request) {
	np := h.svc.Repository().NowPlaying()
	data := struct {
		VideoID string
		Title   string
	}{Title: np.Title}
	if np.VideoID != nil {
		data.VideoID = *np.VideoID
	}
	h.render(w, "player.html", data)
}

// Current handles GET /api/current. video_id is null when nothing has been played.
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Repository().NowPlaying())
}

// Search handles GET /api/search?query=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Query parameter is missing"})
		return
	}
	results := h.svc.Search(r.Context(), query)
	writeJSON(w, http.StatusOK, map[string][]SearchResult{"results": results})
}

// AddToQueue handles POST /api/add_to_queue. Form fields: url, username and
// optional title_from_search, which skips the title lookup.
func (h *Handler) AddToQueue(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, statusResponse{Status: "error", Message: "Malformed form body."})
		return
	}

	rawURL := r.PostForm.Get("url")
	if rawURL == "" {
		writeJSON(w, http.StatusBadRequest, statusResponse{Status: "error", Message: "URL is missing."})
		return
	}

	e, err := h.svc.Submit(r.Context(), Submission{
		URL:      rawURL,
		Username: r.PostForm.Get("username"),
		IP:       clientIP(r),
		Title:    r.PostForm.Get("title_from_search"),
		Source:   "web",
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidURL):
			h.log.Debug("submission rejected", slog.String("url", rawURL))
			writeJSON(w, http.StatusBadRequest, statusResponse{Status: "error", Message: "Invalid YouTube URL."})
		default:
			h.log.Error("add to queue failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, statusResponse{Status: "error", Message: "Could not add to queue."})
		}
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{
		Status:  "success",
		Message: fmt.Sprintf("Successfully added '%s'!", e.Title),
	})
}

// QueueData handles GET /api/queue_data: the rendered queue table fragment.
// The ETag is an xxhash of the fragment; a matching If-None-Match yields 304.
func (h *Handler) QueueData(w http.ResponseWriter, r *http.Request) {
	snap := h.svc.Repository().Snapshot()
	var buf bytes.Buffer
	view := queueView{Pending: snap.Pending, AverageSongMinutes: h.svc.AverageSongMinutes()}
	if err := pageTemplates.ExecuteTemplate(&buf, "queue", view); err != nil {
		h.log.Error("render queue fragment", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	etag := `"` + strconv.FormatUint(xxhash.Sum64(buf.Bytes()), 16) + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"queue_html": buf.String()})
}

func (h *Handler) render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		h.log.Error("render page", slog.String("template", name), slog.String("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func redirectWithFlash(w http.ResponseWriter, r *http.Request, msg, kind string) {
	q := url.Values{}
	q.Set("flash", msg)
	q.Set("kind", kind)
	http.Redirect(w, r, "/?"+q.Encode(), http.StatusSeeOther)
}

// clientIP strips the port from RemoteAddr. chi's RealIP middleware has
// already replaced it with X-Forwarded-For when present.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func newestFirst(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[len(entries)-1-i] = e
	}
	return out
}
