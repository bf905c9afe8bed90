// Package api exposes HTTP handlers for the activities service.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"example.com/extracurricular/internal/domain"
	"example.com/extracurricular/internal/observability"
)

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service   *domain.Service
	staticDir string
}

// NewHandler builds a Handler serving static assets from staticDir.
func NewHandler(service *domain.Service, staticDir string) *Handler {
	return &Handler{service: service, staticDir: staticDir}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/", h.root)
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(h.staticDir))))
	mux.HandleFunc("/activities", h.activities)
	mux.HandleFunc("/activities/", h.roster)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// root redirects to the static front-end entry point.
func (h *Handler) root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "not_found", "resource not found")
		return
	}
	http.Redirect(w, r, "/static/index.html", http.StatusTemporaryRedirect)
}

func (h *Handler) activities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	catalog, err := h.service.ListActivities(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	resp := make(map[string]ActivityView, len(catalog))
	for name, activity := range catalog {
		resp[name] = toActivityView(activity)
	}
	writeJSON(w, http.StatusOK, resp)
}

// roster dispatches /activities/{name}/signup. The mux hands us the
// percent-decoded path, so names like "Chess Club" arrive with spaces.
func (h *Handler) roster(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/activities/")
	name, ok := strings.CutSuffix(rest, "/signup")
	if !ok || name == "" {
		writeError(w, http.StatusNotFound, "not_found", "resource not found")
		return
	}

	switch r.Method {
	case http.MethodPost:
		h.signup(w, r, name)
	case http.MethodDelete:
		h.remove(w, r, name)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request, name string) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		observability.RecordSignup("invalid_email")
		writeError(w, http.StatusBadRequest, "validation_failed", "email query parameter is required")
		return
	}

	activity, err := h.service.Signup(r.Context(), name, email)
	if err != nil {
		observability.RecordSignup(outcomeFor(err))
		switch {
		case errors.Is(err, domain.ErrActivityNotFound):
			writeError(w, http.StatusNotFound, "not_found", "Activity not found")
		case errors.Is(err, domain.ErrAlreadyRegistered):
			writeError(w, http.StatusBadRequest, "already_registered", "Student already signed up for this activity")
		case errors.Is(err, domain.ErrActivityFull):
			writeError(w, http.StatusBadRequest, "full", "Activity is full")
		case errors.Is(err, domain.ErrInvalidEmail):
			writeError(w, http.StatusBadRequest, "validation_failed", "invalid email address")
		default:
			writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		}
		return
	}

	observability.RecordSignup("ok")
	writeJSON(w, http.StatusOK, SignupResponse{
		Message:  fmt.Sprintf("Signed up %s for %s", email, name),
		Activity: toActivityView(*activity),
	})
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request, name string) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		observability.RecordRemoval("invalid_email")
		writeError(w, http.StatusBadRequest, "validation_failed", "email query parameter is required")
		return
	}

	activity, err := h.service.Remove(r.Context(), name, email)
	if err != nil {
		observability.RecordRemoval(outcomeFor(err))
		switch {
		case errors.Is(err, domain.ErrActivityNotFound):
			writeError(w, http.StatusNotFound, "not_found", "Activity not found")
		case errors.Is(err, domain.ErrParticipantNotFound):
			writeError(w, http.StatusNotFound, "not_found", "Student not signed up for this activity")
		case errors.Is(err, domain.ErrInvalidEmail):
			writeError(w, http.StatusBadRequest, "validation_failed", "email query parameter is required")
		default:
			writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		}
		return
	}

	observability.RecordRemoval("ok")
	writeJSON(w, http.StatusOK, RemoveResponse{
		Message:  fmt.Sprintf("Removed %s from %s", email, name),
		Activity: toActivityView(*activity),
	})
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, domain.ErrActivityNotFound):
		return "activity_not_found"
	case errors.Is(err, domain.ErrAlreadyRegistered):
		return "already_registered"
	case errors.Is(err, domain.ErrActivityFull):
		return "full"
	case errors.Is(err, domain.ErrParticipantNotFound):
		return "participant_not_found"
	case errors.Is(err, domain.ErrInvalidEmail):
		return "invalid_email"
	default:
		return "error"
	}
}

// ActivityView is the JSON representation of an activity roster.
type ActivityView struct {
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule"`
	MaxParticipants int      `json:"max_participants"`
	Participants    []string `json:"participants"`
}

// SignupResponse confirms a signup and echoes the updated roster.
type SignupResponse struct {
	Message  string       `json:"message"`
	Activity ActivityView `json:"activity"`
}

// RemoveResponse confirms a removal and echoes the updated roster.
type RemoveResponse struct {
	Message  string       `json:"message"`
	Activity ActivityView `json:"activity"`
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func toActivityView(activity domain.Activity) ActivityView {
	participants := make([]string, len(activity.Participants))
	copy(participants, activity.Participants)
	return ActivityView{
		Description:     activity.Description,
		Schedule:        activity.Schedule,
		MaxParticipants: activity.MaxParticipants,
		Participants:    participants,
	}
}
