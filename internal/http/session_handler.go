package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/example/conference-central/internal/application"
)

type sessionService interface {
	CreateSession(ctx context.Context, principal application.Principal, websafeConferenceKey string, input application.SessionInput) (application.Session, error)
	GetConferenceSessions(ctx context.Context, websafeConferenceKey string) ([]application.Session, error)
	GetConferenceSessionsByType(ctx context.Context, websafeConferenceKey, typeOfSession string) ([]application.Session, error)
	GetSessionsByTopic(ctx context.Context, topic string) ([]application.Session, error)
	GetNonWorkshopsBefore7(ctx context.Context) ([]application.Session, error)
	GetSessionsBySpeaker(ctx context.Context, websafeSpeakerKey string) ([]application.Session, error)
}

type SessionHandler struct {
	service   sessionService
	responder responder
	logger    *slog.Logger
}

func NewSessionHandler(service sessionService, logger *slog.Logger) *SessionHandler {
	base := defaultLogger(logger)
	return &SessionHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *SessionHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "SessionHandler", operation, attrs...)
}

func (h *SessionHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	key := mux.Vars(r)["websafeConferenceKey"]

	var form sessionForm
	if err := decodeBody(w, r, &form); err != nil {
		h.log(r.Context(), "Create", "conference_key", key, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode session form", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	session, err := h.service.CreateSession(r.Context(), principal, key, form.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, websafeConferenceKeyMessage{WebsafeConferenceKey: session.WebsafeConferenceKey()})
}

func (h *SessionHandler) ByConference(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	sessions, err := h.service.GetConferenceSessions(r.Context(), mux.Vars(r)["websafeConferenceKey"])
	h.respond(w, r, sessions, err)
}

func (h *SessionHandler) ByType(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	vars := mux.Vars(r)
	sessions, err := h.service.GetConferenceSessionsByType(r.Context(), vars["websafeConferenceKey"], vars["typeOfSession"])
	h.respond(w, r, sessions, err)
}

func (h *SessionHandler) ByTopic(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	sessions, err := h.service.GetSessionsByTopic(r.Context(), r.URL.Query().Get("topic"))
	h.respond(w, r, sessions, err)
}

func (h *SessionHandler) NonWorkshopsBefore7(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	sessions, err := h.service.GetNonWorkshopsBefore7(r.Context())
	h.respond(w, r, sessions, err)
}

func (h *SessionHandler) BySpeaker(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	sessions, err := h.service.GetSessionsBySpeaker(r.Context(), mux.Vars(r)["websafeSpeakerKey"])
	h.respond(w, r, sessions, err)
}

func (h *SessionHandler) respond(w http.ResponseWriter, r *http.Request, sessions []application.Session, err error) {
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSessionForms(sessions))
}
