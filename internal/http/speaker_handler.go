package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/conference-central/internal/application"
)

type speakerService interface {
	CreateSpeaker(ctx context.Context, principal application.Principal, input application.SpeakerInput) (application.Speaker, error)
	GetSpeakers(ctx context.Context) ([]application.Speaker, error)
}

type SpeakerHandler struct {
	service   speakerService
	responder responder
	logger    *slog.Logger
}

func NewSpeakerHandler(service speakerService, logger *slog.Logger) *SpeakerHandler {
	base := defaultLogger(logger)
	return &SpeakerHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *SpeakerHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var form speakerForm
	if err := decodeBody(w, r, &form); err != nil {
		handlerLogger(r.Context(), h.logger, "SpeakerHandler", "Create", "error_kind", "bad_request").
			WarnContext(r.Context(), "failed to decode speaker form", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	speaker, err := h.service.CreateSpeaker(r.Context(), principal, form.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSpeakerForm(speaker))
}

func (h *SpeakerHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	speakers, err := h.service.GetSpeakers(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSpeakerForms(speakers))
}
