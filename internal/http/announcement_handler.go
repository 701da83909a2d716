package http

import (
	"context"
	"log/slog"
	"net/http"
)

type announcementService interface {
	RefreshAnnouncement(ctx context.Context) (string, error)
	GetAnnouncement(ctx context.Context) string
	GetFeaturedSpeaker(ctx context.Context) string
}

type AnnouncementHandler struct {
	service   announcementService
	responder responder
	logger    *slog.Logger
}

func NewAnnouncementHandler(service announcementService, logger *slog.Logger) *AnnouncementHandler {
	base := defaultLogger(logger)
	return &AnnouncementHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AnnouncementHandler) Announcement(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, stringMessage{Data: h.service.GetAnnouncement(r.Context())})
}

func (h *AnnouncementHandler) FeaturedSpeaker(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, stringMessage{Data: h.service.GetFeaturedSpeaker(r.Context())})
}

// Refresh recomputes the announcement. It backs the cron endpoint.
func (h *AnnouncementHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if _, err := h.service.RefreshAnnouncement(r.Context()); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
