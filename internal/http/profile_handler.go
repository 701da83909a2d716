package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/conference-central/internal/application"
)

type profileService interface {
	GetProfile(ctx context.Context, principal application.Principal) (application.Profile, error)
	SaveProfile(ctx context.Context, principal application.Principal, input application.ProfileInput) (application.Profile, error)
	AddSessionToWishlist(ctx context.Context, principal application.Principal, websafeSessionKey string) (application.Profile, error)
	GetSessionsInWishlist(ctx context.Context, principal application.Principal) ([]application.Session, error)
}

type ProfileHandler struct {
	service   profileService
	responder responder
	logger    *slog.Logger
}

func NewProfileHandler(service profileService, logger *slog.Logger) *ProfileHandler {
	base := defaultLogger(logger)
	return &ProfileHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ProfileHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ProfileHandler", operation, attrs...)
}

func (h *ProfileHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	profile, err := h.service.GetProfile(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toProfileForm(profile))
}

func (h *ProfileHandler) Save(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var form profileMiniForm
	if err := decodeBody(w, r, &form); err != nil {
		h.log(r.Context(), "Save", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode profile form", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	profile, err := h.service.SaveProfile(r.Context(), principal, form.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toProfileForm(profile))
}

// AddToWishlist takes the session key from the query string, falling back
// to a JSON body.
func (h *ProfileHandler) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	key := strings.TrimSpace(r.URL.Query().Get("websafeSessionKey"))
	if key == "" {
		var req wishlistRequest
		if err := decodeBody(w, r, &req); err != nil {
			h.log(r.Context(), "AddToWishlist", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode wishlist request", "error", err)
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
			return
		}
		key = req.WebsafeSessionKey
	}

	profile, err := h.service.AddSessionToWishlist(r.Context(), principal, key)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toProfileForm(profile))
}

func (h *ProfileHandler) Wishlist(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	sessions, err := h.service.GetSessionsInWishlist(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSessionForms(sessions))
}
