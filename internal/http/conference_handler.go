package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/example/conference-central/internal/application"
)

type conferenceService interface {
	CreateConference(ctx context.Context, principal application.Principal, input application.ConferenceInput) (application.ConferenceView, error)
	UpdateConference(ctx context.Context, principal application.Principal, websafeKey string, input application.ConferenceInput) (application.ConferenceView, error)
	GetConference(ctx context.Context, websafeKey string) (application.ConferenceView, error)
	GetConferencesCreated(ctx context.Context, principal application.Principal) ([]application.ConferenceView, error)
	QueryConferences(ctx context.Context, filters []application.QueryFilter) ([]application.ConferenceView, error)
	FilterPlayground(ctx context.Context) ([]application.ConferenceView, error)
	RegisterForConference(ctx context.Context, principal application.Principal, websafeKey string) (bool, error)
	UnregisterFromConference(ctx context.Context, principal application.Principal, websafeKey string) (bool, error)
	GetConferencesToAttend(ctx context.Context, principal application.Principal) ([]application.ConferenceView, error)
}

type ConferenceHandler struct {
	service   conferenceService
	responder responder
	logger    *slog.Logger
}

func NewConferenceHandler(service conferenceService, logger *slog.Logger) *ConferenceHandler {
	base := defaultLogger(logger)
	return &ConferenceHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ConferenceHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ConferenceHandler", operation, attrs...)
}

func (h *ConferenceHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

func (h *ConferenceHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var form conferenceForm
	if err := decodeBody(w, r, &form); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode conference form", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	view, err := h.service.CreateConference(r.Context(), principal, form.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Create", "conference_id", view.ID).DebugContext(r.Context(), "conference created")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toConferenceForm(view))
}

func (h *ConferenceHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	key := mux.Vars(r)["websafeConferenceKey"]

	var form conferenceForm
	if err := decodeBody(w, r, &form); err != nil {
		h.log(r.Context(), "Update", "conference_key", key, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode conference form", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	view, err := h.service.UpdateConference(r.Context(), principal, key, form.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toConferenceForm(view))
}

func (h *ConferenceHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	view, err := h.service.GetConference(r.Context(), mux.Vars(r)["websafeConferenceKey"])
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toConferenceForm(view))
}

func (h *ConferenceHandler) Created(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	views, err := h.service.GetConferencesCreated(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toConferenceForms(views))
}

func (h *ConferenceHandler) Query(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	var forms conferenceQueryForms
	if err := decodeBody(w, r, &forms); err != nil {
		h.log(r.Context(), "Query", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode query forms", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	views, err := h.service.QueryConferences(r.Context(), forms.toFilters())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toConferenceForms(views))
}

func (h *ConferenceHandler) Playground(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	views, err := h.service.FilterPlayground(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toConferenceForms(views))
}

func (h *ConferenceHandler) Register(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	ok, err := h.service.RegisterForConference(r.Context(), principal, mux.Vars(r)["websafeConferenceKey"])
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, booleanMessage{Data: ok})
}

func (h *ConferenceHandler) Unregister(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	ok, err := h.service.UnregisterFromConference(r.Context(), principal, mux.Vars(r)["websafeConferenceKey"])
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, booleanMessage{Data: ok})
}

func (h *ConferenceHandler) Attending(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	views, err := h.service.GetConferencesToAttend(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toConferenceForms(views))
}

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 1 << 20

// decodeBody reads a JSON body of at most maxBodyBytes into v. An empty body
// leaves v untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
