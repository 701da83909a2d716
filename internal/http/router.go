package http

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

// DefaultBasePath prefixes every API route.
const DefaultBasePath = "/_ah/api/conference/v1"

type RouterConfig struct {
	BasePath      string
	Conferences   *ConferenceHandler
	Sessions      *SessionHandler
	Speakers      *SpeakerHandler
	Profiles      *ProfileHandler
	Announcements *AnnouncementHandler
	Metrics       http.Handler
	Health        http.HandlerFunc
	// Observer receives per route measurements.
	Observer RequestObserver
	// Middleware wraps the whole router, outermost first.
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	root := mux.NewRouter()
	if cfg.Observer != nil {
		root.Use(Metrics(cfg.Observer))
	}

	base := strings.TrimRight(cfg.BasePath, "/")
	if base == "" {
		base = DefaultBasePath
	}
	api := root.PathPrefix(base).Subrouter()

	if cfg.Speakers != nil {
		api.HandleFunc("/speaker/create", cfg.Speakers.Create).Methods(http.MethodPost)
		api.HandleFunc("/speaker", cfg.Speakers.List).Methods(http.MethodPost)
	}

	if cfg.Sessions != nil {
		api.HandleFunc("/speaker/{websafeSpeakerKey}/session", cfg.Sessions.BySpeaker).Methods(http.MethodPost)
		api.HandleFunc("/conference/{websafeConferenceKey}/session/create", cfg.Sessions.Create).Methods(http.MethodPost)
		api.HandleFunc("/conference/{websafeConferenceKey}/session", cfg.Sessions.ByConference).Methods(http.MethodGet)
		api.HandleFunc("/conference/{websafeConferenceKey}/session/type/{typeOfSession}", cfg.Sessions.ByType).Methods(http.MethodPost)
		api.HandleFunc("/session/topic", cfg.Sessions.ByTopic).Methods(http.MethodGet)
		api.HandleFunc("/session/getNonWorkshopsBefore7", cfg.Sessions.NonWorkshopsBefore7).Methods(http.MethodPost)
	}

	// Fixed paths under conference/ must be registered before the key route.
	if cfg.Announcements != nil {
		api.HandleFunc("/conference/announcement/get", cfg.Announcements.Announcement).Methods(http.MethodGet)
		api.HandleFunc("/conference/featuredspeaker/get", cfg.Announcements.FeaturedSpeaker).Methods(http.MethodGet)
		root.HandleFunc("/crons/set_announcement", cfg.Announcements.Refresh).Methods(http.MethodGet)
	}

	if cfg.Conferences != nil {
		api.HandleFunc("/conference", cfg.Conferences.Create).Methods(http.MethodPost)
		api.HandleFunc("/conference/{websafeConferenceKey}", cfg.Conferences.Update).Methods(http.MethodPut)
		api.HandleFunc("/conference/{websafeConferenceKey}", cfg.Conferences.Get).Methods(http.MethodGet)
		api.HandleFunc("/conference/{websafeConferenceKey}", cfg.Conferences.Register).Methods(http.MethodPost)
		api.HandleFunc("/conference/{websafeConferenceKey}", cfg.Conferences.Unregister).Methods(http.MethodDelete)
		api.HandleFunc("/getConferencesCreated", cfg.Conferences.Created).Methods(http.MethodPost)
		api.HandleFunc("/queryConferences", cfg.Conferences.Query).Methods(http.MethodPost)
		api.HandleFunc("/conferences/attending", cfg.Conferences.Attending).Methods(http.MethodGet)
		api.HandleFunc("/filterPlayground", cfg.Conferences.Playground).Methods(http.MethodGet)
	}

	if cfg.Profiles != nil {
		api.HandleFunc("/profile", cfg.Profiles.Get).Methods(http.MethodGet)
		api.HandleFunc("/profile", cfg.Profiles.Save).Methods(http.MethodPost)
		api.HandleFunc("/profile/wishlist", cfg.Profiles.AddToWishlist).Methods(http.MethodPost)
		api.HandleFunc("/profile/wishlist", cfg.Profiles.Wishlist).Methods(http.MethodGet)
	}

	if cfg.Metrics != nil {
		root.Handle("/metrics", cfg.Metrics).Methods(http.MethodGet)
	}
	if cfg.Health != nil {
		root.HandleFunc("/healthz", cfg.Health).Methods(http.MethodGet)
	}

	var handler http.Handler = root
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}
	return handler
}
