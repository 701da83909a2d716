// Package http exposes the conference API over JSON.
//
// All API routes live under a base path, /_ah/api/conference/v1 by default:
//   - POST conference, PUT|GET|POST|DELETE conference/{websafeConferenceKey}:
//     create, update, fetch, register for and unregister from conferences.
//     Bodies use `conferenceForm` from forms.go.
//   - POST getConferencesCreated, POST queryConferences, GET
//     conferences/attending, GET filterPlayground: conference listings
//     returning {"items": [...]}.
//   - POST conference/{websafeConferenceKey}/session/create, GET
//     conference/{websafeConferenceKey}/session, POST
//     conference/{websafeConferenceKey}/session/type/{typeOfSession}, GET
//     session/topic?topic=, POST session/getNonWorkshopsBefore7, POST
//     speaker/{websafeSpeakerKey}/session: session creation and queries.
//   - POST speaker/create, POST speaker: speakers.
//   - GET|POST profile, POST|GET profile/wishlist: the caller's profile and
//     session wishlist.
//   - GET conference/announcement/get, GET conference/featuredspeaker/get:
//     cached banners as {"data": "..."}.
//
// Outside the base path the router serves GET /crons/set_announcement,
// GET /metrics and GET /healthz.
//
// Callers identify with `Authorization: Bearer <token>`. Requests without the
// header are anonymous; operations that need an identity answer 401. Errors
// are returned as {"error_code","message","errors"}.
package http
