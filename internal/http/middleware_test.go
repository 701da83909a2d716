package http

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/example/conference-central/internal/application"
)

type validatorStub struct {
	principal application.Principal
	err       error
	tokens    []string
}

func (v *validatorStub) ValidateToken(ctx context.Context, token string) (application.Principal, error) {
	v.tokens = append(v.tokens, token)
	return v.principal, v.err
}

func principalEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := PrincipalFromContext(r.Context())
		if !ok {
			_, _ = w.Write([]byte("anonymous"))
			return
		}
		_, _ = w.Write([]byte(principal.UserID))
	})
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		header     string
		validator  *validatorStub
		wantStatus int
		wantBody   string
	}{
		{
			name:       "missing header is anonymous",
			validator:  &validatorStub{},
			wantStatus: http.StatusOK,
			wantBody:   "anonymous",
		},
		{
			name:       "valid bearer token attaches principal",
			header:     "Bearer good-token",
			validator:  &validatorStub{principal: application.Principal{UserID: "alice"}},
			wantStatus: http.StatusOK,
			wantBody:   "alice",
		},
		{
			name:       "non bearer scheme",
			header:     "Basic YWxpY2U6cHc=",
			validator:  &validatorStub{},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "rejected token",
			header:     "Bearer expired",
			validator:  &validatorStub{err: errors.New("token is expired")},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			Authenticate(tt.validator, nil)(principalEcho()).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("expected body %q, got %q", tt.wantBody, rec.Body.String())
			}
			if tt.wantStatus == http.StatusUnauthorized && strings.Contains(rec.Body.String(), "expired") {
				t.Errorf("validator detail leaked: %s", rec.Body.String())
			}
		})
	}
}

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	var sawLogger bool
	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawLogger = LoggerFromContext(r.Context()) != nil
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/brew", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !sawLogger {
		t.Error("expected request logger in context")
	}
	if got := rec.Header().Get(RequestIDHeader); got != "req-42" {
		t.Errorf("expected request id to be echoed, got %q", got)
	}
	out := buf.String()
	if !strings.Contains(out, `"request_id":"req-42"`) || !strings.Contains(out, `"status":418`) {
		t.Errorf("unexpected log output %s", out)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/brew", nil))
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("expected a generated request id")
	}
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	handler := RateLimit(rate.NewLimiter(rate.Every(time.Hour), 1), nil)(principalEcho())

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", second.Code)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}

type observation struct {
	method, route string
	status        int
}

type observerStub struct {
	mu  sync.Mutex
	obs []observation
}

func (o *observerStub) RequestStarted() func(method, route string, status int, elapsed time.Duration) {
	return func(method, route string, status int, elapsed time.Duration) {
		o.mu.Lock()
		defer o.mu.Unlock()
		o.obs = append(o.obs, observation{method: method, route: route, status: status})
	}
}

func TestMetrics_LabelsByRouteTemplate(t *testing.T) {
	t.Parallel()

	observer := &observerStub{}
	router := NewRouter(RouterConfig{
		Conferences: NewConferenceHandler(&conferenceServiceStub{err: &application.Error{Kind: application.ErrNotFound, Message: "missing"}}, nil),
		Observer:    observer,
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, DefaultBasePath+"/conference/some-key", nil))

	if len(observer.obs) != 1 {
		t.Fatalf("expected one observation, got %d", len(observer.obs))
	}
	got := observer.obs[0]
	want := observation{method: http.MethodGet, route: DefaultBasePath + "/conference/{websafeConferenceKey}", status: http.StatusNotFound}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}
