package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/example/conference-central/internal/application"
)

func TestHandlerLogger_TagsCaller(t *testing.T) {
	tests := []struct {
		name          string
		ctx           func(context.Context, *slog.Logger) context.Context
		authenticated bool
		principalID   string
	}{
		{
			name:          "anonymous fallback",
			ctx:           func(ctx context.Context, _ *slog.Logger) context.Context { return ctx },
			authenticated: false,
		},
		{
			name: "principal without request logger",
			ctx: func(ctx context.Context, _ *slog.Logger) context.Context {
				return ContextWithPrincipal(ctx, application.Principal{UserID: "alice"})
			},
			authenticated: true,
			principalID:   "alice",
		},
		{
			name: "request logger keeps its own principal tag",
			ctx: func(ctx context.Context, base *slog.Logger) context.Context {
				ctx = ContextWithPrincipal(ctx, application.Principal{UserID: "alice"})
				return ContextWithLogger(ctx, base.With("principal_id", "from-request"))
			},
			authenticated: true,
			principalID:   "from-request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			base := slog.New(slog.NewJSONHandler(&buf, nil))
			ctx := tt.ctx(context.Background(), base)

			handlerLogger(ctx, base, "ConferenceHandler", "Create", "conference_key", "abc").InfoContext(ctx, "handled")

			var record map[string]any
			if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
				t.Fatalf("decode log record %q: %v", buf.String(), err)
			}
			if record["handler"] != "ConferenceHandler" || record["operation"] != "Create" || record["conference_key"] != "abc" {
				t.Errorf("unexpected record %v", record)
			}
			if record["authenticated"] != tt.authenticated {
				t.Errorf("expected authenticated=%v, got %v", tt.authenticated, record["authenticated"])
			}
			got, _ := record["principal_id"].(string)
			if got != tt.principalID {
				t.Errorf("expected principal_id %q, got %q", tt.principalID, got)
			}
			if bytes.Count(buf.Bytes(), []byte(`"principal_id"`)) > 1 {
				t.Errorf("principal_id logged twice: %s", buf.String())
			}
		})
	}
}
