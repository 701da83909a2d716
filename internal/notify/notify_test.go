package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/example/conference-central/internal/taskqueue"
)

type stubRegistrar struct {
	handlers map[string]taskqueue.Handler
}

func (r *stubRegistrar) Handle(url string, h taskqueue.Handler) {
	if r.handlers == nil {
		r.handlers = make(map[string]taskqueue.Handler)
	}
	r.handlers[url] = h
}

type stubMailer struct {
	sent []Mail
	err  error
}

func (m *stubMailer) Send(ctx context.Context, mail Mail) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, mail)
	return nil
}

func TestRegisterConfirmationHandlers(t *testing.T) {
	registrar := &stubRegistrar{}
	mailer := &stubMailer{}
	RegisterConfirmationHandlers(registrar, mailer, "noreply@example.com", nil)

	tests := []struct {
		url    string
		params map[string]string
		want   Mail
	}{
		{
			url:    ConferenceConfirmationURL,
			params: map[string]string{ParamEmail: "alice@example.com", ParamConferenceInfo: "{Name:GopherCon}"},
			want: Mail{
				Sender:  "noreply@example.com",
				To:      "alice@example.com",
				Subject: "You created a new Conference!",
				Body:    "Hi, you have created a following conference:\r\n\r\n{Name:GopherCon}",
			},
		},
		{
			url:    SessionConfirmationURL,
			params: map[string]string{ParamEmail: "alice@example.com", ParamSessionInfo: "{Name:Keynote}"},
			want: Mail{
				Sender:  "noreply@example.com",
				To:      "alice@example.com",
				Subject: "You created a new Session!",
				Body:    "Hi, you have created a following session:\r\n\r\n{Name:Keynote}",
			},
		},
		{
			url:    SpeakerConfirmationURL,
			params: map[string]string{ParamEmail: "alice@example.com", ParamSpeakerInfo: "{DisplayName:Ada}"},
			want: Mail{
				Sender:  "noreply@example.com",
				To:      "alice@example.com",
				Subject: "You created a new Speaker!",
				Body:    "Hi, you have created a following speaker:\r\n\r\n{DisplayName:Ada}",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			mailer.sent = nil
			handler, ok := registrar.handlers[tt.url]
			if !ok {
				t.Fatalf("no handler registered for %s", tt.url)
			}
			if err := handler.HandleTask(context.Background(), taskqueue.Task{URL: tt.url, Params: tt.params}); err != nil {
				t.Fatalf("HandleTask failed: %v", err)
			}
			if len(mailer.sent) != 1 {
				t.Fatalf("expected one mail, got %d", len(mailer.sent))
			}
			if diff := cmp.Diff(tt.want, mailer.sent[0]); diff != "" {
				t.Errorf("mail mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConfirmationHandler_MalformedTaskIsDiscarded(t *testing.T) {
	registrar := &stubRegistrar{}
	mailer := &stubMailer{}
	RegisterConfirmationHandlers(registrar, mailer, "noreply@example.com", nil)

	handler := registrar.handlers[ConferenceConfirmationURL]
	err := handler.HandleTask(context.Background(), taskqueue.Task{Params: map[string]string{ParamConferenceInfo: "x"}})
	if err != nil {
		t.Fatalf("expected malformed task to be dropped without retry, got %v", err)
	}
	if len(mailer.sent) != 0 {
		t.Errorf("expected no mail, got %d", len(mailer.sent))
	}
}

func TestConfirmationHandler_SendFailureIsRetried(t *testing.T) {
	registrar := &stubRegistrar{}
	sendErr := errors.New("smtp down")
	RegisterConfirmationHandlers(registrar, &stubMailer{err: sendErr}, "noreply@example.com", nil)

	handler := registrar.handlers[SpeakerConfirmationURL]
	err := handler.HandleTask(context.Background(), taskqueue.Task{Params: map[string]string{
		ParamEmail:       "alice@example.com",
		ParamSpeakerInfo: "x",
	}})
	if !errors.Is(err, sendErr) {
		t.Fatalf("expected send error, got %v", err)
	}
}

func TestLogMailer_Send(t *testing.T) {
	if err := NewLogMailer(nil).Send(context.Background(), Mail{To: "a@example.com"}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
}
