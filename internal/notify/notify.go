// Package notify consumes the confirmation tasks enqueued when a
// conference, session or speaker is created and mails the creator.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/conference-central/internal/taskqueue"
)

// Task URLs of the confirmation emails.
const (
	ConferenceConfirmationURL = "/tasks/send_confirmation_email"
	SessionConfirmationURL    = "/tasks/send_session_confirmation_email"
	SpeakerConfirmationURL    = "/tasks/send_speaker_confirmation_email"
)

// Task parameter names.
const (
	ParamEmail          = "email"
	ParamConferenceInfo = "conferenceInfo"
	ParamSessionInfo    = "sessionInfo"
	ParamSpeakerInfo    = "speakerInfo"
)

// ErrMissingParam is returned when a task lacks a required parameter.
var ErrMissingParam = errors.New("notify: missing task parameter")

// Mail is a rendered plain-text email.
type Mail struct {
	Sender  string
	To      string
	Subject string
	Body    string
}

// Mailer delivers mail.
type Mailer interface {
	Send(ctx context.Context, mail Mail) error
}

// LogMailer writes every message to a structured log instead of sending it.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a LogMailer. A nil logger uses slog.Default.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger.With("component", "mailer")}
}

// Send logs mail at info level.
func (m *LogMailer) Send(ctx context.Context, mail Mail) error {
	m.logger.InfoContext(ctx, "mail sent",
		"sender", mail.Sender,
		"to", mail.To,
		"subject", mail.Subject,
		"body_bytes", len(mail.Body),
	)
	return nil
}

// Registrar accepts task handlers by URL; *taskqueue.Queue satisfies it.
type Registrar interface {
	Handle(url string, h taskqueue.Handler)
}

type confirmation struct {
	url       string
	infoParam string
	noun      string
}

var confirmations = []confirmation{
	{url: ConferenceConfirmationURL, infoParam: ParamConferenceInfo, noun: "Conference"},
	{url: SessionConfirmationURL, infoParam: ParamSessionInfo, noun: "Session"},
	{url: SpeakerConfirmationURL, infoParam: ParamSpeakerInfo, noun: "Speaker"},
}

// RegisterConfirmationHandlers wires the three confirmation task URLs to
// mailer. Mail is sent from sender.
func RegisterConfirmationHandlers(r Registrar, mailer Mailer, sender string, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, c := range confirmations {
		r.Handle(c.url, &confirmationHandler{
			confirmation: c,
			mailer:       mailer,
			sender:       sender,
			logger:       logger.With("component", "notify", "url", c.url),
		})
	}
}

type confirmationHandler struct {
	confirmation
	mailer Mailer
	sender string
	logger *slog.Logger
}

func (h *confirmationHandler) HandleTask(ctx context.Context, task taskqueue.Task) error {
	mail, err := h.render(task.Params)
	if err != nil {
		h.logger.WarnContext(ctx, "discarding malformed task", "task_id", task.ID, "error", err)
		return nil
	}
	if err := h.mailer.Send(ctx, mail); err != nil {
		return fmt.Errorf("send %s confirmation: %w", strings.ToLower(h.noun), err)
	}
	return nil
}

func (h *confirmationHandler) render(params map[string]string) (Mail, error) {
	to := strings.TrimSpace(params[ParamEmail])
	if to == "" {
		return Mail{}, fmt.Errorf("%w: %s", ErrMissingParam, ParamEmail)
	}
	info, ok := params[h.infoParam]
	if !ok {
		return Mail{}, fmt.Errorf("%w: %s", ErrMissingParam, h.infoParam)
	}
	return Mail{
		Sender:  h.sender,
		To:      to,
		Subject: fmt.Sprintf("You created a new %s!", h.noun),
		Body:    fmt.Sprintf("Hi, you have created a following %s:\r\n\r\n%s", strings.ToLower(h.noun), info),
	}, nil
}
