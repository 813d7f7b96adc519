package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

// Mailer sends transactional email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogMailer is a development mailer that writes messages to the log instead of sending them.
type LogMailer struct {
	from   string
	logger zerolog.Logger
}

// NewLogMailer constructs a logging mailer.
func NewLogMailer(from string, logger zerolog.Logger) *LogMailer {
	return &LogMailer{from: from, logger: logger.With().Str("component", "mailer").Logger()}
}

// Send logs the message and reports success. Recipients are masked in the log.
func (m *LogMailer) Send(ctx context.Context, to, subject, body string) error {
	m.logger.Info().
		Str("from", m.from).
		Str("to", maskEmail(to)).
		Str("subject", subject).
		Str("body", body).
		Msg("email dispatched")
	return nil
}

func maskEmail(email string) string {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return ""
	}
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || strings.Contains(domain, "@") {
		return "***"
	}
	if len(local) <= 2 {
		return local[:1] + "***@" + domain
	}
	return local[:1] + "***" + local[len(local)-1:] + "@" + domain
}
