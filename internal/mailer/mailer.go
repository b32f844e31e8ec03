package mailer

import (
	"errors"
	"fmt"
	"strings"

	"studio-service/internal/config"
	"studio-service/internal/logger"
)

var ErrAllProvidersFailed = errors.New("all email providers failed")

// Mailer sends through the first provider that accepts the message. Every
// failure is logged and the next provider tried; callers decide whether a
// total failure is fatal (the outbox consumer treats it as retryable).
type Mailer struct {
	From          string
	OperatorEmail string
	Providers     []Provider
	Logger        *logger.Logger
}

func NewMailer(cfg config.EmailConfig, log *logger.Logger) *Mailer {
	var providers []Provider
	if cfg.ResendAPIKey != "" {
		providers = append(providers, NewResendProvider(cfg.ResendAPIKey))
	}
	if cfg.SendGridAPIKey != "" {
		providers = append(providers, NewSendGridProvider(cfg.SendGridAPIKey))
	}
	if len(providers) == 0 {
		log.Warn("EMAIL", "No email provider keys configured, emails will be dropped")
	}

	return &Mailer{
		From:          cfg.FromAddress,
		OperatorEmail: cfg.OperatorEmail,
		Providers:     providers,
		Logger:        log,
	}
}

// Send tries each provider in order and returns the first success.
func (m *Mailer) Send(email *Email) (*SendResult, error) {
	if len(email.To) == 0 {
		return nil, errors.New("email has no recipients")
	}
	if email.From == "" {
		email.From = m.From
	}

	if len(m.Providers) == 0 {
		// Degraded mode: nothing configured, drop with a log line rather
		// than failing booking flows.
		m.Logger.Warn("EMAIL", fmt.Sprintf("dropped email %q to %s (no providers)", email.Subject, strings.Join(email.To, ",")))
		return &SendResult{Provider: "none"}, nil
	}

	var failures []string
	for _, provider := range m.Providers {
		result, err := provider.Send(email)
		if err == nil {
			m.Logger.Info("EMAIL", fmt.Sprintf("sent %q to %s via %s", email.Subject, strings.Join(email.To, ","), provider.Name()))
			return result, nil
		}
		failures = append(failures, fmt.Sprintf("%s: %v", provider.Name(), err))
		m.Logger.Warn("EMAIL", fmt.Sprintf("provider %s failed: %v", provider.Name(), err))
	}

	m.Logger.Error("EMAIL", fmt.Sprintf("all providers failed for %q: %s", email.Subject, strings.Join(failures, "; ")))
	return nil, ErrAllProvidersFailed
}
