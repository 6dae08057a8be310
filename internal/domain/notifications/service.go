package notifications

import (
	"context"
	"log/slog"
	"strings"
)

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

// Service records and dispatches notifications. Dispatch is fire-and-forget:
// a send failure is logged and never propagated to the caller, so workflow
// state transitions are not rolled back on mail errors.
type Service struct {
	store       StoreAPI
	Mailer      Mailer
	DefaultFrom string
}

func New(store StoreAPI, mailer Mailer, from string) *Service {
	if from == "" {
		from = "no-reply@dawaam.com"
	}
	return &Service{store: store, Mailer: mailer, DefaultFrom: from}
}

func (s *Service) Notify(ctx context.Context, recipientEmail, eventType, subject, body string) {
	if strings.TrimSpace(recipientEmail) == "" {
		return
	}

	sent := false
	if s.Mailer != nil {
		if err := s.Mailer.Send(ctx, s.DefaultFrom, recipientEmail, subject, body); err != nil {
			slog.Warn("notification send failed", "eventType", eventType, "to", recipientEmail, "err", err)
		} else {
			sent = true
		}
	}

	if s.store != nil {
		if _, err := s.store.Insert(ctx, recipientEmail, eventType, subject, body, sent); err != nil {
			slog.Warn("notification record failed", "eventType", eventType, "err", err)
		}
	}
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]Notification, error) {
	return s.store.List(ctx, limit, offset)
}
