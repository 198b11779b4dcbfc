package effects

import (
	"context"

	"proposal-management-api/internal/logging"
)

// Notifier fans a domain event out to interested live sessions. The real
// transport (web-socket hub) lives outside this module.
type Notifier interface {
	Notify(ctx context.Context, event string, payload map[string]any) error
}

// EmailSender delivers outbound mail. The real transport lives outside this
// module.
type EmailSender interface {
	Send(ctx context.Context, to string, subject string, body string) error
}

// LogNotifier and LogEmailSender are the default sinks: they record the
// would-be delivery in the log. Used in development and as a safe fallback
// until a real transport is registered at startup.
type LogNotifier struct {
	Log logging.Logger
}

func (n *LogNotifier) Notify(ctx context.Context, event string, payload map[string]any) error {
	n.Log.Info(ctx, "notification", "event", event, "payload", payload)

	return nil
}

type LogEmailSender struct {
	Log logging.Logger
}

func (s *LogEmailSender) Send(ctx context.Context, to string, subject string, body string) error {
	s.Log.Info(ctx, "outbound email", "to", to, "subject", subject)

	return nil
}
