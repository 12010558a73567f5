package notify

import (
	"context"
	"log/slog"

	"github.com/ericfisherdev/clinicauth/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Notifier = (*LogNotifier)(nil)

// LogNotifier "delivers" codes by writing them to the log. It exists for
// local development only and is not a secure delivery channel.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier writing to logger.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Send logs the code at WARN so it stands out in development output.
func (n *LogNotifier) Send(ctx context.Context, email, code string) error {
	n.logger.WarnContext(ctx, "otp issued (log delivery, development only)",
		"email", email,
		"code", code,
	)
	return nil
}
