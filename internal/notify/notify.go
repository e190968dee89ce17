// Package notify is the outbound boundary for account email. Delivery is a
// collaborator concern; the core hands secrets over exactly once and never
// logs them.
package notify

import (
	"context"
	"log/slog"
)

// Mailer receives account notifications for out-of-band delivery. The
// plaintext tokens passed here are never persisted or logged by the core.
type Mailer interface {
	// VerificationRequested is sent after registration with the token the
	// admin-approval flow consumes.
	VerificationRequested(ctx context.Context, email, token string) error
	// ResetRequested is sent when a password reset begins. token is the
	// plaintext reset token; only its hash is stored.
	ResetRequested(ctx context.Context, email, token string) error
}

// LogMailer records that a notification happened without its secret
// content. Dev and test default; production wires a real sender.
type LogMailer struct {
	Logger *slog.Logger
}

func (m LogMailer) VerificationRequested(ctx context.Context, email, _ string) error {
	m.Logger.InfoContext(ctx, "verification email requested", "email", email)
	return nil
}

func (m LogMailer) ResetRequested(ctx context.Context, email, _ string) error {
	m.Logger.InfoContext(ctx, "password reset email requested", "email", email)
	return nil
}
