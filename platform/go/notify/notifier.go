// Package notify delivers account messages to users outside the request path.
package notify

import (
	"context"

	"go.uber.org/zap"
)

// RegistrationInvite carries everything the invited person needs to finish
// signing up.
type RegistrationInvite struct {
	Email       string
	CompanyName string
	RoleName    string
	Token       string
}

// Notifier sends messages triggered by administration actions. Delivery
// failures must not fail the action that triggered them.
type Notifier interface {
	SendRegistrationInvite(ctx context.Context, invite RegistrationInvite) error
}

// LogNotifier writes the notification to the log instead of sending it.
// Default for local development, where no mail relay is around.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendRegistrationInvite(_ context.Context, invite RegistrationInvite) error {
	n.logger.Info("registration invite",
		zap.String("email", invite.Email),
		zap.String("company", invite.CompanyName),
		zap.String("role", invite.RoleName),
		zap.String("token", invite.Token),
	)
	return nil
}

var _ Notifier = (*LogNotifier)(nil)
