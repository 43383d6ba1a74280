package main

import (
	"context"

	"go.uber.org/zap"

	recipeAuth "github.com/MrEthical07/recipeAuth"
)

// logNotifier stands in for a mail service. Tokens are only written when
// revealTokens is set.
type logNotifier struct {
	log          *zap.Logger
	revealTokens bool
}

// SendEmailVerification logs the token instead of mailing it.
func (n *logNotifier) SendEmailVerification(_ context.Context, user *recipeAuth.User, token string) error {
	n.send("email_verification", user, token)
	return nil
}

// SendPasswordReset logs the token instead of mailing it.
func (n *logNotifier) SendPasswordReset(_ context.Context, user *recipeAuth.User, token string) error {
	n.send("password_reset", user, token)
	return nil
}

func (n *logNotifier) send(kind string, user *recipeAuth.User, token string) {
	fields := []zap.Field{
		zap.String("kind", kind),
		zap.String("user_id", user.ID),
	}
	if n.revealTokens {
		fields = append(fields, zap.String("token", token))
	}
	n.log.Info("notification queued", fields...)
}
