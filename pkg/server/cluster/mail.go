package cluster

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hotelbook/booking-server/pkg/util/traceutil"
)

// Mail is an email to a user.
type Mail struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers mails.
type Mailer interface {
	Send(ctx context.Context, mail *Mail) error
}

// LogMailer does not deliver mails. It only logs the recipient and the subject.
type LogMailer struct {
	lg *zap.Logger
}

func NewLogMailer(lg *zap.Logger) *LogMailer {
	return &LogMailer{lg: lg}
}

// Send never logs the body, which carries the code.
func (m *LogMailer) Send(ctx context.Context, mail *Mail) error {
	m.lg.Info("mail not delivered, no mailer configured",
		traceutil.TraceLogField(ctx), zap.String("to", mail.To), zap.String("subject", mail.Subject))
	return nil
}

func confirmationMail(to, code string, ttl time.Duration) *Mail {
	return &Mail{
		To:      to,
		Subject: "Account Creation Confirmation",
		Body: fmt.Sprintf("Your confirmation code is: %s\n"+
			"Please use this code to complete your account creation. This code will expire in %s.\n"+
			"If you did not request an account, please ignore this email.\n", code, ttl),
	}
}

func resetMail(to, code string, ttl time.Duration) *Mail {
	return &Mail{
		To:      to,
		Subject: "Password Reset Code",
		Body: fmt.Sprintf("Your password reset code is: %s\n"+
			"Please use this code to reset your password. This code will expire in %s.\n"+
			"If you did not request a password reset, please ignore this email.\n", code, ttl),
	}
}
