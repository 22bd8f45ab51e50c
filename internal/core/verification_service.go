package core

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// VerificationService re-issues address-verification email for accounts that
// reach the API before confirming their address. Unverified callers are
// rejected by the auth middleware; this service gives them the way back in.
type VerificationService struct {
	links  VerificationLinkGenerator
	mail   VerificationMailSender
	logger *zap.Logger
}

// NewVerificationService creates a VerificationService. mail may be nil when
// SMTP is not configured, in which case Resend degrades to a logged no-op.
func NewVerificationService(links VerificationLinkGenerator, mail VerificationMailSender, logger *zap.Logger) *VerificationService {
	return &VerificationService{links: links, mail: mail, logger: logger}
}

// Resend mints a fresh verification link and emails it to the address.
func (s *VerificationService) Resend(ctx context.Context, email string) error {
	if email == "" {
		return NewValidationError(map[string]string{"email": "required"})
	}
	if s.mail == nil {
		s.logger.Warn("verification email skipped: mailer not configured", zap.String("email", email))
		return nil
	}
	link, err := s.links.EmailVerificationLink(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to generate verification link: %w", err)
	}
	body := "Please verify your email address by opening the link below:\r\n\r\n" + link + "\r\n"
	if err := s.mail.Send(email, "Verify your email address", body); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	return nil
}
