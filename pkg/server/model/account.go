package model

import (
	"crypto/subtle"
	"net/mail"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// CodePurpose tells what a verification code is issued for.
type CodePurpose string

const (
	// CodeConfirmation confirms the email of a new account. Its subject is the username.
	CodeConfirmation CodePurpose = "confirmation"
	// CodePasswordReset authorizes a password reset. Its subject is the uid.
	CodePasswordReset CodePurpose = "password-reset"
)

// Social identity providers.
const (
	ProviderGoogle   = "google.com"
	ProviderFacebook = "facebook.com"
)

// VerificationCode is a one-time code sent to a user by email.
type VerificationCode struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Match reports whether code equals c and c has not expired at now.
func (c *VerificationCode) Match(code string, now time.Time) bool {
	if c == nil || !now.Before(c.ExpiresAt) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(c.Code), []byte(code)) == 1
}

// SendConfirmationCodeParam requests a confirmation code for a new account.
type SendConfirmationCodeParam struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
}

func (p *SendConfirmationCodeParam) Validate() error {
	if err := firstError(
		requireString("username", p.Username),
		requireString("email", p.Email),
	); err != nil {
		return err
	}
	return validateEmail(*p.Email)
}

// VerifyConfirmationCodeParam consumes a confirmation code.
type VerifyConfirmationCodeParam struct {
	Username *string `json:"username"`
	Code     *string `json:"code"`
}

func (p *VerifyConfirmationCodeParam) Validate() error {
	return firstError(
		requireString("username", p.Username),
		requireString("code", p.Code),
	)
}

// ResetPasswordParam consumes a password reset code and sets a new password.
type ResetPasswordParam struct {
	Email       *string `json:"email"`
	Username    *string `json:"username"`
	Code        *string `json:"code"`
	NewPassword *string `json:"newPassword"`
}

func (p *ResetPasswordParam) Validate() error {
	if err := firstError(
		requireString("email", p.Email),
		requireString("username", p.Username),
		requireString("code", p.Code),
		requireString("newPassword", p.NewPassword),
	); err != nil {
		return err
	}
	return validatePassword("newPassword", *p.NewPassword)
}

func validateEmail(email string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return errors.Wrapf(ErrInvalidArgument, "invalid email %q", email)
	}
	return nil
}

func validatePassword(name, password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return errors.Wrapf(ErrInvalidArgument, "%s must have at least %d characters", name, MinPasswordLength)
	}
	if len(password) > MaxPasswordBytes {
		return errors.Wrapf(ErrInvalidArgument, "%s must have at most %d bytes", name, MaxPasswordBytes)
	}
	return nil
}
