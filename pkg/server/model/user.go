package model

import (
	"github.com/hotelbook/booking-server/pkg/util/typeutil"
)

const (
	// MinPasswordLength is the minimum number of characters of a password.
	MinPasswordLength = 6
	// MaxPasswordBytes is the maximum number of bytes of a password that bcrypt accepts.
	MaxPasswordBytes = 72
)

// User is a registered customer.
type User struct {
	UID         string `json:"uid"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	// DisplayName and Provider are only set for users signed in through a social identity provider.
	DisplayName string `json:"displayName,omitempty"`
	Provider    string `json:"provider,omitempty"`
}

type CreateUserParam struct {
	Username    *string `json:"username"`
	Email       *string `json:"email"`
	PhoneNumber *string `json:"phoneNumber"`
	// Password is optional. If set, the user can also log in with the email and the password.
	Password *string `json:"password"`
}

func (p *CreateUserParam) Validate() error {
	if err := firstError(
		requireString("username", p.Username),
		requireString("email", p.Email),
	); err != nil {
		return err
	}
	if err := validateEmail(*p.Email); err != nil {
		return err
	}
	if p.Password != nil {
		return validatePassword("password", *p.Password)
	}
	return nil
}

// User builds the record to be stored under the given uid.
func (p *CreateUserParam) User(uid string) *User {
	u := &User{
		UID:      uid,
		Username: *p.Username,
		Email:    *p.Email,
	}
	set(&u.PhoneNumber, p.PhoneNumber)
	return u
}

// Session is the result of a successful login.
type Session struct {
	User      *User             `json:"user"`
	Token     string            `json:"token"`
	ExpiresIn typeutil.Duration `json:"expiresIn"`
}
