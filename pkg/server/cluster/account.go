package cluster

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/hotelbook/booking-server/pkg/server/model"
	"github.com/hotelbook/booking-server/pkg/util/randutil"
	"github.com/hotelbook/booking-server/pkg/util/traceutil"
	"github.com/hotelbook/booking-server/pkg/util/typeutil"
)

const _codeDigits = 6

var (
	errEmptySecret      = errors.New("no secret to verify the token")
	errInvalidPassword  = errors.New("invalid email or password")
	errUsernameMismatch = errors.New("email and username do not match")
)

type Account interface {
	CreateAccount(ctx context.Context, param *model.CreateUserParam) (*model.User, error)
	Login(ctx context.Context, idToken string) (*model.Session, error)
	PasswordLogin(ctx context.Context, email, password string) (*model.Session, error)
	SocialLogin(ctx context.Context, provider, idToken string) (*model.Session, error)
	Authenticate(ctx context.Context, token string) (userID string, err error)

	SendConfirmationCode(ctx context.Context, param *model.SendConfirmationCodeParam) error
	VerifyConfirmationCode(ctx context.Context, param *model.VerifyConfirmationCodeParam) error
	SendResetCode(ctx context.Context, email string) (*model.User, error)
	ResetPassword(ctx context.Context, param *model.ResetPasswordParam) error
}

// CreateAccount creates a user with a new uid.
// It returns model.ErrInvalidArgument if the param is invalid, and model.ErrEmailAlreadyExists if the email is taken.
func (c *Cluster) CreateAccount(ctx context.Context, param *model.CreateUserParam) (*model.User, error) {
	if err := param.Validate(); err != nil {
		return nil, err
	}

	var credential []byte
	if param.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*param.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, errors.Wrap(err, "hash password")
		}
		credential = hash
	}

	user, err := c.storage.CreateUser(ctx, param.User(uuid.NewString()), credential)
	if err != nil {
		return nil, err
	}
	c.cache.SaveUser(user)
	return user, nil
}

// Login exchanges an id token issued by the identity provider for a session token.
// It returns model.ErrUnauthenticated if the id token is invalid, and model.ErrUserNotFound if the user has no account.
func (c *Cluster) Login(ctx context.Context, idToken string) (*model.Session, error) {
	logger := c.lg.With(traceutil.TraceLogField(ctx))

	uid, err := verifyToken(idToken, c.auth.ProviderSecret)
	if err != nil {
		logger.Warn("invalid id token", zap.Error(err))
		return nil, errors.WithMessagef(model.ErrUnauthenticated, "verify id token: %s", err.Error())
	}

	user, err := c.user(ctx, uid)
	if err != nil {
		return nil, err
	}
	return c.newSession(ctx, user)
}

// PasswordLogin exchanges the email and the password of a user for a session token.
// It returns model.ErrUnauthenticated if there is no such user or the password is wrong.
func (c *Cluster) PasswordLogin(ctx context.Context, email, password string) (*model.Session, error) {
	user, err := c.storage.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.WithMessage(model.ErrUnauthenticated, errInvalidPassword.Error())
	}

	credential, err := c.storage.GetCredential(ctx, user.UID)
	if err != nil {
		return nil, err
	}
	if credential == nil || bcrypt.CompareHashAndPassword(credential, []byte(password)) != nil {
		return nil, errors.WithMessage(model.ErrUnauthenticated, errInvalidPassword.Error())
	}

	c.cache.SaveUser(user)
	return c.newSession(ctx, user)
}

// SocialLogin exchanges an id token issued by a social identity provider for a session token.
// The user is created on the first login.
// It returns model.ErrInvalidArgument if the provider is unknown, model.ErrUnauthenticated if the id token is invalid,
// and model.ErrEmailAlreadyExists if a new user has the email of another user.
func (c *Cluster) SocialLogin(ctx context.Context, provider, idToken string) (*model.Session, error) {
	logger := c.lg.With(traceutil.TraceLogField(ctx), zap.String("provider", provider))

	if provider != model.ProviderGoogle && provider != model.ProviderFacebook {
		return nil, errors.Wrapf(model.ErrInvalidArgument, "unknown provider %q", provider)
	}
	claims, err := verifyProviderToken(idToken, c.auth.ProviderSecret)
	if err != nil {
		logger.Warn("invalid id token", zap.Error(err))
		return nil, errors.WithMessagef(model.ErrUnauthenticated, "verify id token: %s", err.Error())
	}

	user, created, err := c.storage.CreateUserIfAbsent(ctx, &model.User{
		UID:         claims.Subject,
		Username:    claims.Subject,
		Email:       claims.Email,
		DisplayName: claims.Name,
		Provider:    provider,
	})
	if err != nil {
		return nil, err
	}
	if created {
		logger.Info("social user created", zap.String("user-id", user.UID))
	}
	c.cache.SaveUser(user)
	return c.newSession(ctx, user)
}

// Authenticate returns the uid in the session token.
// It returns model.ErrUnauthenticated if the token is invalid or expired.
func (c *Cluster) Authenticate(_ context.Context, token string) (string, error) {
	uid, err := verifyToken(token, c.auth.SessionSecret)
	if err != nil {
		return "", errors.WithMessagef(model.ErrUnauthenticated, "verify session token: %s", err.Error())
	}
	return uid, nil
}

// SendConfirmationCode mails a new confirmation code of the username to the email.
// The code replaces any earlier one of the username.
func (c *Cluster) SendConfirmationCode(ctx context.Context, param *model.SendConfirmationCodeParam) error {
	if err := param.Validate(); err != nil {
		return err
	}

	code, err := c.newCode(ctx, model.CodeConfirmation, *param.Username)
	if err != nil {
		return err
	}
	return c.send(ctx, confirmationMail(*param.Email, code, c.auth.CodeTTL))
}

// VerifyConfirmationCode consumes the confirmation code of the username.
// It returns model.ErrInvalidCode if the code is wrong, expired or already used.
func (c *Cluster) VerifyConfirmationCode(ctx context.Context, param *model.VerifyConfirmationCodeParam) error {
	if err := param.Validate(); err != nil {
		return err
	}
	return c.storage.UseCode(ctx, model.CodeConfirmation, *param.Username, *param.Code, time.Now())
}

// SendResetCode mails a new password reset code to the user with the email, and returns the user.
// It returns model.ErrUserNotFound if no user has the email.
func (c *Cluster) SendResetCode(ctx context.Context, email string) (*model.User, error) {
	if email == "" {
		return nil, errors.Wrap(model.ErrInvalidArgument, "email is required")
	}

	user, err := c.storage.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.WithMessagef(model.ErrUserNotFound, "email %s", email)
	}

	code, err := c.newCode(ctx, model.CodePasswordReset, user.UID)
	if err != nil {
		return nil, err
	}
	if err := c.send(ctx, resetMail(user.Email, code, c.auth.CodeTTL)); err != nil {
		return nil, err
	}
	return user, nil
}

// ResetPassword consumes the password reset code of the user and sets the new password.
// It returns model.ErrUserNotFound if no user has the email, model.ErrInvalidArgument if the username is not
// the one of the user, and model.ErrInvalidCode if the code is wrong, expired or already used.
func (c *Cluster) ResetPassword(ctx context.Context, param *model.ResetPasswordParam) error {
	if err := param.Validate(); err != nil {
		return err
	}

	user, err := c.storage.GetUserByEmail(ctx, *param.Email)
	if err != nil {
		return err
	}
	if user == nil {
		return errors.WithMessagef(model.ErrUserNotFound, "email %s", *param.Email)
	}
	if user.Username != *param.Username {
		return errors.Wrap(model.ErrInvalidArgument, errUsernameMismatch.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*param.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}
	return c.storage.ResetCredential(ctx, user.UID, *param.Code, time.Now(), hash)
}

// user returns model.ErrUserNotFound if the user does not exist.
func (c *Cluster) user(ctx context.Context, uid string) (*model.User, error) {
	if user := c.cache.User(uid); user != nil {
		return user, nil
	}

	user, err := c.storage.GetUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.WithMessagef(model.ErrUserNotFound, "user %s", uid)
	}
	c.cache.SaveUser(user)
	return user, nil
}

func (c *Cluster) newSession(ctx context.Context, user *model.User) (*model.Session, error) {
	token, err := signToken(user.UID, time.Now(), c.auth.SessionTTL, c.auth.SessionSecret)
	if err != nil {
		c.lg.Error("failed to sign session token", traceutil.TraceLogField(ctx), zap.String("user-id", user.UID), zap.Error(err))
		return nil, err
	}

	return &model.Session{
		User:      user,
		Token:     token,
		ExpiresIn: typeutil.NewDuration(c.auth.SessionTTL),
	}, nil
}

// newCode saves and returns a new code of the purpose and the subject.
func (c *Cluster) newCode(ctx context.Context, purpose model.CodePurpose, subject string) (string, error) {
	code, err := randutil.Digits(_codeDigits)
	if err != nil {
		return "", errors.WithMessage(err, "generate code")
	}

	err = c.storage.SaveCode(ctx, purpose, subject, &model.VerificationCode{
		Code:      code,
		ExpiresAt: time.Now().Add(c.auth.CodeTTL),
	}, c.auth.CodeTTL)
	if err != nil {
		return "", err
	}
	return code, nil
}

func (c *Cluster) send(ctx context.Context, mail *Mail) error {
	if err := c.auth.Mailer.Send(ctx, mail); err != nil {
		c.lg.Error("failed to send mail", traceutil.TraceLogField(ctx), zap.String("to", mail.To), zap.String("subject", mail.Subject), zap.Error(err))
		return errors.WithMessage(err, "send mail")
	}
	return nil
}

func signToken(subject string, now time.Time, ttl time.Duration, secret []byte) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return token, nil
}

// providerClaims are the claims of an id token issued by a social identity provider.
type providerClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// verifyToken returns the subject of a valid HS256 token signed with secret.
// Every token is rejected if secret is empty.
func verifyToken(token string, secret []byte) (string, error) {
	claims := &jwt.RegisteredClaims{}
	if err := parseToken(token, secret, claims); err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// verifyProviderToken is like verifyToken, but returns all claims of a social id token.
func verifyProviderToken(token string, secret []byte) (*providerClaims, error) {
	claims := &providerClaims{}
	if err := parseToken(token, secret, claims); err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

func parseToken(token string, secret []byte, claims jwt.Claims) error {
	if len(secret) == 0 {
		return errEmptySecret
	}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	return err
}
