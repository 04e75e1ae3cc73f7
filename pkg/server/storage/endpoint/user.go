package endpoint

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/hotelbook/booking-server/pkg/server/model"
	"github.com/hotelbook/booking-server/pkg/server/storage/kv"
	"github.com/hotelbook/booking-server/pkg/util/traceutil"
)

const (
	_userPath   = "users"
	_userPrefix = _userPath + kv.KeySeparator

	// user-emails/<email> -> <user-id>
	_userEmailPath   = "user-emails"
	_userEmailPrefix = _userEmailPath + kv.KeySeparator
)

// UserEndpoint defines operations on user.
type UserEndpoint interface {
	CreateUser(ctx context.Context, user *model.User, credential []byte) (*model.User, error)
	CreateUserIfAbsent(ctx context.Context, user *model.User) (*model.User, bool, error)
	GetUser(ctx context.Context, userID string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

// CreateUser saves the given user and indexes it by its email.
// If credential is not nil, it is saved as the credential of the user.
// It returns model.ErrEmailAlreadyExists if another user has the same email, ignoring case.
func (e *Endpoint) CreateUser(ctx context.Context, user *model.User, credential []byte) (*model.User, error) {
	logger := e.lg.With(zap.String("user-id", user.UID), traceutil.TraceLogField(ctx))

	err := e.KV.ExecInTxn(ctx, func(basicKV kv.BasicKV) error {
		return createUser(ctx, basicKV, user, credential)
	})
	if err != nil {
		logger.Error("failed to create user", zap.Error(err))
		return nil, errors.Wrap(err, "create user")
	}

	return user, nil
}

// CreateUserIfAbsent saves the given user unless a user with the same uid exists.
// It returns the stored user and whether it is created by this call.
// It returns model.ErrEmailAlreadyExists if another user has the same email, ignoring case.
func (e *Endpoint) CreateUserIfAbsent(ctx context.Context, user *model.User) (*model.User, bool, error) {
	logger := e.lg.With(zap.String("user-id", user.UID), traceutil.TraceLogField(ctx))

	var existing *model.User
	err := e.KV.ExecInTxn(ctx, func(basicKV kv.BasicKV) error {
		u, err := get[model.User](ctx, basicKV, userPath(user.UID))
		if err != nil {
			return errors.Wrap(err, "get user")
		}
		existing = u
		if u != nil {
			return nil
		}
		return createUser(ctx, basicKV, user, nil)
	})
	if err != nil {
		logger.Error("failed to create user if absent", zap.Error(err))
		return nil, false, errors.Wrap(err, "create user if absent")
	}

	if existing != nil {
		return existing, false, nil
	}
	return user, true, nil
}

// createUser skips the email index if the user has no email.
func createUser(ctx context.Context, basicKV kv.BasicKV, user *model.User, credential []byte) error {
	var emailKey []byte
	if user.Email != "" {
		emailKey = userEmailPath(user.Email)
		v, err := basicKV.Get(ctx, emailKey)
		if err != nil {
			return errors.Wrap(err, "get user email")
		}
		if v != nil {
			return errors.WithMessagef(model.ErrEmailAlreadyExists, "email %s", user.Email)
		}
	}

	if err := put(ctx, basicKV, userPath(user.UID), user); err != nil {
		return err
	}
	if emailKey != nil {
		_, _ = basicKV.Put(ctx, emailKey, []byte(user.UID), false)
	}
	if credential != nil {
		_, _ = basicKV.Put(ctx, credentialPath(user.UID), credential, false)
	}
	return nil
}

// GetUser returns nil and no error if the user does not exist.
func (e *Endpoint) GetUser(ctx context.Context, userID string) (*model.User, error) {
	logger := e.lg.With(zap.String("user-id", userID), traceutil.TraceLogField(ctx))

	user, err := get[model.User](ctx, e.KV, userPath(userID))
	if err != nil {
		logger.Error("failed to get user", zap.Error(err))
		return nil, errors.Wrap(err, "get user")
	}
	return user, nil
}

// GetUserByEmail returns nil and no error if no user has the email.
func (e *Endpoint) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	logger := e.lg.With(zap.String("email", email), traceutil.TraceLogField(ctx))
	if email == "" {
		return nil, nil
	}

	var user *model.User
	err := e.KV.ExecInTxn(ctx, func(basicKV kv.BasicKV) error {
		uid, err := basicKV.Get(ctx, userEmailPath(email))
		if err != nil {
			return errors.Wrap(err, "get user email")
		}
		if uid == nil {
			user = nil
			return nil
		}
		user, err = get[model.User](ctx, basicKV, userPath(string(uid)))
		return err
	})
	if err != nil {
		logger.Error("failed to get user by email", zap.Error(err))
		return nil, errors.Wrap(err, "get user by email")
	}
	return user, nil
}

func userPath(userID string) []byte {
	return []byte(_userPrefix + userID)
}

func userEmailPath(email string) []byte {
	return []byte(_userEmailPrefix + strings.ToLower(email))
}
