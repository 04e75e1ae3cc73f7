package endpoint

import (
	"context"
	"time"

	"github.com/bytedance/gopkg/lang/mcache"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/hotelbook/booking-server/pkg/server/model"
	"github.com/hotelbook/booking-server/pkg/server/storage/kv"
	"github.com/hotelbook/booking-server/pkg/util/jsonutil"
	"github.com/hotelbook/booking-server/pkg/util/traceutil"
)

const (
	// credentials/<user-id> -> password hash
	_credentialPath   = "credentials"
	_credentialPrefix = _credentialPath + kv.KeySeparator

	// verification-codes/<purpose>/<subject> -> model.VerificationCode
	_codePath   = "verification-codes"
	_codePrefix = _codePath + kv.KeySeparator
)

// CredentialEndpoint defines operations on password hashes and verification codes.
type CredentialEndpoint interface {
	GetCredential(ctx context.Context, userID string) ([]byte, error)
	ResetCredential(ctx context.Context, userID string, code string, now time.Time, credential []byte) error
	SaveCode(ctx context.Context, purpose model.CodePurpose, subject string, code *model.VerificationCode, ttl time.Duration) error
	UseCode(ctx context.Context, purpose model.CodePurpose, subject string, code string, now time.Time) error
}

// GetCredential returns nil and no error if the user has no credential.
func (e *Endpoint) GetCredential(ctx context.Context, userID string) ([]byte, error) {
	logger := e.lg.With(zap.String("user-id", userID), traceutil.TraceLogField(ctx))

	credential, err := e.KV.Get(ctx, credentialPath(userID))
	if err != nil {
		logger.Error("failed to get credential", zap.Error(err))
		return nil, errors.Wrap(err, "get credential")
	}
	return credential, nil
}

// ResetCredential consumes the password reset code of the user and saves the new credential.
// It returns model.ErrInvalidCode if the code does not match an unexpired reset code of the user.
func (e *Endpoint) ResetCredential(ctx context.Context, userID string, code string, now time.Time, credential []byte) error {
	logger := e.lg.With(zap.String("user-id", userID), traceutil.TraceLogField(ctx))

	err := e.KV.ExecInTxn(ctx, func(basicKV kv.BasicKV) error {
		if err := useCode(ctx, basicKV, model.CodePasswordReset, userID, code, now); err != nil {
			return err
		}
		_, _ = basicKV.Put(ctx, credentialPath(userID), credential, false)
		return nil
	})
	if err != nil {
		if !errors.Is(err, model.ErrInvalidCode) {
			logger.Error("failed to reset credential", zap.Error(err))
		}
		return errors.Wrap(err, "reset credential")
	}
	return nil
}

// SaveCode replaces the code of the purpose and the subject. The store drops the code after ttl.
func (e *Endpoint) SaveCode(ctx context.Context, purpose model.CodePurpose, subject string, code *model.VerificationCode, ttl time.Duration) error {
	logger := e.lg.With(zap.String("purpose", string(purpose)), zap.String("subject", subject), traceutil.TraceLogField(ctx))

	value, err := jsonutil.Marshal(code)
	if err != nil {
		return errors.Wrap(err, "marshal code")
	}
	err = e.KV.PutWithTTL(ctx, codePath(purpose, subject), value, ttl)
	mcache.Free(value)
	if err != nil {
		logger.Error("failed to save code", zap.Error(err))
		return errors.Wrap(err, "save code")
	}
	return nil
}

// UseCode deletes the code of the purpose and the subject if it matches code at now.
// It returns model.ErrInvalidCode if there is no such code, or the code is expired or different.
// A code can be used at most once.
func (e *Endpoint) UseCode(ctx context.Context, purpose model.CodePurpose, subject string, code string, now time.Time) error {
	logger := e.lg.With(zap.String("purpose", string(purpose)), zap.String("subject", subject), traceutil.TraceLogField(ctx))

	err := e.KV.ExecInTxn(ctx, func(basicKV kv.BasicKV) error {
		return useCode(ctx, basicKV, purpose, subject, code, now)
	})
	if err != nil {
		if !errors.Is(err, model.ErrInvalidCode) {
			logger.Error("failed to use code", zap.Error(err))
		}
		return errors.Wrap(err, "use code")
	}
	return nil
}

func useCode(ctx context.Context, basicKV kv.BasicKV, purpose model.CodePurpose, subject string, code string, now time.Time) error {
	key := codePath(purpose, subject)
	saved, err := get[model.VerificationCode](ctx, basicKV, key)
	if err != nil {
		return errors.Wrap(err, "get code")
	}
	if !saved.Match(code, now) {
		return errors.WithMessagef(model.ErrInvalidCode, "%s code of %s", purpose, subject)
	}
	_, _ = basicKV.Delete(ctx, key, false)
	return nil
}

func credentialPath(userID string) []byte {
	return []byte(_credentialPrefix + userID)
}

func codePath(purpose model.CodePurpose, subject string) []byte {
	return []byte(_codePrefix + string(purpose) + kv.KeySeparator + subject)
}
