package config

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	_defaultAuthSessionTTL = time.Hour
	_defaultAuthCodeTTL    = 15 * time.Minute

	_generatedSecretLen = 32
)

// Auth is the configuration for session tokens.
type Auth struct {
	// SessionSecret signs session tokens. A random one is generated if empty,
	// so sessions do not survive a restart.
	SessionSecret string
	// ProviderSecret verifies the id tokens issued by the identity provider.
	// Login always fails if it is empty.
	ProviderSecret string
	SessionTTL     time.Duration
	// CodeTTL is the lifetime of a confirmation code or a password reset code.
	CodeTTL time.Duration
}

func NewAuth() *Auth {
	return &Auth{}
}

func (a *Auth) Adjust() error {
	if a.SessionSecret == "" {
		b := make([]byte, _generatedSecretLen)
		if _, err := rand.Read(b); err != nil {
			return errors.Wrap(err, "generate session secret")
		}
		a.SessionSecret = hex.EncodeToString(b)
	}
	return nil
}

func (a *Auth) Validate() error {
	if a.SessionTTL <= 0 {
		return errors.Errorf("invalid session ttl `%s`", a.SessionTTL)
	}
	if a.CodeTTL <= 0 {
		return errors.Errorf("invalid code ttl `%s`", a.CodeTTL)
	}
	return nil
}

func authConfigure(v *viper.Viper, fs *pflag.FlagSet) {
	fs.String("auth-session-secret", "", "secret to sign session tokens (default a random one)")
	fs.String("auth-provider-secret", "", "secret to verify id tokens issued by the identity provider")
	fs.Duration("auth-session-ttl", _defaultAuthSessionTTL, "lifetime of a session token")
	fs.Duration("auth-code-ttl", _defaultAuthCodeTTL, "lifetime of a confirmation code or a password reset code")
	_ = v.BindPFlag("auth.sessionSecret", fs.Lookup("auth-session-secret"))
	_ = v.BindPFlag("auth.providerSecret", fs.Lookup("auth-provider-secret"))
	_ = v.BindPFlag("auth.sessionTTL", fs.Lookup("auth-session-ttl"))
	_ = v.BindPFlag("auth.codeTTL", fs.Lookup("auth-code-ttl"))
}
