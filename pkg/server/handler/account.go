package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/hotelbook/booking-server/pkg/server/model"
)

type loginRequest struct {
	IDToken string `json:"idToken"`
}

func (h *Handler) createAccount(w http.ResponseWriter, r *http.Request) {
	param := &model.CreateUserParam{}
	if err := decode(r, param); err != nil {
		h.fail(w, r, err)
		return
	}
	user, err := h.c.CreateAccount(r.Context(), param)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, http.StatusCreated, "Account created successfully", map[string]any{"user": user})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	req := &loginRequest{}
	if err := decode(r, req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.IDToken == "" {
		h.fail(w, r, errors.Wrap(model.ErrInvalidArgument, "idToken is required"))
		return
	}
	session, err := h.c.Login(r.Context(), req.IDToken)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.loggedIn(w, r, session)
}

type passwordLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) passwordLogin(w http.ResponseWriter, r *http.Request) {
	req := &passwordLoginRequest{}
	if err := decode(r, req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		h.fail(w, r, errors.Wrap(model.ErrInvalidArgument, "email and password are required"))
		return
	}
	session, err := h.c.PasswordLogin(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.loggedIn(w, r, session)
}

// _providers maps the provider in the path to the provider id.
var _providers = map[string]string{
	"google":   model.ProviderGoogle,
	"facebook": model.ProviderFacebook,
}

func (h *Handler) socialLogin(w http.ResponseWriter, r *http.Request) {
	req := &loginRequest{}
	if err := decode(r, req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.IDToken == "" {
		h.fail(w, r, errors.Wrap(model.ErrInvalidArgument, "idToken is required"))
		return
	}
	session, err := h.c.SocialLogin(r.Context(), _providers[mux.Vars(r)["provider"]], req.IDToken)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.loggedIn(w, r, session)
}

func (h *Handler) loggedIn(w http.ResponseWriter, r *http.Request, session *model.Session) {
	h.ok(w, r, http.StatusOK, "Login successful", map[string]any{
		"user":      session.User,
		"token":     session.Token,
		"expiresIn": session.ExpiresIn,
	})
}

func (h *Handler) sendConfirmationCode(w http.ResponseWriter, r *http.Request) {
	param := &model.SendConfirmationCodeParam{}
	if err := decode(r, param); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.c.SendConfirmationCode(r.Context(), param); err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, http.StatusOK, "Confirmation code sent", map[string]any{
		"email":    param.Email,
		"username": param.Username,
	})
}

func (h *Handler) verifyConfirmationCode(w http.ResponseWriter, r *http.Request) {
	param := &model.VerifyConfirmationCodeParam{}
	if err := decode(r, param); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.c.VerifyConfirmationCode(r.Context(), param); err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, http.StatusOK, "Code verified successfully", nil)
}

type resetCodeRequest struct {
	Email string `json:"email"`
}

func (h *Handler) sendResetCode(w http.ResponseWriter, r *http.Request) {
	req := &resetCodeRequest{}
	if err := decode(r, req); err != nil {
		h.fail(w, r, err)
		return
	}
	user, err := h.c.SendResetCode(r.Context(), req.Email)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, http.StatusOK, "Reset code sent", map[string]any{
		"email":    user.Email,
		"username": user.Username,
	})
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	param := &model.ResetPasswordParam{}
	if err := decode(r, param); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.c.ResetPassword(r.Context(), param); err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, http.StatusOK, "Password updated successfully", nil)
}
