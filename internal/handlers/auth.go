package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/diewo77/go-freelance/auth"
	"github.com/diewo77/go-freelance/httpx"
	"github.com/diewo77/go-freelance/internal/billing"
	"github.com/diewo77/go-freelance/internal/models"
	"github.com/diewo77/go-freelance/internal/store"
	"github.com/diewo77/go-freelance/validation"
)

// MinPasswordLength applies on signup.
const MinPasswordLength = 8

type AuthHandler struct {
	store    *store.Store
	tokenTTL time.Duration
}

func NewAuthHandler(st *store.Store, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{store: st, tokenTTL: tokenTTL}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type sessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if !decode(w, r, &in) {
		return
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	v := validation.Violations{}
	validation.Required("email", in.Email, v)
	validation.Email("email", in.Email, v)
	validation.Required("password", in.Password, v)
	if in.Password != "" && len(in.Password) < MinPasswordLength {
		v["password"] = "too_short"
	}
	if _, ok := v["email"]; !ok {
		_, err := h.store.UserByEmail(r.Context(), in.Email)
		switch {
		case err == nil:
			v["email"] = "already_taken"
		case !errors.Is(err, billing.ErrNotFound):
			writeError(w, r, err)
			return
		}
	}
	if err := billing.Invalid(v); err != nil {
		writeError(w, r, err)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, r, err)
		return
	}
	user := models.User{Email: in.Email, Name: strings.TrimSpace(in.Name), Password: string(hashedPassword)}
	if err := h.store.CreateUser(r.Context(), &user); err != nil {
		writeError(w, r, err)
		return
	}
	h.startSession(w, r, &user, http.StatusCreated)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if !decode(w, r, &in) {
		return
	}
	user, err := h.store.UserByEmail(r.Context(), in.Email)
	if err != nil {
		if errors.Is(err, billing.ErrNotFound) {
			httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
			return
		}
		writeError(w, r, err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
		return
	}
	h.startSession(w, r, user, http.StatusOK)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, user *models.User, status int) {
	token, exp, err := auth.IssueToken(user.ID, h.tokenTTL)
	if err != nil {
		writeError(w, r, err)
		return
	}
	auth.CreateSession(w, user.ID)
	httpx.JSON(w, status, sessionResponse{Token: token, ExpiresAt: exp, User: user})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.store.UserByID(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}
