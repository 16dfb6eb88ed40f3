package api

import (
	"database/sql"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/zkrizaj/hramba/internal/auth"
	"github.com/zkrizaj/hramba/internal/logging"
	"github.com/zkrizaj/hramba/internal/store"
)

// AuthHandler handles authentication endpoints for the single owner
// account.
type AuthHandler struct {
	DB        *sql.DB
	JWTSecret string
	Limiter   *rateLimiter
}

type loginRequest struct {
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// Login handles POST /api/auth/login. Failures look the same whether
// the password is wrong or none has been set yet.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.Limiter.allow(clientAddr(r)) {
		jsonError(w, http.StatusTooManyRequests, "too many login attempts")
		return
	}

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validateRequest(req); msg != "" {
		jsonError(w, http.StatusBadRequest, msg)
		return
	}

	hash, err := store.PasswordHash(r.Context(), h.DB)
	if err != nil {
		storeError(w, err)
		return
	}
	if hash == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		logging.Warnw("login failed", "remote", r.RemoteAddr)
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret)
	if err != nil {
		logging.Errorw("generating token", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	logging.Infow("owner logged in", "remote", r.RemoteAddr)
	jsonResponse(w, http.StatusOK, loginResponse{Token: token})
}

// Logout handles POST /api/auth/logout. It revokes the presented
// token; the revocation entry only needs to outlive the token itself.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	expires := time.Now().Add(auth.TokenExpiry)
	if claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
	}
	if err := store.RevokeToken(r.Context(), h.DB, claims.ID, expires); err != nil {
		storeError(w, err)
		return
	}

	jsonResponse(w, http.StatusNoContent, nil)
}

// ChangePassword handles PUT /api/auth/password. Tokens issued before
// the change stay valid until they expire or are revoked.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validateRequest(req); msg != "" {
		jsonError(w, http.StatusBadRequest, msg)
		return
	}

	hash, err := store.PasswordHash(r.Context(), h.DB)
	if err != nil {
		storeError(w, err)
		return
	}
	if hash == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.CurrentPassword)) != nil {
		jsonError(w, http.StatusUnauthorized, "current password is incorrect")
		return
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		logging.Errorw("hashing password", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}
	if err := store.SetPasswordHash(r.Context(), h.DB, string(newHash)); err != nil {
		storeError(w, err)
		return
	}

	logging.Infow("owner changed password")
	jsonResponse(w, http.StatusOK, map[string]string{"message": "password updated"})
}
