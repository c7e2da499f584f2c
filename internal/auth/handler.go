package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/thrivewell/wellness-platform/internal/http/envelope"
	"github.com/thrivewell/wellness-platform/pkg/logging"
)

// Handler serves login, logout and token refresh.
type Handler struct {
	users    UserStore
	issuer   *TokenIssuer
	sessions SessionStore
	logger   *logging.Logger
}

func NewHandler(users UserStore, issuer *TokenIssuer, sessions SessionStore, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{users: users, issuer: issuer, sessions: sessions, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		envelope.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		envelope.Error(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	user, err := h.users.FindByEmail(r.Context(), req.Email)
	if errors.Is(err, ErrUserNotFound) {
		envelope.Error(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if err != nil {
		h.logger.Error("login lookup failed", "error", err)
		envelope.Error(w, http.StatusInternalServerError, "login failed")
		return
	}
	if !CheckPassword(user.PasswordHash, req.Password) {
		envelope.Error(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token, jti, err := h.issuer.Issue(user)
	if err != nil {
		h.logger.Error("token issue failed", "error", err)
		envelope.Error(w, http.StatusInternalServerError, "login failed")
		return
	}
	if err := h.sessions.Save(r.Context(), jti, user.ID, h.issuer.TTL()); err != nil {
		h.logger.Error("session save failed", "error", err)
		envelope.Error(w, http.StatusInternalServerError, "login failed")
		return
	}

	h.logger.Info("user logged in", "user_id", user.ID, "org_id", user.OrgID, "role", user.Role)
	envelope.OK(w, sessionResponse{Token: token, User: user})
}

// Logout handles POST /auth/logout. Revocation is best-effort: an already
// invalid token still gets a success response.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := bearerToken(r); token != "" {
		if claims, err := h.issuer.Parse(token); err == nil {
			if err := h.sessions.Revoke(r.Context(), claims.ID); err != nil {
				h.logger.Warn("session revoke failed", "error", err)
			}
		}
	}
	envelope.OKMessage(w, "logged out")
}

// Refresh handles POST /auth/refresh. The old session is revoked and a new
// token is issued.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		envelope.Error(w, http.StatusUnauthorized, "missing authorization header")
		return
	}
	claims, err := h.issuer.Parse(token)
	if err != nil {
		envelope.Error(w, http.StatusUnauthorized, "invalid token")
		return
	}
	live, err := h.sessions.Valid(r.Context(), claims.ID)
	if err != nil {
		h.logger.Error("session check failed", "error", err)
		envelope.Error(w, http.StatusInternalServerError, "refresh failed")
		return
	}
	if !live {
		envelope.Error(w, http.StatusUnauthorized, "session expired")
		return
	}

	user := &User{
		ID:    claims.UserID,
		OrgID: claims.OrgID,
		Role:  claims.Role,
	}
	newToken, jti, err := h.issuer.Issue(user)
	if err != nil {
		h.logger.Error("token issue failed", "error", err)
		envelope.Error(w, http.StatusInternalServerError, "refresh failed")
		return
	}
	if err := h.sessions.Save(r.Context(), jti, user.ID, h.issuer.TTL()); err != nil {
		h.logger.Error("session save failed", "error", err)
		envelope.Error(w, http.StatusInternalServerError, "refresh failed")
		return
	}
	if err := h.sessions.Revoke(r.Context(), claims.ID); err != nil {
		h.logger.Warn("old session revoke failed", "error", err)
	}

	envelope.OK(w, sessionResponse{Token: newToken, User: user})
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(auth, "Bearer ")
}
