package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/agoralabs/agora/internal/auth"
	"github.com/agoralabs/agora/internal/middleware"
	"github.com/agoralabs/agora/pkg/errors"
	"github.com/agoralabs/agora/pkg/metrics"
	"github.com/agoralabs/agora/pkg/response"
)

// AuthHandler manages account flows: registration, login, logout,
// deregistration and password recovery.
type AuthHandler struct {
	jwt         *iauth.JWTService
	sessions    *iauth.SessionService
	credentials *iauth.CredentialService
}

func NewAuthHandler(jwt *iauth.JWTService, sessions *iauth.SessionService, credentials *iauth.CredentialService) *AuthHandler {
	return &AuthHandler{jwt: jwt, sessions: sessions, credentials: credentials}
}

type registerRequest struct {
	HName    string `json:"hname" validate:"required,max=128"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// setAuthCookies mirrors the bearer token into the cookie pair browser
// clients rely on.
func (h *AuthHandler) setAuthCookies(c *gin.Context, token string, uid uint) {
	maxAge := int(h.jwt.TokenTTL().Seconds())
	c.SetCookie(middleware.SessionCookie, token, maxAge, "/", "", false, true)
	c.SetCookie(middleware.UserIDCookie, strconv.FormatUint(uint64(uid), 10), maxAge, "/", "", false, false)
}

func (h *AuthHandler) clearAuthCookies(c *gin.Context) {
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", false, true)
	c.SetCookie(middleware.UserIDCookie, "", -1, "/", "", false, false)
}

// POST /api/v3/auth/new
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.credentials.Register(iauth.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		HName:    strings.TrimSpace(req.HName),
	})
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		if err == iauth.ErrEmailTaken {
			response.Error(c, errors.ErrDuplicateEmail)
			return
		}
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}

	token, _, err := h.sessions.Issue(user.UID, iauth.SessionMetadata{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	h.setAuthCookies(c, token, user.UID)
	response.Auth(c, token, int64(user.UID), user)
}

// POST /api/v3/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.credentials.Login(req.Email, req.Password)
	if err != nil {
		// Login failures never distinguish unknown users from bad
		// passwords.
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		response.Error(c, errors.ErrInvalidCredentials)
		return
	}

	token, _, err := h.sessions.Issue(user.UID, iauth.SessionMetadata{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	h.setAuthCookies(c, token, user.UID)
	response.Auth(c, token, int64(user.UID), user)
}

// POST /api/v3/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	sid := currentSessionID(c)
	if sid == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	// Revocation is idempotent; logging out twice is not an error.
	if err := h.sessions.Revoke(sid); err != nil {
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}

	h.clearAuthCookies(c)
	response.Success(c, http.StatusOK, gin.H{"revoked": true})
}

type deregisterRequest struct {
	Password string `json:"password"`
}

// POST /api/v3/auth/deregister
//
// With a password the account is deactivated and every session revoked.
// Without one the request degrades to a plain logout of the current
// session, which is what the legacy clients send.
func (h *AuthHandler) Deregister(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req deregisterRequest
	if c.Request.ContentLength > 0 && !bindAndValidate(c, &req) {
		return
	}

	if req.Password == "" {
		sid := currentSessionID(c)
		if sid != "" {
			if err := h.sessions.Revoke(sid); err != nil {
				response.Error(c, errors.ErrInternalServer.WithInternal(err))
				return
			}
		}
		h.clearAuthCookies(c)
		response.Success(c, http.StatusOK, gin.H{"logged_out": true})
		return
	}

	if err := h.credentials.Deregister(user.UID, req.Password); err != nil {
		if err == iauth.ErrInvalidCredentials {
			response.Error(c, errors.ErrInvalidCredentials)
			return
		}
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}

	h.clearAuthCookies(c)
	response.Success(c, http.StatusOK, gin.H{"deregistered": true})
}

type resetTokenRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// POST /api/v3/auth/pwresettoken
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req resetTokenRequest
	if !bindAndValidate(c, &req) {
		return
	}

	// The response shape is identical whether or not the account exists, so
	// this endpoint cannot be used to enumerate emails.
	if _, err := h.credentials.CreateResetToken(req.Email); err != nil {
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"sent": true})
}

type passwordRequest struct {
	PWResetToken    string `json:"pwresettoken"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

// POST /api/v3/auth/password
//
// Accepts either a reset token or, for authenticated callers, the current
// password.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req passwordRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if token := strings.TrimSpace(req.PWResetToken); token != "" {
		if err := h.credentials.ResetPassword(token, req.NewPassword); err != nil {
			if err == iauth.ErrResetTokenInvalid {
				response.Error(c, errors.ErrInvalidResetToken)
				return
			}
			response.Error(c, errors.ErrInternalServer.WithInternal(err))
			return
		}
		response.Success(c, http.StatusOK, gin.H{"updated": true})
		return
	}

	user := currentUser(c)
	if user == nil {
		response.Error(c, errors.ErrUnauthorized)
		return
	}
	if req.CurrentPassword == "" {
		response.Error(c, errors.NewBadRequest("currentPassword or pwresettoken is required"))
		return
	}

	if err := h.credentials.ChangePassword(user.UID, req.CurrentPassword, req.NewPassword); err != nil {
		if err == iauth.ErrInvalidCredentials {
			response.Error(c, errors.ErrInvalidCredentials)
			return
		}
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"updated": true})
}
