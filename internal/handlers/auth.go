package handlers

import (
	"github.com/gin-gonic/gin"

	"pharma-crm-server/internal/config"
	"pharma-crm-server/internal/middleware"
	"pharma-crm-server/internal/services"
	"pharma-crm-server/internal/utils"
)

const refreshTokenCookie = "refresh_token"

// AuthHandler handles authentication-related requests.
type AuthHandler struct {
	auth *services.AuthService
	cfg  *config.Config
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *services.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{auth: auth, cfg: cfg}
}

// LoginRequest represents the request body for user login.
type LoginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// Login handles user login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	session, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	h.setSessionCookies(c, session)
	utils.Success(c, "Login successful", session)
}

// RefreshTokenRequest represents the request body for token refresh.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" form:"refresh_token" binding:"required"`
}

// RefreshToken rotates the refresh token and issues a new access token.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	// First try to get the refresh token from HTTP-only cookie
	token, err := c.Cookie(refreshTokenCookie)
	if err != nil || token == "" {
		var req RefreshTokenRequest
		if !utils.BindAndValidate(c, &req) {
			return
		}
		token = req.RefreshToken
	}

	session, err := h.auth.Refresh(c.Request.Context(), token)
	if err != nil {
		respondError(c, err)
		return
	}

	h.setSessionCookies(c, session)
	utils.Success(c, "Access token refreshed successfully", session)
}

// LogoutRequest represents the request body for user logout.
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken" form:"refresh_token"`
}

// Logout revokes the refresh token and clears the session cookies.
func (h *AuthHandler) Logout(c *gin.Context) {
	token, _ := c.Cookie(refreshTokenCookie)
	if token == "" {
		var req LogoutRequest
		_ = c.ShouldBind(&req)
		token = req.RefreshToken
	}

	if err := h.auth.Logout(c.Request.Context(), token); err != nil {
		respondError(c, err)
		return
	}

	secure := h.cfg.IsProduction()
	c.SetCookie(refreshTokenCookie, "", -1, "/", "", secure, true)
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", "", secure, true)
	utils.Success(c, "Logout successful. Refresh token has been invalidated.", nil)
}

// GetProfile handles fetching the currently authenticated user's profile.
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	user, err := h.auth.Profile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "Profile fetched successfully", user.Sanitize())
}

// UpdateProfile handles updating the currently authenticated user's profile.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req services.ProfileInput
	if !utils.BindAndValidate(c, &req) {
		return
	}

	user, err := h.auth.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "Profile updated successfully", user.Sanitize())
}

func (h *AuthHandler) setSessionCookies(c *gin.Context, session *services.Session) {
	secure := h.cfg.IsProduction()
	c.SetCookie(
		refreshTokenCookie,
		session.RefreshToken,
		h.cfg.JWTRefreshExpirationHours*60*60, // Max age in seconds
		"/",
		"",
		secure,
		true,
	)
	c.SetCookie(middleware.AccessTokenCookie, session.AccessToken, h.cfg.JWTExpirationMinutes*60, "/", "", secure, true)
}
