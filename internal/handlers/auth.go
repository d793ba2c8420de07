package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Louis-Gabriel-TM/stores-api/internal/claims"
	"github.com/Louis-Gabriel-TM/stores-api/internal/hash"
	"github.com/Louis-Gabriel-TM/stores-api/internal/logging"
	authmw "github.com/Louis-Gabriel-TM/stores-api/internal/middleware/auth"
	"github.com/Louis-Gabriel-TM/stores-api/internal/models"
	"github.com/Louis-Gabriel-TM/stores-api/internal/mykafka"
	"github.com/Louis-Gabriel-TM/stores-api/internal/revocation"
	"github.com/Louis-Gabriel-TM/stores-api/internal/tokens"
)

const (
	userAlreadyExists  = "A user with that username already exists."
	createdSuccessful  = "User created successfully."
	invalidCredentials = "Invalid credentials!"
	userLoggedOut      = "User <id=%d> successfully logged out."
	blankError         = "'%s' cannot be left blank."
)

type AuthHandler struct {
	DB            *gorm.DB
	Claims        claims.Provider
	Registry      *revocation.Registry
	Producer      *mykafka.Producer
	JWTSecret     []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r credentials) validate() map[string]string {
	fields := map[string]string{}
	if r.Username == "" {
		fields["username"] = fmt.Sprintf(blankError, "username")
	}
	if r.Password == "" {
		fields["password"] = fmt.Sprintf(blankError, "password")
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func (h *AuthHandler) accessTTL() time.Duration {
	if h.AccessTTL > 0 {
		return h.AccessTTL
	}
	return 15 * time.Minute
}

func (h *AuthHandler) refreshTTL() time.Duration {
	if h.RefreshTTL > 0 {
		return h.RefreshTTL
	}
	return 7 * 24 * time.Hour
}

func (h *AuthHandler) publish(c echo.Context, key string, event map[string]interface{}) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "user_events", key, event); err != nil {
		logging.FromContext(c.Request().Context()).Warn("kafka publish failed", "error", err)
	}
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req credentials
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if fields := req.validate(); fields != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": fields})
	}

	var existing models.User
	err := h.DB.Where("username = ?", req.Username).First(&existing).Error
	if err == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": userAlreadyExists})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	user := models.User{
		Username:     req.Username,
		PasswordHash: pwHash,
		Role:         "user",
		Activated:    true,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	h.publish(c, fmt.Sprint(user.ID), map[string]interface{}{
		"type":     "user_registered",
		"user_id":  user.ID,
		"username": user.Username,
	})

	return c.JSON(http.StatusCreated, echo.Map{"message": createdSuccessful})
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req credentials
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if fields := req.validate(); fields != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": fields})
	}

	// Unknown username and wrong password collapse into the same
	// response so callers cannot probe for registered usernames.
	var user models.User
	if err := h.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
		}
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": invalidCredentials})
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": invalidCredentials})
	}

	isAdmin, err := h.Claims.IsAdmin(ctx, user.ID)
	if err != nil {
		l.Error("claims lookup failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	accessToken, _, err := tokens.SignAccessToken(user.ID, isAdmin, true, h.accessTTL(), h.JWTSecret)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	refreshToken, _, err := tokens.SignRefreshToken(user.ID, h.refreshTTL(), h.RefreshSecret)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	h.publish(c, fmt.Sprint(user.ID), map[string]interface{}{
		"type":     "user_logged_in",
		"user_id":  user.ID,
		"username": user.Username,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	})
}

// Logout revokes the jti of the presented access token. The registry
// keeps the entry until the token would have expired on its own.
func (h *AuthHandler) Logout(c echo.Context) error {
	userID, _ := authmw.UserID(c)
	h.Registry.Revoke(authmw.JTI(c), authmw.TokenExpiry(c))

	h.publish(c, fmt.Sprint(userID), map[string]interface{}{
		"type":    "user_logged_out",
		"user_id": userID,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"message": fmt.Sprintf(userLoggedOut, userID),
	})
}

// Refresh exchanges a valid, non-revoked refresh token for a new
// access token. The new token is never fresh.
func (h *AuthHandler) Refresh(c echo.Context) error {
	ctx := c.Request().Context()

	raw, ok := authmw.BearerToken(c)
	if !ok {
		return authmw.TokenError("Request does not contain an access token.", "authorization_required")
	}

	refreshClaims, err := tokens.RefreshClaimsFromToken(raw, h.RefreshSecret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return authmw.TokenError("The token has expired.", "token_expired")
		}
		return authmw.TokenError("Signature verification failed.", "invalid_token")
	}
	if h.Registry.IsRevoked(refreshClaims.ID) {
		return authmw.TokenError("The token has been revoked.", "token_revoked")
	}

	userID, err := refreshClaims.UserID()
	if err != nil {
		return authmw.TokenError("Signature verification failed.", "invalid_token")
	}

	isAdmin, err := h.Claims.IsAdmin(ctx, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	accessToken, _, err := tokens.SignAccessToken(userID, isAdmin, false, h.accessTTL(), h.JWTSecret)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	return c.JSON(http.StatusOK, echo.Map{"access_token": accessToken})
}
