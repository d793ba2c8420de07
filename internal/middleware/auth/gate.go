package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/Louis-Gabriel-TM/stores-api/internal/revocation"
	"github.com/Louis-Gabriel-TM/stores-api/internal/tokens"
)

// Gate guards routes with access tokens. Every token-bearing request
// is checked against the revocation registry before it is authorized.
type Gate struct {
	Secret   []byte
	Registry *revocation.Registry
}

const adminRequired = "Admin privileges required."

// Optional lets the request through with or without a token. A valid,
// non-revoked token exposes the identity to the handler; anything else
// leaves the request anonymous.
func (g *Gate) Optional(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw, ok := BearerToken(c)
		if !ok {
			return next(c)
		}
		claims, err := tokens.AccessClaimsFromToken(raw, g.Secret)
		if err != nil || g.Registry.IsRevoked(claims.ID) {
			return next(c)
		}
		setUserContext(c, claims)
		return next(c)
	}
}

func (g *Gate) Require(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := g.authenticate(c); err != nil {
			return err
		}
		return next(c)
	}
}

// RequireFresh additionally rejects tokens obtained via /refresh.
func (g *Gate) RequireFresh(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := g.authenticate(c); err != nil {
			return err
		}
		if !Fresh(c) {
			return TokenError("The token is not fresh.", "fresh_token_required")
		}
		return next(c)
	}
}

// RequireAdmin additionally rejects identities without the admin claim.
func (g *Gate) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := g.authenticate(c); err != nil {
			return err
		}
		if !IsAdmin(c) {
			return ErrAdminRequired()
		}
		return next(c)
	}
}

func (g *Gate) authenticate(c echo.Context) error {
	raw, ok := BearerToken(c)
	if !ok {
		return TokenError("Request does not contain an access token.", "authorization_required")
	}

	claims, err := tokens.AccessClaimsFromToken(raw, g.Secret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return TokenError("The token has expired.", "token_expired")
		}
		return TokenError("Signature verification failed.", "invalid_token")
	}

	if g.Registry.IsRevoked(claims.ID) {
		return TokenError("The token has been revoked.", "token_revoked")
	}

	setUserContext(c, claims)
	return nil
}

// TokenError is the fixed {description, error} auth failure shape,
// rendered by the echo error handler.
func TokenError(description, code string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusUnauthorized, echo.Map{
		"description": description,
		"error":       code,
	})
}

// ErrAdminRequired distinguishes a missing admin claim from the
// generic token failures.
func ErrAdminRequired() *echo.HTTPError {
	return echo.NewHTTPError(http.StatusUnauthorized, echo.Map{"message": adminRequired})
}

func BearerToken(c echo.Context) (string, bool) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
