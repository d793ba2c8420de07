package auth

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Louis-Gabriel-TM/stores-api/internal/tokens"
)

const (
	ctxUserID   = "userID"
	ctxIsAdmin  = "isAdmin"
	ctxFresh    = "fresh"
	ctxJTI      = "jti"
	ctxTokenExp = "tokenExp"
)

func setUserContext(c echo.Context, claims *tokens.AccessClaims) {
	userID, err := claims.UserID()
	if err != nil {
		return
	}
	c.Set(ctxUserID, userID)
	c.Set(ctxIsAdmin, claims.IsAdmin)
	c.Set(ctxFresh, claims.Fresh)
	c.Set(ctxJTI, claims.ID)
	if claims.ExpiresAt != nil {
		c.Set(ctxTokenExp, claims.ExpiresAt.Time)
	}
}

// UserID reports the authenticated identity, if any.
func UserID(c echo.Context) (uint, bool) {
	id, ok := c.Get(ctxUserID).(uint)
	return id, ok
}

func IsAdmin(c echo.Context) bool {
	isAdmin, _ := c.Get(ctxIsAdmin).(bool)
	return isAdmin
}

func Fresh(c echo.Context) bool {
	fresh, _ := c.Get(ctxFresh).(bool)
	return fresh
}

// JTI is the revocation key of the presented token.
func JTI(c echo.Context) string {
	jti, _ := c.Get(ctxJTI).(string)
	return jti
}

func TokenExpiry(c echo.Context) time.Time {
	exp, _ := c.Get(ctxTokenExp).(time.Time)
	return exp
}
