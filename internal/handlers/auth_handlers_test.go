package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Louis-Gabriel-TM/stores-api/internal/hash"
	"github.com/Louis-Gabriel-TM/stores-api/internal/models"
	"github.com/Louis-Gabriel-TM/stores-api/internal/tokens"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	payload := map[string]string{"username": "alice", "password": "secret"}

	rec := env.do("POST", "/register", payload, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "User created successfully.", decode(t, rec)["message"])

	var user models.User
	require.NoError(t, env.db.Where("username = ?", "alice").First(&user).Error)
	require.Equal(t, "user", user.Role)
	require.NotEqual(t, "secret", user.PasswordHash)
	require.True(t, hash.CheckPassword(user.PasswordHash, "secret"))

	rec = env.do("POST", "/register", payload, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "A user with that username already exists.", decode(t, rec)["message"])
}

func TestRegisterValidatesFields(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do("POST", "/register", map[string]string{"username": "alice"}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	fields := decode(t, rec)["message"].(map[string]interface{})
	require.Contains(t, fields, "password")
	require.NotContains(t, fields, "username")
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("alice", "secret", "user")

	wrongPassword := env.do("POST", "/login", map[string]string{"username": "alice", "password": "nope"}, "")
	unknownUser := env.do("POST", "/login", map[string]string{"username": "bob", "password": "nope"}, "")

	require.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	require.Equal(t, http.StatusUnauthorized, unknownUser.Code)
	require.Equal(t, wrongPassword.Body.String(), unknownUser.Body.String())
	require.Equal(t, "Invalid credentials!", decode(t, wrongPassword)["message"])
}

func TestLoginIssuesFreshAccessAndRefreshTokens(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("alice", "secret", "user")

	access, refresh := env.login("alice", "secret")

	accessClaims, err := tokens.AccessClaimsFromToken(access, env.jwtSecret)
	require.NoError(t, err)
	require.True(t, accessClaims.Fresh)
	require.False(t, accessClaims.IsAdmin)
	require.NotEmpty(t, accessClaims.ID)
	id, err := accessClaims.UserID()
	require.NoError(t, err)
	require.Equal(t, user.ID, id)

	refreshClaims, err := tokens.RefreshClaimsFromToken(refresh, env.refreshSecret)
	require.NoError(t, err)
	require.Equal(t, tokens.RefreshType, refreshClaims.TokenType)
	require.NotEqual(t, accessClaims.ID, refreshClaims.ID)
}

func TestLoginEmbedsAdminClaim(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("root", "secret", "admin")

	access, _ := env.login("root", "secret")
	accessClaims, err := tokens.AccessClaimsFromToken(access, env.jwtSecret)
	require.NoError(t, err)
	require.True(t, accessClaims.IsAdmin)
}

func TestLogoutRevokesToken(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("alice", "secret", "user")
	access, _ := env.login("alice", "secret")

	rec := env.do("POST", "/logout", nil, access)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, decode(t, rec)["message"], "User <id=")
	require.Contains(t, decode(t, rec)["message"].(string), "successfully logged out.")

	claims, err := tokens.AccessClaimsFromToken(access, env.jwtSecret)
	require.NoError(t, err)
	require.True(t, env.registry.IsRevoked(claims.ID))
	_ = user

	// Same unexpired token is now rejected everywhere.
	rec = env.do("POST", "/logout", nil, access)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decode(t, rec)
	require.Equal(t, "token_revoked", body["error"])
	require.Equal(t, "The token has been revoked.", body["description"])
}

func TestRefreshIssuesNonFreshToken(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("alice", "secret", "user")
	_, refresh := env.login("alice", "secret")

	rec := env.do("POST", "/refresh", nil, refresh)
	require.Equal(t, http.StatusOK, rec.Code)

	newAccess := decode(t, rec)["access_token"].(string)
	claims, err := tokens.AccessClaimsFromToken(newAccess, env.jwtSecret)
	require.NoError(t, err)
	require.False(t, claims.Fresh)
	id, err := claims.UserID()
	require.NoError(t, err)
	require.Equal(t, user.ID, id)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("alice", "secret", "user")
	access, _ := env.login("alice", "secret")

	rec := env.do("POST", "/refresh", nil, access)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "invalid_token", decode(t, rec)["error"])
}

func TestRefreshRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do("POST", "/refresh", nil, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "authorization_required", decode(t, rec)["error"])
}

func TestRefreshRejectsRevokedRefreshToken(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("alice", "secret", "user")
	_, refresh := env.login("alice", "secret")

	claims, err := tokens.RefreshClaimsFromToken(refresh, env.refreshSecret)
	require.NoError(t, err)
	env.registry.Revoke(claims.ID, claims.ExpiresAt.Time)

	rec := env.do("POST", "/refresh", nil, refresh)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "token_revoked", decode(t, rec)["error"])
}

func TestDebugUserResource(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("alice", "secret", "user")

	rec := env.do("GET", "/user/1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	require.Equal(t, "alice", body["username"])
	require.NotContains(t, rec.Body.String(), user.PasswordHash)

	rec = env.do("DELETE", "/user/1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "User deleted.", decode(t, rec)["message"])

	rec = env.do("GET", "/user/1", nil, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "User not found.", decode(t, rec)["message"])
}
