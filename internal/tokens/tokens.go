package tokens

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const RefreshType = "refresh"

var ErrNotRefreshToken = errors.New("not a refresh token")

// AccessClaims is the payload of an access token. Fresh marks tokens
// minted directly from a password login; tokens minted via /refresh
// never carry it.
type AccessClaims struct {
	IsAdmin bool `json:"is_admin"`
	Fresh   bool `json:"fresh"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

func NewJTI() string { return uuid.NewString() }

func (c *AccessClaims) UserID() (uint, error)  { return parseSubject(c.Subject) }
func (c *RefreshClaims) UserID() (uint, error) { return parseSubject(c.Subject) }

func parseSubject(sub string) (uint, error) {
	id, err := strconv.ParseUint(sub, 10, 64)
	if err != nil {
		return 0, errors.New("invalid subject claim")
	}
	return uint(id), nil
}

func SignAccessToken(userID uint, isAdmin, fresh bool, ttl time.Duration, secret []byte) (string, *AccessClaims, error) {
	claims := &AccessClaims{
		IsAdmin: isAdmin,
		Fresh:   fresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			ID:        NewJTI(),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", nil, err
	}
	return token, claims, nil
}

func SignRefreshToken(userID uint, ttl time.Duration, secret []byte) (string, *RefreshClaims, error) {
	claims := &RefreshClaims{
		TokenType: RefreshType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			ID:        NewJTI(),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", nil, err
	}
	return token, claims, nil
}

func AccessClaimsFromToken(tokenStr string, secret []byte) (*AccessClaims, error) {
	var claims AccessClaims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return &claims, nil
}

func RefreshClaimsFromToken(tokenStr string, secret []byte) (*RefreshClaims, error) {
	var claims RefreshClaims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	if claims.TokenType != RefreshType {
		return nil, ErrNotRefreshToken
	}
	return &claims, nil
}
