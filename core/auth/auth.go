package auth

import (
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// CookieName carries the admin token, same name as the original site.
const CookieName = "mashrabu_admin"

// TokenTTL bounds the lifetime of an admin session.
const TokenTTL = 24 * time.Hour

// Claims is the admin token payload. There is one shared admin identity, so
// the only claim of interest is the role.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// HashPassword generates a bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// CheckPasswordHash compares a password with a bcrypt hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// VerifyAdminSecret checks the submitted password against the configured
// admin secret. A bcrypt hash is preferred; the plain comparison exists for
// parity with deployments that only set ADMIN_PASSWORD.
func VerifyAdminSecret(password, plain, hash string) bool {
	if hash != "" {
		return CheckPasswordHash(password, hash)
	}
	if plain == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(plain)) == 1
}

// IssueAdminToken creates a signed HS256 admin token.
func IssueAdminToken(secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   "admin",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseAdminToken validates a token string and checks the admin role.
func ParseAdminToken(secret []byte, token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.Role != "admin" {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return claims, nil
}
