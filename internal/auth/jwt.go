package auth

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// --- Context Keys ---

// contextKey is a custom type used for context keys to avoid collisions.
type contextKey string

const (
	UserEmailKey contextKey = "userEmail"
)

// ErrMissingSubject is returned for a valid token without a user email.
var ErrMissingSubject = errors.New("token has no user email")

// --- JWT Claims ---

// CustomClaims includes standard JWT claims plus the caller's email.
type CustomClaims struct {
	UserEmail string `json:"email"`
	jwt.RegisteredClaims
}

// NewAccessToken generates a new JWT access token.
func NewAccessToken(userEmail string, jwtSecret string, expiration time.Duration) (string, error) {
	now := time.Now()
	claims := CustomClaims{
		UserEmail: userEmail,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "coursechat-backend",
			Subject:   userEmail,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(jwtSecret))
	if err != nil {
		log.Printf("Error signing JWT token for %s: %v", userEmail, err)
		return "", err
	}
	return signedToken, nil
}

// ParseToken validates an HMAC-signed token and returns its claims.
// jwt sentinel errors (jwt.ErrTokenExpired, jwt.ErrTokenMalformed) are kept
// in the chain.
func ParseToken(tokenString string, jwtSecret string) (*CustomClaims, error) {
	claims := &CustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	if claims.UserEmail == "" {
		return nil, ErrMissingSubject
	}
	return claims, nil
}
