package auth

import (
	"errors"
	"fmt"
	"time"

	"remittance-service/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("authorization token required")
)

// Identity is the caller a request acts for.
type Identity struct {
	UserID string
	Class  domain.UserClass
}

// Claims carries the subject and the user class used to pick a daily limit.
type Claims struct {
	UserClass string `json:"user_class"`
	jwt.RegisteredClaims
}

// JWTAuthenticator verifies HS256 tokens issued by the account service.
type JWTAuthenticator struct {
	secretKey []byte
	parser    *jwt.Parser
}

func NewJWTAuthenticator(secretKey string) *JWTAuthenticator {
	return &JWTAuthenticator{
		secretKey: []byte(secretKey),
		parser:    jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}
}

func (a *JWTAuthenticator) Authenticate(tokenString string) (Identity, error) {
	if tokenString == "" {
		return Identity{}, ErrMissingToken
	}
	claims := &Claims{}
	token, err := a.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return a.secretKey, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return Identity{}, ErrInvalidToken
	}
	// unknown classes pass through; settlement reports the missing limit
	return Identity{UserID: claims.Subject, Class: domain.UserClass(claims.UserClass)}, nil
}

// Issue signs a token for id. Used by local tooling and tests.
func (a *JWTAuthenticator) Issue(id Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserClass: string(id.Class),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
