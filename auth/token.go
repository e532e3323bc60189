package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"group-chat/domain/chat"
	"group-chat/errors"
)

const issuer = "group-chat"

// Claims is the identity carried by a token. The identity provider minting
// tokens is external, GenerateToken exists for tools and tests.
type Claims struct {
	UserID string `json:"user_id" validate:"required,max=128,excludes=:"`
	Name   string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator signs and checks HS256 tokens with a shared secret.
type Authenticator struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewAuthenticator(secret string, ttl time.Duration) *Authenticator {
	return &Authenticator{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (a *Authenticator) GenerateToken(userID chat.UserID, name string) (string, error) {
	now := a.now()
	claims := &Claims{
		UserID: string(userID),
		Name:   name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(userID),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// ValidateToken checks the signature, the algorithm, the expiration and the identity format.
func (a *Authenticator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrUnauthenticated, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: %v", errors.ErrUnauthenticated, jwt.ErrSignatureInvalid)
	}
	if err := validateClaims(claims); err != nil {
		return nil, err
	}
	return claims, nil
}
