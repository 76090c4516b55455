package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "pair-chat"

// CustomClaims is the payload of an admin token.
type CustomClaims struct {
	Subject string   `json:"sub_id"`
	Roles   []string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and checks admin tokens with a single HMAC key.
type TokenIssuer struct {
	key      []byte
	duration time.Duration
	clock    func() time.Time
}

func NewTokenIssuer(secret string, duration time.Duration) *TokenIssuer {
	return &TokenIssuer{key: []byte(secret), duration: duration, clock: time.Now}
}

// GenerateToken creates a signed HS256 token valid for the issuer's duration.
func (i *TokenIssuer) GenerateToken(subject string, roles []string) (string, error) {
	now := i.clock()
	claims := &CustomClaims{
		Subject: subject,
		Roles:   roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(i.duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
}

// ValidateToken checks signature, algorithm, issuer and expiration.
func (i *TokenIssuer) ValidateToken(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return i.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
	)
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*CustomClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrSignatureInvalid
}
