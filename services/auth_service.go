package services

import (
	"fmt"

	"pair-chat/auth"
	"pair-chat/errors"
)

type IAuthService interface {
	Login(password string) (Token, error)
}

// AuthService authenticates the single admin account of the reporting surface.
type AuthService struct {
	passwordHash string
	issuer       *auth.TokenIssuer
}

type Token string

func (t Token) String() string {
	return string(t)
}

func NewAuthService(passwordHash string, issuer *auth.TokenIssuer) IAuthService {
	return &AuthService{passwordHash: passwordHash, issuer: issuer}
}

func (s *AuthService) Login(password string) (Token, error) {
	if err := auth.ValidateLogin(auth.LoginRequest{Password: password}); err != nil {
		return "", err
	}
	if s.passwordHash == "" {
		// Admin surface disabled.
		return "", errors.ErrUnauthorized
	}

	match, err := auth.ComparePassword(password, s.passwordHash)
	if err != nil {
		return "", fmt.Errorf("admin password hash: %w", err)
	}
	if !match {
		return "", errors.ErrInvalidCredentials
	}

	token, err := s.issuer.GenerateToken(auth.RoleAdmin, []string{auth.RoleAdmin})
	if err != nil {
		return "", fmt.Errorf("token generation failed: %w", err)
	}
	return Token(token), nil
}
