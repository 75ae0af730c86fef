package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidSender is returned when a token is requested for a blank sender.
	ErrInvalidSender = errors.New("invalid sender")
	// ErrInvalidToken is returned for tokens that fail validation.
	ErrInvalidToken = errors.New("invalid token")
)

// Service issues and checks session tokens. Senders are free-form labels,
// so there is no account lookup behind a token.
type Service struct {
	jwtConfig *JWTConfig
	now       func() time.Time
}

// NewService creates a new authentication service.
func NewService(jwtConfig *JWTConfig) *Service {
	return &Service{
		jwtConfig: jwtConfig,
		now:       time.Now,
	}
}

// IssueToken returns a signed token naming sender as the current user.
func (s *Service) IssueToken(sender string) (string, error) {
	sender = strings.TrimSpace(sender)
	if sender == "" {
		return "", ErrInvalidSender
	}

	token, err := GenerateToken(s.jwtConfig, sender, s.now())
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}

// ValidateToken validates a JWT token and returns the claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	claims, err := ValidateToken(s.jwtConfig, tokenString)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if strings.TrimSpace(claims.Sender) == "" {
		return nil, fmt.Errorf("%w: missing sender", ErrInvalidToken)
	}
	return claims, nil
}
