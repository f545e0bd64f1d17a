package service

import (
	"errors"
	"time"

	"wordrush/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid session token")

// AuthService issues and validates session tokens
type AuthService struct {
	jwtSecret []byte
	now       func() time.Time
}

// NewAuthService creates a token service signing with secret
func NewAuthService(secret string) *AuthService {
	return &AuthService{
		jwtSecret: []byte(secret),
		now:       time.Now,
	}
}

// NewPlayerID returns a fresh player id
func (s *AuthService) NewPlayerID() string {
	return "p_" + uuid.New().String()[:8]
}

// IssueSessionToken creates the token for a seat. Each call yields a distinct token.
func (s *AuthService) IssueSessionToken(roomCode, playerID string) (string, error) {
	claims := &model.SessionClaims{
		RoomCode: roomCode,
		PlayerID: playerID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.New().String(),
			IssuedAt: jwt.NewNumericDate(s.now()),
			// No expiry: the seat lives as long as the room does
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateSessionToken checks a token's signature and returns its claims
func (s *AuthService) ValidateSessionToken(tokenString string) (*model.SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.SessionClaims)
	if !ok || !token.Valid || claims.RoomCode == "" || claims.PlayerID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
