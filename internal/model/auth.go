package model

import "github.com/golang-jwt/jwt/v5"

// SessionClaims are the JWT claims inside a session token. The token is a
// bearer credential for one seat in one room; it carries no expiry.
type SessionClaims struct {
	RoomCode string `json:"roomCode"`
	PlayerID string `json:"playerId"`
	jwt.RegisteredClaims
}
