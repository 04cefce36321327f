// Package auth issues and verifies player tickets. A ticket is a short-lived
// JWT binding an anonymous user id to its display name, so poll and move
// requests can't be replayed for another player.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var ErrInvalidTicket = errors.New("auth: invalid ticket")

// TicketIssuer signs and verifies player tickets with a shared HS256 secret.
type TicketIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTicketIssuer(secret string, ttl time.Duration) *TicketIssuer {
	return &TicketIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue signs a ticket for userID.
func (t *TicketIssuer) Issue(userID, displayName string) (string, error) {
	exp := time.Now().Add(t.ttl)
	claims := jwt.MapClaims{
		"user_id":      userID,
		"display_name": displayName,
		"exp":          exp.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign ticket: %w", err)
	}
	return signed, nil
}

// Verify parses a ticket and returns the user id and display name it binds.
func (t *TicketIssuer) Verify(ticket string) (userID, displayName string, err error) {
	parsed, err := jwt.Parse(ticket, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return t.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", "", ErrInvalidTicket
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", ErrInvalidTicket
	}
	userID, _ = claims["user_id"].(string)
	displayName, _ = claims["display_name"].(string)
	if userID == "" {
		return "", "", ErrInvalidTicket
	}
	return userID, displayName, nil
}
