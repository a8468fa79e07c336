package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// TokenManager issues and validates ticket access tokens. The token is
// the opaque credential a reporter uses to look up their own ticket
// anonymously; there are no user accounts.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttlMonths int) *TokenManager {
	if ttlMonths <= 0 {
		ttlMonths = 12
	}
	return &TokenManager{secret: []byte(secret), ttl: time.Duration(ttlMonths) * 30 * 24 * time.Hour}
}

// Claims describes the access token payload.
type Claims struct {
	TicketID string `json:"ticket_id"`
	jwt.RegisteredClaims
}

// IssueTicketToken signs an access token for the given ticket.
func (tm *TokenManager) IssueTicketToken(ticketID string) (string, error) {
	now := time.Now()
	claims := &Claims{
		TicketID: ticketID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   ticketID,
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secret)
}

// TicketIDFromToken validates a token and returns the ticket id it grants.
func (tm *TokenManager) TicketIDFromToken(tokenStr string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.TicketID == "" {
		return "", errors.New("invalid token claims")
	}
	return claims.TicketID, nil
}
