package devserver

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned for tokens that fail verification.
var ErrInvalidToken = errors.New("invalid session token")

// Claims is the verified content of a session token.
type Claims struct {
	UserID   int64
	JTI      string
	IssuedAt time.Time
}

// Tokens issues and verifies HS256 session tokens.
type Tokens struct {
	secret []byte
	now    func() time.Time
}

// NewTokens returns a token issuer. A nil now uses time.Now.
func NewTokens(secret string, now func() time.Time) *Tokens {
	if now == nil {
		now = time.Now
	}
	return &Tokens{secret: []byte(secret), now: now}
}

// Issue creates a token for userID with a fresh jti.
func (t *Tokens) Issue(userID int64) (string, Claims, error) {
	c := Claims{UserID: userID, JTI: uuid.NewString(), IssuedAt: t.now().UTC().Truncate(time.Second)}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:  strconv.FormatInt(userID, 10),
		ID:       c.JTI,
		IssuedAt: jwt.NewNumericDate(c.IssuedAt),
	})
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", Claims{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, c, nil
}

// Parse verifies tokenString and returns its claims.
func (t *Tokens) Parse(tokenString string) (Claims, error) {
	var rc jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenString, &rc, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}
	userID, err := strconv.ParseInt(rc.Subject, 10, 64)
	if err != nil || rc.ID == "" {
		return Claims{}, ErrInvalidToken
	}
	c := Claims{UserID: userID, JTI: rc.ID}
	if rc.IssuedAt != nil {
		c.IssuedAt = rc.IssuedAt.Time
	}
	return c, nil
}
