package session

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"bizdesk-service/internal/model"
)

// Signer produces and verifies the HS256 cookie value for a session. The
// token id carries the session token and the subject the user id.
type Signer struct {
	key []byte
	now func() time.Time
}

func NewSigner(secret string) *Signer {
	return &Signer{key: []byte(secret), now: time.Now}
}

// Sign returns the cookie value for sess.
func (s *Signer) Sign(sess *model.Session) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        sess.Token,
		Subject:   strconv.FormatUint(uint64(sess.UserID), 10),
		ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		IssuedAt:  jwt.NewNumericDate(s.now()),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
}

// Verify checks the signature and expiry of value and returns the session
// token and user id it names.
func (s *Signer) Verify(value string) (string, uint, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(value, &claims,
		func(token *jwt.Token) (interface{}, error) {
			return s.key, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", 0, err
	}
	if !token.Valid || claims.ID == "" {
		return "", 0, errors.New("invalid session token")
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid session subject: %w", err)
	}
	return claims.ID, uint(userID), nil
}
