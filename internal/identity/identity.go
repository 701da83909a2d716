// Package identity turns bearer tokens into application principals.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/example/conference-central/internal/application"
)

// ErrInvalidToken is returned for tokens that fail parsing, signature or
// claim validation.
var ErrInvalidToken = errors.New("identity: invalid token")

// Claims carried by a conference API token. The user id is read from
// user_id and falls back to the registered subject.
type Claims struct {
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Verifier validates HS256 tokens signed with a shared secret.
type Verifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewVerifier creates a verifier. When issuer is non-empty the iss claim must
// match it.
func NewVerifier(secret, issuer string) (*Verifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("identity: empty signing secret")
	}
	return &Verifier{secret: []byte(secret), issuer: issuer, now: time.Now}, nil
}

// ValidateToken parses token and returns the principal it names.
func (v *Verifier) ValidateToken(ctx context.Context, token string) (application.Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		return application.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return application.Principal{}, ErrInvalidToken
	}

	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if strings.TrimSpace(userID) == "" {
		return application.Principal{}, fmt.Errorf("%w: no user id", ErrInvalidToken)
	}

	return application.Principal{
		UserID:   userID,
		Email:    claims.Email,
		Nickname: nickname(claims),
	}, nil
}

// Issue signs a token for the given identity, valid for ttl.
func (v *Verifier) Issue(userID, email, name string, ttl time.Duration) (string, error) {
	now := v.now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		Name:   name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

func nickname(claims *Claims) string {
	if name := strings.TrimSpace(claims.Name); name != "" {
		return name
	}
	if local, _, ok := strings.Cut(claims.Email, "@"); ok && local != "" {
		return local
	}
	return claims.Email
}
