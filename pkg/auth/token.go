package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/shelfwise/shelfwise/pkg/catalog"
)

// DefaultTokenTTL is used when the issuer is constructed with a zero ttl.
const DefaultTokenTTL = 24 * time.Hour

// Identity is what a verified token proves about the caller.
type Identity struct {
	UserID uuid.UUID
	Role   catalog.Role
}

type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies session tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer signing with the given secret.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for the given identity.
func (ti *TokenIssuer) Issue(id Identity) (string, error) {
	now := ti.now()
	claims := sessionClaims{
		Role: string(id.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ti.secret)
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return signed, nil
}

// Decode verifies a token and extracts the caller identity. Any failure,
// bad signature, expiry, malformed claims, maps to catalog.ErrUnauthorized
// so handlers answer 401 without inspecting the cause.
func (ti *TokenIssuer) Decode(raw string) (Identity, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Header["alg"])
		}
		return ti.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(ti.now))
	if err != nil {
		return Identity{}, catalog.Unauthorizedf("invalid session token: %v", err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Identity{}, catalog.Unauthorizedf("invalid session subject")
	}
	role := catalog.Role(claims.Role)
	if !role.Valid() {
		return Identity{}, catalog.Unauthorizedf("invalid session role")
	}
	return Identity{UserID: userID, Role: role}, nil
}
