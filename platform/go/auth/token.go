package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tourbase-hq/reservations/platform/go/role"
)

// TokenIssuer mints and verifies HS256 session tokens. Establishing a session
// means handing the client a signed token; terminating it is client-side.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer builds a TokenIssuer; ttl defaults to 24h when non-positive.
func NewTokenIssuer(secret string, ttl time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("token secret is required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}, nil
}

// Issue signs a session token carrying the principal's identity claims.
func (t *TokenIssuer) Issue(p Principal) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   p.UserID.String(),
		"email": p.Email,
		"role":  int(p.Role),
		"iat":   now.Unix(),
		"exp":   now.Add(t.ttl).Unix(),
	}
	if p.CompanyID != nil {
		claims["company_id"] = p.CompanyID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verifier returns a VerifyFunc backed by this issuer's secret.
func (t *TokenIssuer) Verifier() VerifyFunc {
	return func(ctx context.Context, tokenString string) (*Principal, error) {
		claims := jwt.MapClaims{}
		parsed, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return t.secret, nil
		})
		if err != nil || !parsed.Valid {
			return nil, errors.New("invalid token")
		}

		return principalFromClaims(claims)
	}
}

func principalFromClaims(claims jwt.MapClaims) (*Principal, error) {
	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, fmt.Errorf("invalid subject claim: %w", err)
	}

	roleClaim, ok := claims["role"].(float64)
	if !ok {
		return nil, errors.New("missing role claim")
	}
	r, err := role.FromID(int(roleClaim))
	if err != nil {
		return nil, err
	}

	principal := &Principal{UserID: userID, Role: r}
	if email, ok := claims["email"].(string); ok {
		principal.Email = email
	}
	if companyClaim, ok := claims["company_id"].(string); ok && companyClaim != "" {
		companyID, err := uuid.Parse(companyClaim)
		if err != nil {
			return nil, fmt.Errorf("invalid company claim: %w", err)
		}
		principal.CompanyID = &companyID
	}

	return principal, nil
}
