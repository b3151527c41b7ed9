package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the caller as seen by handlers.
type Identity struct {
	UserID string
	Role   string
}

// Verifier turns a raw bearer token into an Identity.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (*Identity, error)
}

type metadata struct {
	Role string `json:"role"`
}

// Claims are the token claims issued by the hosted auth backend. The role is
// read from app_metadata only; user_metadata is writable by the user.
type Claims struct {
	jwt.RegisteredClaims
	AppMetadata metadata `json:"app_metadata"`
}

func (c *Claims) Identity() (*Identity, error) {
	if c.Subject == "" {
		return nil, errors.New("subject claim not found in token")
	}
	role := c.AppMetadata.Role
	if role == "" {
		role = RoleUser
	}
	return &Identity{UserID: c.Subject, Role: strings.ToLower(strings.TrimSpace(role))}, nil
}

// ExtractTokenFromRequest extracts a JWT token from an HTTP request's Authorization header
func ExtractTokenFromRequest(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("authorization header is missing")
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("authorization header format must be 'Bearer {token}'")
	}
	return parts[1], nil
}

// HS256Verifier checks tokens signed with the backend's shared JWT secret.
type HS256Verifier struct {
	secret   []byte
	audience string
}

func NewHS256Verifier(secret, audience string) *HS256Verifier {
	return &HS256Verifier{secret: []byte(secret), audience: audience}
}

func (v *HS256Verifier) Verify(_ context.Context, rawToken string) (*Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(rawToken, &claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return claims.Identity()
}
