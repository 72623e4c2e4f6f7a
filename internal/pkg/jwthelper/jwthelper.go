package jwthelper

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// ScopeManageRounds must be present on machine tokens for round operations.
	ScopeManageRounds = "rounds:manage"

	DefaultUserTokenTTL    = 24 * time.Hour
	DefaultMachineTokenTTL = time.Hour
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
	ErrMissingScope = errors.New("token lacks required scope")
)

// Identity is what the identity provider asserts about the caller.
type Identity struct {
	OwnerID string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
}

type UserClaims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

type MachineClaims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

func GenerateToken(key []byte, identity Identity, ttl time.Duration) (string, error) {
	if identity.OwnerID == "" {
		return "", errors.New("identity has no subject")
	}
	if ttl <= 0 {
		ttl = DefaultUserTokenTTL
	}

	now := time.Now()
	claims := UserClaims{
		Email: identity.Email,
		Name:  identity.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.OwnerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("token.SignedString -> %w", err)
	}

	return token, nil
}

func ParseUserToken(key []byte, tokenString string) (Identity, error) {
	var claims UserClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, keyFunc(key),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return Identity{}, fmt.Errorf("%w: empty subject", ErrInvalidToken)
	}
	if strings.ContainsRune(claims.Subject, 0) {
		return Identity{}, fmt.Errorf("%w: subject contains NUL", ErrInvalidToken)
	}

	return Identity{
		OwnerID: claims.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
	}, nil
}

// GenerateMachineToken issues a client-credentials style token for operator
// jobs such as the draw scheduler.
func GenerateMachineToken(key []byte, clientID, audience string, scopes []string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultMachineTokenTTL
	}

	now := time.Now()
	claims := MachineClaims{
		Scope: strings.Join(scopes, " "),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   clientID,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("token.SignedString -> %w", err)
	}

	return token, nil
}

// ParseMachineToken verifies signature, expiry and audience, then checks that
// scope is granted. It returns the client id.
func ParseMachineToken(key []byte, tokenString, audience, scope string) (string, error) {
	var claims MachineClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, keyFunc(key),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if !slices.Contains(strings.Fields(claims.Scope), scope) {
		return "", ErrMissingScope
	}

	return claims.Subject, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}

	return strings.TrimSpace(token), nil
}

func keyFunc(key []byte) jwt.Keyfunc {
	return func(*jwt.Token) (interface{}, error) {
		return key, nil
	}
}
