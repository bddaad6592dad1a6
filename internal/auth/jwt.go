package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/lalith-99/tunevault/internal/identity"
)

// Claims is the payload inside every JWT token.
//
// The token is the whole session: tenant, username, role, and tier travel in
// it, so the middleware can rebuild the acting identity on every request
// without a database read. Tier is the one field that can go stale — the
// upgrade endpoint issues a fresh token on success for exactly that reason.
type Claims struct {
	TenantID uuid.UUID `json:"tenant_id"`
	Username string    `json:"username"`
	Role     string    `json:"role"`
	Tier     string    `json:"tier"`
	jwt.RegisteredClaims
}

// GenerateToken creates a signed JWT for the given identity.
//
// Why HS256 (HMAC-SHA256)?
//   - Simple: one shared secret, no public/private key pair needed.
//   - Fine for a single-service backend; a multi-service split would move
//     to RS256 so only the auth service holds the signing key.
func GenerateToken(id identity.Identity, secret string, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := Claims{
		TenantID: id.TenantID,
		Username: id.Username,
		Role:     string(id.Role),
		Tier:     string(id.Tier),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "tunevault",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a JWT string and rebuilds the identity it carries.
//
// It verifies the signature, the expiry, and that the signing method is HMAC
// (rejecting "none"/RSA tokens — the classic algorithm-confusion attack).
// The role and tier strings are re-validated against the closed sets: a
// token minted with a bogus role never becomes an Identity.
func ParseToken(tokenString, secret string) (identity.Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		},
	)
	if err != nil {
		return identity.Identity{}, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return identity.Identity{}, fmt.Errorf("invalid token claims")
	}

	role, ok := identity.ParseRole(claims.Role)
	if !ok {
		return identity.Identity{}, fmt.Errorf("unknown role %q in token", claims.Role)
	}
	tier, ok := identity.ParseTier(claims.Tier)
	if !ok {
		return identity.Identity{}, fmt.Errorf("unknown tier %q in token", claims.Tier)
	}

	return identity.Identity{
		TenantID: claims.TenantID,
		Username: claims.Username,
		Role:     role,
		Tier:     tier,
	}, nil
}
