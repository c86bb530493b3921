// Package peerauth issues and verifies the bearer tokens a peer
// attaches to sub-query, recur-query, and iter-n-query requests, so a
// peer accepting one of those requests can confirm which peer is
// asking to open a plan against its graph before running it. The
// claims shrink to a single peer_url identity assertion, and tokens
// are minted fresh for every outbound request rather than issued once
// at login.
package peerauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrShortSecret means the signing secret is too short to resist
// brute force.
var ErrShortSecret = errors.New("peerauth: secret must be at least 32 characters")

// ErrInvalidToken means a token failed to parse, verify, or is
// missing its peer_url claim.
var ErrInvalidToken = errors.New("peerauth: invalid token")

// TokenTTL is how long a peer-to-peer request token stays valid — long
// enough to cover one RPC's round trip (including a sub-query's
// asynchronous push/pull leg), short enough that a captured token is
// useless soon after.
const TokenTTL = 30 * time.Second

// Manager issues and verifies HMAC-signed tokens asserting a peer's
// own URL as its identity. Every peer that should trust another's
// requests shares the same secret out of band (a config value, not
// something negotiated over the wire).
type Manager struct {
	secret []byte
}

// NewManager returns a Manager keyed by secret.
func NewManager(secret string) (*Manager, error) {
	if len(secret) < 32 {
		return nil, ErrShortSecret
	}
	return &Manager{secret: []byte(secret)}, nil
}

type peerClaims struct {
	PeerURL string `json:"peer_url"`
	jwt.RegisteredClaims
}

// Issue returns a signed token asserting selfURL as the caller's
// identity, valid for TokenTTL.
func (m *Manager) Issue(selfURL string) (string, error) {
	now := time.Now()
	return m.sign(peerClaims{
		PeerURL: selfURL,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	})
}

func (m *Manager) sign(claims peerClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify checks tokenString's signature and expiry and returns the
// peer URL it asserts.
func (m *Manager) Verify(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrInvalidToken
	}

	var claims peerClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("peerauth: unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.PeerURL == "" {
		return "", ErrInvalidToken
	}
	return claims.PeerURL, nil
}
