// Package session issues and verifies signed browser session tokens.
//
// Tokens are Ed25519-signed JWTs carried in a cookie. Claims are a routing
// hint only; every privileged operation re-reads the member record before
// acting.
package session

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/harlowe/wholesail/internal/platform/config"
	apperrors "github.com/harlowe/wholesail/internal/platform/errors"
)

// CookieName is the browser cookie carrying the session token.
const CookieName = "ws_session"

const defaultTTL = 12 * time.Hour

// ErrInvalidToken indicates a session token that failed verification.
var ErrInvalidToken = apperrors.New(apperrors.CodeAuthzSessionInvalid, "session token is not valid")

// Claims is the payload carried inside a session token.
type Claims struct {
	MemberID string `json:"member_id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type envConfig struct {
	Issuer     string        `env:"WHOLESAIL_SESSION_ISSUER" envDefault:"wholesail"`
	Audience   string        `env:"WHOLESAIL_SESSION_AUDIENCE" envDefault:"wholesail-web"`
	TTL        time.Duration `env:"WHOLESAIL_SESSION_TTL"`
	PrivateKey string        `env:"WHOLESAIL_SESSION_PRIVATE_KEY"`
	PublicKey  string        `env:"WHOLESAIL_SESSION_PUBLIC_KEY"`
}

// Config holds the signing material and token parameters.
type Config struct {
	Issuer     string
	Audience   string
	TTL        time.Duration
	PrivateKey ed25519.PrivateKey
	PublicKey  ed25519.PublicKey
}

// LoadConfigFromEnv reads signing keys and token parameters from the
// environment. Keys are base64 raw-std-encoded Ed25519 seeds and public keys.
func LoadConfigFromEnv() (Config, error) {
	var raw envConfig
	if err := config.ParseEnv(&raw); err != nil {
		return Config{}, fmt.Errorf("parse session env: %w", err)
	}
	if raw.PrivateKey == "" || raw.PublicKey == "" {
		return Config{}, errors.New("session signing keys are required")
	}

	seed, err := base64.StdEncoding.DecodeString(raw.PrivateKey)
	if err != nil {
		return Config{}, fmt.Errorf("decode private key: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return Config{}, fmt.Errorf("private key must be a %d-byte seed", ed25519.SeedSize)
	}
	publicKey, err := base64.StdEncoding.DecodeString(raw.PublicKey)
	if err != nil {
		return Config{}, fmt.Errorf("decode public key: %w", err)
	}
	if len(publicKey) != ed25519.PublicKeySize {
		return Config{}, fmt.Errorf("public key must be %d bytes", ed25519.PublicKeySize)
	}

	ttl := raw.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return Config{
		Issuer:     raw.Issuer,
		Audience:   raw.Audience,
		TTL:        ttl,
		PrivateKey: ed25519.NewKeyFromSeed(seed),
		PublicKey:  ed25519.PublicKey(publicKey),
	}, nil
}

// NewConfigForTest generates a throwaway keypair for tests.
func NewConfigForTest() (Config, error) {
	publicKey, privateKey, err := ed25519.GenerateKey(nil)
	if err != nil {
		return Config{}, fmt.Errorf("generate keypair: %w", err)
	}
	return Config{
		Issuer:     "wholesail-test",
		Audience:   "wholesail-web",
		TTL:        time.Hour,
		PrivateKey: privateKey,
		PublicKey:  publicKey,
	}, nil
}

// Manager signs and verifies session tokens.
type Manager struct {
	config Config
	clock  func() time.Time
}

// NewManager builds a session manager.
func NewManager(config Config) *Manager {
	return NewManagerForTest(config, nil)
}

// NewManagerForTest builds a session manager with an injectable clock.
func NewManagerForTest(config Config, clock func() time.Time) *Manager {
	if clock == nil {
		clock = time.Now
	}
	return &Manager{config: config, clock: clock}
}

// Issue signs a session token for one authenticated member.
func (m *Manager) Issue(memberID, email, role string) (string, error) {
	if m == nil || len(m.config.PrivateKey) == 0 {
		return "", errors.New("session manager is not configured")
	}
	now := m.clock().UTC()
	claims := Claims{
		MemberID: memberID,
		Email:    email,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			Audience:  jwt.ClaimStrings{m.config.Audience},
			Subject:   memberID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.TTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	signed, err := token.SignedString(m.config.PrivateKey)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a session token.
func (m *Manager) Verify(tokenString string) (Claims, error) {
	if m == nil || len(m.config.PublicKey) == 0 {
		return Claims{}, errors.New("session manager is not configured")
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", token.Method.Alg())
		}
		return m.config.PublicKey, nil
	},
		jwt.WithIssuer(m.config.Issuer),
		jwt.WithAudience(m.config.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return m.clock().UTC() }),
	)
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}
	if claims.MemberID == "" {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}
