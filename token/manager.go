package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Config defines token issuance parameters.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Secret   []byte
	Lifetime time.Duration
	Issuer   string
	Leeway   time.Duration
}

// Manager mints and inspects bearer credentials.
//
// Manager instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Manager struct {
	config Config
}

// Claims carries the identity bound into a minted credential.
type Claims struct {
	UID  string `json:"uid"`
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// ErrTokenInvalid is returned when a credential cannot be parsed or verified.
var ErrTokenInvalid = errors.New("invalid token")

// NewManager validates cfg and returns a [Manager].
//
// NewManager may return an error when input validation fails.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token secret required")
	}
	if cfg.Lifetime <= 0 {
		return nil, errors.New("invalid token lifetime")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	return &Manager{config: cfg}, nil
}

// Mint issues a credential for the given identity. It returns the signed
// token and its expiry instant.
func (m *Manager) Mint(uid, role string, now time.Time) (string, time.Time, error) {
	if uid == "" {
		return "", time.Time{}, errors.New("uid required")
	}

	expiresAt := now.Add(m.config.Lifetime)

	claims := Claims{
		UID:  uid,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.config.Issuer,
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(m.config.Secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// Parse verifies the credential signature and returns its claims.
//
// Parse may return an error when input validation or signature checks fail.
func (m *Manager) Parse(tokenStr string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	tok, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.config.Secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// ExpiresAt returns the expiry instant encoded into the credential. An
// unverifiable or expiry-free credential yields [ErrTokenInvalid].
func (m *Manager) ExpiresAt(tokenStr string) (time.Time, error) {
	claims, err := m.Parse(tokenStr)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrTokenInvalid
	}
	return claims.ExpiresAt.Time, nil
}

// Valid reports whether the credential verifies and is unexpired at now.
// It never attaches work to an error path: malformed means invalid.
func (m *Manager) Valid(tokenStr string, now time.Time) bool {
	if tokenStr == "" {
		return false
	}
	exp, err := m.ExpiresAt(tokenStr)
	if err != nil {
		return false
	}
	return now.Before(exp)
}
