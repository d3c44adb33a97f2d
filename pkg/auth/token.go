package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tillworks/tillpoint-backend/pkg/config"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// TerminalClaims identifies the POS terminal driving a request. Tokens
// are minted by the central auth service; this API only verifies them.
type TerminalClaims struct {
	TerminalID uuid.UUID `json:"terminal_id"`
	Cashier    string    `json:"cashier,omitempty"`
	jwt.RegisteredClaims
}

// ParseTerminalToken validates the JWT string and returns typed claims.
func ParseTerminalToken(cfg config.JWTConfig, tokenString string) (*TerminalClaims, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	claims := &TerminalClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
	)
	if err != nil {
		return nil, err
	}

	if claims.TerminalID == uuid.Nil {
		return nil, fmt.Errorf("token missing terminal id")
	}

	return claims, nil
}

// MintTerminalToken issues a signed terminal JWT. Used by dev tooling
// and tests; production tokens come from the central auth service.
func MintTerminalToken(cfg config.JWTConfig, now time.Time, terminalID uuid.UUID, cashier string, ttl time.Duration) (string, error) {
	if cfg.Secret == "" {
		return "", fmt.Errorf("jwt secret is required")
	}
	if cfg.Issuer == "" {
		return "", fmt.Errorf("jwt issuer is required")
	}
	if terminalID == uuid.Nil {
		return "", fmt.Errorf("terminal id is required")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}

	claims := TerminalClaims{
		TerminalID: terminalID,
		Cashier:    cashier,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwtSigningMethod, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}
