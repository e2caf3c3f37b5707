// Package jwt verifica los bearer tokens del proveedor de identidad externo.
// El servicio no emite tokens de usuario: solo valida firma, iss, aud y
// vigencia, y expone el "sub" como id externo.
package jwt

import (
	"crypto"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoKey        = errors.New("jwt: no verification key configured")
	ErrInvalidToken = errors.New("jwt: invalid token")
	ErrMissingSub   = errors.New("jwt: token without sub")
)

// leeway tolera desfasajes de reloj con el proveedor.
const leeway = 30 * time.Second

type Verifier struct {
	key     any
	methods []string
	opts    []jwtv5.ParserOption
}

type Config struct {
	HMACSecret    string
	PublicKeyFile string // PEM RSA o EC
	Issuer        string
	Audience      string
}

// NewVerifier arma el verificador. Con clave pública se aceptan RS*/ES*; con
// secreto compartido, HS256.
func NewVerifier(cfg Config) (*Verifier, error) {
	v := &Verifier{}
	switch {
	case cfg.PublicKeyFile != "":
		pem, err := os.ReadFile(cfg.PublicKeyFile)
		if err != nil {
			return nil, fmt.Errorf("jwt: read public key: %w", err)
		}
		key, methods, err := parsePublicKey(pem)
		if err != nil {
			return nil, err
		}
		v.key, v.methods = key, methods
	case cfg.HMACSecret != "":
		v.key, v.methods = []byte(cfg.HMACSecret), []string{jwtv5.SigningMethodHS256.Alg()}
	default:
		return nil, ErrNoKey
	}

	v.opts = []jwtv5.ParserOption{
		jwtv5.WithValidMethods(v.methods),
		jwtv5.WithLeeway(leeway),
		jwtv5.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		v.opts = append(v.opts, jwtv5.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		v.opts = append(v.opts, jwtv5.WithAudience(cfg.Audience))
	}
	return v, nil
}

func parsePublicKey(pem []byte) (crypto.PublicKey, []string, error) {
	if k, err := jwtv5.ParseRSAPublicKeyFromPEM(pem); err == nil {
		return k, []string{"RS256", "RS384", "RS512"}, nil
	}
	if k, err := jwtv5.ParseECPublicKeyFromPEM(pem); err == nil {
		return k, []string{"ES256", "ES384", "ES512"}, nil
	}
	return nil, nil, errors.New("jwt: unsupported public key (expected RSA or EC PEM)")
}

// Subject valida el token y devuelve su "sub".
func (v *Verifier) Subject(raw string) (string, error) {
	var claims jwtv5.RegisteredClaims
	tok, err := jwtv5.ParseWithClaims(strings.TrimSpace(raw), &claims, func(*jwtv5.Token) (any, error) {
		return v.key, nil
	}, v.opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !tok.Valid {
		return "", ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", ErrMissingSub
	}
	return claims.Subject, nil
}

// SignHS256 firma un token de desarrollo con el secreto compartido.
func SignHS256(secret, sub, iss, aud string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwtv5.RegisteredClaims{
		Subject:   sub,
		Issuer:    iss,
		IssuedAt:  jwtv5.NewNumericDate(now),
		NotBefore: jwtv5.NewNumericDate(now),
		ExpiresAt: jwtv5.NewNumericDate(now.Add(ttl)),
	}
	if aud != "" {
		claims.Audience = jwtv5.ClaimStrings{aud}
	}
	return jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString([]byte(secret))
}
