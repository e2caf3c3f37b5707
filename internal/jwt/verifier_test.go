package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestHMAC_RoundTrip(t *testing.T) {
	v, err := NewVerifier(Config{HMACSecret: "s3cr3t", Issuer: "https://idp", Audience: "pdfsummary"})
	require.NoError(t, err)

	tok, err := SignHS256("s3cr3t", "user_2abc", "https://idp", "pdfsummary", time.Minute)
	require.NoError(t, err)

	sub, err := v.Subject(tok)
	require.NoError(t, err)
	require.Equal(t, "user_2abc", sub)
}

func TestHMAC_Rejects(t *testing.T) {
	v, err := NewVerifier(Config{HMACSecret: "s3cr3t", Issuer: "https://idp"})
	require.NoError(t, err)

	wrongKey, _ := SignHS256("other", "u", "https://idp", "", time.Minute)
	_, err = v.Subject(wrongKey)
	require.ErrorIs(t, err, ErrInvalidToken)

	wrongIss, _ := SignHS256("s3cr3t", "u", "https://evil", "", time.Minute)
	_, err = v.Subject(wrongIss)
	require.ErrorIs(t, err, ErrInvalidToken)

	expired, _ := SignHS256("s3cr3t", "u", "https://idp", "", -time.Hour)
	_, err = v.Subject(expired)
	require.ErrorIs(t, err, ErrInvalidToken)

	noSub, _ := SignHS256("s3cr3t", "", "https://idp", "", time.Minute)
	_, err = v.Subject(noSub)
	require.ErrorIs(t, err, ErrMissingSub)

	_, err = v.Subject("garbage")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRSA_PublicKeyFile(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)
	p := filepath.Join(t.TempDir(), "pub.pem")
	require.NoError(t, os.WriteFile(p, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), 0o600))

	v, err := NewVerifier(Config{PublicKeyFile: p})
	require.NoError(t, err)

	tok, err := jwtv5.NewWithClaims(jwtv5.SigningMethodRS256, jwtv5.RegisteredClaims{
		Subject:   "user_rsa",
		ExpiresAt: jwtv5.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString(priv)
	require.NoError(t, err)

	sub, err := v.Subject(tok)
	require.NoError(t, err)
	require.Equal(t, "user_rsa", sub)

	// HS256 con la clave pública como secreto no debe pasar
	hs, _ := SignHS256(string(der), "x", "", "", time.Minute)
	_, err = v.Subject(hs)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewVerifier_NoKey(t *testing.T) {
	_, err := NewVerifier(Config{})
	require.ErrorIs(t, err, ErrNoKey)
}
