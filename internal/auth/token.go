package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

var (
	b64 = base64.RawURLEncoding

	// ErrMalformedToken is returned for tokens that are not three base64url segments.
	ErrMalformedToken = errors.New("malformed session token")
	// ErrSignatureMismatch is returned when the HMAC does not match.
	ErrSignatureMismatch = errors.New("session token signature mismatch")
)

// Claims are the fields carried by a session token.
type Claims struct {
	Subject   string `json:"sub"`
	Version   int    `json:"ver"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

var tokenHeader = b64.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))

// SignHS256 creates a compact JWT string using HS256.
func SignHS256(claims Claims, secret []byte) (string, error) {
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	unsigned := tokenHeader + "." + b64.EncodeToString(payload)
	return unsigned + "." + b64.EncodeToString(mac(unsigned, secret)), nil
}

// ParseAndVerifyHS256 verifies the token signature and returns its claims.
// Expiry is not checked here.
func ParseAndVerifyHS256(token string, secret []byte) (Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[0] != tokenHeader {
		return Claims{}, ErrMalformedToken
	}
	sig, err := b64.DecodeString(parts[2])
	if err != nil {
		return Claims{}, ErrMalformedToken
	}
	if !hmac.Equal(sig, mac(parts[0]+"."+parts[1], secret)) {
		return Claims{}, ErrSignatureMismatch
	}
	payload, err := b64.DecodeString(parts[1])
	if err != nil {
		return Claims{}, ErrMalformedToken
	}
	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return Claims{}, ErrMalformedToken
	}
	return claims, nil
}

func mac(unsigned string, secret []byte) []byte {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(unsigned))
	return h.Sum(nil)
}
