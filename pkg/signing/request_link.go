package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrMalformedToken is returned when a token does not have the expected shape.
	ErrMalformedToken = errors.New("malformed request link token")
	// ErrBadSignature is returned when the token signature does not verify.
	ErrBadSignature = errors.New("invalid request link signature")
	// ErrExpired is returned for tokens past their expiry.
	ErrExpired = errors.New("request link expired")
)

// RequestLinkSigner issues and verifies the tokens embedded in public request-page links.
// A token binds an organization id to an expiry.
type RequestLinkSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewRequestLinkSigner constructs a signer with the provided secret and TTL.
func NewRequestLinkSigner(secret string, ttl time.Duration) *RequestLinkSigner {
	if ttl <= 0 {
		ttl = 365 * 24 * time.Hour
	}
	return &RequestLinkSigner{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue returns a signed token for the organization and its expiry.
func (s *RequestLinkSigner) Issue(organizationID string) (string, time.Time, error) {
	if strings.TrimSpace(organizationID) == "" {
		return "", time.Time{}, fmt.Errorf("organization id required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).UTC().Truncate(time.Second)
	encodedOrg := base64.RawURLEncoding.EncodeToString([]byte(organizationID))
	ts := strconv.FormatInt(expiresAt.Unix(), 10)
	token := strings.Join([]string{encodedOrg, ts, s.sign(encodedOrg, ts)}, ".")
	return token, expiresAt, nil
}

// Verify validates a token and returns the organization it was issued for.
func (s *RequestLinkSigner) Verify(token string) (string, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", ErrMalformedToken
	}
	encodedOrg, ts, signature := parts[0], parts[1], parts[2]

	rawOrg, err := base64.RawURLEncoding.DecodeString(encodedOrg)
	if err != nil || len(rawOrg) == 0 {
		return "", ErrMalformedToken
	}
	expUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return "", ErrMalformedToken
	}

	if !hmac.Equal([]byte(s.sign(encodedOrg, ts)), []byte(signature)) {
		return "", ErrBadSignature
	}
	if s.now().After(time.Unix(expUnix, 0)) {
		return "", ErrExpired
	}
	return string(rawOrg), nil
}

func (s *RequestLinkSigner) sign(encodedOrg, ts string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(encodedOrg + "|" + ts))
	return hex.EncodeToString(mac.Sum(nil))
}
