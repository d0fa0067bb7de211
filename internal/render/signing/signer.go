// Package signing issues and verifies time-limited attachment URLs.
package signing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// Signer issues signed URLs for a batch of attachment ids.
type Signer interface {
	SignBatch(ctx context.Context, ids []string, ttl time.Duration) (map[string]string, error)
}

// HMACSigner signs attachment blob URLs with HMAC-SHA256 over
// "<id>|<expiry>". It backs both the REST signing endpoint and local
// resolution when no external signer is configured.
type HMACSigner struct {
	secret  []byte
	baseURL string
}

// NewHMACSigner creates a signer. baseURL prefixes issued URLs and may
// be empty for host-relative URLs.
func NewHMACSigner(secret, baseURL string) *HMACSigner {
	return &HMACSigner{secret: []byte(secret), baseURL: baseURL}
}

// SignBatch issues one signed URL per id. Local signing cannot fail
// per-id, so the result always covers the full batch.
func (s *HMACSigner) SignBatch(_ context.Context, ids []string, ttl time.Duration) (map[string]string, error) {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	expiry := time.Now().Add(ttl).Unix()

	urls := make(map[string]string, len(ids))
	for _, attID := range ids {
		urls[attID] = fmt.Sprintf("%s/attachments/%s/blob?exp=%d&sig=%s",
			s.baseURL, attID, expiry, s.signature(attID, expiry))
	}
	return urls, nil
}

// Verify checks a signed blob request. Expired or forged signatures
// both fail; the error does not distinguish them.
func (s *HMACSigner) Verify(attID string, exp int64, sig string) error {
	if time.Now().Unix() > exp {
		return fmt.Errorf("signature expired")
	}
	expected := s.signature(attID, exp)
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return fmt.Errorf("signature mismatch")
	}
	return nil
}

// VerifyQuery is Verify over raw query parameters.
func (s *HMACSigner) VerifyQuery(attID, expStr, sig string) error {
	exp, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil {
		return fmt.Errorf("malformed expiry")
	}
	return s.Verify(attID, exp, sig)
}

func (s *HMACSigner) signature(attID string, expiry int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s|%d", attID, expiry)
	return hex.EncodeToString(mac.Sum(nil))
}
