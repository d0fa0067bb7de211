package signing

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestSignBatchIssuesVerifiableURLs(t *testing.T) {
	signer := NewHMACSigner("test-secret", "")

	urls, err := signer.SignBatch(context.Background(), []string{"att_1", "att_2"}, time.Minute)
	if err != nil {
		t.Fatalf("SignBatch failed: %v", err)
	}
	if len(urls) != 2 {
		t.Fatalf("Expected 2 URLs, got %d", len(urls))
	}

	for attID, u := range urls {
		if !strings.HasPrefix(u, "/attachments/"+attID+"/blob?") {
			t.Errorf("Unexpected URL shape for %s: %s", attID, u)
		}
	}
}

func TestVerifyRejectsForgedSignature(t *testing.T) {
	signer := NewHMACSigner("test-secret", "")
	exp := time.Now().Add(time.Minute).Unix()

	if err := signer.Verify("att_1", exp, "deadbeef"); err == nil {
		t.Error("Forged signature accepted")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	signer := NewHMACSigner("test-secret", "")
	exp := time.Now().Add(-time.Minute).Unix()
	sig := signer.signature("att_1", exp)

	if err := signer.Verify("att_1", exp, sig); err == nil {
		t.Error("Expired signature accepted")
	}
}

func TestVerifyAcceptsOwnSignature(t *testing.T) {
	signer := NewHMACSigner("test-secret", "")
	exp := time.Now().Add(time.Minute).Unix()
	sig := signer.signature("att_1", exp)

	if err := signer.Verify("att_1", exp, sig); err != nil {
		t.Errorf("Own signature rejected: %v", err)
	}

	// A different secret must not verify.
	other := NewHMACSigner("other-secret", "")
	if err := other.Verify("att_1", exp, sig); err == nil {
		t.Error("Signature verified under wrong secret")
	}
}

func TestVerifyQueryMalformedExpiry(t *testing.T) {
	signer := NewHMACSigner("test-secret", "")
	if err := signer.VerifyQuery("att_1", "not-a-number", "sig"); err == nil {
		t.Error("Malformed expiry accepted")
	}
}
