package render

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// mockSigner records batches and returns canned URLs.
type mockSigner struct {
	calls   int
	batches [][]string
	fail    bool
}

func (m *mockSigner) SignBatch(_ context.Context, ids []string, _ time.Duration) (map[string]string, error) {
	m.calls++
	m.batches = append(m.batches, ids)
	if m.fail {
		return nil, errors.New("signing service unavailable")
	}
	urls := make(map[string]string, len(ids))
	for _, attID := range ids {
		urls[attID] = "https://media.example.com/" + attID + "?sig=ok"
	}
	return urls, nil
}

func TestResolveNoOccurrencesSkipsSigner(t *testing.T) {
	signer := &mockSigner{}
	resolver := NewResolver(signer, time.Minute, nil)

	in := "<p>plain content without placeholders</p>"
	out := resolver.Resolve(context.Background(), in)

	if out != in {
		t.Errorf("Content changed: %q", out)
	}
	if signer.calls != 0 {
		t.Errorf("Signer called %d times for placeholder-free content", signer.calls)
	}
}

func TestResolveDeduplicatesIDs(t *testing.T) {
	signer := &mockSigner{}
	resolver := NewResolver(signer, time.Minute, nil)

	in := `<img src="attach://a1"><img src="attach://b2"><a href="attach://a1">dl</a>`
	out := resolver.Resolve(context.Background(), in)

	if signer.calls != 1 {
		t.Fatalf("Expected 1 batch call, got %d", signer.calls)
	}
	if len(signer.batches[0]) != 2 {
		t.Fatalf("Expected distinct batch {a1,b2}, got %v", signer.batches[0])
	}
	if signer.batches[0][0] != "a1" || signer.batches[0][1] != "b2" {
		t.Errorf("Batch order not first-appearance: %v", signer.batches[0])
	}
	if strings.Contains(out, "attach://") {
		t.Errorf("Unresolved placeholder remains: %s", out)
	}
	if strings.Count(out, "https://media.example.com/a1?sig=ok") != 2 {
		t.Errorf("Both a1 occurrences should share the signed URL: %s", out)
	}
}

func TestResolveFailOpen(t *testing.T) {
	signer := &mockSigner{fail: true}
	resolver := NewResolver(signer, time.Minute, nil)

	in := `<img src="attach://a1">`
	out := resolver.Resolve(context.Background(), in)

	if out != in {
		t.Errorf("Failed resolution should return original content, got %q", out)
	}
}

func TestResolvePartialBatchResponse(t *testing.T) {
	// Signer omits b2 from its response.
	partial := &partialSigner{inner: &mockSigner{}, omit: "b2"}
	resolver := NewResolver(partial, time.Minute, nil)

	out := resolver.Resolve(context.Background(), `<img src="attach://a1"><img src="attach://b2">`)
	if !strings.Contains(out, "https://media.example.com/a1?sig=ok") {
		t.Errorf("Resolved id missing from output: %s", out)
	}
	if !strings.Contains(out, "attach://b2") {
		t.Errorf("Unsigned id should keep its placeholder: %s", out)
	}
}

type partialSigner struct {
	inner *mockSigner
	omit  string
}

func (p *partialSigner) SignBatch(ctx context.Context, ids []string, ttl time.Duration) (map[string]string, error) {
	urls, err := p.inner.SignBatch(ctx, ids, ttl)
	if err != nil {
		return nil, err
	}
	delete(urls, p.omit)
	return urls, nil
}
