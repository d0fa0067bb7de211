package signing

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/tabnote/tabnote/internal/infrastructure/resilience"
)

// RemoteSigner asks an external signing service for URLs. Used when
// attachment blobs live behind a separate media host.
type RemoteSigner struct {
	client  *resty.Client
	breaker *resilience.Breaker
	addr    string
}

// NewRemoteSigner creates a client for the signing service at addr.
func NewRemoteSigner(addr string) *RemoteSigner {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 5 * time.Second
	retryClient.Logger = nil

	restyClient := resty.New().
		SetTimeout(10*time.Second).
		SetBaseURL(addr).
		SetHeader("User-Agent", "tabnote-signer/1.0")
	restyClient.SetTransport(retryClient.HTTPClient.Transport)

	breaker := resilience.New("attachment-signer", resilience.Settings{
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &RemoteSigner{client: restyClient, breaker: breaker, addr: addr}
}

type signRequest struct {
	IDs        []string `json:"ids"`
	TTLSeconds int64    `json:"ttl_seconds"`
}

type signResponse struct {
	Data map[string]string `json:"data"`
}

// SignBatch requests signed URLs for all ids in one call, guarded by
// the circuit breaker.
func (s *RemoteSigner) SignBatch(ctx context.Context, ids []string, ttl time.Duration) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}

	result, err := s.breaker.Execute(func() (interface{}, error) {
		var out signResponse
		resp, err := s.client.R().
			SetContext(ctx).
			SetBody(signRequest{IDs: ids, TTLSeconds: int64(ttl.Seconds())}).
			SetResult(&out).
			Post("/attachments/sign")
		if err != nil {
			return nil, fmt.Errorf("signing request failed: %w", err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("signing service returned HTTP %d", resp.StatusCode())
		}
		return out.Data, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(map[string]string), nil
}
