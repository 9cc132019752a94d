package http

import (
	"context"
	"errors"
	nethttp "net/http"
	"testing"
)

func TestRetryPolicyNoRetryContext(t *testing.T) {
	ctx := WithNoRetry(context.Background())
	retry, err := RetryPolicy(ctx, nil, errors.New("connection reset by peer"))
	if retry {
		t.Error("requests marked WithNoRetry must not be retried")
	}
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRetryPolicyRetriesIdempotentServerError(t *testing.T) {
	req, _ := nethttp.NewRequest(nethttp.MethodGet, "http://example.test/api/dna/status/r1", nil)
	resp := &nethttp.Response{StatusCode: nethttp.StatusBadGateway, Request: req}

	retry, _ := RetryPolicy(context.Background(), resp, nil)
	if !retry {
		t.Error("GET with 502 should be retried")
	}
}

func TestRetryPolicySkipsPost(t *testing.T) {
	req, _ := nethttp.NewRequest(nethttp.MethodPost, "http://example.test/api/dna/upload", nil)
	resp := &nethttp.Response{StatusCode: nethttp.StatusServiceUnavailable, Request: req}

	retry, _ := RetryPolicy(context.Background(), resp, nil)
	if retry {
		t.Error("POST must never be retried")
	}
}

func TestRetryPolicyCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	retry, err := RetryPolicy(ctx, nil, errors.New("timeout"))
	if retry {
		t.Error("cancelled context must stop retries")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestIsIdempotent(t *testing.T) {
	for _, m := range []string{"GET", "PUT", "DELETE", "HEAD"} {
		if !IsIdempotent(m) {
			t.Errorf("%s should be idempotent", m)
		}
	}
	if IsIdempotent("POST") {
		t.Error("POST should not be idempotent")
	}
}
