package http

import (
	"context"
	nethttp "net/http"

	"github.com/hashicorp/go-retryablehttp"
)

type noRetryKey struct{}

// WithNoRetry returns a context whose requests are never replayed by RetryPolicy.
func WithNoRetry(ctx context.Context) context.Context {
	return context.WithValue(ctx, noRetryKey{}, true)
}

// NoRetry reports whether ctx was created by WithNoRetry.
func NoRetry(ctx context.Context) bool {
	v, _ := ctx.Value(noRetryKey{}).(bool)
	return v
}

// RetryPolicy is the retryablehttp CheckRetry used by the API client.
//
// retryablehttp passes the request context, so a transport error that happened
// before any response still sees the WithNoRetry marker. Non-idempotent methods
// are never replayed: a second DNA upload would create a second report.
func RetryPolicy(ctx context.Context, resp *nethttp.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if NoRetry(ctx) {
		return false, nil
	}
	if resp != nil && resp.Request != nil && !IsIdempotent(resp.Request.Method) {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// IsIdempotent reports whether a request with this method may be replayed.
func IsIdempotent(method string) bool {
	switch method {
	case nethttp.MethodGet, nethttp.MethodHead, nethttp.MethodPut, nethttp.MethodDelete, nethttp.MethodOptions:
		return true
	}
	return false
}
