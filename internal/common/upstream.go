// Package common holds the HTTP plumbing shared by every upstream client
// (geocoding, forecast, push, profile backend).
package common

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// ErrUpstreamUnavailable is returned for transport failures, non-2xx
// responses and open circuits.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

var errNoHTTPClient = errors.New("http client not configured")

// maxErrorBody bounds how much of a failed response body is kept for logs.
const maxErrorBody = 512

// StatusError describes a non-2xx upstream response.
type StatusError struct {
	Service string
	Status  int
	Body    string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", e.Service, e.Status)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Service, e.Status, e.Body)
}

func (e *StatusError) Unwrap() error {
	return ErrUpstreamUnavailable
}

// NewBreaker returns the circuit breaker used in front of one upstream.
func NewBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
}

type bypassBreakerKey struct{}

// WithoutBreaker marks ctx so DoRequest always reaches the upstream. The
// alert batch uses it: an open circuit must not fail users whose own call
// would succeed.
func WithoutBreaker(ctx context.Context) context.Context {
	return context.WithValue(ctx, bypassBreakerKey{}, true)
}

// BreakerBypassed reports whether ctx was marked by WithoutBreaker.
func BreakerBypassed(ctx context.Context) bool {
	v, _ := ctx.Value(bypassBreakerKey{}).(bool)
	return v
}

// DoRequest executes req exactly once through the circuit breaker. On success
// the caller owns the response body. There is no retry: every external call
// is attempted once per invocation. Calls whose ctx carries WithoutBreaker
// skip the breaker entirely and do not count towards tripping it.
func DoRequest(ctx context.Context, client *http.Client, cb *gobreaker.CircuitBreaker, req *http.Request) (*http.Response, error) {
	if client == nil {
		return nil, errNoHTTPClient
	}
	req = req.WithContext(ctx)

	do := func() (interface{}, error) {
		resp, execErr := client.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			defer resp.Body.Close()
			body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			return nil, &StatusError{Service: cb.Name(), Status: resp.StatusCode, Body: string(body)}
		}
		return resp, nil
	}

	var (
		result interface{}
		err    error
	)
	if BreakerBypassed(ctx) {
		result, err = do()
	} else {
		result, err = cb.Execute(do)
	}
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			return nil, err
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %s circuit open: %v", ErrUpstreamUnavailable, cb.Name(), err)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrUpstreamUnavailable, cb.Name(), err)
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected result type from circuit breaker", ErrUpstreamUnavailable)
	}
	return resp, nil
}
