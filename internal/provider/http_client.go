package provider

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// TransportConfig holds configuration for the upstream HTTP transport.
type TransportConfig struct {
	Timeout           time.Duration
	MaxRetries        int
	RetryWaitMin      time.Duration
	RetryWaitMax      time.Duration
	RateLimit         float64 // requests per second
	CircuitBreakerMax int     // consecutive failures before the circuit opens
}

// DefaultTransportConfig returns defaults sized for a rate-limited stats API.
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		Timeout:           30 * time.Second,
		MaxRetries:        3,
		RetryWaitMin:      250 * time.Millisecond,
		RetryWaitMax:      8 * time.Second,
		RateLimit:         5.0,
		CircuitBreakerMax: 5,
	}
}

// Transport wraps retryablehttp.Client with client-side rate limiting and a
// consecutive-failure circuit breaker. One Transport is shared by every
// goroutine of a refresh fan-out, so the breaker state is mutex-guarded.
type Transport struct {
	client            *retryablehttp.Client
	limiter           *rate.Limiter
	circuitBreakerMax int
	logger            *logrus.Logger

	mu                sync.Mutex
	consecutiveErrors int
	isOpen            bool
	lastError         error
}

// NewTransport creates a rate-limited retrying HTTP transport.
func NewTransport(cfg TransportConfig, logger *logrus.Logger) *Transport {
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Timeout = cfg.Timeout
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.CheckRetry = retryPolicy()
	retryClient.Logger = nil

	return &Transport{
		client:            retryClient,
		limiter:           rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		circuitBreakerMax: cfg.CircuitBreakerMax,
		logger:            logger,
	}
}

// Do executes a request after waiting for the rate limiter, tracking the
// circuit breaker state across calls.
func (t *Transport) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	t.mu.Lock()
	if t.isOpen {
		lastErr := t.lastError
		t.mu.Unlock()
		return nil, fmt.Errorf("circuit breaker open: %v", lastErr)
	}
	t.mu.Unlock()

	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	retryReq, err := retryablehttp.FromRequest(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}

	resp, err := t.client.Do(retryReq)
	if err != nil {
		t.recordFailure(err)
		return nil, err
	}

	if resp.StatusCode < 500 {
		t.mu.Lock()
		t.consecutiveErrors = 0
		t.isOpen = false
		t.mu.Unlock()
	}
	return resp, nil
}

func (t *Transport) recordFailure(err error) {
	t.mu.Lock()
	t.consecutiveErrors++
	t.lastError = err
	opened := false
	if t.consecutiveErrors >= t.circuitBreakerMax && !t.isOpen {
		t.isOpen = true
		opened = true
	}
	count := t.consecutiveErrors
	t.mu.Unlock()

	if opened && t.logger != nil {
		t.logger.WithError(err).WithField("consecutive_errors", count).
			Warn("Upstream circuit breaker opened")
	}
}

// Close releases idle connections.
func (t *Transport) Close() error {
	t.client.HTTPClient.CloseIdleConnections()
	return nil
}

// retryPolicy retries network errors, 429 and 5xx gateway-class responses,
// and gives up immediately on other 4xx.
func retryPolicy() retryablehttp.CheckRetry {
	return func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if err != nil {
			return true, err
		}
		switch resp.StatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true, nil
		}
		return false, nil
	}
}
