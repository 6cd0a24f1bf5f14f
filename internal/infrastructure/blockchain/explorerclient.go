package blockchain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/cryptbill/cryptbill/internal/application/invoice/oracle"
	"github.com/cryptbill/cryptbill/internal/shared/logger"
	"github.com/cryptbill/cryptbill/internal/shared/utils/logutil"
)

const (
	// Maximum response body size for blockchain API (1MB)
	maxBlockchainResponseSize = 1 << 20
	// Characters of an error body kept in the returned error
	maxErrorBodyLog = 200
	// Allow 30 seconds buffer for clock skew between system and blockchain
	clockSkewBuffer = 30 * time.Second

	defaultMaxRetries     = 3
	defaultInitialBackoff = 500 * time.Millisecond
	defaultMaxBackoff     = 5 * time.Second
)

// statusError is a non-2xx explorer response. Body keeps the start of the
// response for the log.
type statusError struct {
	StatusCode int
	Body       string
}

func (e *statusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("explorer returned HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("explorer returned HTTP %d: %s", e.StatusCode, e.Body)
}

func (e *statusError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// explorerClient fetches JSON from block explorer APIs. Rate limiting, server
// errors and transport failures are retried with exponential backoff; other
// client errors and malformed bodies are not. Every failure it returns wraps
// oracle.ErrOracleUnavailable.
type explorerClient struct {
	httpClient     *http.Client
	maxRetries     int
	initialBackoff time.Duration
	logger         logger.Interface
}

func newExplorerClient(httpClient *http.Client, maxRetries int, logger logger.Interface) *explorerClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if maxRetries < 0 {
		maxRetries = defaultMaxRetries
	}
	return &explorerClient{
		httpClient:     httpClient,
		maxRetries:     maxRetries,
		initialBackoff: defaultInitialBackoff,
		logger:         logger,
	}
}

func (c *explorerClient) getJSON(ctx context.Context, url string, out any) error {
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = c.initialBackoff
	expBackoff.MaxInterval = defaultMaxBackoff
	expBackoff.Reset()

	for attempt := 0; ; attempt++ {
		err := c.fetch(ctx, url, out)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return oracle.Unavailable(ctx.Err())
		}

		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			return oracle.Unavailable(permanent.Unwrap())
		}
		if attempt >= c.maxRetries {
			return oracle.Unavailable(fmt.Errorf("giving up after %d attempts: %w", attempt+1, err))
		}

		delay := expBackoff.NextBackOff()
		if delay == backoff.Stop {
			return oracle.Unavailable(err)
		}
		c.logger.Debugw("retrying explorer request",
			"attempt", attempt+1,
			"delay", delay,
			"error", err,
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return oracle.Unavailable(ctx.Err())
		case <-timer.C:
		}
	}
}

func (c *explorerClient) fetch(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBlockchainResponseSize))
		se := &statusError{
			StatusCode: resp.StatusCode,
			Body:       logutil.TruncateForLog(strings.TrimSpace(string(body)), maxErrorBodyLog),
		}
		if !se.retryable() {
			return backoff.Permanent(se)
		}
		return se
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBlockchainResponseSize)).Decode(out); err != nil {
		return backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}
