package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/charmbracelet/log"
	"github.com/vortexpcsltd-afk/search-insights/internal/insights"
)

// Config holds configuration for webhook report delivery.
type Config struct {
	// URL is the endpoint that receives the report JSON
	URL string
	// Timeout is the maximum time to wait for a response
	Timeout time.Duration
	// RetryAttempts is the number of times to retry failed deliveries
	RetryAttempts uint
	// Logger is used for logging delivery attempts
	Logger *log.Logger
}

// NewConfig creates a new configuration with default values.
func NewConfig() Config {
	return Config{
		Timeout:       15 * time.Second,
		RetryAttempts: 3,
	}
}

// WithURL sets the webhook endpoint.
func (c Config) WithURL(url string) Config {
	c.URL = url
	return c
}

// WithTimeout sets the timeout for delivery requests.
func (c Config) WithTimeout(timeout time.Duration) Config {
	c.Timeout = timeout
	return c
}

// WithRetryAttempts sets the number of retry attempts.
func (c Config) WithRetryAttempts(attempts uint) Config {
	c.RetryAttempts = attempts
	return c
}

// WithLogger sets the logger for delivery operations.
func (c Config) WithLogger(logger *log.Logger) Config {
	c.Logger = logger
	return c
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("webhook URL is required")
	}
	if _, err := url.ParseRequestURI(c.URL); err != nil {
		return fmt.Errorf("invalid webhook URL: %w", err)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be greater than 0")
	}
	if c.RetryAttempts == 0 {
		return fmt.Errorf("retry attempts must be greater than 0")
	}
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	return nil
}

// WebhookNotifier delivers insight reports to an external endpoint. The
// engine has no knowledge of delivery; callers treat delivery failure as
// non-fatal to report generation.
type WebhookNotifier struct {
	config     Config
	httpClient *http.Client
	logger     *log.Logger
}

// NewWebhookNotifier creates a new webhook notifier.
func NewWebhookNotifier(config Config) (*WebhookNotifier, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &WebhookNotifier{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: config.Logger,
	}, nil
}

// Send posts the report JSON to the configured endpoint, retrying with
// backoff on failure.
func (n *WebhookNotifier) Send(ctx context.Context, report *insights.Report) error {
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	err = retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.config.URL, bytes.NewReader(body))
			if err != nil {
				return fmt.Errorf("failed to create request: %w", err)
			}
			req.Header.Set("Content-Type", "application/json")

			resp, err := n.httpClient.Do(req)
			if err != nil {
				return fmt.Errorf("failed to deliver report: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
				return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, respBody)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(n.config.RetryAttempts),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(attempt uint, err error) {
			n.logger.Warn("Retrying report delivery",
				"attempt", attempt+1,
				"max_attempts", n.config.RetryAttempts,
				"error", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to deliver report after %d attempts: %w", n.config.RetryAttempts, err)
	}

	n.logger.Info("Delivered insights report", "url", n.config.URL, "bytes", len(body))
	return nil
}
