package decomposer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/grocerybutler/backend/internal/domain"
	"github.com/grocerybutler/backend/pkg/logger"
)

// Config configures the decomposer client
type Config struct {
	BaseURL           string
	APIKey            string
	Timeout           time.Duration
	RequestsPerSecond float64
	MaxRetries        int
	Logger            *zap.Logger
}

// Client calls the external meal decomposition service
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	maxRetries  int
	rateLimiter *rate.Limiter
	backoff     func(attempt int) time.Duration
	logger      *zap.Logger
}

// NewClient creates a decomposer client
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 2
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}

	return &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		maxRetries:  cfg.MaxRetries,
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 5),
		backoff:     exponentialBackoff,
		logger:      logger.OrNop(cfg.Logger).Named("decomposer"),
	}
}

// exponentialBackoff returns 500ms, 1s, 2s, ... for attempts 1, 2, 3, ...
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

type decomposeRequest struct {
	Meal     string `json:"meal"`
	Servings int    `json:"servings"`
}

// statusError is a non-2xx answer from the service
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.code, e.body)
}

func (e *statusError) retryable() bool {
	return e.code >= 500 || e.code == http.StatusTooManyRequests
}

// Decompose asks the service for the purchase and pantry items of meal.
// Transport errors, 429 and 5xx are retried with backoff; other 4xx stop immediately.
func (c *Client) Decompose(ctx context.Context, meal string, servings int) (*domain.ParsedMeal, error) {
	payload, err := json.Marshal(decomposeRequest{Meal: meal, Servings: servings})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		body, err := c.doRequest(ctx, payload)
		if err == nil {
			parsed, err := MapToParsedMeal(body, meal, servings)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", domain.ErrDecomposerFailure, err)
			}
			c.logger.Debug("meal decomposed",
				zap.String("meal", meal),
				zap.Int("purchase_items", len(parsed.PurchaseItems)),
				zap.Int("pantry_items", len(parsed.PantryItems)),
				zap.Int("attempt", attempt))
			return parsed, nil
		}

		var se *statusError
		if errors.As(err, &se) && !se.retryable() {
			if se.code == http.StatusNotFound || se.code == http.StatusUnprocessableEntity {
				return nil, fmt.Errorf("%w: %q", domain.ErrMealNotRecognized, meal)
			}
			return nil, fmt.Errorf("%w: %v", domain.ErrDecomposerFailure, err)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		lastErr = err
		c.logger.Warn("decompose attempt failed",
			zap.String("meal", meal),
			zap.Int("attempt", attempt),
			zap.Error(err))

		if attempt < c.maxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff(attempt)):
			}
		}
	}

	return nil, fmt.Errorf("%w: %v", domain.ErrDecomposerFailure, lastErr)
}

// doRequest posts payload and returns the response body of a 2xx answer
func (c *Client) doRequest(ctx context.Context, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/decompose", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "GroceryButler/1.0")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}
	return body, nil
}
