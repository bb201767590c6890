package explorer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kislikjeka/chainledger/pkg/logger"
)

const (
	requestTimeout = 30 * time.Second
	userAgent      = "chainledger/1.0"
)

// Config holds the settings of an explorer client
type Config struct {
	// BaseURL is the account API endpoint, e.g. https://api.etherscan.io/api
	BaseURL string

	// APIKey is attached to every request when non-empty
	APIKey string

	// RequestDelay is the minimum time between a response and the next request
	RequestDelay time.Duration
}

// Client is an HTTP client for etherscan-compatible block explorer APIs
// (Etherscan, Blockscout and their forks). It issues requests sequentially
// and paces them through its own Limiter.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *Limiter
	logger     *logger.Logger
}

// NewClient creates a new explorer API client
func NewClient(cfg Config, log *logger.Logger) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		limiter: NewLimiter(cfg.RequestDelay),
		logger:  log.WithField("component", "explorer"),
	}
}

// SetHTTPClient overrides the default HTTP client (useful for testing)
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// Fetch performs one paced account API request and returns the raw result on success.
// A "no results" message is a success with an empty JSON array as result.
// Any other non-ok response is returned as an *APIError carrying the raw body.
func (c *Client) Fetch(ctx context.Context, action Action, address string) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	// Spacing counts from the moment the response has been read
	defer c.limiter.Done()

	params := url.Values{}
	params.Set("module", "account")
	params.Set("action", string(action))
	params.Set("address", address)
	params.Set("sort", "asc")
	if c.apiKey != "" {
		params.Set("apikey", c.apiKey)
	}

	reqURL, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	query := reqURL.Query()
	for k, vals := range params {
		for _, v := range vals {
			query.Add(k, v)
		}
	}
	reqURL.RawQuery = query.Encode()

	log := c.logger.With("action", string(action), "address", address)
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	body, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return nil, fmt.Errorf("failed to read response body: %w", readErr)
	}

	log.Debug("API response", "status_code", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode != http.StatusOK {
		log.Error("API error", "status_code", resp.StatusCode)
		return nil, &APIError{Action: action, Address: address, StatusCode: resp.StatusCode, Body: body}
	}

	var envelope Response
	if err := json.Unmarshal(body, &envelope); err != nil {
		log.Error("undecodable API response", "error", err)
		return nil, &APIError{Action: action, Address: address, StatusCode: resp.StatusCode, Body: body, Err: err}
	}

	if envelope.Status.String() == "1" {
		return envelope.Result, nil
	}
	if isNoResultMessage(envelope.Message) {
		return json.RawMessage("[]"), nil
	}

	log.Error("API request failed", "status", envelope.Status, "message", envelope.Message)
	return nil, &APIError{
		Action:     action,
		Address:    address,
		StatusCode: resp.StatusCode,
		Message:    envelope.Message,
		Body:       body,
	}
}

// GetNormalTransactions fetches the external transactions of an address, oldest first
func (c *Client) GetNormalTransactions(ctx context.Context, address string) ([]NormalTx, error) {
	var txs []NormalTx
	if err := c.fetchList(ctx, ActionNormal, address, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// GetInternalTransactions fetches the internal transactions of an address, oldest first
func (c *Client) GetInternalTransactions(ctx context.Context, address string) ([]InternalTx, error) {
	var txs []InternalTx
	if err := c.fetchList(ctx, ActionInternal, address, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// GetTokenTransfers fetches the token transfers of an address, oldest first
func (c *Client) GetTokenTransfers(ctx context.Context, address string) ([]TokenTransfer, error) {
	var transfers []TokenTransfer
	if err := c.fetchList(ctx, ActionToken, address, &transfers); err != nil {
		return nil, err
	}
	return transfers, nil
}

// GetBalance fetches the native coin balance of an address in smallest units
func (c *Client) GetBalance(ctx context.Context, address string) (string, error) {
	result, err := c.Fetch(ctx, ActionBalance, address)
	if err != nil {
		return "", err
	}

	var balance string
	if err := json.Unmarshal(result, &balance); err != nil {
		return "", &APIError{Action: ActionBalance, Address: address, StatusCode: http.StatusOK, Body: result, Err: err}
	}
	return balance, nil
}

func (c *Client) fetchList(ctx context.Context, action Action, address string, out interface{}) error {
	result, err := c.Fetch(ctx, action, address)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(result, out); err != nil {
		return &APIError{Action: action, Address: address, StatusCode: http.StatusOK, Body: result, Err: err}
	}
	return nil
}

// APIError is a non-success response from the explorer. Body holds the raw response for diagnostics.
type APIError struct {
	Action     Action
	Address    string
	StatusCode int
	Message    string
	Body       []byte
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("explorer %s for %s: %v: %s", e.Action, e.Address, e.Err, string(e.Body))
	}
	return fmt.Sprintf("explorer %s for %s failed (HTTP %d): %s", e.Action, e.Address, e.StatusCode, string(e.Body))
}

// Unwrap returns the underlying decode error, if any
func (e *APIError) Unwrap() error {
	return e.Err
}

// IsAPIError checks if an error is (or wraps) an explorer API error
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
