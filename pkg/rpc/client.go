package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lightprotocol/token-cookbook-go/pkg/shared"
)

const (
	defaultConfirmTimeout   = 60 * time.Second
	defaultPollInterval     = 500 * time.Millisecond
	defaultStreamRetryDelay = 2 * time.Second
)

type Config struct {
	Network          string
	APIKey           string
	RPCURL           string
	CompressionURL   string
	WebsocketURL     string
	HTTPClient       *http.Client
	Headers          map[string]string
	Commitment       solanarpc.CommitmentType
	ConfirmTimeout   time.Duration
	PollInterval     time.Duration
	StreamRetryDelay time.Duration
	Logger           *zerolog.Logger
}

// Client is safe for concurrent use.
type Client struct {
	network          string
	rpcURL           string
	compressionURL   string
	websocketURL     string
	httpClient       *http.Client
	headers          map[string]string
	commitment       solanarpc.CommitmentType
	confirmTimeout   time.Duration
	pollInterval     time.Duration
	streamRetryDelay time.Duration
	logger           zerolog.Logger
	solana           *solanarpc.Client
}

// NewClient creates a new Client.
func NewClient(config Config) (*Client, error) {
	network, err := shared.NormalizeNetwork(config.Network)
	if err != nil {
		return nil, err
	}

	rpcURL := strings.TrimSpace(config.RPCURL)
	if rpcURL == "" {
		rpcURL, err = shared.RPCEndpoint(network, config.APIKey)
		if err != nil {
			return nil, err
		}
	}
	if err := validateHTTPURL("RPC", rpcURL); err != nil {
		return nil, err
	}

	compressionURL := strings.TrimSpace(config.CompressionURL)
	if compressionURL == "" {
		compressionURL = rpcURL
		if network == shared.NetworkLocalnet && rpcURL == shared.LocalnetRPCURL {
			compressionURL = shared.LocalnetCompressionURL
		}
	}
	if err := validateHTTPURL("compression RPC", compressionURL); err != nil {
		return nil, err
	}

	websocketURL := strings.TrimSpace(config.WebsocketURL)
	if websocketURL == "" {
		websocketURL, err = shared.WebsocketEndpoint(rpcURL)
		if err != nil {
			return nil, err
		}
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	headers := map[string]string{}
	for key, value := range config.Headers {
		headers[key] = value
	}

	commitment := config.Commitment
	if commitment == "" {
		commitment = solanarpc.CommitmentConfirmed
	}
	confirmTimeout := config.ConfirmTimeout
	if confirmTimeout <= 0 {
		confirmTimeout = defaultConfirmTimeout
	}
	pollInterval := config.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	streamRetryDelay := config.StreamRetryDelay
	if streamRetryDelay <= 0 {
		streamRetryDelay = defaultStreamRetryDelay
	}

	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = *config.Logger
	}

	ledger := solanarpc.NewWithCustomRPCClient(jsonrpc.NewClientWithOpts(rpcURL, &jsonrpc.RPCClientOpts{
		HTTPClient:    httpClient,
		CustomHeaders: headers,
	}))

	return &Client{
		network:          network,
		rpcURL:           rpcURL,
		compressionURL:   compressionURL,
		websocketURL:     websocketURL,
		httpClient:       httpClient,
		headers:          headers,
		commitment:       commitment,
		confirmTimeout:   confirmTimeout,
		pollInterval:     pollInterval,
		streamRetryDelay: streamRetryDelay,
		logger:           logger,
		solana:           ledger,
	}, nil
}

// Network performs the requested operation.
func (c *Client) Network() string {
	return c.network
}

// RPCURL performs the requested operation.
func (c *Client) RPCURL() string {
	return c.rpcURL
}

// CompressionURL performs the requested operation.
func (c *Client) CompressionURL() string {
	return c.compressionURL
}

// WebsocketURL performs the requested operation.
func (c *Client) WebsocketURL() string {
	return c.websocketURL
}

// Commitment returns the commitment used for reads and confirmations.
func (c *Client) Commitment() solanarpc.CommitmentType {
	return c.commitment
}

// Solana exposes the underlying ledger RPC client for calls not wrapped here.
func (c *Client) Solana() *solanarpc.Client {
	return c.solana
}

// Logger performs the requested operation.
func (c *Client) Logger() zerolog.Logger {
	return c.logger
}

type compressionRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type compressionResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

func (c *Client) callCompression(ctx context.Context, method string, params any, target any) error {
	if params == nil {
		params = map[string]any{}
	}
	payload, err := json.Marshal(compressionRequest{
		JSONRPC: "2.0",
		ID:      uuid.NewString(),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", method, err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.compressionURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")
	for key, value := range c.headers {
		request.Header.Set(key, value)
	}

	c.logger.Debug().Str("method", method).Msg("compression rpc request")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("compression rpc request failed: %w", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("failed to read compression rpc response: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf(
			"compression rpc %s failed with status %d: %s",
			method,
			response.StatusCode,
			strings.TrimSpace(string(body)),
		)
	}

	var envelope compressionResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("failed to decode compression rpc response: %w", err)
	}
	if envelope.Error != nil {
		envelope.Error.Method = method
		return envelope.Error
	}
	if target == nil {
		return nil
	}
	if len(envelope.Result) == 0 {
		return fmt.Errorf("compression rpc %s returned no result", method)
	}
	if err := json.Unmarshal(envelope.Result, target); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", method, err)
	}

	return nil
}

func validateHTTPURL(label string, raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s URL: %w", label, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid %s URL: scheme must be http or https", label)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return fmt.Errorf("invalid %s URL: host is required", label)
	}
	return nil
}
