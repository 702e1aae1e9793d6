package pushclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultEndpoint is the Expo push API.
const DefaultEndpoint = "https://exp.host/--/api/v2/push/send"

// MaxBatchSize is the gateway's per-request message limit.
const MaxBatchSize = 100

var (
	// ErrGatewayUnavailable covers transport failures and timeouts.
	ErrGatewayUnavailable = errors.New("push gateway unavailable")
	// ErrGatewayRejected covers non-2xx responses.
	ErrGatewayRejected = errors.New("push gateway rejected batch")
)

// Client is a thin wrapper over an Expo-compatible push HTTP API.
type Client struct {
	endpoint    string
	accessToken string
	http        *http.Client
}

// New creates a push gateway client. timeout bounds every Send.
func New(endpoint, accessToken string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, fmt.Errorf("push endpoint is required")
	}
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("push endpoint must include scheme and host")
	}
	return &Client{
		endpoint:    parsed.String(),
		accessToken: accessToken,
		http: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Endpoint returns the configured gateway URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Send posts one batch of messages. Success is decided by the HTTP status;
// tickets are decoded when the gateway returns them.
func (c *Client) Send(ctx context.Context, messages []Message) (*SendResponse, error) {
	if len(messages) == 0 {
		return &SendResponse{}, nil
	}
	if len(messages) > MaxBatchSize {
		return nil, fmt.Errorf("batch of %d exceeds limit %d", len(messages), MaxBatchSize)
	}
	body, err := json.Marshal(messages)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	c.decorate(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrGatewayUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: http status %s", ErrGatewayRejected, resp.Status)
	}

	out := &SendResponse{StatusCode: resp.StatusCode}
	if len(bytes.TrimSpace(raw)) > 0 {
		// tickets are informational; an unexpected body does not fail the batch
		_ = json.Unmarshal(raw, out)
	}
	return out, nil
}

func (c *Client) decorate(req *http.Request) {
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}
}

// Message is one push notification in the gateway's wire format.
type Message struct {
	To    string         `json:"to"`
	Sound string         `json:"sound,omitempty"`
	Title string         `json:"title,omitempty"`
	Body  string         `json:"body,omitempty"`
	Data  map[string]any `json:"data,omitempty"`
}

// SendResponse models the gateway's reply.
type SendResponse struct {
	StatusCode int      `json:"-"`
	Data       []Ticket `json:"data"`
}

// Ticket is the gateway's per-message acknowledgement.
type Ticket struct {
	Status  string         `json:"status"`
	ID      string         `json:"id,omitempty"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// Failed counts tickets the gateway marked as errors.
func (r *SendResponse) Failed() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, t := range r.Data {
		if strings.EqualFold(t.Status, "error") {
			n++
		}
	}
	return n
}
