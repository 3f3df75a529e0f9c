package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/pkg/domain"
)

// DefaultTimeout bounds a single remote call when the caller's context has no deadline.
const DefaultTimeout = 30 * time.Second

// Client talks GraphQL over HTTP.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
	hooks      domain.Hooks
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithToken sends "Authorization: Bearer <token>" on every request.
func WithToken(token string) Option {
	return func(cl *Client) {
		cl.token = token
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		cl.httpClient.Timeout = d
	}
}

// WithLogger sets the logger for failed calls.
func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) {
		cl.logger = logger
	}
}

// WithHooks registers callbacks fired after every call.
func WithHooks(h domain.Hooks) Option {
	return func(cl *Client) {
		cl.hooks = cl.hooks.Merge(h)
	}
}

// New creates a client for the GraphQL endpoint.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

type gqlError struct {
	Message string `json:"message"`
}

type response struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []gqlError                 `json:"errors"`
}

// do runs one operation and returns the raw value of its root field.
func (c *Client) do(ctx context.Context, op, query string, vars map[string]any) (raw json.RawMessage, err error) {
	start := time.Now()
	defer func() {
		if c.hooks.OnRemoteCall != nil {
			c.hooks.OnRemoteCall(ctx, &domain.RemoteEvent{
				Timestamp: start,
				Op:        op,
				Duration:  time.Since(start),
				Err:       err,
			})
		}
		if err != nil {
			c.logger.WarnContext(ctx, "remote call failed", "op", op, "err", err)
		}
	}()

	body, err := json.Marshal(request{Query: query, Variables: vars})
	if err != nil {
		return nil, &domain.RemoteError{Op: op, Kind: domain.RemoteGeneric, Message: "failed to encode request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &domain.RemoteError{Op: op, Kind: domain.RemoteGeneric, Message: "failed to build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.RemoteError{Op: op, Kind: domain.RemoteNetwork, Message: domain.NetworkErrorMessage, Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.RemoteError{Op: op, Kind: domain.RemoteNetwork, Message: domain.NetworkErrorMessage, Err: err}
	}

	var out response
	decodeErr := json.Unmarshal(payload, &out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// GraphQL servers may still describe the problem in the body.
		if decodeErr == nil && len(out.Errors) > 0 {
			return nil, &domain.RemoteError{Op: op, Kind: domain.RemoteValidation, Message: out.Errors[0].Message, StatusCode: resp.StatusCode}
		}
		return nil, &domain.RemoteError{
			Op:         op,
			Kind:       domain.RemoteNetwork,
			Message:    domain.NetworkErrorMessage,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected HTTP status %d", resp.StatusCode),
		}
	}
	if decodeErr != nil {
		return nil, &domain.RemoteError{Op: op, Kind: domain.RemoteGeneric, Message: "malformed response", StatusCode: resp.StatusCode, Err: decodeErr}
	}
	if len(out.Errors) > 0 {
		return nil, &domain.RemoteError{Op: op, Kind: domain.RemoteValidation, Message: out.Errors[0].Message, StatusCode: resp.StatusCode}
	}

	raw, ok := out.Data[op]
	if !ok || isNull(raw) {
		return nil, &domain.RemoteError{Op: op, Kind: domain.RemoteGeneric, Message: "empty response", StatusCode: resp.StatusCode}
	}
	return raw, nil
}

// envelope is the common result shape of catalog and user operations.
type envelope struct {
	Status     string          `json:"status"`
	Message    string          `json:"message"`
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Error      json.RawMessage `json:"error"`
}

// call runs an envelope operation and decodes its data into out.
func (c *Client) call(ctx context.Context, op, query string, vars map[string]any, out any) error {
	raw, err := c.do(ctx, op, query, vars)
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &domain.RemoteError{Op: op, Kind: domain.RemoteGeneric, Message: "malformed envelope", Err: err}
	}
	if env.Status != "success" {
		msg := env.Message
		if msg == "" {
			msg = errorText(env.Error)
		}
		if msg == "" {
			msg = fmt.Sprintf("request failed with status %q", env.Status)
		}
		return &domain.RemoteError{Op: op, Kind: domain.RemoteValidation, Message: msg, StatusCode: env.StatusCode}
	}
	if isNull(env.Data) {
		return &domain.RemoteError{Op: op, Kind: domain.RemoteGeneric, Message: "response has no data", StatusCode: env.StatusCode}
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &domain.RemoteError{Op: op, Kind: domain.RemoteGeneric, Message: "unexpected data shape", StatusCode: env.StatusCode, Err: err}
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// errorText extracts a message from an envelope error, which may be a string
// or an object with a message field.
func errorText(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Message
	}
	return string(raw)
}

// IsNetwork reports whether err is a transport failure.
func IsNetwork(err error) bool {
	var re *domain.RemoteError
	return errors.As(err, &re) && re.Kind == domain.RemoteNetwork
}
