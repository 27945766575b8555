package usps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/zippuff/zippuff/internal/model"
)

// USPS v3 API endpoints.
const (
	// ProductionBaseURL is the base URL of the production USPS API.
	ProductionBaseURL = "https://apis.usps.com"

	// TestBaseURL is the base URL of the USPS test environment.
	// Test-environment credentials do not work against production and
	// vice versa.
	TestBaseURL = "https://apis-tem.usps.com"

	// oauthTokenPath is the OAuth 2.0 token endpoint path.
	oauthTokenPath = "/oauth2/v3/token"

	// cityStatePath resolves a ZIP code to its city and state.
	cityStatePath = "/addresses/v3/city-state"

	// zipCodePath resolves a city/state (optionally with a street
	// address) to a ZIP code.
	zipCodePath = "/addresses/v3/zipcode"

	// maxResponseBodySize bounds the lookup response body read.
	// Lookup responses are tiny; 1MB is far more than enough while
	// protecting against a misbehaving upstream.
	maxResponseBodySize = 1 << 20
)

// Service is the lookup interface shared by the v3 and legacy clients.
// The CLI and the REST server depend on this interface, not on a
// concrete client, which also keeps their tests free of network access.
type Service interface {
	// CityState resolves a ZIP code to its city and state.
	CityState(ctx context.Context, zip model.ZIPCode) (*model.LookupResult, error)

	// ZIPCode resolves a city/state (optionally refined with a street
	// address) to a ZIP code.
	ZIPCode(ctx context.Context, q AddressQuery) (*model.LookupResult, error)

	// Status returns a snapshot of the client state without secrets.
	Status() Status
}

// AddressQuery is the input to a ZIP code lookup.
type AddressQuery struct {
	// City is the city name. Required.
	City string

	// State is the two-letter state abbreviation. Required.
	State model.StateCode

	// StreetAddress optionally narrows the lookup to a street address,
	// which lets USPS return the exact ZIP code for the delivery point.
	StreetAddress string

	// SecondaryAddress is the unit designator (suite, apartment).
	// Only meaningful together with StreetAddress.
	SecondaryAddress string

	// ZIPCode optionally supplies the ZIP code the caller already
	// believes is right; USPS corrects it when it disagrees.
	ZIPCode model.ZIPCode
}

// Validate checks that the query has the required fields.
func (q AddressQuery) Validate() error {
	if strings.TrimSpace(q.City) == "" {
		return ErrEmptyCity
	}
	if q.State.IsZero() {
		return model.ErrEmptyStateCode
	}
	return nil
}

// Status is a snapshot of client state for status reporting.
// It never contains credential material.
type Status struct {
	// Service names the client in use ("usps-v3" or "usps-webtools-legacy").
	Service string `json:"service"`

	// BaseURL is the API base the client talks to.
	BaseURL string `json:"baseUrl"`

	// OAuthConfigured reports whether OAuth credentials are loaded.
	OAuthConfigured bool `json:"oauthConfigured"`

	// TokenValid reports whether a non-expired token is cached.
	TokenValid bool `json:"tokenValid"`
}

// Client calls the USPS v3 address APIs with OAuth 2.0 authentication.
//
// Design decision: We keep a single shared http.Client rather than
// creating one per call because:
//  1. Connection pooling and TLS session reuse work across lookups
//  2. Client configuration (timeout, proxy) stays consistent
//  3. Tests can inject a client pointed at an httptest server
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	logger     *slog.Logger

	// limiter paces outbound requests. USPS enforces per-app quotas;
	// pacing locally turns a hard 429 into a short wait.
	limiter *rate.Limiter

	// tokens caches the OAuth access token across lookups.
	tokens *tokenSource
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Primarily for
// tests, where the client is pointed at an httptest server.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL overrides the API base URL (and token endpoint with it).
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.baseURL = base
	}
}

// WithTestMode selects the USPS test environment.
func WithTestMode(test bool) Option {
	return func(c *Client) {
		if test {
			c.baseURL = TestBaseURL
		} else {
			c.baseURL = ProductionBaseURL
		}
	}
}

// WithUserAgent sets the User-Agent header for all requests.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithTimeout sets the per-request timeout, including the token exchange.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithLogger sets the logger. The caller is expected to pass a logger
// built on the credential-redacting handler.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit caps outbound requests per second. Zero rps disables
// pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewClient creates a USPS v3 API client with the given OAuth credentials.
// Returns ErrNoCredentials when either credential is empty.
//
// The constructor performs no network I/O; the first lookup triggers the
// token exchange. This keeps construction cheap and testable.
func NewClient(consumerKey, consumerSecret string, opts ...Option) (*Client, error) {
	if consumerKey == "" || consumerSecret == "" {
		return nil, ErrNoCredentials
	}

	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    ProductionBaseURL,
		userAgent:  "zippuff/2.0 (+https://github.com/zippuff/zippuff)",
		logger:     slog.Default(),
		limiter:    rate.NewLimiter(rate.Limit(10), 10),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.tokens = newTokenSource(c.httpClient, c.baseURL+oauthTokenPath, consumerKey, consumerSecret, c.userAgent)

	return c, nil
}

// CityState looks up the city and state for a ZIP code.
func (c *Client) CityState(ctx context.Context, zip model.ZIPCode) (*model.LookupResult, error) {
	if zip.IsZero() {
		return nil, model.ErrEmptyZIPCode
	}

	params := url.Values{"ZIPCode": {zip.String()}}
	return c.lookup(ctx, cityStatePath, params, model.ZIPQuery(zip))
}

// ZIPCode looks up the ZIP code for a city/state, optionally refined
// with a street address.
func (c *Client) ZIPCode(ctx context.Context, q AddressQuery) (*model.LookupResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	params := url.Values{
		"city":  {q.City},
		"state": {q.State.String()},
	}
	if q.StreetAddress != "" {
		params.Set("streetAddress", q.StreetAddress)
	}
	if q.SecondaryAddress != "" {
		params.Set("secondaryAddress", q.SecondaryAddress)
	}
	if !q.ZIPCode.IsZero() {
		params.Set("ZIPCode", q.ZIPCode.String())
	}

	return c.lookup(ctx, zipCodePath, params, model.CityStateQuery(q.City, q.State))
}

// TestConnection verifies connectivity and credentials with a lookup of
// a known ZIP code (Beverly Hills, CA).
func (c *Client) TestConnection(ctx context.Context) (*model.LookupResult, error) {
	return c.CityState(ctx, model.MustNewZIPCode("90210"))
}

// Status returns a snapshot of the client state without secrets.
func (c *Client) Status() Status {
	return Status{
		Service:         "usps-v3",
		BaseURL:         c.baseURL,
		OAuthConfigured: true,
		TokenValid:      c.tokens.Valid(),
	}
}

// lookupResponse mirrors the flat v3 lookup payload, e.g.
// {"city": "WASHINGTON", "state": "DC", "ZIPCode": "20012"}.
type lookupResponse struct {
	City    string `json:"city"`
	State   string `json:"state"`
	ZIPCode string `json:"ZIPCode"`
}

// apiErrorBody covers both error shapes the v3 API produces: a nested
// {"error": {"code", "message"}} object on lookup endpoints and flat
// {"error", "error_description"} strings from the OAuth layer. The
// json.RawMessage defers parsing until we know which shape arrived.
type apiErrorBody struct {
	Error            json.RawMessage `json:"error"`
	ErrorDescription string          `json:"error_description"`
}

// nestedAPIError is the object form of the "error" field.
type nestedAPIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// lookup performs an authenticated GET and maps the response to a
// LookupResult.
func (c *Client) lookup(ctx context.Context, path string, params url.Values, query string) (*model.LookupResult, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	u := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.Debug("usps api request", "path", path, "params", params.Encode())

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	elapsed := time.Since(start)

	c.logger.Debug("usps api response", "path", path, "status", resp.StatusCode, "elapsed", elapsed)

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp.StatusCode, body)
	}

	var lr lookupResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	// A 200 with no city/state means USPS matched nothing.
	if lr.City == "" && lr.State == "" {
		return nil, ErrNotFound
	}

	return &model.LookupResult{
		Query:     query,
		ZIPCode:   lr.ZIPCode,
		City:      lr.City,
		State:     lr.State,
		Source:    model.SourceAPI,
		QueriedAt: time.Now().UTC(),
		Elapsed:   elapsed,
	}, nil
}

// parseError maps a non-200 response to an error. A 404 wraps
// ErrNotFound so callers can distinguish "no such ZIP" from real
// failures with errors.Is.
func (c *Client) parseError(status int, body []byte) error {
	apiErr := &APIError{StatusCode: status, Message: http.StatusText(status)}

	var eb apiErrorBody
	if json.Unmarshal(body, &eb) == nil && len(eb.Error) > 0 {
		var nested nestedAPIError
		if json.Unmarshal(eb.Error, &nested) == nil && nested.Message != "" {
			apiErr.Code = nested.Code
			apiErr.Message = nested.Message
		} else {
			var flat string
			if json.Unmarshal(eb.Error, &flat) == nil && flat != "" {
				apiErr.Code = flat
				apiErr.Message = flat
				if eb.ErrorDescription != "" {
					apiErr.Message = eb.ErrorDescription
				}
			}
		}
	}

	if status == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, apiErr.Message)
	}
	return apiErr
}

// classifyTransportError maps transport failures onto the package's
// sentinel errors so callers can react without inspecting net internals.
func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrRequestTimeout, err)
	}

	var ue *url.Error
	if errors.As(err, &ue) {
		if ue.Timeout() {
			return fmt.Errorf("%w: %w", ErrRequestTimeout, err)
		}
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}

	return err
}
