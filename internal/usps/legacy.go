package usps

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/zippuff/zippuff/internal/model"
)

// Legacy Web Tools API endpoint.
const (
	// LegacyBaseURL is the endpoint of the retired Web Tools XML API.
	// It has no separate test environment.
	LegacyBaseURL = "https://production.shippingapis.com/ShippingAPI.dll"

	legacyCityStateAPI = "CityStateLookup"
	legacyZipCodeAPI   = "ZipCodeLookup"
)

// ErrStreetAddressRequired is returned by the legacy client's ZIP code
// lookup when no street address is given. The old ZipCodeLookup API
// only resolves full delivery addresses, unlike the v3 API which
// accepts a bare city/state.
var ErrStreetAddressRequired = errors.New("usps: legacy zip code lookup requires a street address")

// LegacyClient calls the retired USPS Web Tools XML API, authenticated
// with a USERID string instead of OAuth. It exists for accounts that
// were never migrated to the developer portal. New setups should use
// Client.
type LegacyClient struct {
	httpClient *http.Client
	baseURL    string
	userID     string
	userAgent  string
	logger     *slog.Logger
	limiter    *rate.Limiter
}

// LegacyOption configures a LegacyClient.
type LegacyOption func(*LegacyClient)

// WithLegacyHTTPClient replaces the underlying HTTP client.
func WithLegacyHTTPClient(hc *http.Client) LegacyOption {
	return func(c *LegacyClient) {
		c.httpClient = hc
	}
}

// WithLegacyBaseURL overrides the API endpoint. Primarily for tests.
func WithLegacyBaseURL(base string) LegacyOption {
	return func(c *LegacyClient) {
		c.baseURL = base
	}
}

// WithLegacyUserAgent sets the User-Agent header for all requests.
func WithLegacyUserAgent(ua string) LegacyOption {
	return func(c *LegacyClient) {
		c.userAgent = ua
	}
}

// WithLegacyLogger sets the logger.
func WithLegacyLogger(logger *slog.Logger) LegacyOption {
	return func(c *LegacyClient) {
		c.logger = logger
	}
}

// WithLegacyRateLimit caps outbound requests per second. Zero rps
// disables pacing.
func WithLegacyRateLimit(rps float64, burst int) LegacyOption {
	return func(c *LegacyClient) {
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

// NewLegacyClient creates a Web Tools XML API client for the given
// USERID. Returns ErrNoCredentials when the USERID is empty.
func NewLegacyClient(userID string, opts ...LegacyOption) (*LegacyClient, error) {
	if userID == "" {
		return nil, ErrNoCredentials
	}

	c := &LegacyClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    LegacyBaseURL,
		userID:     userID,
		userAgent:  "zippuff/2.0 (+https://github.com/zippuff/zippuff)",
		logger:     slog.Default(),
		limiter:    rate.NewLimiter(rate.Limit(10), 10),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// cityStateLookupRequest is the XML request body for CityStateLookup.
type cityStateLookupRequest struct {
	XMLName xml.Name `xml:"CityStateLookupRequest"`
	UserID  string   `xml:"USERID,attr"`
	ZipCode struct {
		ID   string `xml:"ID,attr"`
		Zip5 string `xml:"Zip5"`
	} `xml:"ZipCode"`
}

// cityStateLookupResponse is the XML response body for CityStateLookup.
type cityStateLookupResponse struct {
	XMLName xml.Name `xml:"CityStateLookupResponse"`
	ZipCode struct {
		Zip5  string       `xml:"Zip5"`
		City  string       `xml:"City"`
		State string       `xml:"State"`
		Error *legacyError `xml:"Error"`
	} `xml:"ZipCode"`
}

// zipCodeLookupRequest is the XML request body for ZipCodeLookup.
type zipCodeLookupRequest struct {
	XMLName xml.Name `xml:"ZipCodeLookupRequest"`
	UserID  string   `xml:"USERID,attr"`
	Address struct {
		ID       string `xml:"ID,attr"`
		Address1 string `xml:"Address1"`
		Address2 string `xml:"Address2"`
		City     string `xml:"City"`
		State    string `xml:"State"`
		Zip5     string `xml:"Zip5"`
		Zip4     string `xml:"Zip4"`
	} `xml:"Address"`
}

// zipCodeLookupResponse is the XML response body for ZipCodeLookup.
type zipCodeLookupResponse struct {
	XMLName xml.Name `xml:"ZipCodeLookupResponse"`
	Address struct {
		City  string       `xml:"City"`
		State string       `xml:"State"`
		Zip5  string       `xml:"Zip5"`
		Error *legacyError `xml:"Error"`
	} `xml:"Address"`
}

// legacyError is the XML error element, which can appear at the top
// level of the response or nested inside the result element.
type legacyError struct {
	XMLName     xml.Name `xml:"Error"`
	Number      string   `xml:"Number"`
	Description string   `xml:"Description"`
}

// CityState looks up the city and state for a ZIP code.
func (c *LegacyClient) CityState(ctx context.Context, zip model.ZIPCode) (*model.LookupResult, error) {
	if zip.IsZero() {
		return nil, model.ErrEmptyZIPCode
	}

	reqBody := cityStateLookupRequest{UserID: c.userID}
	reqBody.ZipCode.ID = "0"
	reqBody.ZipCode.Zip5 = zip.String()

	body, elapsed, err := c.call(ctx, legacyCityStateAPI, reqBody)
	if err != nil {
		return nil, err
	}

	var resp cityStateLookupResponse
	if err := xml.Unmarshal(body, &resp); err != nil {
		if legacyErr := parseTopLevelError(body); legacyErr != nil {
			return nil, legacyErr
		}
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.ZipCode.Error != nil {
		return nil, mapLegacyError(resp.ZipCode.Error)
	}
	if resp.ZipCode.City == "" && resp.ZipCode.State == "" {
		return nil, ErrNotFound
	}

	return &model.LookupResult{
		Query:     model.ZIPQuery(zip),
		ZIPCode:   resp.ZipCode.Zip5,
		City:      resp.ZipCode.City,
		State:     resp.ZipCode.State,
		Source:    model.SourceAPI,
		QueriedAt: time.Now().UTC(),
		Elapsed:   elapsed,
	}, nil
}

// ZIPCode looks up the ZIP code for a delivery address. The legacy API
// has no city/state-only lookup, so a street address is mandatory here.
func (c *LegacyClient) ZIPCode(ctx context.Context, q AddressQuery) (*model.LookupResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if q.StreetAddress == "" {
		return nil, ErrStreetAddressRequired
	}

	reqBody := zipCodeLookupRequest{UserID: c.userID}
	reqBody.Address.ID = "0"
	reqBody.Address.Address1 = q.SecondaryAddress
	reqBody.Address.Address2 = q.StreetAddress
	reqBody.Address.City = q.City
	reqBody.Address.State = q.State.String()
	if !q.ZIPCode.IsZero() {
		reqBody.Address.Zip5 = q.ZIPCode.String()
	}

	body, elapsed, err := c.call(ctx, legacyZipCodeAPI, reqBody)
	if err != nil {
		return nil, err
	}

	var resp zipCodeLookupResponse
	if err := xml.Unmarshal(body, &resp); err != nil {
		if legacyErr := parseTopLevelError(body); legacyErr != nil {
			return nil, legacyErr
		}
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Address.Error != nil {
		return nil, mapLegacyError(resp.Address.Error)
	}
	if resp.Address.Zip5 == "" {
		return nil, ErrNotFound
	}

	return &model.LookupResult{
		Query:     model.CityStateQuery(q.City, q.State),
		ZIPCode:   resp.Address.Zip5,
		City:      resp.Address.City,
		State:     resp.Address.State,
		Source:    model.SourceAPI,
		QueriedAt: time.Now().UTC(),
		Elapsed:   elapsed,
	}, nil
}

// TestConnection verifies connectivity and the USERID with a lookup of
// a known ZIP code.
func (c *LegacyClient) TestConnection(ctx context.Context) (*model.LookupResult, error) {
	return c.CityState(ctx, model.MustNewZIPCode("90210"))
}

// Status returns a snapshot of the client state without secrets.
func (c *LegacyClient) Status() Status {
	return Status{
		Service:         "usps-webtools-legacy",
		BaseURL:         c.baseURL,
		OAuthConfigured: false,
		TokenValid:      false,
	}
}

// call marshals the request element, performs the GET, and returns the
// raw response body along with the request duration. The Web Tools API
// takes the entire XML document as a query parameter.
func (c *LegacyClient) call(ctx context.Context, api string, reqBody any) ([]byte, time.Duration, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, 0, err
		}
	}

	payload, err := xml.Marshal(reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to encode request: %w", err)
	}

	params := url.Values{
		"API": {api},
		"XML": {string(payload)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.Debug("usps legacy api request", "api", api)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, classifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response: %w", err)
	}
	elapsed := time.Since(start)

	c.logger.Debug("usps legacy api response", "api", api, "status", resp.StatusCode, "elapsed", elapsed)

	// The Web Tools API reports most failures inside a 200 response; a
	// non-200 means the gateway itself rejected the request.
	if resp.StatusCode != http.StatusOK {
		return nil, 0, &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	return body, elapsed, nil
}

// parseTopLevelError tries to decode the body as a bare <Error> document,
// which the gateway returns for authorization failures.
func parseTopLevelError(body []byte) error {
	var le legacyError
	if xml.Unmarshal(body, &le) == nil && le.Description != "" {
		return mapLegacyError(&le)
	}
	return nil
}

// mapLegacyError converts an XML error element to an APIError, wrapping
// ErrNotFound for the "invalid zip code" responses so callers can treat
// both clients uniformly.
func mapLegacyError(le *legacyError) error {
	apiErr := &APIError{StatusCode: http.StatusOK, Code: le.Number, Message: le.Description}
	if le.Number == "-2147219399" || le.Number == "-2147219403" {
		return fmt.Errorf("%w: %s", ErrNotFound, le.Description)
	}
	return apiErr
}
