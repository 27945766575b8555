package usps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	// oauthScope is the OAuth scope covering the address-lookup endpoints.
	oauthScope = "addresses"

	// defaultExpirySeconds is assumed when the token response omits
	// expires_in. USPS tokens live eight hours.
	defaultExpirySeconds = 28800

	// expirySkew is subtracted from the token lifetime so a token is
	// refreshed before it can expire mid-request.
	expirySkew = 5 * time.Minute

	// maxTokenBodySize bounds the token response body read.
	maxTokenBodySize = 1 << 20 // 1MB
)

// oauthToken mirrors the USPS OAuth token response.
type oauthToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	IssuedAt    int64  `json:"issued_at"`
	Scope       string `json:"scope"`
}

// oauthErrorBody mirrors the USPS OAuth error response.
type oauthErrorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// tokenSource fetches and caches OAuth access tokens using the client
// credentials flow. It is safe for concurrent use: the mutex is held
// across the refresh so that concurrent lookups trigger at most one
// token request per expiry window.
type tokenSource struct {
	httpClient     *http.Client
	tokenURL       string
	consumerKey    string
	consumerSecret string
	userAgent      string

	// now is the time source, replaceable in tests.
	now func() time.Time

	mu     sync.Mutex
	token  string
	expiry time.Time
}

// newTokenSource creates a tokenSource for the given credentials.
func newTokenSource(httpClient *http.Client, tokenURL, consumerKey, consumerSecret, userAgent string) *tokenSource {
	return &tokenSource{
		httpClient:     httpClient,
		tokenURL:       tokenURL,
		consumerKey:    consumerKey,
		consumerSecret: consumerSecret,
		userAgent:      userAgent,
		now:            time.Now,
	}
}

// Token returns a valid access token, fetching a new one if the cached
// token is missing or within expirySkew of expiring.
func (ts *tokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.token != "" && ts.now().Before(ts.expiry) {
		return ts.token, nil
	}

	if err := ts.refresh(ctx); err != nil {
		return "", err
	}
	return ts.token, nil
}

// Valid reports whether a non-expired token is currently cached.
// Used by status reporting; it never triggers a refresh.
func (ts *tokenSource) Valid() bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.token != "" && ts.now().Before(ts.expiry)
}

// refresh fetches a new token. The caller must hold ts.mu.
//
// USPS consumer apps are provisioned inconsistently: most accept the
// client credentials in an HTTP Basic authorization header, some only in
// the form body. We try the header first and fall back to the body on
// any non-200 response, matching what the portal's own examples do.
func (ts *tokenSource) refresh(ctx context.Context) error {
	form := url.Values{
		"grant_type": {"client_credentials"},
		"scope":      {oauthScope},
	}

	tok, headerErr := ts.request(ctx, form, true)
	if headerErr != nil {
		// Transport failures will not improve by moving the credentials,
		// so only a rejected request triggers the fallback.
		var apiErr *APIError
		if !errors.As(headerErr, &apiErr) {
			return fmt.Errorf("%w: %w", ErrTokenRequest, headerErr)
		}

		bodyForm := url.Values{
			"grant_type":    {"client_credentials"},
			"client_id":     {ts.consumerKey},
			"client_secret": {ts.consumerSecret},
			"scope":         {oauthScope},
		}

		var bodyErr error
		tok, bodyErr = ts.request(ctx, bodyForm, false)
		if bodyErr != nil {
			return fmt.Errorf("%w: %w", ErrTokenRequest, bodyErr)
		}
	}

	expiresIn := tok.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = defaultExpirySeconds
	}

	ts.token = tok.AccessToken
	ts.expiry = ts.now().Add(time.Duration(expiresIn)*time.Second - expirySkew)
	return nil
}

// request performs a single token request. When basicAuth is true the
// credentials go into the Authorization header, otherwise the caller has
// already placed them in the form.
func (ts *tokenSource) request(ctx context.Context, form url.Values, basicAuth bool) (*oauthToken, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", ts.userAgent)
	if basicAuth {
		req.SetBasicAuth(ts.consumerKey, ts.consumerSecret)
	}

	resp, err := ts.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var oe oauthErrorBody
		if json.Unmarshal(body, &oe) == nil && oe.Error != "" {
			msg := oe.ErrorDescription
			if msg == "" {
				msg = oe.Error
			}
			return nil, &APIError{StatusCode: resp.StatusCode, Code: oe.Error, Message: msg}
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	var tok oauthToken
	if err := json.Unmarshal(body, &tok); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("token response missing access_token")
	}

	return &tok, nil
}
