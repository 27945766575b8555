package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/zippuff/zippuff/internal/model"
	"github.com/zippuff/zippuff/internal/usps"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// ConfigInfo is the non-secret configuration snapshot served by the
// config endpoint. Credentials never appear here.
type ConfigInfo struct {
	TestMode     bool   `json:"testMode"`
	BaseURL      string `json:"baseUrl"`
	CacheEnabled bool   `json:"cacheEnabled"`
	Timeout      string `json:"timeout"`
	Version      string `json:"version"`
}

// Handler wires the lookup service into HTTP handlers.
type Handler struct {
	service usps.Service
	info    ConfigInfo

	clock func() time.Time

	mu      sync.Mutex
	started time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(service usps.Service, info ConfigInfo, opts ...HandlerOption) *Handler {
	h := &Handler{
		service: service,
		info:    info,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.started = h.clock()
	return h
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	// "GET /" also matches every path without a more specific route.
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "Not found", "unknown endpoint "+r.URL.Path)
		return
	}

	resp := indexResponse{
		Service: "zippuff",
		Version: h.info.Version,
		Endpoints: []string{
			"GET /health",
			"GET /api/zip-to-city?zipcode=<5-digit ZIP>",
			"GET /api/city-to-zip?city=<city>&state=<2-letter state>",
			"GET /api/validate-zip?zipcode=<ZIP>",
			"GET /api/config",
		},
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Service:   "zippuff",
		Version:   h.info.Version,
		Timestamp: h.clock(),
		Uptime:    h.clock().Sub(h.started).Round(time.Second).String(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleZipToCity(w http.ResponseWriter, r *http.Request) {
	zip, err := model.NewZIPCode(zipParam(r.URL.Query()))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}

	res, err := h.service.CityState(r.Context(), zip)
	if err != nil {
		writeLookupError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleCityToZip(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	state, err := model.NewStateCode(query.Get("state"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}

	q := usps.AddressQuery{
		City:             query.Get("city"),
		State:            state,
		StreetAddress:    query.Get("street"),
		SecondaryAddress: query.Get("secondary"),
	}
	if zipHint := zipParam(query); zipHint != "" {
		zip, err := model.NewZIPCode(zipHint)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request", err.Error())
			return
		}
		q.ZIPCode = zip
	}

	res, err := h.service.ZIPCode(r.Context(), q)
	if err != nil {
		writeLookupError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleValidateZip(w http.ResponseWriter, r *http.Request) {
	raw := zipParam(r.URL.Query())
	if raw == "" {
		writeError(w, http.StatusBadRequest, "Invalid request", "zipcode parameter is required")
		return
	}

	resp := validateResponse{
		Input:   raw,
		ZIPCode: raw,
		Valid:   model.ValidZIPCode(raw),
	}
	if resp.Valid {
		// A ZIP+4 input reports its normalized 5-digit form.
		resp.ZIPCode = model.MustNewZIPCode(raw).String()
	}
	writeJSON(w, http.StatusOK, resp)
}

// zipParam reads the ZIP code query parameter. The documented name is
// "zipcode"; "zip" is accepted as a shorthand.
func zipParam(query url.Values) string {
	if v := query.Get("zipcode"); v != "" {
		return v
	}
	return query.Get("zip")
}

func (h *Handler) handleConfig(w http.ResponseWriter, r *http.Request) {
	_ = r
	writeJSON(w, http.StatusOK, h.info)
}

// writeLookupError maps lookup failures onto HTTP statuses: bad input
// is the caller's fault, an upstream rejection is a bad gateway, and
// unreachable/slow upstream maps to 503/504.
func writeLookupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrEmptyZIPCode),
		errors.Is(err, model.ErrInvalidZIPCode),
		errors.Is(err, model.ErrEmptyStateCode),
		errors.Is(err, model.ErrInvalidStateCode),
		errors.Is(err, usps.ErrEmptyCity),
		errors.Is(err, usps.ErrStreetAddressRequired):
		writeError(w, http.StatusBadRequest, "Invalid request", err.Error())
	case errors.Is(err, usps.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found", err.Error())
	case errors.Is(err, usps.ErrRequestTimeout):
		writeError(w, http.StatusGatewayTimeout, "Upstream timeout", err.Error())
	case errors.Is(err, usps.ErrConnection),
		errors.Is(err, usps.ErrTokenRequest),
		errors.Is(err, usps.ErrNoCredentials):
		writeError(w, http.StatusServiceUnavailable, "Upstream unavailable", err.Error())
	default:
		var apiErr *usps.APIError
		if errors.As(err, &apiErr) {
			writeError(w, http.StatusBadGateway, "Upstream error", apiErr.Message)
			return
		}
		writeInternalError(w, err)
	}
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type indexResponse struct {
	Service   string   `json:"service"`
	Version   string   `json:"version"`
	Endpoints []string `json:"endpoints"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    string    `json:"uptime"`
}

type validateResponse struct {
	ZIPCode string `json:"zipcode"`
	Valid   bool   `json:"valid"`
	Input   string `json:"input"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, errorResponse{Error: message, Details: details})
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
