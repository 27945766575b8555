package usps

import (
	"context"
	"encoding/xml"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/zippuff/zippuff/internal/model"
)

func newLegacyTestClient(t *testing.T, handler http.HandlerFunc) *LegacyClient {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewLegacyClient("TESTUSER",
		WithLegacyHTTPClient(srv.Client()),
		WithLegacyBaseURL(srv.URL),
		WithLegacyRateLimit(0, 0),
	)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return client
}

func TestNewLegacyClient(t *testing.T) {
	t.Parallel()

	if _, err := NewLegacyClient(""); !errors.Is(err, ErrNoCredentials) {
		t.Errorf("expected ErrNoCredentials, got %v", err)
	}
}

func TestLegacyCityState(t *testing.T) {
	t.Parallel()

	t.Run("successful lookup", func(t *testing.T) {
		t.Parallel()
		client := newLegacyTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("API"); got != "CityStateLookup" {
				t.Errorf("unexpected API param %q", got)
			}

			var req cityStateLookupRequest
			if err := xml.Unmarshal([]byte(r.URL.Query().Get("XML")), &req); err != nil {
				t.Errorf("failed to parse request XML: %v", err)
			}
			if req.UserID != "TESTUSER" {
				t.Errorf("unexpected USERID %q", req.UserID)
			}
			if req.ZipCode.Zip5 != "20012" {
				t.Errorf("unexpected Zip5 %q", req.ZipCode.Zip5)
			}

			w.Header().Set("Content-Type", "application/xml")
			w.Write([]byte(`<?xml version="1.0"?>
<CityStateLookupResponse><ZipCode ID="0"><Zip5>20012</Zip5><City>WASHINGTON</City><State>DC</State></ZipCode></CityStateLookupResponse>`))
		})

		res, err := client.CityState(context.Background(), model.MustNewZIPCode("20012"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.City != "WASHINGTON" || res.State != "DC" || res.ZIPCode != "20012" {
			t.Errorf("unexpected result %+v", res)
		}
	})

	t.Run("nested error element", func(t *testing.T) {
		t.Parallel()
		client := newLegacyTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/xml")
			w.Write([]byte(`<?xml version="1.0"?>
<CityStateLookupResponse><ZipCode ID="0"><Error><Number>-2147219399</Number><Description>Invalid Zip Code.</Description></Error></ZipCode></CityStateLookupResponse>`))
		})

		_, err := client.CityState(context.Background(), model.MustNewZIPCode("00000"))
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("top-level authorization error", func(t *testing.T) {
		t.Parallel()
		client := newLegacyTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/xml")
			w.Write([]byte(`<?xml version="1.0"?>
<Error><Number>80040B1A</Number><Description>Authorization failure.</Description></Error>`))
		})

		_, err := client.CityState(context.Background(), model.MustNewZIPCode("20012"))
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected APIError, got %v", err)
		}
		if apiErr.Message != "Authorization failure." {
			t.Errorf("unexpected message %q", apiErr.Message)
		}
	})
}

func TestLegacyZIPCode(t *testing.T) {
	t.Parallel()

	t.Run("successful lookup", func(t *testing.T) {
		t.Parallel()
		client := newLegacyTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("API"); got != "ZipCodeLookup" {
				t.Errorf("unexpected API param %q", got)
			}

			var req zipCodeLookupRequest
			if err := xml.Unmarshal([]byte(r.URL.Query().Get("XML")), &req); err != nil {
				t.Errorf("failed to parse request XML: %v", err)
			}
			if req.Address.Address2 != "1600 Pennsylvania Ave NW" {
				t.Errorf("unexpected Address2 %q", req.Address.Address2)
			}

			w.Header().Set("Content-Type", "application/xml")
			w.Write([]byte(`<?xml version="1.0"?>
<ZipCodeLookupResponse><Address ID="0"><City>WASHINGTON</City><State>DC</State><Zip5>20500</Zip5></Address></ZipCodeLookupResponse>`))
		})

		res, err := client.ZIPCode(context.Background(), AddressQuery{
			City:          "Washington",
			State:         model.MustNewStateCode("DC"),
			StreetAddress: "1600 Pennsylvania Ave NW",
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.ZIPCode != "20500" {
			t.Errorf("expected '20500', got %q", res.ZIPCode)
		}
	})

	t.Run("street address required", func(t *testing.T) {
		t.Parallel()
		client := newLegacyTestClient(t, nil)

		_, err := client.ZIPCode(context.Background(), AddressQuery{
			City:  "Washington",
			State: model.MustNewStateCode("DC"),
		})
		if !errors.Is(err, ErrStreetAddressRequired) {
			t.Errorf("expected ErrStreetAddressRequired, got %v", err)
		}
	})
}

func TestLegacyStatus(t *testing.T) {
	t.Parallel()

	client, err := NewLegacyClient("TESTUSER")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	st := client.Status()
	if st.Service != "usps-webtools-legacy" {
		t.Errorf("expected 'usps-webtools-legacy', got %q", st.Service)
	}
	if st.OAuthConfigured {
		t.Error("expected OAuthConfigured to be false")
	}
	if st.BaseURL != LegacyBaseURL {
		t.Errorf("expected %q, got %q", LegacyBaseURL, st.BaseURL)
	}
}
