package usps

import (
	"context"
	"errors"
	"fmt"

	"github.com/zippuff/zippuff/internal/model"
)

// UnavailableService is a Service stand-in used when no credentials are
// configured. Every lookup fails with ErrNoCredentials, which lets the
// REST server start anyway and answer 503 per request until credentials
// arrive.
type UnavailableService struct {
	reason error
}

// NewUnavailableService creates an UnavailableService. The reason is
// carried in the lookup errors; nil defaults to ErrNoCredentials.
func NewUnavailableService(reason error) *UnavailableService {
	return &UnavailableService{reason: reason}
}

// CityState always fails with ErrNoCredentials.
func (s *UnavailableService) CityState(_ context.Context, _ model.ZIPCode) (*model.LookupResult, error) {
	return nil, s.err()
}

// ZIPCode always fails with ErrNoCredentials.
func (s *UnavailableService) ZIPCode(_ context.Context, _ AddressQuery) (*model.LookupResult, error) {
	return nil, s.err()
}

// Status reports the client as unconfigured.
func (s *UnavailableService) Status() Status {
	return Status{Service: "unconfigured"}
}

func (s *UnavailableService) err() error {
	if s.reason == nil || errors.Is(s.reason, ErrNoCredentials) {
		return ErrNoCredentials
	}
	return fmt.Errorf("%w: %v", ErrNoCredentials, s.reason)
}
