package usps

import (
	"context"
	"errors"
	"testing"

	"github.com/zippuff/zippuff/internal/model"
)

// fakeService counts calls and returns canned results.
type fakeService struct {
	calls  int
	result *model.LookupResult
	err    error
}

func (f *fakeService) CityState(ctx context.Context, zip model.ZIPCode) (*model.LookupResult, error) {
	f.calls++
	return f.result, f.err
}

func (f *fakeService) ZIPCode(ctx context.Context, q AddressQuery) (*model.LookupResult, error) {
	f.calls++
	return f.result, f.err
}

func (f *fakeService) Status() Status {
	return Status{Service: "fake"}
}

// fakeCache is an in-memory ResultCache.
type fakeCache struct {
	store   map[string]*model.LookupResult
	getErr  error
	putErr  error
	putKeys []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: map[string]*model.LookupResult{}}
}

func (f *fakeCache) Get(ctx context.Context, query string) (*model.LookupResult, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.store[query], nil
}

func (f *fakeCache) Put(ctx context.Context, res *model.LookupResult) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.putKeys = append(f.putKeys, res.Query)
	f.store[res.Query] = res
	return nil
}

func apiResult(query string) *model.LookupResult {
	return &model.LookupResult{
		Query: query, ZIPCode: "20012", City: "WASHINGTON", State: "DC",
		Source: model.SourceAPI,
	}
}

func TestCachedServiceCityState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	zip := model.MustNewZIPCode("20012")

	t.Run("miss hits the API and stores the result", func(t *testing.T) {
		t.Parallel()

		svc := &fakeService{result: apiResult("zip:20012")}
		fc := newFakeCache()
		cs := NewCachedService(svc, fc, nil)

		res, err := cs.CityState(ctx, zip)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.Source != model.SourceAPI {
			t.Errorf("expected API source, got %q", res.Source)
		}
		if svc.calls != 1 {
			t.Errorf("expected 1 API call, got %d", svc.calls)
		}
		if len(fc.putKeys) != 1 || fc.putKeys[0] != "zip:20012" {
			t.Errorf("expected result stored under 'zip:20012', got %v", fc.putKeys)
		}
	})

	t.Run("hit skips the API", func(t *testing.T) {
		t.Parallel()

		svc := &fakeService{result: apiResult("zip:20012")}
		fc := newFakeCache()
		cached := apiResult("zip:20012")
		cached.Source = model.SourceCache
		fc.store["zip:20012"] = cached

		cs := NewCachedService(svc, fc, nil)

		res, err := cs.CityState(ctx, zip)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.Source != model.SourceCache {
			t.Errorf("expected cache source, got %q", res.Source)
		}
		if svc.calls != 0 {
			t.Errorf("expected no API calls, got %d", svc.calls)
		}
	})

	t.Run("broken cache degrades to API lookups", func(t *testing.T) {
		t.Parallel()

		svc := &fakeService{result: apiResult("zip:20012")}
		fc := newFakeCache()
		fc.getErr = errors.New("disk gone")
		fc.putErr = errors.New("disk gone")

		cs := NewCachedService(svc, fc, nil)

		res, err := cs.CityState(ctx, zip)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res == nil || res.ZIPCode != "20012" {
			t.Errorf("unexpected result %+v", res)
		}
	})

	t.Run("API error is not cached", func(t *testing.T) {
		t.Parallel()

		svc := &fakeService{err: ErrNotFound}
		fc := newFakeCache()
		cs := NewCachedService(svc, fc, nil)

		if _, err := cs.CityState(ctx, zip); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if len(fc.putKeys) != 0 {
			t.Errorf("expected nothing stored, got %v", fc.putKeys)
		}
	})
}

func TestCachedServiceZIPCode(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("city and state use the cache", func(t *testing.T) {
		t.Parallel()

		svc := &fakeService{result: apiResult("city:WASHINGTON,DC")}
		fc := newFakeCache()
		cs := NewCachedService(svc, fc, nil)

		q := AddressQuery{City: "Washington", State: model.MustNewStateCode("DC")}
		if _, err := cs.ZIPCode(ctx, q); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, err := cs.ZIPCode(ctx, q); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if svc.calls != 1 {
			t.Errorf("expected 1 API call, got %d", svc.calls)
		}
	})

	t.Run("street address bypasses the cache", func(t *testing.T) {
		t.Parallel()

		svc := &fakeService{result: apiResult("city:WASHINGTON,DC")}
		fc := newFakeCache()
		cs := NewCachedService(svc, fc, nil)

		q := AddressQuery{
			City:          "Washington",
			State:         model.MustNewStateCode("DC"),
			StreetAddress: "1600 Pennsylvania Ave NW",
		}
		if _, err := cs.ZIPCode(ctx, q); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, err := cs.ZIPCode(ctx, q); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if svc.calls != 2 {
			t.Errorf("expected 2 API calls, got %d", svc.calls)
		}
		if len(fc.putKeys) != 0 {
			t.Errorf("expected nothing stored, got %v", fc.putKeys)
		}
	})
}
