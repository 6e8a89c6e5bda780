package telemetry

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInit(t *testing.T) {
	// Call Init multiple times to test idempotency.
	Init()
	Init()

	if httpRequestsTotal == nil || searchRequestsTotal == nil ||
		discoveryTotal == nil || verifyChecksTotal == nil ||
		generationRequestsTotal == nil || storeRecords == nil {
		t.Fatal("Init() did not initialize metrics collectors")
	}

	ObserveSearch("ok")
	if val := testutil.ToFloat64(searchRequestsTotal.WithLabelValues("ok")); val != 1 {
		t.Errorf("Expected searchRequestsTotal{ok} to be 1, got %f", val)
	}

	ObserveDiscovery("found")
	if val := testutil.ToFloat64(discoveryTotal.WithLabelValues("found")); val != 1 {
		t.Errorf("Expected discoveryTotal{found} to be 1, got %f", val)
	}

	SetStoreRecords(42)
	if val := testutil.ToFloat64(storeRecords); val != 42 {
		t.Errorf("Expected storeRecords to be 42, got %f", val)
	}

	ObserveEnrichWait(50 * time.Millisecond)
	if val := testutil.CollectAndCount(enrichWaitSeconds); val <= 0 {
		t.Errorf("Expected enrichWaitSeconds to be observed, got %d", val)
	}
}

func TestMiddleware(t *testing.T) {
	Init()
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/test", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/notfound", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	ts := httptest.NewServer(r)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/test")
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if errInner := resp.Body.Close(); errInner != nil {
			t.Log(errInner)
		}
	}()

	resp, err = http.Get(ts.URL + "/notfound")
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if errInner := resp.Body.Close(); errInner != nil {
			t.Log(errInner)
		}
	}()

	if val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "200")); val != 1 {
		t.Errorf("Expected httpRequestsTotal for GET /test to be 1, got %f", val)
	}
	if val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "404")); val != 1 {
		t.Errorf("Expected httpRequestsTotal for GET /notfound to be 1, got %f", val)
	}
	if val := testutil.CollectAndCount(httpRequestDurationSeconds); val <= 0 {
		t.Errorf("Expected httpRequestDurationSeconds to be observed, got %d", val)
	}
}
