package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func TestGetTokenCost(t *testing.T) {
	tests := []struct {
		name         string
		method       string
		path         string
		query        string
		expectedCost int64
	}{
		{"Health endpoint", http.MethodGet, "/health", "", 5},
		{"Health with params", http.MethodGet, "/health", "test=value", 5},
		{"Metrics endpoint", http.MethodGet, "/metrics", "", 0},
		{"Hospital", http.MethodGet, "/v1/hospital", "", 5},

		{"Search", http.MethodGet, "/v1/items", "q=metoprolol", 50},
		{"Search with price type", http.MethodGet, "/v1/items", "q=insulin&price_type=discounted_cash", 50},
		{"Search blank query", http.MethodGet, "/v1/items", "q=+", 5},
		{"Search missing query", http.MethodGet, "/v1/items", "", 5},
		{"Item lookup", http.MethodGet, "/v1/items/0123456789abcdef", "", 10},
		{"Item lookup with suffix", http.MethodGet, "/v1/items/0123456789abcdef-2", "", 10},

		{"Parse", http.MethodGet, "/v1/parse", "description=HEPARIN+5000+UNITS/ML", 10},
		{"Parse blank description", http.MethodGet, "/v1/parse", "description=", 5},
		{"Parse extra param", http.MethodGet, "/v1/parse", "description=TAB&x=1", 5},

		{"Estimate", http.MethodPost, "/v1/estimates", "", 30},
		{"Preflight", http.MethodOptions, "/v1/estimates", "", 0},

		{"Unknown endpoint", http.MethodGet, "/unknown", "", 20},
		{"Root path", http.MethodGet, "/", "", 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path+"?"+tt.query, nil)
			cost := getTokenCost(req)

			if cost != tt.expectedCost {
				t.Errorf("Expected cost %d for %s %s?%s, got %d",
					tt.expectedCost, tt.method, tt.path, tt.query, cost)
			}
		})
	}
}

func TestHasSingleParam(t *testing.T) {
	tests := []struct {
		name          string
		query         string
		allowedParams []string
		expected      bool
	}{
		{"Single param present", "description=TAB", []string{"description", "q"}, true},
		{"Single param from list", "q=insulin", []string{"description", "q"}, true},
		{"No params present", "", []string{"description"}, false},
		{"Two params present", "q=insulin&price_type=gross_charge", []string{"q", "price_type"}, false},
		{"Param not in allowed list", "other=value", []string{"description"}, false},
		{"Empty string param", "description=", []string{"description"}, false},
		{"Whitespace param", "description=+++", []string{"description"}, false},
		{"Repeated param", "q=a&q=b", []string{"q"}, false},
		{"Empty allowed list", "q=1", []string{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, _ := url.ParseQuery(tt.query)
			result := HasSingleParam(values, tt.allowedParams)

			if result != tt.expected {
				t.Errorf("Expected %v for query %s with allowed %v, got %v",
					tt.expected, tt.query, tt.allowedParams, result)
			}
		})
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl := NewRateLimiter(0.001, 60)
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(path, remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = remote
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	first := send("/v1/items?q=insulin", "192.0.2.1")
	if first.Code != http.StatusOK {
		t.Fatalf("Expected first request to pass, got %d", first.Code)
	}
	if first.Header().Get("X-RateLimit-Limit") != "60" {
		t.Errorf("Expected limit header 60, got %q", first.Header().Get("X-RateLimit-Limit"))
	}
	if first.Header().Get("X-RateLimit-Remaining") != "10" {
		t.Errorf("Expected 10 tokens left, got %q", first.Header().Get("X-RateLimit-Remaining"))
	}

	limited := send("/v1/items?q=insulin", "192.0.2.1")
	if limited.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected 429, got %d", limited.Code)
	}
	if limited.Header().Get("Retry-After") != "60" {
		t.Error("Expected Retry-After header on limited response")
	}

	// Free endpoints stay reachable with an empty bucket
	if rr := send("/metrics", "192.0.2.1"); rr.Code != http.StatusOK {
		t.Errorf("Expected free endpoint to pass, got %d", rr.Code)
	}

	// Other clients have their own bucket
	if rr := send("/v1/items?q=insulin", "192.0.2.2"); rr.Code != http.StatusOK {
		t.Errorf("Expected another client to pass, got %d", rr.Code)
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(0.001, 10)

	rl.getBucket("192.0.2.1")
	rl.getBucket("192.0.2.2").TakeAvailable(10)

	if removed := rl.Cleanup(); removed != 1 {
		t.Errorf("Expected 1 idle client removed, got %d", removed)
	}
	if rl.clientCount() != 1 {
		t.Errorf("Expected 1 tracked client, got %d", rl.clientCount())
	}
}

func TestRateLimiterStartCleanupStops(t *testing.T) {
	rl := NewRateLimiter(1000, 10)
	rl.getBucket("192.0.2.1")

	ctx, cancel := context.WithCancel(context.Background())
	rl.StartCleanup(ctx, 10*time.Millisecond)

	deadline := time.Now().Add(time.Second)
	for rl.clientCount() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	if rl.clientCount() != 0 {
		t.Error("Expected the background cleanup to remove the idle client")
	}
}

func TestRateLimiterSameBucketPerClient(t *testing.T) {
	rl := NewRateLimiter(3, 1000)
	if rl.getBucket("192.0.2.1") != rl.getBucket("192.0.2.1") {
		t.Error("Expected the same bucket for the same client")
	}
	if rl.getBucket("192.0.2.1") == rl.getBucket("192.0.2.2") {
		t.Error("Expected different buckets for different clients")
	}
}
