package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	SecurityHeadersMiddleware()(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, HeaderValueNoSniff, rec.Header().Get(HeaderContentType))
	assert.Equal(t, HeaderValueDeny, rec.Header().Get(HeaderFrameOptions))
	assert.Equal(t, HeaderValueXSSBlock, rec.Header().Get(HeaderXSSProtection))
	assert.Equal(t, HeaderValueReferrerStrictOrigin, rec.Header().Get(HeaderReferrerPolicy))
}

func TestRateLimitMiddleware_BlocksHighRate(t *testing.T) {
	detector := NewSuspiciousActivityDetector()
	h := RateLimitMiddleware(nil, detector)(okHandler())

	var lastCode int
	for i := 0; i < 1001; i++ {
		req := httptest.NewRequest(http.MethodGet, "/oauth/callback", nil)
		req.RemoteAddr = "203.0.113.9:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		lastCode = rec.Code
	}

	assert.Equal(t, http.StatusTooManyRequests, lastCode)
}

func TestRateLimitMiddleware_TracksPerIP(t *testing.T) {
	detector := NewSuspiciousActivityDetector()
	h := RateLimitMiddleware(nil, detector)(okHandler())

	// Exhaust one IP's budget
	for i := 0; i < 1001; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "203.0.113.9:1234"
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	// A different IP is unaffected
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.7:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestExtractIP(t *testing.T) {
	tests := []struct {
		name           string
		remoteAddr     string
		forwardedFor   string
		trustedProxies []string
		want           string
	}{
		{"direct connection", "192.0.2.1:5000", "", nil, "192.0.2.1"},
		{"forwarded header ignored from untrusted source", "192.0.2.1:5000", "10.0.0.5", nil, "192.0.2.1"},
		{"forwarded header honored from trusted proxy", "192.0.2.1:5000", "10.0.0.5", []string{"192.0.2.1"}, "10.0.0.5"},
		{"rightmost hop wins", "192.0.2.1:5000", "10.0.0.5, 10.0.0.6", []string{"192.0.2.1"}, "10.0.0.6"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwardedFor != "" {
				req.Header.Set(HeaderForwardedFor, tt.forwardedFor)
			}

			assert.Equal(t, tt.want, extractIP(req, tt.trustedProxies))
		})
	}
}

func TestWatchRejections_CountsBadRequests(t *testing.T) {
	detector := NewSuspiciousActivityDetector()

	rejecting := func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rejected", http.StatusBadRequest)
	}
	h := watchRejections(nil, detector, rejecting)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/oauth/callback", nil)
		req.RemoteAddr = "203.0.113.9:1234"
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	detector.mu.Lock()
	defer detector.mu.Unlock()
	assert.Equal(t, 3, detector.rejectedByIP["203.0.113.9"])
}

func TestWatchRejections_IgnoresSuccess(t *testing.T) {
	detector := NewSuspiciousActivityDetector()
	h := watchRejections(nil, detector, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/oauth/callback", nil)
	req.RemoteAddr = "203.0.113.9:1234"
	h.ServeHTTP(httptest.NewRecorder(), req)

	detector.mu.Lock()
	defer detector.mu.Unlock()
	assert.Empty(t, detector.rejectedByIP)
}
