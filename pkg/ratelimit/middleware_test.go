package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"easybus/internal/shared/config"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestGetRateLimitType(t *testing.T) {
	tests := map[string]RateLimitType{
		"/health":                    RateLimitTypeHealth,
		"/ping":                      RateLimitTypeHealth,
		"/api/v1/admin/buses":        RateLimitTypeAdmin,
		"/api/v1/admin/bookings":     RateLimitTypeAdmin,
		"/api/v1/auth/login":         RateLimitTypeAuth,
		"/api/v1/seats/block":        RateLimitTypeBookingCritical,
		"/api/v1/booking/confirm":    RateLimitTypeBookingCritical,
		"/api/v1/booking/my":         RateLimitTypeBooking,
		"/api/v1/seats/:scheduleId":  RateLimitTypePublic,
		"/api/v1/buses/search":       RateLimitTypePublic,
		"/api/v1/users/cities":       RateLimitTypePublic,
		"/api/v1/something-unrouted": RateLimitTypeDefault,
	}
	for path, want := range tests {
		if got := getRateLimitType(path); got != want {
			t.Errorf("getRateLimitType(%q) = %s, want %s", path, got, want)
		}
	}
}

func TestIsAllowedWithoutRedis(t *testing.T) {
	cfg := config.RateLimitConfig{
		Enabled:                 true,
		WindowDuration:          time.Minute,
		BookingCriticalRequests: 15,
		WhitelistedIPs:          []string{"10.0.0.1"},
	}

	for _, limiter := range []*RateLimiter{
		NewRateLimiter(nil, cfg),
		NewRateLimiter(nil, config.RateLimitConfig{Enabled: false, BookingCriticalRequests: 15}),
	} {
		result, err := limiter.IsAllowed(context.Background(), "10.0.0.2", RateLimitTypeBookingCritical)
		if err != nil {
			t.Fatalf("IsAllowed() error = %v", err)
		}
		if !result.Allowed || result.Limit != 15 || result.Remaining != 15 {
			t.Errorf("result = %+v", result)
		}
	}
}

func TestMiddlewareSetsHeaders(t *testing.T) {
	limiter := NewRateLimiter(nil, config.RateLimitConfig{Enabled: true, WindowDuration: time.Minute, PublicRequests: 120})

	engine := gin.New()
	engine.Use(Middleware(limiter))
	engine.GET("/api/v1/buses/search", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/buses/search", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Header().Get("X-RateLimit-Limit") != "120" {
		t.Errorf("X-RateLimit-Limit = %q", w.Header().Get("X-RateLimit-Limit"))
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"}, "10.0.0.1:1234", "203.0.113.5"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.7"}, "10.0.0.1:1234", "198.51.100.7"},
		{"bad forwarded", map[string]string{"X-Forwarded-For": "garbage"}, "10.0.0.1:1234", "10.0.0.1"},
		{"remote", nil, "192.0.2.9:555", "192.0.2.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = req
			if got := getClientIP(c); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
