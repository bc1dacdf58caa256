package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	var seen string
	r.GET("/", func(c *gin.Context) {
		seen = c.GetString(requestIDKey)
		c.Status(http.StatusOK)
	})

	w := do(r, http.MethodGet, "/", nil)
	if seen == "" || w.Header().Get(requestIDHeader) != seen {
		t.Fatalf("generated id not propagated: ctx=%q header=%q", seen, w.Header().Get(requestIDHeader))
	}
	w = do(r, http.MethodGet, "/", map[string]string{"x-request-id": "rid-1"})
	if seen != "rid-1" || w.Header().Get(requestIDHeader) != "rid-1" {
		t.Fatalf("incoming id not reused: %q", seen)
	}
}

func TestRecovery(t *testing.T) {
	buf := withCapturedLogger(t)
	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.GET("/boom", func(*gin.Context) { panic("boom") })
	r.GET("/late", func(c *gin.Context) {
		c.String(http.StatusOK, "partial")
		panic("late")
	})

	w := do(r, http.MethodGet, "/boom", map[string]string{requestIDHeader: "rid-p"})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	body := decode(t, w)
	if body["code"] != "internal_error" || body["request_id"] != "rid-p" {
		t.Fatalf("body = %v", body)
	}
	if line := lastLogLine(t, buf); line["message"] != "panic recovered" || line["request_id"] != "rid-p" {
		t.Fatalf("log = %v", line)
	}

	w = do(r, http.MethodGet, "/late", nil)
	if w.Code != http.StatusOK || w.Body.String() != "partial" {
		t.Fatalf("written response must be left alone: %d %q", w.Code, w.Body.String())
	}
}

func TestLoggerFrom_Fallback(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if LoggerFrom(c) == nil {
		t.Fatalf("nil fallback logger")
	}
	c.Set(loggerKey, "not a logger")
	if LoggerFrom(c) == nil {
		t.Fatalf("nil logger for wrong type")
	}
}
