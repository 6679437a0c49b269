package observability

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danmuck/wirecodec/internal/protocol"
	"github.com/danmuck/wirecodec/internal/testutil/testlog"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

func newTestEngine(buf *bytes.Buffer, source string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger(zerolog.New(buf)))
	r.Use(RequestMetrics("middleware-test", source))
	r.POST("/decode", func(c *gin.Context) {
		MarkDecode(c, 2, &protocol.OffsetError{Offset: 12, Err: &protocol.ChecksumMismatchError{Expected: 1, Found: 2}})
		c.Status(http.StatusUnprocessableEntity)
	})
	r.GET("/plain", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func serve(r *gin.Engine, method, path string) {
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(method, path, nil))
}

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var out map[string]any
	if err := json.Unmarshal(lines[len(lines)-1], &out); err != nil {
		t.Fatalf("parse log line %q: %v", lines[len(lines)-1], err)
	}
	return out
}

func TestMiddlewareCarriesDecodeOutcome(t *testing.T) {
	testlog.Start(t)

	var buf bytes.Buffer
	r := newTestEngine(&buf, "middleware-outcome")
	serve(r, http.MethodPost, "/decode")

	line := lastLine(t, &buf)
	if line["level"] != "warn" || line["route"] != "/decode" || line["status"] != float64(422) {
		t.Fatalf("unexpected request fields: %v", line)
	}
	if line["decoded"] != float64(2) || line["reason"] != "checksum_mismatch" || line["offset"] != float64(12) {
		t.Fatalf("unexpected outcome fields: %v", line)
	}
	if got := testutil.ToFloat64(decodeFailures.WithLabelValues("middleware-outcome", "checksum_mismatch")); got != 1 {
		t.Fatalf("failures=%v want 1", got)
	}
}

func TestMiddlewareWithoutOutcome(t *testing.T) {
	testlog.Start(t)

	var buf bytes.Buffer
	r := newTestEngine(&buf, "middleware-plain")
	serve(r, http.MethodGet, "/plain")
	serve(r, http.MethodGet, "/missing")

	line := lastLine(t, &buf)
	if line["route"] != "unmatched" || line["status"] != float64(404) {
		t.Fatalf("unexpected unmatched fields: %v", line)
	}
	if _, ok := line["reason"]; ok {
		t.Fatalf("reason logged without a decode outcome: %v", line)
	}
	if got := testutil.ToFloat64(httpRequests.WithLabelValues("middleware-test", "GET", "/plain", "200")); got < 1 {
		t.Fatalf("plain request not counted: %v", got)
	}
}

func TestDecodeOutcomeOffset(t *testing.T) {
	testlog.Start(t)

	if off := (DecodeOutcome{Err: &protocol.TooShortError{Need: 5, Have: 1}}).Offset(); off != -1 {
		t.Fatalf("offset=%d want -1", off)
	}
	if reason := (DecodeOutcome{Decoded: 3}).Reason(); reason != "" {
		t.Fatalf("reason=%q want empty", reason)
	}
}
