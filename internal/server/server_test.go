package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/wirecodec/internal/config"
	"github.com/danmuck/wirecodec/internal/inspect"
	"github.com/danmuck/wirecodec/internal/protocol"
	"github.com/danmuck/wirecodec/internal/testutil/testlog"
	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newInspector(t *testing.T) *Inspector {
	t.Helper()
	cfg := config.DefaultConfig().Server
	cfg.MaxBodyBytes = 256
	return New(cfg)
}

func encoded(t *testing.T, msgType uint8, payload string) []byte {
	t.Helper()
	msg, err := protocol.NewMessage(protocol.Version, msgType, []byte(payload))
	if err != nil {
		t.Fatalf("new message: %v", err)
	}
	b, err := protocol.Encode(msg)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return b
}

func do(t *testing.T, s *Inspector, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	rr := httptest.NewRecorder()
	s.HTTPRouter().ServeHTTP(rr, req)
	return rr
}

func TestHealthAndReady(t *testing.T) {
	testlog.Start(t)
	s := newInspector(t)

	for _, path := range []string{"/health", "/ready"} {
		rr := do(t, s, http.MethodGet, path, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rr.Code)
		}
	}

	rr := do(t, s, http.MethodGet, "/ready", nil)
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode ready: %v", err)
	}
	if body["protocol_version"] != float64(1) {
		t.Fatalf("unexpected ready body: %#v", body)
	}
}

func TestDecodeConcatenatedMessages(t *testing.T) {
	testlog.Start(t)
	s := newInspector(t)

	body := append(encoded(t, 10, ""), encoded(t, 20, "hi")...)
	rr := do(t, s, http.MethodPost, "/v1/decode", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var resp DecodeResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	want := DecodeResponse{
		Messages: []MessageView{
			{Version: 1, Type: 10, Length: 0, Checksum: 0, PayloadHex: ""},
			{Version: 1, Type: 20, Length: 2, Checksum: 'h' ^ 'i', PayloadHex: "68 69"},
		},
		Consumed: len(body),
	}
	if diff := cmp.Diff(want, resp); diff != "" {
		t.Fatalf("response mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeHexBody(t *testing.T) {
	testlog.Start(t)
	s := newInspector(t)

	rr := do(t, s, http.MethodPost, "/v1/decode?format=hex", []byte(inspect.Hex(encoded(t, 5, "Hello"))))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = do(t, s, http.MethodPost, "/v1/decode?format=hex", []byte("zz"))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad hex, got %d", rr.Code)
	}
}

func TestDecodeFailureReturnsPartialResults(t *testing.T) {
	testlog.Start(t)
	s := newInspector(t)

	good := encoded(t, 1, "ok")
	bad := encoded(t, 2, "bad")
	bad[0] = 2
	rr := do(t, s, http.MethodPost, "/v1/decode", append(good, bad...))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d body=%s", rr.Code, rr.Body.String())
	}
	var resp DecodeResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Messages) != 1 || resp.Messages[0].Type != 1 {
		t.Fatalf("expected partial result with one message, got %+v", resp.Messages)
	}
	if resp.Offset == nil || *resp.Offset != len(good) || resp.Reason != "unsupported_version" {
		t.Fatalf("unexpected failure detail: %+v", resp)
	}

	metrics := do(t, s, http.MethodGet, "/metrics", nil).Body.String()
	if !strings.Contains(metrics, `wirecodec_codec_decode_failures_total{reason="unsupported_version",source="http"}`) {
		t.Fatalf("decode failure not counted by request middleware")
	}
}

func TestNewAcceptsValidatedOrigins(t *testing.T) {
	testlog.Start(t)

	cfg := config.DefaultConfig()
	cfg.Server.CorsOrigins = []string{"*", "https://ops.example"}
	if err := config.Validate(cfg); err != nil {
		t.Fatalf("validate: %v", err)
	}
	s := New(cfg.Server)
	if rr := do(t, s, http.MethodGet, "/health", nil); rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestDecodeBodyTooLarge(t *testing.T) {
	testlog.Start(t)
	s := newInspector(t)

	rr := do(t, s, http.MethodPost, "/v1/decode", make([]byte, 1024))
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rr.Code)
	}
}

func TestInspectBreakdown(t *testing.T) {
	testlog.Start(t)
	s := newInspector(t)

	rr := do(t, s, http.MethodPost, "/v1/inspect", encoded(t, 5, "Hello"))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var bd inspect.Breakdown
	if err := json.Unmarshal(rr.Body.Bytes(), &bd); err != nil {
		t.Fatalf("decode breakdown: %v", err)
	}
	if !bd.ChecksumOK || bd.Length != 5 || len(bd.Fields) != 5 {
		t.Fatalf("unexpected breakdown: %+v", bd)
	}

	rr = do(t, s, http.MethodPost, "/v1/inspect", []byte{1})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for short input, got %d", rr.Code)
	}
}

func TestEncodeEndpoint(t *testing.T) {
	testlog.Start(t)
	s := newInspector(t)

	rr := do(t, s, http.MethodPost, "/v1/encode", []byte(`{"type":5,"payload":"Hello"}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if !bytes.Equal(rr.Body.Bytes(), encoded(t, 5, "Hello")) {
		t.Fatalf("unexpected body: % X", rr.Body.Bytes())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/octet-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	rr = do(t, s, http.MethodPost, "/v1/encode?format=hex", []byte(`{"version":1,"type":1,"payload_hex":"01 02 03"}`))
	if rr.Code != http.StatusOK || rr.Body.String() != "01 01 00 03 01 02 03 00" {
		t.Fatalf("unexpected hex encode: %d %q", rr.Code, rr.Body.String())
	}
}

func TestEncodeEndpointRejectsBadRequests(t *testing.T) {
	testlog.Start(t)
	s := newInspector(t)

	cases := map[string]struct {
		body string
		want int
	}{
		"not-json":     {body: `{`, want: http.StatusBadRequest},
		"type-range":   {body: `{"type":300}`, want: http.StatusBadRequest},
		"both-payload": {body: `{"type":1,"payload":"a","payload_hex":"61"}`, want: http.StatusBadRequest},
		"bad-hex":      {body: `{"type":1,"payload_hex":"xyz"}`, want: http.StatusBadRequest},
	}
	for name, tc := range cases {
		rr := do(t, s, http.MethodPost, "/v1/encode", []byte(tc.body))
		if rr.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d body=%s", name, tc.want, rr.Code, rr.Body.String())
		}
	}
}

func TestMetricsEndpointExposesCodecCounters(t *testing.T) {
	testlog.Start(t)
	s := newInspector(t)

	do(t, s, http.MethodPost, "/v1/decode", encoded(t, 1, "x"))
	rr := do(t, s, http.MethodGet, "/metrics", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "wirecodec_codec_messages_decoded_total") {
		t.Fatalf("metrics missing codec counter")
	}
}

func TestServeListenerStopsOnCancel(t *testing.T) {
	testlog.Start(t)
	s := newInspector(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.ServeListener(ctx, ln)
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	if err != nil {
		t.Fatalf("get health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not stop")
	}
}
