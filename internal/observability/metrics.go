package observability

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/danmuck/wirecodec/internal/protocol"
	"github.com/danmuck/wirecodec/internal/protocol/frame"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wirecodec",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wirecodec",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	messagesEncoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wirecodec",
			Subsystem: "codec",
			Name:      "messages_encoded_total",
			Help:      "Messages encoded.",
		},
		[]string{"source"},
	)
	messagesDecoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wirecodec",
			Subsystem: "codec",
			Name:      "messages_decoded_total",
			Help:      "Messages decoded successfully.",
		},
		[]string{"source"},
	)
	bytesDecoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wirecodec",
			Subsystem: "codec",
			Name:      "bytes_decoded_total",
			Help:      "Bytes consumed by successful decodes.",
		},
		[]string{"source"},
	)
	decodeFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wirecodec",
			Subsystem: "codec",
			Name:      "decode_failures_total",
			Help:      "Decode failures by reason.",
		},
		[]string{"source", "reason"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, messagesEncoded, messagesDecoded, bytesDecoded, decodeFailures)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordEncoded(source string) {
	RegisterMetrics()
	messagesEncoded.WithLabelValues(source).Inc()
}

func RecordDecoded(source string, n int) {
	RegisterMetrics()
	messagesDecoded.WithLabelValues(source).Inc()
	bytesDecoded.WithLabelValues(source).Add(float64(n))
}

func RecordDecodeFailure(source string, err error) {
	RegisterMetrics()
	decodeFailures.WithLabelValues(source, FailureReason(err)).Inc()
}

// FailureReason maps a codec error to a stable metric label.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, protocol.ErrTooShort):
		return "too_short"
	case errors.Is(err, protocol.ErrUnsupportedVersion):
		return "unsupported_version"
	case errors.Is(err, protocol.ErrChecksumMismatch):
		return "checksum_mismatch"
	case errors.Is(err, protocol.ErrOversizedPayload), errors.Is(err, frame.ErrPayloadTooLarge):
		return "oversized_payload"
	default:
		return "other"
	}
}
