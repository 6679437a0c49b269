package observability

import (
	"errors"
	"time"

	"github.com/danmuck/wirecodec/internal/protocol"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const outcomeKey = "wirecodec.decode_outcome"

// DecodeOutcome is what a handler decoded from its request body.
type DecodeOutcome struct {
	Decoded int
	Err     error
}

// Reason is the FailureReason label for o.Err, or "" on success.
func (o DecodeOutcome) Reason() string {
	if o.Err == nil {
		return ""
	}
	return FailureReason(o.Err)
}

// Offset is the byte offset where decoding stopped, or -1 when o.Err carries
// none.
func (o DecodeOutcome) Offset() int {
	var off *protocol.OffsetError
	if errors.As(o.Err, &off) {
		return off.Offset
	}
	return -1
}

// MarkDecode attaches the decode outcome to c for the request middleware.
func MarkDecode(c *gin.Context, decoded int, err error) {
	c.Set(outcomeKey, DecodeOutcome{Decoded: decoded, Err: err})
}

// OutcomeOf returns the outcome a handler marked on c, if any.
func OutcomeOf(c *gin.Context) (DecodeOutcome, bool) {
	v, ok := c.Get(outcomeKey)
	if !ok {
		return DecodeOutcome{}, false
	}
	o, ok := v.(DecodeOutcome)
	return o, ok
}

// RequestLogger writes one line per request. Requests that touched the codec
// also carry the decoded count and, on failure, the reason and offset.
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := zerolog.InfoLevel
		switch {
		case status >= 500:
			level = zerolog.ErrorLevel
		case status >= 400:
			level = zerolog.WarnLevel
		}

		event := logger.WithLevel(level).
			Str("method", c.Request.Method).
			Str("route", routeOf(c)).
			Int("status", status).
			Dur("elapsed", time.Since(start)).
			Int64("body_bytes", c.Request.ContentLength).
			Int("resp_bytes", c.Writer.Size())
		if o, ok := OutcomeOf(c); ok {
			event = event.Int("decoded", o.Decoded)
			if o.Err != nil {
				event = event.Str("reason", o.Reason()).Err(o.Err)
				if off := o.Offset(); off >= 0 {
					event = event.Int("offset", off)
				}
			}
		}
		event.Msg("inspector_request")
	}
}

// RequestMetrics records the HTTP request under service and counts a decode
// failure under source when the handler marked one.
func RequestMetrics(service, source string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		RecordHTTPRequest(service, c.Request.Method, routeOf(c), c.Writer.Status(), time.Since(start))
		if o, ok := OutcomeOf(c); ok && o.Err != nil {
			RecordDecodeFailure(source, o.Err)
		}
	}
}

func routeOf(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}
