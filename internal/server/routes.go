package server

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/danmuck/wirecodec/internal/inspect"
	"github.com/danmuck/wirecodec/internal/observability"
	"github.com/danmuck/wirecodec/internal/protocol"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricSource = "http"

// MessageView is the JSON rendering of one decoded message.
type MessageView struct {
	Version    uint8  `json:"version"`
	Type       uint8  `json:"type"`
	Length     int    `json:"length"`
	Checksum   uint8  `json:"checksum"`
	PayloadHex string `json:"payload_hex"`
}

type DecodeResponse struct {
	Messages []MessageView `json:"messages"`
	Consumed int           `json:"consumed"`
	Error    string        `json:"error,omitempty"`
	Reason   string        `json:"reason,omitempty"`
	Offset   *int          `json:"offset,omitempty"`
}

type EncodeRequest struct {
	Version    *uint8 `json:"version"`
	Type       uint8  `json:"type"`
	Payload    string `json:"payload"`
	PayloadHex string `json:"payload_hex"`
}

func NewMessageView(m protocol.Message) MessageView {
	return MessageView{
		Version:    m.Version(),
		Type:       m.Type(),
		Length:     m.Len(),
		Checksum:   m.Checksum(),
		PayloadHex: inspect.Hex(m.Payload()),
	}
}

func (s *Inspector) RegisterRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.Appeared).String(),
			"service": s.Name,
			"version": "0.1.0",
		})
	})

	s.router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ready":            true,
			"service":          s.Name,
			"protocol_version": protocol.Version,
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.router.Group("/v1")
	v1.POST("/decode", s.handleDecode)
	v1.POST("/inspect", s.handleInspect)
	v1.POST("/encode", s.handleEncode)
}

func (s *Inspector) handleDecode(c *gin.Context) {
	body, ok := s.readBody(c)
	if !ok {
		return
	}

	resp := DecodeResponse{Messages: []MessageView{}}
	d := protocol.NewDecoder(body)
	for d.Next() {
		msg := d.Message()
		observability.RecordDecoded(metricSource, msg.EncodedLen())
		resp.Messages = append(resp.Messages, NewMessageView(msg))
	}
	resp.Consumed = d.Offset()

	err := d.Err()
	observability.MarkDecode(c, len(resp.Messages), err)
	if err != nil {
		offset := d.Offset()
		resp.Error = err.Error()
		resp.Reason = observability.FailureReason(err)
		resp.Offset = &offset
		c.JSON(http.StatusUnprocessableEntity, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Inspector) handleInspect(c *gin.Context) {
	body, ok := s.readBody(c)
	if !ok {
		return
	}
	bd, err := inspect.Describe(body)
	if err != nil {
		observability.MarkDecode(c, 0, err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "reason": observability.FailureReason(err)})
		return
	}
	c.JSON(http.StatusOK, bd)
}

func (s *Inspector) handleEncode(c *gin.Context) {
	var req EncodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Payload != "" && req.PayloadHex != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payload and payload_hex are mutually exclusive"})
		return
	}

	payload := []byte(req.Payload)
	if req.PayloadHex != "" {
		p, err := inspect.ParseHex(req.PayloadHex)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		payload = p
	}
	version := protocol.Version
	if req.Version != nil {
		version = *req.Version
	}

	msg, err := protocol.NewMessage(version, req.Type, payload)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	out, err := protocol.Encode(msg)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	observability.RecordEncoded(metricSource)

	if wantsHex(c) {
		c.String(http.StatusOK, inspect.Hex(out))
		return
	}
	c.Data(http.StatusOK, "application/octet-stream", out)
}

// readBody enforces MaxBodyBytes and decodes ?format=hex bodies.
func (s *Inspector) readBody(c *gin.Context) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, s.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
			return nil, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	if !wantsHex(c) {
		return body, true
	}
	decoded, err := inspect.ParseHex(string(body))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	return decoded, true
}

func wantsHex(c *gin.Context) bool {
	return strings.EqualFold(c.Query("format"), "hex")
}
