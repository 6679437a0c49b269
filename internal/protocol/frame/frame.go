package frame

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/danmuck/wirecodec/internal/protocol"
)

var ErrPayloadTooLarge = errors.New("frame: payload exceeds limit")

// Limits constrains frame decode memory use.
type Limits struct {
	MaxPayloadBytes int
}

func DefaultLimits() Limits {
	return Limits{MaxPayloadBytes: protocol.MaxPayloadLen}
}

// ReadMessage reads one whole message from r with default limits.
func ReadMessage(r io.Reader) (protocol.Message, error) {
	return readMessage(r, DefaultLimits())
}

// WriteMessage writes the encoding of m to w.
func WriteMessage(w io.Writer, m protocol.Message) error {
	b, err := protocol.Encode(m)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

func readMessage(r io.Reader, limits Limits) (protocol.Message, error) {
	var head [protocol.HeaderLen]byte
	n, err := io.ReadFull(r, head[:])
	switch {
	case errors.Is(err, io.EOF):
		return protocol.Message{}, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		return protocol.Message{}, &protocol.TooShortError{Need: protocol.HeaderLen, Have: n}
	case err != nil:
		return protocol.Message{}, err
	}

	if head[0] != protocol.Version {
		return protocol.Message{}, &protocol.UnsupportedVersionError{Found: head[0]}
	}
	declared := int(binary.BigEndian.Uint16(head[2:4]))
	if declared > limits.MaxPayloadBytes {
		return protocol.Message{}, ErrPayloadTooLarge
	}

	buf := make([]byte, protocol.HeaderLen+declared+protocol.ChecksumLen)
	copy(buf, head[:])
	body := buf[protocol.HeaderLen:]
	n, err = io.ReadFull(r, body)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return protocol.Message{}, &protocol.TooShortError{Need: len(buf), Have: protocol.HeaderLen + n}
	}
	if err != nil {
		return protocol.Message{}, err
	}

	msg, _, err := protocol.Decode(buf)
	return msg, err
}

// Reader yields consecutive messages from a stream.
type Reader struct {
	r        io.Reader
	limits   Limits
	count    int
	consumed int64
	cur      protocol.Message
	err      error
}

func NewReader(r io.Reader, limits Limits) *Reader {
	if limits.MaxPayloadBytes <= 0 || limits.MaxPayloadBytes > protocol.MaxPayloadLen {
		limits.MaxPayloadBytes = protocol.MaxPayloadLen
	}
	return &Reader{r: r, limits: limits}
}

// Next reads the next message. It returns false at a clean end of stream or
// on the first error; Err distinguishes the two.
func (r *Reader) Next() bool {
	if r.err != nil {
		return false
	}
	msg, err := readMessage(r.r, r.limits)
	if err != nil {
		if errors.Is(err, io.EOF) {
			r.err = io.EOF
			return false
		}
		r.err = &protocol.OffsetError{Offset: int(r.consumed), Err: err}
		return false
	}
	r.cur = msg
	r.count++
	r.consumed += int64(msg.EncodedLen())
	return true
}

func (r *Reader) Message() protocol.Message {
	return r.cur
}

// Err returns the first non-EOF error.
func (r *Reader) Err() error {
	if errors.Is(r.err, io.EOF) {
		return nil
	}
	return r.err
}

func (r *Reader) Count() int {
	return r.count
}

func (r *Reader) Consumed() int64 {
	return r.consumed
}
