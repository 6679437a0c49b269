package protocol

import (
	"bytes"
	"fmt"
)

const (
	Version       uint8 = 1
	HeaderLen           = 4
	ChecksumLen         = 1
	MinMessageLen       = HeaderLen + ChecksumLen
	MaxPayloadLen       = 1<<16 - 1
)

// Message is one decoded wire message. It is immutable once built.
type Message struct {
	version     uint8
	messageType uint8
	payload     []byte
}

// NewMessage copies payload into a new Message.
func NewMessage(version, messageType uint8, payload []byte) (Message, error) {
	if len(payload) > MaxPayloadLen {
		return Message{}, &OversizedPayloadError{Len: len(payload)}
	}
	return Message{
		version:     version,
		messageType: messageType,
		payload:     cloneBytes(payload),
	}, nil
}

func (m Message) Version() uint8 {
	return m.version
}

func (m Message) Type() uint8 {
	return m.messageType
}

// Payload returns a copy of the payload bytes.
func (m Message) Payload() []byte {
	return cloneBytes(m.payload)
}

func (m Message) Len() int {
	return len(m.payload)
}

// Checksum is the XOR fold of the payload, as written on the wire.
func (m Message) Checksum() uint8 {
	return Checksum(m.payload)
}

// EncodedLen is the number of bytes Encode produces for m.
func (m Message) EncodedLen() int {
	return MinMessageLen + len(m.payload)
}

// Equal reports whether both messages encode to the same bytes.
func (m Message) Equal(other Message) bool {
	return m.version == other.version &&
		m.messageType == other.messageType &&
		bytes.Equal(m.payload, other.payload)
}

// Validate checks that m would be accepted by Decode after encoding.
func (m Message) Validate() error {
	if m.version != Version {
		return &UnsupportedVersionError{Found: m.version}
	}
	if len(m.payload) > MaxPayloadLen {
		return &OversizedPayloadError{Len: len(m.payload)}
	}
	return nil
}

func (m Message) String() string {
	return fmt.Sprintf("Message{version=%d, type=%d, len=%d}", m.version, m.messageType, len(m.payload))
}

func (m Message) MarshalBinary() ([]byte, error) {
	return Encode(m)
}

// UnmarshalBinary decodes exactly one message; trailing bytes are rejected.
func (m *Message) UnmarshalBinary(data []byte) error {
	decoded, n, err := Decode(data)
	if err != nil {
		return err
	}
	if n != len(data) {
		return fmt.Errorf("%w: %d", ErrTrailingBytes, len(data)-n)
	}
	*m = decoded
	return nil
}

// Checksum XOR-folds b. The empty fold is 0 and byte order does not matter.
func Checksum(b []byte) uint8 {
	var sum uint8
	for _, v := range b {
		sum ^= v
	}
	return sum
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
