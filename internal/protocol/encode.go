package protocol

import "encoding/binary"

// Encode serializes m using the protocol wire format. The version byte is
// written as-is.
func Encode(m Message) ([]byte, error) {
	return AppendEncode(make([]byte, 0, m.EncodedLen()), m)
}

// AppendEncode appends the encoding of m to dst.
func AppendEncode(dst []byte, m Message) ([]byte, error) {
	if len(m.payload) > MaxPayloadLen {
		return dst, &OversizedPayloadError{Len: len(m.payload)}
	}
	dst = append(dst, m.version, m.messageType)
	dst = binary.BigEndian.AppendUint16(dst, uint16(len(m.payload)))
	dst = append(dst, m.payload...)
	return append(dst, Checksum(m.payload)), nil
}
