package protocol

import "encoding/binary"

// Decode parses the message at the start of b and returns it with the number
// of bytes it occupied. Bytes past the message are left untouched.
func Decode(b []byte) (Message, int, error) {
	if len(b) < HeaderLen {
		return Message{}, 0, &TooShortError{Need: HeaderLen, Have: len(b)}
	}

	version := b[0]
	if version != Version {
		return Message{}, 0, &UnsupportedVersionError{Found: version}
	}
	messageType := b[1]
	declared := int(binary.BigEndian.Uint16(b[2:4]))

	// declared is untrusted until checked against what is actually there.
	total := HeaderLen + declared + ChecksumLen
	if len(b) < total {
		return Message{}, 0, &TooShortError{Need: total, Have: len(b)}
	}

	payload := cloneBytes(b[HeaderLen : HeaderLen+declared])
	found := b[HeaderLen+declared]
	if expected := Checksum(payload); expected != found {
		return Message{}, 0, &ChecksumMismatchError{Expected: expected, Found: found}
	}

	return Message{
		version:     version,
		messageType: messageType,
		payload:     payload,
	}, total, nil
}

// DecodeAll decodes every message in b. On failure it returns the messages
// decoded before the bad one together with an *OffsetError.
func DecodeAll(b []byte) ([]Message, error) {
	var out []Message
	d := NewDecoder(b)
	for d.Next() {
		out = append(out, d.Message())
	}
	return out, d.Err()
}
