package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrTooShort           = errors.New("protocol: message too short")
	ErrUnsupportedVersion = errors.New("protocol: unsupported version")
	ErrChecksumMismatch   = errors.New("protocol: checksum mismatch")
	ErrOversizedPayload   = errors.New("protocol: payload too large")
	ErrTrailingBytes      = errors.New("protocol: trailing bytes after message")
)

// TooShortError reports a buffer that ends before the structure it declares.
type TooShortError struct {
	Need int
	Have int
}

func (e *TooShortError) Error() string {
	return fmt.Sprintf("protocol: message too short: need %d bytes, have %d", e.Need, e.Have)
}

func (e *TooShortError) Is(target error) bool {
	return target == ErrTooShort
}

// UnsupportedVersionError reports a version byte other than Version.
type UnsupportedVersionError struct {
	Found uint8
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("protocol: unsupported version %d (only %d is supported)", e.Found, Version)
}

func (e *UnsupportedVersionError) Is(target error) bool {
	return target == ErrUnsupportedVersion
}

// ChecksumMismatchError carries the recomputed checksum as Expected and the
// checksum byte read from the wire as Found.
type ChecksumMismatchError struct {
	Expected uint8
	Found    uint8
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("protocol: checksum mismatch: expected 0x%02X, found 0x%02X", e.Expected, e.Found)
}

func (e *ChecksumMismatchError) Is(target error) bool {
	return target == ErrChecksumMismatch
}

// OversizedPayloadError reports a payload that cannot fit the 16-bit length field.
type OversizedPayloadError struct {
	Len int
}

func (e *OversizedPayloadError) Error() string {
	return fmt.Sprintf("protocol: payload too large: %d bytes (max %d)", e.Len, MaxPayloadLen)
}

func (e *OversizedPayloadError) Is(target error) bool {
	return target == ErrOversizedPayload
}

// OffsetError locates a decode failure inside a buffer of concatenated messages.
type OffsetError struct {
	Offset int
	Err    error
}

func (e *OffsetError) Error() string {
	return fmt.Sprintf("protocol: message at offset %d: %v", e.Offset, e.Err)
}

func (e *OffsetError) Unwrap() error {
	return e.Err
}
