// Package inspect renders the byte layout of encoded messages for humans.
package inspect

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/danmuck/wirecodec/internal/protocol"
)

// Field is one region of an encoded message.
type Field struct {
	Name   string `json:"name"`
	Offset int    `json:"offset"`
	Size   int    `json:"size"`
	Hex    string `json:"hex"`
	Value  string `json:"value"`
}

// Breakdown describes the first message in a buffer. Version and checksum
// problems are reported in the flags rather than as errors.
type Breakdown struct {
	Version          uint8   `json:"version"`
	Type             uint8   `json:"type"`
	Length           int     `json:"length"`
	Checksum         uint8   `json:"checksum"`
	ComputedChecksum uint8   `json:"computed_checksum"`
	VersionOK        bool    `json:"version_ok"`
	ChecksumOK       bool    `json:"checksum_ok"`
	Total            int     `json:"total"`
	Fields           []Field `json:"fields"`
}

// Describe lays out the message at the start of b. It fails only when b is
// too short to hold the structure its header declares.
func Describe(b []byte) (Breakdown, error) {
	if len(b) < protocol.HeaderLen {
		return Breakdown{}, &protocol.TooShortError{Need: protocol.HeaderLen, Have: len(b)}
	}
	declared := int(binary.BigEndian.Uint16(b[2:4]))
	total := protocol.HeaderLen + declared + protocol.ChecksumLen
	if len(b) < total {
		return Breakdown{}, &protocol.TooShortError{Need: total, Have: len(b)}
	}

	payload := b[protocol.HeaderLen : protocol.HeaderLen+declared]
	found := b[total-1]
	computed := protocol.Checksum(payload)

	bd := Breakdown{
		Version:          b[0],
		Type:             b[1],
		Length:           declared,
		Checksum:         found,
		ComputedChecksum: computed,
		VersionOK:        b[0] == protocol.Version,
		ChecksumOK:       found == computed,
		Total:            total,
	}
	checksumNote := "ok"
	if !bd.ChecksumOK {
		checksumNote = fmt.Sprintf("mismatch, computed 0x%02X", computed)
	}
	bd.Fields = []Field{
		{Name: "version", Offset: 0, Size: 1, Hex: Hex(b[0:1]), Value: strconv.Itoa(int(b[0]))},
		{Name: "type", Offset: 1, Size: 1, Hex: Hex(b[1:2]), Value: strconv.Itoa(int(b[1]))},
		{Name: "length", Offset: 2, Size: 2, Hex: Hex(b[2:4]), Value: strconv.Itoa(declared)},
		{Name: "payload", Offset: protocol.HeaderLen, Size: declared, Hex: Hex(payload), Value: PayloadText(payload)},
		{Name: "checksum", Offset: total - 1, Size: 1, Hex: Hex(b[total-1 : total]), Value: checksumNote},
	}
	return bd, nil
}

// Text renders one line per field.
func (bd Breakdown) Text() string {
	var sb strings.Builder
	for _, f := range bd.Fields {
		span := strconv.Itoa(f.Offset)
		if f.Size > 1 {
			span = fmt.Sprintf("%d-%d", f.Offset, f.Offset+f.Size-1)
		} else if f.Size == 0 {
			span = fmt.Sprintf("%d-", f.Offset)
		}
		fmt.Fprintf(&sb, "[%s] %-8s %-12s %s\n", span, f.Name, truncate(f.Hex, 12), f.Value)
	}
	return sb.String()
}

// Hex renders b as uppercase space-separated byte pairs.
func Hex(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return fmt.Sprintf("% X", b)
}

// ParseHex accepts hex with optional whitespace, colon or comma separators
// and 0x prefixes on each byte or on the whole string.
func ParseHex(s string) ([]byte, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == ':' || r == ','
	})
	var sb strings.Builder
	for _, f := range fields {
		f = strings.TrimPrefix(strings.TrimPrefix(f, "0x"), "0X")
		sb.WriteString(f)
	}
	out, err := hex.DecodeString(sb.String())
	if err != nil {
		return nil, fmt.Errorf("inspect: parse hex: %w", err)
	}
	return out, nil
}

// PayloadText quotes UTF-8 payloads and summarizes binary ones.
func PayloadText(p []byte) string {
	if len(p) == 0 {
		return `""`
	}
	if utf8.Valid(p) {
		return strconv.Quote(string(p))
	}
	return fmt.Sprintf("<%d bytes>", len(p))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
