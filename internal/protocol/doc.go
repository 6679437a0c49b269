// Package protocol owns the message wire contract and its codec.
//
// Wire layout, big-endian:
//
//	version  1 byte   must equal Version
//	type     1 byte   opaque
//	length   2 bytes  payload byte count
//	payload  length   opaque
//	checksum 1 byte   XOR of payload bytes
//
// Ownership boundary:
// - Message value and its invariants
// - single message encode/decode
// - cursor over concatenated messages
//
// Every function here is pure and safe for concurrent use on distinct inputs.
package protocol
