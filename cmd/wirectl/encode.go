package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danmuck/wirecodec/internal/inspect"
	"github.com/danmuck/wirecodec/internal/protocol"
	"github.com/rs/zerolog/log"
)

func runEncode(e env, args []string) error {
	fs := flag.NewFlagSet("encode", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	version := fs.Uint("version", uint(protocol.Version), "protocol version byte")
	msgType := fs.Uint("type", 0, "message type byte (0-255)")
	payload := fs.String("payload", "", "payload as text")
	payloadHex := fs.String("payload-hex", "", "payload as hex")
	out := fs.String("out", "", "write raw bytes to this file instead of hex to stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *version > 0xff || *msgType > 0xff {
		fmt.Fprintln(e.stderr, "wirectl encode: -version and -type must be 0..255")
		return errUsage
	}
	if *payload != "" && *payloadHex != "" {
		fmt.Fprintln(e.stderr, "wirectl encode: -payload and -payload-hex are mutually exclusive")
		return errUsage
	}

	body := []byte(*payload)
	if *payloadHex != "" {
		p, err := inspect.ParseHex(*payloadHex)
		if err != nil {
			return err
		}
		body = p
	}

	msg, err := protocol.NewMessage(uint8(*version), uint8(*msgType), body)
	if err != nil {
		return err
	}
	encoded, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	log.Debug().Stringer("message", msg).Int("bytes", len(encoded)).Msg("encoded")

	if *out == "" {
		_, err = fmt.Fprintln(e.stdout, inspect.Hex(encoded))
		return err
	}
	if err := os.WriteFile(*out, encoded, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	log.Info().Str("path", *out).Int("bytes", len(encoded)).Msg("wrote message")
	return nil
}
