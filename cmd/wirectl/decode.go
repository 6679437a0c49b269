package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/danmuck/wirecodec/internal/inspect"
	"github.com/danmuck/wirecodec/internal/protocol"
	"github.com/danmuck/wirecodec/internal/protocol/frame"
	"github.com/rs/zerolog/log"
)

func runDecode(e env, args []string) error {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	in := fs.String("in", "-", "input file, - for stdin")
	hexInput := fs.Bool("hex", false, "input is hex text")
	if err := fs.Parse(args); err != nil {
		return err
	}

	r, err := openInput(e, *in)
	if err != nil {
		return err
	}
	defer r.Close()

	count := 0
	emit := func(msg protocol.Message) {
		fmt.Fprintf(e.stdout, "[%d] %s checksum=0x%02X payload=%s\n",
			count, msg, msg.Checksum(), inspect.PayloadText(msg.Payload()))
		count++
	}

	if *hexInput {
		buf, err := readHex(r)
		if err != nil {
			return err
		}
		msgs, err := protocol.DecodeAll(buf)
		for _, msg := range msgs {
			emit(msg)
		}
		if err != nil {
			return fmt.Errorf("decoded %d messages before failure: %w", count, err)
		}
		log.Info().Int("messages", count).Int("bytes", len(buf)).Msg("decode complete")
		return nil
	}

	fr := frame.NewReader(r, e.cfg.FrameLimits())
	for fr.Next() {
		emit(fr.Message())
	}
	if err := fr.Err(); err != nil {
		return fmt.Errorf("decoded %d messages before failure: %w", count, err)
	}
	log.Info().Int("messages", fr.Count()).Int64("bytes", fr.Consumed()).Msg("decode complete")
	return nil
}

func runInspect(e env, args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	in := fs.String("in", "-", "input file, - for stdin")
	hexInput := fs.Bool("hex", false, "input is hex text")
	if err := fs.Parse(args); err != nil {
		return err
	}

	r, err := openInput(e, *in)
	if err != nil {
		return err
	}
	defer r.Close()

	var buf []byte
	if *hexInput {
		buf, err = readHex(r)
	} else {
		buf, err = io.ReadAll(r)
	}
	if err != nil {
		return err
	}

	bd, err := inspect.Describe(buf)
	if err != nil {
		return err
	}
	fmt.Fprint(e.stdout, bd.Text())
	if !bd.VersionOK {
		return &protocol.UnsupportedVersionError{Found: bd.Version}
	}
	if !bd.ChecksumOK {
		return &protocol.ChecksumMismatchError{Expected: bd.ComputedChecksum, Found: bd.Checksum}
	}
	return nil
}

func readHex(r io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return inspect.ParseHex(string(raw))
}
