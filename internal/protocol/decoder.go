package protocol

import "iter"

// Decoder walks a buffer of concatenated messages. It does not rewind: once
// Next returns false it keeps returning false.
type Decoder struct {
	buf    []byte
	offset int
	cur    Message
	err    error
	done   bool
}

func NewDecoder(b []byte) *Decoder {
	return &Decoder{buf: b}
}

// Next decodes the message at the current offset and advances past it.
func (d *Decoder) Next() bool {
	if d.done {
		return false
	}
	if d.offset >= len(d.buf) {
		d.done = true
		return false
	}
	msg, n, err := Decode(d.buf[d.offset:])
	if err != nil {
		d.err = &OffsetError{Offset: d.offset, Err: err}
		d.done = true
		return false
	}
	d.cur = msg
	d.offset += n
	return true
}

// Message returns the message decoded by the last successful Next.
func (d *Decoder) Message() Message {
	return d.cur
}

func (d *Decoder) Err() error {
	return d.err
}

// Offset is the number of bytes consumed so far.
func (d *Decoder) Offset() int {
	return d.offset
}

// Messages yields every message in b. A decode failure is yielded once, as
// the last element, with a zero Message.
func Messages(b []byte) iter.Seq2[Message, error] {
	return func(yield func(Message, error) bool) {
		d := NewDecoder(b)
		for d.Next() {
			if !yield(d.Message(), nil) {
				return
			}
		}
		if err := d.Err(); err != nil {
			yield(Message{}, err)
		}
	}
}
