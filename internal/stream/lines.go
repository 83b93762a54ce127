// Package stream turns upstream event streams into the relay's client
// contract: incremental line splitting, JSON reassembly across read
// boundaries, and the re-framing of provider payloads into delta events.
package stream

import "bytes"

// LineBuffer accumulates bytes across reads and yields complete lines.
// A trailing partial line is retained until more bytes arrive.
type LineBuffer struct {
	buf []byte
	off int
}

// Write appends one read worth of bytes.
func (b *LineBuffer) Write(p []byte) {
	if b.off == len(b.buf) {
		b.buf = b.buf[:0]
		b.off = 0
	}
	b.buf = append(b.buf, p...)
}

// Next returns the next complete line without its "\n" or "\r\n".
// The slice is only valid until the next call to Next, Write or Rest.
func (b *LineBuffer) Next() ([]byte, bool) {
	i := bytes.IndexByte(b.buf[b.off:], '\n')
	if i < 0 {
		b.compact()
		return nil, false
	}

	line := b.buf[b.off : b.off+i]
	b.off += i + 1

	return bytes.TrimSuffix(line, []byte("\r")), true
}

// Rest removes and returns the buffered partial line.
func (b *LineBuffer) Rest() []byte {
	rest := bytes.TrimSuffix(b.buf[b.off:], []byte("\r"))
	b.buf = nil
	b.off = 0
	return rest
}

// Len reports the number of buffered bytes not yet returned.
func (b *LineBuffer) Len() int {
	return len(b.buf) - b.off
}

func (b *LineBuffer) compact() {
	if b.off == 0 {
		return
	}
	n := copy(b.buf, b.buf[b.off:])
	b.buf = b.buf[:n]
	b.off = 0
}
