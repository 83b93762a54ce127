package stream

import (
	"bytes"

	"github.com/tidwall/gjson"
)

// DefaultMaxPending bounds the bytes held for one incomplete line or payload.
const DefaultMaxPending = 64 << 10

// Assembler joins payload fragments until they form one complete JSON
// document. A fragment that does not parse is kept and retried with the
// fragments that follow it instead of being discarded.
type Assembler struct {
	pending   []byte
	max       int
	normalize func([]byte) []byte
}

// NewAssembler creates an assembler. max <= 0 disables the size bound.
// normalize, if set, is tried on every candidate before the raw bytes.
func NewAssembler(max int, normalize func([]byte) []byte) *Assembler {
	return &Assembler{
		max:       max,
		normalize: normalize,
	}
}

// Offer adds one fragment. It returns the completed document, owned by the
// caller, or nil when more input is needed. dropped is an earlier pending
// payload given up as malformed.
func (a *Assembler) Offer(fragment []byte) (doc, dropped []byte) {
	if len(a.pending) == 0 {
		if complete, ok := a.complete(fragment); ok {
			return bytes.Clone(complete), nil
		}
		a.pending = bytes.Clone(fragment)
		return nil, a.overflow()
	}

	joined := make([]byte, 0, len(a.pending)+1+len(fragment))
	joined = append(joined, a.pending...)
	joined = append(joined, '\n')
	joined = append(joined, fragment...)

	if complete, ok := a.complete(joined); ok {
		a.pending = nil
		return complete, nil
	}

	// A fragment that stands on its own as an object means the pending bytes
	// were never going to complete.
	if startsObject(fragment) {
		if complete, ok := a.complete(fragment); ok {
			dropped = a.pending
			a.pending = nil
			return bytes.Clone(complete), dropped
		}
	}

	a.pending = joined
	return nil, a.overflow()
}

// Pending reports whether an incomplete payload is buffered.
func (a *Assembler) Pending() bool {
	return len(a.pending) > 0
}

// Discard drops and returns the buffered incomplete payload.
func (a *Assembler) Discard() []byte {
	p := a.pending
	a.pending = nil
	return p
}

func (a *Assembler) complete(candidate []byte) ([]byte, bool) {
	if a.normalize != nil {
		if n := a.normalize(candidate); len(n) > 0 && gjson.ValidBytes(n) {
			return n, true
		}
	}
	if len(candidate) > 0 && gjson.ValidBytes(candidate) {
		return candidate, true
	}
	return nil, false
}

func (a *Assembler) overflow() []byte {
	if a.max > 0 && len(a.pending) > a.max {
		return a.Discard()
	}
	return nil
}

func startsObject(p []byte) bool {
	p = bytes.TrimLeft(p, " \t")
	return len(p) > 0 && p[0] == '{'
}

// TrimArrayFraming strips the brackets and separators that wrap elements of
// a streamed top-level JSON array.
func TrimArrayFraming(p []byte) []byte {
	p = bytes.TrimSpace(p)
	p = bytes.TrimLeft(p, "[, \t\r\n")
	p = bytes.TrimRight(p, "], \t\r\n")
	return p
}
