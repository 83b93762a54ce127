package stream

import (
	"bytes"

	"github.com/davidbz/affirmrelay/internal/domain"
)

var (
	dataField  = []byte("data:")
	terminator = []byte("[DONE]")
)

// ConvertFunc turns one complete JSON document into a chunk. ok=false skips
// the document; a non-nil error ends the stream as a failure.
type ConvertFunc func(doc []byte) (chunk domain.StreamChunk, ok bool, err error)

// Options configures a Decoder for one wire shape.
type Options struct {
	// RequireData skips every line that is not an SSE "data:" field.
	RequireData bool
	// StopAtTerminator ends decoding at "[DONE]"; otherwise the token is skipped.
	StopAtTerminator bool
	// ArrayFraming accepts elements of a streamed top-level JSON array.
	ArrayFraming bool
	// MaxPending bounds an incomplete line or payload; 0 means DefaultMaxPending.
	MaxPending int
	// Convert maps documents to chunks.
	Convert ConvertFunc
}

// Result is what one Decode or Flush call produced.
type Result struct {
	Chunks []domain.StreamChunk
	// Malformed holds lines or payloads dropped because they never parsed.
	Malformed [][]byte
	// Done is set once the terminator token has been seen.
	Done bool
	// Err is an in-band failure reported by the upstream.
	Err error
}

// Decoder is a single-pass, non-restartable stream decoder.
type Decoder struct {
	opts     Options
	lines    LineBuffer
	payload  *Assembler
	fromData bool
	stopped  bool
}

// NewDecoder creates a decoder for the given wire shape.
func NewDecoder(opts Options) *Decoder {
	if opts.MaxPending <= 0 {
		opts.MaxPending = DefaultMaxPending
	}

	var normalize func([]byte) []byte
	if opts.ArrayFraming {
		normalize = TrimArrayFraming
	}

	return &Decoder{
		opts:    opts,
		payload: NewAssembler(opts.MaxPending, normalize),
	}
}

// Decode consumes one read worth of bytes.
func (d *Decoder) Decode(p []byte) Result {
	var res Result
	if d.stopped {
		return res
	}

	d.lines.Write(p)
	for !d.stopped {
		line, ok := d.lines.Next()
		if !ok {
			break
		}
		d.processLine(line, &res)
	}

	if !d.stopped && d.lines.Len() > d.opts.MaxPending {
		res.Malformed = append(res.Malformed, bytes.Clone(d.lines.Rest()))
	}

	return res
}

// Flush processes whatever is still buffered once the input has ended.
// The decoder accepts no input afterwards.
func (d *Decoder) Flush() Result {
	var res Result
	if d.stopped {
		return res
	}

	if rest := d.lines.Rest(); len(bytes.TrimSpace(rest)) > 0 {
		d.processLine(bytes.Clone(rest), &res)
	}

	if !d.stopped {
		if pending := d.payload.Discard(); len(pending) > 0 {
			res.Malformed = append(res.Malformed, pending)
		}
	}

	d.stopped = true
	return res
}

// Stopped reports whether the terminator or an in-band error ended decoding.
func (d *Decoder) Stopped() bool {
	return d.stopped
}

func (d *Decoder) processLine(line []byte, res *Result) {
	trimmed := bytes.TrimSpace(line)

	if len(trimmed) == 0 {
		// Blank line ends an SSE event; data lines never join across it.
		if d.fromData {
			d.dropPending(res)
		}
		return
	}

	if trimmed[0] == ':' {
		return
	}

	payload, isData := cutData(trimmed)
	if !isData && (d.opts.RequireData || isEventField(trimmed)) {
		return
	}

	if bytes.Equal(payload, terminator) {
		d.dropPending(res)
		if d.opts.StopAtTerminator {
			d.stopped = true
			res.Done = true
		}
		return
	}

	if d.opts.ArrayFraming && !d.payload.Pending() && len(TrimArrayFraming(payload)) == 0 {
		return
	}

	doc, dropped := d.payload.Offer(payload)
	if dropped != nil {
		res.Malformed = append(res.Malformed, dropped)
	}
	if doc == nil {
		d.fromData = isData
		return
	}
	d.fromData = false

	chunk, ok, err := d.opts.Convert(doc)
	if err != nil {
		d.stopped = true
		res.Err = err
		return
	}
	if ok {
		res.Chunks = append(res.Chunks, chunk)
	}
}

func (d *Decoder) dropPending(res *Result) {
	if pending := d.payload.Discard(); len(pending) > 0 {
		res.Malformed = append(res.Malformed, pending)
	}
	d.fromData = false
}

func cutData(line []byte) ([]byte, bool) {
	rest, ok := bytes.CutPrefix(line, dataField)
	if !ok {
		return line, false
	}
	return bytes.TrimSpace(rest), true
}

func isEventField(line []byte) bool {
	for _, field := range [][]byte{[]byte("event:"), []byte("id:"), []byte("retry:")} {
		if bytes.HasPrefix(line, field) {
			return true
		}
	}
	return false
}
