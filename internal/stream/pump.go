package stream

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/davidbz/affirmrelay/internal/domain"
)

const readBufferSize = 4096

// MalformedFunc observes a line or payload dropped by the decoder.
type MalformedFunc func(line []byte)

// Pump reads body through dec and forwards chunks on out: deltas, then one
// Done chunk at the terminator or end of input, or one Error chunk. Pump owns
// body and out and closes both. A cancelled ctx stops it without sending.
func Pump(ctx context.Context, body io.ReadCloser, dec *Decoder, out chan<- domain.StreamChunk, onMalformed MalformedFunc) {
	defer close(out)
	defer body.Close()

	buf := make([]byte, readBufferSize)
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			res := dec.Decode(buf[:n])
			if !forward(ctx, out, res, onMalformed) {
				return
			}
			if res.Done {
				send(ctx, out, domain.StreamChunk{Done: true})
				return
			}
		}

		if errors.Is(readErr, io.EOF) {
			if forward(ctx, out, dec.Flush(), onMalformed) {
				send(ctx, out, domain.StreamChunk{Done: true})
			}
			return
		}

		if readErr != nil {
			send(ctx, out, domain.StreamChunk{Error: fmt.Errorf("read upstream stream: %w", readErr)})
			return
		}
	}
}

func forward(ctx context.Context, out chan<- domain.StreamChunk, res Result, onMalformed MalformedFunc) bool {
	if onMalformed != nil {
		for _, line := range res.Malformed {
			onMalformed(line)
		}
	}

	for _, chunk := range res.Chunks {
		if !send(ctx, out, chunk) {
			return false
		}
	}

	if res.Err != nil {
		send(ctx, out, domain.StreamChunk{Error: res.Err})
		return false
	}

	return true
}

func send(ctx context.Context, out chan<- domain.StreamChunk, chunk domain.StreamChunk) bool {
	select {
	case out <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}
