package client

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/davidbz/affirmrelay/internal/domain"
	"github.com/davidbz/affirmrelay/internal/stream"
)

const readBufferSize = 4096

// Stream iterates over the text deltas of one relay response. It is not safe
// for concurrent use.
type Stream struct {
	ctx     context.Context
	body    io.ReadCloser
	dec     *stream.Decoder
	buf     []byte
	pending []domain.StreamChunk
	current string

	// finished is set once no more reads will happen; finalErr is reported
	// after the pending deltas are consumed.
	finished bool
	finalErr error
	err      error
}

// Next advances to the next delta. It returns false at the end of the stream
// or on failure; Err tells them apart.
func (s *Stream) Next() bool {
	for {
		if len(s.pending) > 0 {
			s.current = s.pending[0].Delta
			s.pending = s.pending[1:]
			return true
		}

		if s.finished {
			s.err = s.finalErr
			s.current = ""
			return false
		}

		s.read()
	}
}

// Current returns the delta text Next advanced to.
func (s *Stream) Current() string {
	return s.current
}

// Err returns the failure that ended the stream, if any.
func (s *Stream) Err() error {
	return s.err
}

// Close releases the connection. It is safe to call more than once.
func (s *Stream) Close() error {
	if s.body == nil {
		return nil
	}
	err := s.body.Close()
	s.body = nil
	return err
}

// read performs one body read and queues what it decoded.
func (s *Stream) read() {
	if err := s.ctx.Err(); err != nil {
		s.finish(err)
		return
	}

	n, readErr := s.body.Read(s.buf)
	if n > 0 {
		res := s.dec.Decode(s.buf[:n])
		s.pending = append(s.pending, res.Chunks...)
		if res.Done {
			// Anything after the terminator is ignored.
			s.finish(nil)
			return
		}
	}

	switch {
	case errors.Is(readErr, io.EOF):
		res := s.dec.Flush()
		s.pending = append(s.pending, res.Chunks...)
		if res.Done {
			s.finish(nil)
			return
		}
		s.finish(errIncomplete)
	case readErr != nil:
		s.finish(readErr)
	}
}

func (s *Stream) finish(err error) {
	s.finished = true
	if err != nil {
		s.finalErr = fmt.Errorf("%w: %w", ErrConnection, err)
	}
	_ = s.Close()
}
