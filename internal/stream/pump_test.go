package stream_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/affirmrelay/internal/domain"
	"github.com/davidbz/affirmrelay/internal/stream"
)

// scriptedBody returns one scripted read per call, then err.
type scriptedBody struct {
	reads  []string
	err    error
	closed bool
}

func (b *scriptedBody) Read(p []byte) (int, error) {
	if len(b.reads) == 0 {
		return 0, b.err
	}
	n := copy(p, b.reads[0])
	b.reads[0] = b.reads[0][n:]
	if b.reads[0] == "" {
		b.reads = b.reads[1:]
	}
	return n, nil
}

func (b *scriptedBody) Close() error {
	b.closed = true
	return nil
}

func runPump(ctx context.Context, body io.ReadCloser, dec *stream.Decoder) ([]domain.StreamChunk, []string) {
	out := make(chan domain.StreamChunk)
	var malformed []string
	go stream.Pump(ctx, body, dec, out, func(line []byte) {
		malformed = append(malformed, string(line))
	})

	var chunks []domain.StreamChunk
	for chunk := range out {
		chunks = append(chunks, chunk)
	}
	return chunks, malformed
}

func TestPump_TerminatorEndsStream(t *testing.T) {
	body := &scriptedBody{
		reads: []string{
			`data: {"choices":[{"delta":{"content":"a"}}]}` + "\n\n" + `data: {"choi`,
			`ces":[{"delta":{"content":"b"}}]}` + "\n\ndata: [DONE]\n\n",
			`data: {"choices":[{"delta":{"content":"ignored"}}]}` + "\n\n",
		},
		err: io.EOF,
	}

	chunks, malformed := runPump(context.Background(), body, stream.NewPassthrough())

	require.Len(t, chunks, 3)
	require.Equal(t, "a", chunks[0].Delta)
	require.Equal(t, "b", chunks[1].Delta)
	require.True(t, chunks[2].Done)
	require.Empty(t, malformed)
	require.True(t, body.closed)
}

func TestPump_EOFFlushesThenDone(t *testing.T) {
	body := &scriptedBody{
		reads: []string{`data: {"candidates":[{"content":{"parts":[{"text":"end"}]}}]}`},
		err:   io.EOF,
	}

	chunks, _ := runPump(context.Background(), body, stream.NewReframer(geminiText))

	require.Len(t, chunks, 2)
	require.Equal(t, "end", chunks[0].Delta)
	require.True(t, chunks[1].Done)
}

func TestPump_ReadErrorEndsWithError(t *testing.T) {
	body := &scriptedBody{
		reads: []string{`data: {"choices":[{"delta":{"content":"a"}}]}` + "\n\n"},
		err:   errors.New("connection reset"),
	}

	chunks, _ := runPump(context.Background(), body, stream.NewPassthrough())

	require.Len(t, chunks, 2)
	require.Equal(t, "a", chunks[0].Delta)
	require.ErrorContains(t, chunks[1].Error, "connection reset")
	require.False(t, chunks[1].Done)
	require.True(t, body.closed)
}

func TestPump_InBandErrorEndsWithError(t *testing.T) {
	body := &scriptedBody{
		reads: []string{`data: {"error":{"message":"overloaded"}}` + "\n\n"},
		err:   io.EOF,
	}

	chunks, _ := runPump(context.Background(), body, stream.NewPassthrough())

	require.Len(t, chunks, 1)
	var inBand *stream.InBandError
	require.ErrorAs(t, chunks[0].Error, &inBand)
}

func TestPump_ReportsMalformed(t *testing.T) {
	body := &scriptedBody{
		reads: []string{"data: {not json\n\n" + `data: {"choices":[{"delta":{"content":"ok"}}]}` + "\n\n"},
		err:   io.EOF,
	}

	chunks, malformed := runPump(context.Background(), body, stream.NewPassthrough())

	require.Len(t, chunks, 2)
	require.Equal(t, []string{"{not json"}, malformed)
}

func TestPump_CancelledContextStopsWithoutSending(t *testing.T) {
	pr, pw := io.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan domain.StreamChunk)

	done := make(chan struct{})
	go func() {
		stream.Pump(ctx, pr, stream.NewPassthrough(), out, nil)
		close(done)
	}()

	go func() {
		_, _ = io.Copy(pw, strings.NewReader(`data: {"choices":[{"delta":{"content":"a"}}]}`+"\n\n"))
	}()

	// Nobody receives; cancellation must still release the pump.
	time.Sleep(20 * time.Millisecond)
	cancel()
	_ = pw.CloseWithError(context.Canceled)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pump did not stop after cancellation")
	}

	_, open := <-out
	require.False(t, open)
}
