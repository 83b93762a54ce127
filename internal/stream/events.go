package stream

import "io"

// DoneEvent is the terminator line of every successful client stream.
const DoneEvent = "data: [DONE]\n\n"

// WriteEvent writes one client event carrying payload.
func WriteEvent(w io.Writer, payload []byte) error {
	frame := make([]byte, 0, len(payload)+8)
	frame = append(frame, "data: "...)
	frame = append(frame, payload...)
	frame = append(frame, "\n\n"...)

	_, err := w.Write(frame)
	return err
}

// WriteDone writes the terminator event.
func WriteDone(w io.Writer) error {
	_, err := io.WriteString(w, DoneEvent)
	return err
}
