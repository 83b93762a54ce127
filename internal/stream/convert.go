package stream

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"github.com/davidbz/affirmrelay/internal/domain"
)

const deltaContentPath = "choices.0.delta.content"

// InBandError is an error the upstream reported inside an open stream.
type InBandError struct {
	Message string
}

func (e *InBandError) Error() string {
	return fmt.Sprintf("upstream reported a stream error: %s", e.Message)
}

// TextExtractor pulls the generated text out of one provider document.
type TextExtractor func(doc gjson.Result) string

// deltaEvent is the client-facing delta schema.
type deltaEvent struct {
	Choices []deltaChoice `json:"choices"`
}

type deltaChoice struct {
	Delta deltaContent `json:"delta"`
}

type deltaContent struct {
	Content string `json:"content"`
}

// EncodeDelta renders text as {"choices":[{"delta":{"content":text}}]}.
func EncodeDelta(text string) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding a struct of strings cannot fail.
	_ = enc.Encode(deltaEvent{Choices: []deltaChoice{{Delta: deltaContent{Content: text}}}})
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
}

// NewPassthrough decodes an OpenAI-style SSE stream whose payloads already
// match the client schema. Single-line payloads are forwarded byte for byte;
// a payload joined from several lines is compacted onto one.
func NewPassthrough() *Decoder {
	return NewDecoder(Options{
		RequireData:      true,
		StopAtTerminator: true,
		Convert:          passthroughChunk,
	})
}

// NewReframer decodes a stream of provider-specific JSON documents, with or
// without SSE framing, and re-emits their text in the client schema.
func NewReframer(extract TextExtractor) *Decoder {
	return NewDecoder(Options{
		ArrayFraming: true,
		Convert: func(doc []byte) (domain.StreamChunk, bool, error) {
			parsed := gjson.ParseBytes(doc)
			if err := inBandError(parsed); err != nil {
				return domain.StreamChunk{}, false, err
			}

			text := extract(parsed)
			if text == "" {
				return domain.StreamChunk{}, false, nil
			}

			return domain.StreamChunk{Delta: text, Payload: EncodeDelta(text)}, true, nil
		},
	})
}

// NewDeltaDecoder decodes the client schema, yielding one chunk per
// non-empty delta text. It is the consumer side of EncodeDelta.
func NewDeltaDecoder() *Decoder {
	return NewDecoder(Options{
		RequireData:      true,
		StopAtTerminator: true,
		Convert: func(doc []byte) (domain.StreamChunk, bool, error) {
			text := gjson.GetBytes(doc, deltaContentPath).String()
			if text == "" {
				return domain.StreamChunk{}, false, nil
			}
			return domain.StreamChunk{Delta: text}, true, nil
		},
	})
}

func passthroughChunk(doc []byte) (domain.StreamChunk, bool, error) {
	parsed := gjson.ParseBytes(doc)
	if err := inBandError(parsed); err != nil {
		return domain.StreamChunk{}, false, err
	}

	if !parsed.Get("choices").Exists() {
		return domain.StreamChunk{}, false, nil
	}

	if bytes.ContainsAny(doc, "\r\n") {
		doc = pretty.Ugly(doc)
	}

	return domain.StreamChunk{
		Delta:   parsed.Get(deltaContentPath).String(),
		Payload: doc,
	}, true, nil
}

func inBandError(doc gjson.Result) error {
	if !doc.IsObject() {
		return nil
	}

	errField := doc.Get("error")
	if !errField.Exists() || errField.Type == gjson.Null {
		return nil
	}

	message := errField.Get("message").String()
	if message == "" {
		message = errField.Raw
	}
	return &InBandError{Message: message}
}
