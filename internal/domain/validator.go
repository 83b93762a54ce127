package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

// ValidationConfig bounds the accepted message length, counted in characters
// after trimming.
type ValidationConfig struct {
	MinLength int `env:"MESSAGE_MIN_LENGTH" envDefault:"3"`
	MaxLength int `env:"MESSAGE_MAX_LENGTH" envDefault:"1000"`
}

// Validator checks inbound request bodies before any upstream call.
type Validator struct {
	minLength int
	maxLength int
}

// NewValidator creates a validator for the given policy.
func NewValidator(cfg *ValidationConfig) *Validator {
	return &Validator{
		minLength: cfg.MinLength,
		maxLength: cfg.MaxLength,
	}
}

// Validate parses body and returns the trimmed request, or a 400 RelayError.
// Checks run in order and stop at the first failure.
func (v *Validator) Validate(body []byte) (*GenerationRequest, error) {
	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsObject() {
		return nil, validationError(CodeInvalidType, "Invalid message format.")
	}

	field := gjson.GetBytes(body, "message")
	if !field.Exists() || field.Type == gjson.Null {
		return nil, validationError(CodeMissingMessage, "Please share how you are feeling.")
	}

	if field.Type != gjson.String {
		return nil, validationError(CodeInvalidType, "Invalid message format.")
	}

	message := strings.TrimSpace(field.String())
	if message == "" {
		return nil, validationError(CodeEmptyMessage, "Please share how you are feeling.")
	}

	length := utf8.RuneCountInString(message)
	if length < v.minLength {
		return nil, validationError(CodeMessageTooShort, "Please share a bit more about how you are feeling.")
	}

	if v.maxLength > 0 && length > v.maxLength {
		return nil, validationError(CodeMessageTooLong,
			fmt.Sprintf("Please keep your message under %d characters.", v.maxLength))
	}

	return &GenerationRequest{Message: message}, nil
}

// TooLarge is the error for a body that exceeds the transport size limit.
func (v *Validator) TooLarge() error {
	return validationError(CodeMessageTooLong,
		fmt.Sprintf("Please keep your message under %d characters.", v.maxLength))
}
