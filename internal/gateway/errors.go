package gateway

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// DecodeFailureMessage is returned for every upload that is missing or not an image.
const DecodeFailureMessage = "Failed to decode the image. Please upload a valid image."

type Kind int

const (
	// KindBadInput means the caller sent something that is not a decodable image.
	KindBadInput Kind = iota + 1
	// KindProcessingFailure covers flip, enhancement and encoding.
	KindProcessingFailure
	// KindUnexpected is any other failure inside the handler.
	KindUnexpected
)

func (k Kind) String() string {
	switch k {
	case KindBadInput:
		return "bad_input"
	case KindProcessingFailure:
		return "processing_failure"
	case KindUnexpected:
		return "unexpected"
	}
	return "unknown"
}

// Error is the failure result of a gateway request. Message is client facing.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Kind == KindBadInput {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status maps the kind to an HTTP status code.
func (e *Error) Status() int {
	if e.Kind == KindBadInput {
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

func badInput(err error) *Error {
	return &Error{Kind: KindBadInput, Message: DecodeFailureMessage, Err: err}
}

func processingFailure(err error) *Error {
	return &Error{Kind: KindProcessingFailure, Message: "Image processing failed: " + err.Error(), Err: err}
}

func unexpected(err error) *Error {
	return &Error{Kind: KindUnexpected, Message: "Error occurred: " + err.Error(), Err: err}
}
