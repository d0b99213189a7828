package pipeline

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure for the transport layer.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindConflict
	KindRange
	KindClassifier
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindRange:
		return "range"
	case KindClassifier:
		return "classifier"
	case KindInternal:
		return "internal"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is a failed pipeline operation. Message is safe to show to clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

const (
	MsgDuplicate         = "Text entry with time and text already exists"
	MsgSourceNotFound    = "Source ID does not exist"
	MsgInvalidThreatType = "Invalid threat type"
	MsgMinGreaterThanMax = "Min must be less than max"
	MsgBoundsNotPositive = "Min and max must be positive integers"
	MsgClassifierFailed  = "Sentiment classification failed"
	MsgInternal          = "Internal server error"
	MsgNotInRange        = "Not in range of a facility"
	MsgNonnegative       = "Nonnegative sentiment"
	msgUnrelatedFormat   = "Not related to %s or its interests"
)

func validationError(msg string, err error) *Error {
	return &Error{Kind: KindValidation, Message: msg, Err: err}
}

func internalError(err error) *Error {
	return &Error{Kind: KindInternal, Message: MsgInternal, Err: err}
}

// KindOf returns the kind of a pipeline error, or KindInternal for any other
// error.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindInternal
}
