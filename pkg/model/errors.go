package model

import "errors"

// Kinds of user-facing task failures.
var (
	ErrEmptyDescription     = errors.New("empty description")
	ErrInvalidFormat        = errors.New("invalid format")
	ErrInvalidIndex         = errors.New("invalid index")
	ErrUnsupportedOperation = errors.New("unsupported operation")
	ErrCorruptRecord        = errors.New("corrupt record")
)

// TaskError is a failure caused by user input or a bad persisted record.
// Msg is the text shown to the user; Kind is one of the Err* values above.
type TaskError struct {
	Kind error
	Msg  string
}

func (e *TaskError) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return "OOPS!!! " + e.Kind.Error()
	}
	return "OOPS!!! " + e.Msg
}

func (e *TaskError) Unwrap() error { return e.Kind }

// NewError builds a TaskError of the given kind.
func NewError(kind error, msg string) *TaskError {
	return &TaskError{Kind: kind, Msg: msg}
}
