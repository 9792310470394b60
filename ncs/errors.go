package ncs

import (
	"errors"
	"fmt"
)

// ErrPartition is wrapped by errors reporting that the consolidated index
// sets do not cover the assembly exactly once.
var ErrPartition = errors.New("NCS index sets do not partition the model")

// InputError reports a problem with the user's input: the model, the
// selections or the transforms. No partial result accompanies it.
type InputError struct {
	Msg string
	Err error
}

func (e *InputError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *InputError) Unwrap() error {
	return e.Err
}

func inputErrorf(format string, v ...interface{}) error {
	return &InputError{Msg: fmt.Sprintf(format, v...)}
}

func inputWrap(err error, format string, v ...interface{}) error {
	return &InputError{Msg: fmt.Sprintf(format, v...), Err: err}
}

// IsInputError reports whether err was caused by bad user input.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}
