package common

import (
	"errors"
	"fmt"
	"strings"
)

func NewErrorf(format string, a ...any) error {
	msg := fmt.Sprintf(format, a...)
	return errors.New(msg)
}

func NewError(a ...any) error {
	msg := fmt.Sprintln(a...)
	return errors.New(strings.TrimSpace(msg))
}

// Combine merges multiple errors into one, skipping nil entries.
func Combine(errs ...error) error {
	errMsgs := make([]string, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			errMsgs = append(errMsgs, err.Error())
		}
	}
	if len(errMsgs) == 0 {
		return nil
	}
	return errors.New(strings.Join(errMsgs, "\n"))
}
