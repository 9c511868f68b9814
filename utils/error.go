package utils

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// ErrExecSequential runs every function, even after one failed, and joins
// the failures into a single one line error
func ErrExecSequential(functions ...func() error) error {
	var result *multierror.Error
	for _, one := range functions {
		result = multierror.Append(result, one())
	}
	if result == nil {
		return nil
	}

	result.ErrorFormat = func(errs []error) string {
		messages := make([]string, 0, len(errs))
		for _, err := range errs {
			messages = append(messages, err.Error())
		}
		return strings.Join(messages, "; ")
	}
	return result.ErrorOrNil()
}

// ErrExecFormat wraps the error of function with format, which must hold a single %s
func ErrExecFormat(format string, function func() error) func() error {
	return func() error {
		if err := function(); err != nil {
			return fmt.Errorf(format, err)
		}
		return nil
	}
}
