package evaluator

import (
	terrors "github.com/sambeau/bindweed/pkg/tendril/errors"
)

func newSecurityError(code, message string) *Error {
	return &Error{Err: terrors.New(terrors.ClassSecurity, code, message)}
}

func newTypeError(code, message string) *Error {
	return &Error{Err: terrors.New(terrors.ClassType, code, message)}
}

func newOperatorError(code, message string) *Error {
	return &Error{Err: terrors.New(terrors.ClassOperator, code, message)}
}
