package errors

import (
	stdErrors "errors"
	"fmt"
)

type Code string

const (
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeNegotiation  Code = "NEGOTIATION_ERROR"
	CodeTransfer     Code = "TRANSFER_ERROR"
	CodeTimeout      Code = "TRANSFER_TIMEOUT"
	CodeConfirm      Code = "CONFIRM_ERROR"
	CodeMutation     Code = "MUTATION_ERROR"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeDependency   Code = "DEPENDENCY_ERROR"
	CodeInternal     Code = "INTERNAL_ERROR"
)

type Metadata struct {
	Retryable     bool
	PublicMessage string
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		Retryable:     false,
		PublicMessage: "file rejected",
	},
	CodeNegotiation: {
		Retryable:     true,
		PublicMessage: "could not prepare the upload",
	},
	CodeTransfer: {
		Retryable:     true,
		PublicMessage: "upload failed",
	},
	CodeTimeout: {
		Retryable:     true,
		PublicMessage: "upload timed out",
	},
	CodeConfirm: {
		Retryable:     true,
		PublicMessage: "upload could not be confirmed",
	},
	CodeMutation: {
		Retryable:     true,
		PublicMessage: "change could not be saved",
	},
	CodeUnauthorized: {
		Retryable:     false,
		PublicMessage: "session expired, sign in again",
	},
	CodeDependency: {
		Retryable:     true,
		PublicMessage: "service unavailable",
	},
	CodeInternal: {
		Retryable:     false,
		PublicMessage: "internal error",
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// CodeOf reports the code carried by err, or CodeInternal for untyped errors.
func CodeOf(err error) Code {
	if typed := As(err); typed != nil {
		return typed.Code()
	}
	return CodeInternal
}

// UserMessage renders err the way it should be surfaced to an operator: the
// specific message when one was attached, otherwise the code's public text.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	typed := As(err)
	if typed == nil {
		return MetadataFor(CodeInternal).PublicMessage
	}
	if msg := typed.Message(); msg != "" {
		return msg
	}
	return MetadataFor(typed.Code()).PublicMessage
}
