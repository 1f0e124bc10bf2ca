// Package apperr defines the error taxonomy shared by the engine, the
// orchestrator and the transports.
//
// Every error that crosses a transport boundary is classified into one of
// four kinds. Transports map the kind to a status code and only ever expose
// the Code and Message fields; the wrapped cause stays in the logs.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the caller.
type Kind string

const (
	KindInput           Kind = "input"
	KindFeatureDisabled Kind = "feature_disabled"
	KindUpstream        Kind = "upstream"
	KindInternal        Kind = "internal"
)

// Stable error codes returned to clients.
const (
	CodeInvalidInput        = "INVALID_INPUT"
	CodeFeatureDisabled     = "FEATURE_DISABLED"
	CodeTranscriptionFailed = "TRANSCRIPTION_FAILED"
	CodeGenerationFailed    = "GENERATION_FAILED"
	CodeSynthesisFailed     = "SYNTHESIS_FAILED"
	CodeInternal            = "INTERNAL_ERROR"
)

// genericInternalMessage is the only text an internal error ever shows a client.
const genericInternalMessage = "internal error"

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Input reports a malformed request.
func Input(format string, args ...any) *Error {
	return &Error{Kind: KindInput, Code: CodeInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// Disabled reports that a feature is switched off in configuration.
func Disabled(feature string) *Error {
	return &Error{
		Kind:    KindFeatureDisabled,
		Code:    CodeFeatureDisabled,
		Message: feature + " is disabled",
	}
}

// Transcription wraps a transcriber failure.
func Transcription(err error) *Error {
	return &Error{Kind: KindUpstream, Code: CodeTranscriptionFailed, Message: "transcription failed", Err: err}
}

// Generation wraps a generator failure.
func Generation(err error) *Error {
	return &Error{Kind: KindUpstream, Code: CodeGenerationFailed, Message: "generation failed", Err: err}
}

// Synthesis wraps a synthesizer failure.
func Synthesis(err error) *Error {
	return &Error{Kind: KindUpstream, Code: CodeSynthesisFailed, Message: "voice generation failed", Err: err}
}

// Internal wraps an unexpected failure.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Code: CodeInternal, Message: genericInternalMessage, Err: err}
}

// From returns err as an *Error, classifying anything unknown as internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	return From(err).Kind
}

// IsFeatureDisabled reports whether err is a FeatureDisabled error.
func IsFeatureDisabled(err error) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == KindFeatureDisabled
}

// IsInput reports whether err is an input error.
func IsInput(err error) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == KindInput
}

// IsUpstream reports whether err came from an external capability.
func IsUpstream(err error) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == KindUpstream
}

// Public returns the code and message safe to show a client.
func Public(err error) (code, msg string) {
	e := From(err)
	if e.Kind == KindInternal {
		return CodeInternal, genericInternalMessage
	}
	return e.Code, e.Message
}
