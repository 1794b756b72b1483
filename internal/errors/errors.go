// Copyright 2022 CFC4N <cfc4n.cs@gmail.com>. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode defines standardized error codes for tphook.
type ErrorCode int

const (
	// ErrCodeUnknown represents an unknown error.
	ErrCodeUnknown ErrorCode = 0

	// Configuration errors (1xx)
	ErrCodeConfiguration    ErrorCode = 101
	ErrCodeConfigValidation ErrorCode = 102

	// Probe lifecycle errors (2xx)
	ErrCodeInvalidTransition ErrorCode = 201
	ErrCodeAttach            ErrorCode = 202
	ErrCodeDetach            ErrorCode = 203
	ErrCodeLifecycle         ErrorCode = 204

	// Resolution errors (3xx)
	ErrCodeNotFound  ErrorCode = 301
	ErrCodeEnumerate ErrorCode = 302

	// Host and eBPF errors (4xx)
	ErrCodeHostUnavailable ErrorCode = 401
	ErrCodeEBPFLoad        ErrorCode = 402
	ErrCodeEBPFAttach      ErrorCode = 403

	// Event errors (5xx)
	ErrCodeEventDecode   ErrorCode = 501
	ErrCodeEventDispatch ErrorCode = 502
)

// Error represents a structured error in tphook.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext adds contextual information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
	}
}

// Wrap wraps an existing error with additional context.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: make(map[string]any),
	}
}

// CodeOf returns the code of the outermost *Error in err's chain, or
// ErrCodeUnknown when there is none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ErrCodeUnknown
}

// Is reports whether any *Error in err's chain carries code.
func Is(err error, code ErrorCode) bool {
	for err != nil {
		var e *Error
		if !stderrors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// NewConfigurationError creates a configuration error.
func NewConfigurationError(message string, cause error) *Error {
	return Wrap(ErrCodeConfiguration, message, cause)
}

// NewInvalidTransitionError reports a probe state machine misuse.
func NewInvalidTransitionError(probe, from, to string) *Error {
	return New(ErrCodeInvalidTransition, fmt.Sprintf("probe '%s': invalid transition %s -> %s", probe, from, to)).
		WithContext("probe", probe).
		WithContext("from", from).
		WithContext("to", to)
}

// NewAttachError creates an error for a host-rejected attach.
func NewAttachError(probe string, cause error) *Error {
	return Wrap(ErrCodeAttach, fmt.Sprintf("failed to attach probe '%s'", probe), cause).
		WithContext("probe", probe)
}

// NewDetachError creates an error for a failed host detach.
func NewDetachError(probe string, cause error) *Error {
	return Wrap(ErrCodeDetach, fmt.Sprintf("failed to detach probe '%s'", probe), cause).
		WithContext("probe", probe)
}

// NewNotFoundError creates a resolution miss error.
func NewNotFoundError(point string) *Error {
	return New(ErrCodeNotFound, fmt.Sprintf("instrumentation point not found: %s", point)).
		WithContext("point", point)
}

// NewEnumerateError creates a host enumeration error.
func NewEnumerateError(cause error) *Error {
	return Wrap(ErrCodeEnumerate, "failed to enumerate instrumentation points", cause)
}

// NewHostUnavailableError creates an error for a missing or unusable host.
func NewHostUnavailableError(message string, cause error) *Error {
	return Wrap(ErrCodeHostUnavailable, message, cause)
}

// NewEBPFLoadError creates an eBPF load error.
func NewEBPFLoadError(program string, cause error) *Error {
	return Wrap(ErrCodeEBPFLoad, fmt.Sprintf("failed to load eBPF program '%s'", program), cause)
}

// NewEBPFAttachError creates an eBPF attach error.
func NewEBPFAttachError(point string, cause error) *Error {
	return Wrap(ErrCodeEBPFAttach, fmt.Sprintf("failed to attach eBPF program to '%s'", point), cause)
}

// NewEventDecodeError creates an event decode error.
func NewEventDecodeError(eventType string, cause error) *Error {
	return Wrap(ErrCodeEventDecode, fmt.Sprintf("failed to decode event of type '%s'", eventType), cause)
}

// NewEventDispatchError creates an event dispatch error.
func NewEventDispatchError(cause error) *Error {
	return Wrap(ErrCodeEventDispatch, "failed to dispatch event", cause)
}
