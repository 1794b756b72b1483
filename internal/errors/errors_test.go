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
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeConfiguration, "test error")
	if err.Code != ErrCodeConfiguration {
		t.Errorf("expected code %d, got %d", ErrCodeConfiguration, err.Code)
		return
	}
	if err.Message != "test error" {
		t.Errorf("expected message 'test error', got '%s'", err.Message)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeAttach, "attach failed", cause)

	if err.Code != ErrCodeAttach {
		t.Errorf("expected code %d, got %d", ErrCodeAttach, err.Code)
		return
	}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find cause")
	}
}

func TestWithContext(t *testing.T) {
	err := New(ErrCodeConfiguration, "test error").
		WithContext("point", "sched_switch").
		WithContext("workers", 4)

	if err.Context["point"] != "sched_switch" {
		t.Errorf("expected point context, got %v", err.Context["point"])
	}
	if err.Context["workers"] != 4 {
		t.Errorf("expected workers context to be 4, got %v", err.Context["workers"])
	}
}

func TestNewInvalidTransitionError(t *testing.T) {
	err := NewInvalidTransitionError("sched_switch", "unresolved", "attached")
	if err.Code != ErrCodeInvalidTransition {
		t.Errorf("expected code %d, got %d", ErrCodeInvalidTransition, err.Code)
	}
	if err.Context["from"] != "unresolved" || err.Context["to"] != "attached" {
		t.Errorf("unexpected context %v", err.Context)
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{name: "nil", err: nil, want: ErrCodeUnknown},
		{name: "plain", err: errors.New("x"), want: ErrCodeUnknown},
		{name: "coded", err: NewAttachError("p", nil), want: ErrCodeAttach},
		{name: "wrapped by fmt", err: fmt.Errorf("outer: %w", NewDetachError("p", nil)), want: ErrCodeDetach},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestIsWalksNestedCodes(t *testing.T) {
	inner := NewEBPFAttachError("sched:sched_switch", errors.New("permission denied"))
	err := NewAttachError("sched_switch", inner)

	if !Is(err, ErrCodeAttach) {
		t.Error("expected outer code to match")
	}
	if !Is(err, ErrCodeEBPFAttach) {
		t.Error("expected inner code to match")
	}
	if Is(err, ErrCodeDetach) {
		t.Error("unexpected match for detach code")
	}
	if Is(errors.New("plain"), ErrCodeAttach) {
		t.Error("plain error should not match")
	}
}

func TestErrorString(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "simple error",
			err:      New(ErrCodeConfiguration, "config error"),
			expected: "[101] config error",
		},
		{
			name:     "wrapped error",
			err:      Wrap(ErrCodeAttach, "attach failed", errors.New("underlying")),
			expected: "[202] attach failed: underlying",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.expected {
				t.Errorf("expected '%s', got '%s'", tt.expected, tt.err.Error())
			}
		})
	}
}
