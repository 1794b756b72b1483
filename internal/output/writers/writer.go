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

// Package writers provides the destinations decoded events are written to.
package writers

import (
	"io"
)

// OutputWriter is an event destination.
type OutputWriter interface {
	io.Writer
	io.Closer

	// Name identifies the destination, e.g. "stdout", "file:/tmp/ev.log" or "tcp://127.0.0.1:9000".
	Name() string

	// Flush pushes buffered data to the destination.
	Flush() error
}
