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

//go:build !linux

package tracefs

import (
	"fmt"
	"runtime"

	"github.com/gojue/tphook/internal/errors"
)

// Discover always fails off Linux.
func Discover() (*FS, error) {
	return nil, errors.NewHostUnavailableError(fmt.Sprintf("tracefs is not available on %s", runtime.GOOS), nil)
}
