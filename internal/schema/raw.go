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

package schema

import (
	"encoding/hex"
	"fmt"
)

// SchemaRaw names the catch-all layout that keeps the record undecoded.
const SchemaRaw = "raw"

// Raw keeps the common header and a copy of the full record.
type Raw struct {
	Common
	Data []byte `json:"data"`
}

// DecodeFromBytes implements domain.Event.
func (e *Raw) DecodeFromBytes(data []byte) error {
	if err := need(SchemaRaw, data, CommonSize); err != nil {
		return err
	}
	e.Common.decode(data)
	e.Data = append([]byte(nil), data...)
	return nil
}

// String implements domain.Event.
func (e *Raw) String() string {
	if len(e.Data) < CommonSize {
		return fmt.Sprintf("type=%d pid=%d len=%d", e.Type, e.PID, len(e.Data))
	}
	return fmt.Sprintf("type=%d pid=%d len=%d %s", e.Type, e.PID, len(e.Data), hex.EncodeToString(e.Data[CommonSize:]))
}

// Schema implements domain.Event.
func (e *Raw) Schema() string {
	return SchemaRaw
}
