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

package status

// Status is the application level result code carried in Resp.
type Status uint8

const (
	RespOK Status = iota
	RespErrorInvalidRequest
	RespErrorInternalServer
	RespErrorNotFound
)

func (s Status) String() string {
	switch s {
	case RespOK:
		return "ok"
	case RespErrorInvalidRequest:
		return "invalid request"
	case RespErrorInternalServer:
		return "internal server error"
	case RespErrorNotFound:
		return "not found"
	}
	return "unknown"
}

// Resp is the envelope of every response.
type Resp struct {
	Code    Status `json:"code"`
	Session string `json:"session"`
	Msg     string `json:"msg"`
	Data    any    `json:"data"`
}
