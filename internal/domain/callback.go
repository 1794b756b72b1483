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

package domain

// Invocation carries one event occurrence from the host to a callback.
// Payload holds the raw tracepoint record, common header included. It is
// owned by the callback for the duration of the call only.
type Invocation struct {
	CPU     int
	Payload []byte
}

// Callback receives events from an attached instrumentation point.
//
// Implementations must honour the following contract:
//
//  1. The payload layout is the event's published record format. It is
//     fixed per named event and not chosen by the callback.
//  2. Invoke must not block on external resources. Hosts may run it on a
//     path where stalling delays or drops further events.
//  3. Invoke may run concurrently from independent goroutines and must
//     not assume mutual exclusion with itself.
//  4. Invoke must never attach or detach the probe it runs under. Hosts
//     wait for in-flight invocations during detach, so doing so
//     deadlocks.
//  5. Invoke may be called zero times, for instance when attach never
//     succeeds, or any finite number of times.
//
// Hosts identify an attachment by the (Descriptor, Callback) pair, so
// implementations must be comparable; pointer receivers satisfy this.
type Callback interface {
	Invoke(inv Invocation)
}
