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

// Descriptor is an opaque handle to one instrumentation point, as handed
// out by a host during enumeration. It stays valid for the host session.
// String returns the host-qualified identity of the point.
type Descriptor interface {
	String() string
}

// Visitor is invoked once per registered instrumentation point with the
// point's descriptor and its identifying name.
type Visitor func(desc Descriptor, name string)

// Enumerator exposes a host's instrumentation point registry. The
// registry can be walked but not indexed by name. Iteration order is
// defined by the host and may change between host versions.
type Enumerator interface {
	ForEachPoint(visit Visitor) error
}

// Attacher installs and removes callbacks at instrumentation points.
//
// Attach routes future events at desc to cb. Detach removes cb and does
// not return until every in-flight invocation of cb has completed; once
// it returns, no new invocation may start.
type Attacher interface {
	Attach(desc Descriptor, cb Callback) error
	Detach(desc Descriptor, cb Callback) error
}

// Host is the full boundary to the tracing subsystem.
type Host interface {
	Enumerator
	Attacher
}
