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

// Package tracefs exposes the kernel tracepoint registry found under a
// tracefs mount and, on Linux, attaches eBPF programs to its points.
package tracefs

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gojue/tphook/internal/domain"
	"github.com/gojue/tphook/internal/errors"
)

const availableEvents = "available_events"

// Point names a tracepoint as group and event.
type Point struct {
	Group string
	Event string
}

// String returns the qualified "group:event" form.
func (p Point) String() string {
	return p.Group + ":" + p.Event
}

// ParsePoint splits a "group:event" string.
func ParsePoint(s string) (Point, error) {
	group, event, ok := strings.Cut(s, ":")
	if !ok || group == "" || event == "" {
		return Point{}, fmt.Errorf("malformed tracepoint %q, want group:event", s)
	}
	return Point{Group: group, Event: event}, nil
}

func pointOf(desc domain.Descriptor) (Point, error) {
	if p, ok := desc.(Point); ok {
		return p, nil
	}
	return ParsePoint(desc.String())
}

// FS is a tracefs mount.
type FS struct {
	root string
}

// Open trusts root as a tracefs mount once it finds available_events there.
func Open(root string) (*FS, error) {
	if _, err := os.Stat(filepath.Join(root, availableEvents)); err != nil {
		return nil, errors.NewHostUnavailableError(fmt.Sprintf("no tracepoint registry under %s", root), err)
	}
	return &FS{root: root}, nil
}

// Root returns the mount path.
func (fs *FS) Root() string {
	return fs.root
}

// ForEachPoint visits every registered tracepoint in registry order. The
// registry is read fresh on each call.
func (fs *FS) ForEachPoint(visit domain.Visitor) error {
	f, err := os.Open(filepath.Join(fs.root, availableEvents))
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		p, err := ParsePoint(line)
		if err != nil {
			continue
		}
		visit(p, p.Event)
	}
	return sc.Err()
}

func (fs *FS) eventDir(p Point) string {
	return filepath.Join(fs.root, "events", p.Group, p.Event)
}

// ReadFormat loads the record layout of p.
func (fs *FS) ReadFormat(p Point) (*Format, error) {
	f, err := os.Open(filepath.Join(fs.eventDir(p), "format"))
	if err != nil {
		return nil, errors.NewNotFoundError(p.String()).WithContext("cause", err.Error())
	}
	defer f.Close()

	format, err := ParseFormat(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}
	return format, nil
}
