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

package tracefs

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Field is one entry of a tracepoint record layout.
type Field struct {
	Name   string
	Type   string
	Offset int
	Size   int
	Signed bool
}

// Format describes a tracepoint record as published in its format file.
type Format struct {
	Name   string
	ID     uint32
	Fields []Field
}

// RecordSize is the extent of the fixed part of the record.
func (f *Format) RecordSize() int {
	size := 0
	for _, fd := range f.Fields {
		if end := fd.Offset + fd.Size; end > size {
			size = end
		}
	}
	return size
}

// Field looks up a field by name.
func (f *Format) Field(name string) (Field, bool) {
	for _, fd := range f.Fields {
		if fd.Name == name {
			return fd, true
		}
	}
	return Field{}, false
}

// ParseFormat reads the text layout tracefs serves at
// events/<group>/<event>/format.
func ParseFormat(r io.Reader) (*Format, error) {
	format := &Format{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case strings.HasPrefix(line, "name:"):
			format.Name = strings.TrimSpace(strings.TrimPrefix(line, "name:"))
		case strings.HasPrefix(line, "ID:"):
			id, err := strconv.ParseUint(strings.TrimSpace(strings.TrimPrefix(line, "ID:")), 10, 32)
			if err != nil {
				return nil, fmt.Errorf("bad ID line %q: %w", line, err)
			}
			format.ID = uint32(id)
		case strings.HasPrefix(line, "field:"):
			fd, err := parseField(line)
			if err != nil {
				return nil, err
			}
			format.Fields = append(format.Fields, fd)
		case strings.HasPrefix(line, "print fmt:"):
			return format, checkFormat(format)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return format, checkFormat(format)
}

func checkFormat(f *Format) error {
	if f.Name == "" {
		return fmt.Errorf("format has no name")
	}
	if len(f.Fields) == 0 {
		return fmt.Errorf("format %s has no fields", f.Name)
	}
	return nil
}

// parseField handles one line such as
// "field:char prev_comm[16];	offset:8;	size:16;	signed:0;".
func parseField(line string) (Field, error) {
	var fd Field
	for _, part := range strings.Split(line, ";") {
		key, val, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			continue
		}
		var err error
		switch key {
		case "field":
			fd.Type, fd.Name = splitDecl(val)
		case "offset":
			fd.Offset, err = strconv.Atoi(val)
		case "size":
			fd.Size, err = strconv.Atoi(val)
		case "signed":
			fd.Signed = val == "1"
		}
		if err != nil {
			return Field{}, fmt.Errorf("bad field line %q: %w", line, err)
		}
	}
	if fd.Name == "" {
		return Field{}, fmt.Errorf("bad field line %q: missing name", line)
	}
	return fd, nil
}

// splitDecl separates a C declaration into type and identifier. Array
// suffixes stay with the type: "char prev_comm[16]" is ("char[16]", "prev_comm").
func splitDecl(decl string) (typ, name string) {
	decl = strings.TrimSpace(decl)
	i := strings.LastIndexByte(decl, ' ')
	if i < 0 {
		return "", decl
	}
	typ, name = strings.TrimSpace(decl[:i]), decl[i+1:]
	if j := strings.IndexByte(name, '['); j >= 0 {
		typ += name[j:]
		name = name[:j]
	}
	return typ, name
}
