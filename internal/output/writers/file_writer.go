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

package writers

import (
	"fmt"
	"os"

	"github.com/gojue/tphook/pkg/util/rotatelog"
)

// FileWriter appends to a local file that rolls over by size.
type FileWriter struct {
	log  *rotatelog.Writer
	path string
}

func NewFileWriter(path string, rotate RotateConfig) (*FileWriter, error) {
	if path == "" {
		return nil, fmt.Errorf("file path cannot be empty")
	}
	if rotate.MaxSizeMB < 0 || rotate.MaxBackups < 0 {
		return nil, fmt.Errorf("rotation limits cannot be negative")
	}

	w := &rotatelog.Writer{
		Filename:   path,
		MaxSize:    rotate.MaxSizeMB,
		MaxBackups: rotate.MaxBackups,
	}
	// Open eagerly so a bad path fails at startup rather than on the first event.
	if _, err := w.Write(nil); err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	return &FileWriter{log: w, path: path}, nil
}

func (w *FileWriter) Write(p []byte) (int, error) {
	return w.log.Write(p)
}

func (w *FileWriter) Close() error {
	return w.log.Close()
}

func (w *FileWriter) Name() string {
	return "file:" + w.path
}

// Flush is a no-op; writes go straight to the file.
func (w *FileWriter) Flush() error {
	return nil
}

// StdoutWriter writes to the process's standard output.
type StdoutWriter struct {
	out *os.File
}

func NewStdoutWriter() *StdoutWriter {
	return &StdoutWriter{out: os.Stdout}
}

func (w *StdoutWriter) Write(p []byte) (int, error) {
	return w.out.Write(p)
}

// Close leaves stdout open.
func (w *StdoutWriter) Close() error {
	return nil
}

func (w *StdoutWriter) Name() string {
	return "stdout"
}

func (w *StdoutWriter) Flush() error {
	return nil
}
