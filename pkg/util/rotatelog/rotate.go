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

// Package rotatelog is an io.WriteCloser that rolls its file over by size
// and keeps a bounded number of timestamped backups.
package rotatelog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	backupTimeFormat = "2006-01-02T15-04-05.000"
	defaultMaxSize   = 100
)

var _ io.WriteCloser = (*Writer)(nil)

var (
	// overridden in tests
	currentTime = time.Now
	megabyte    = 1024 * 1024
)

// Writer appends to Filename. A write that would take the file past
// MaxSize megabytes first renames it to name-<timestamp>.ext and starts a
// fresh file. At most MaxBackups backups are kept; 0 keeps all.
type Writer struct {
	Filename   string `json:"filename" yaml:"filename"`
	MaxSize    int    `json:"maxsize" yaml:"maxsize"`
	MaxBackups int    `json:"maxbackups" yaml:"maxbackups"`

	mu   sync.Mutex
	file *os.File
	size int64
}

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := int64(len(p))
	if n > w.max() {
		return 0, fmt.Errorf("write of %d bytes exceeds max file size %d", n, w.max())
	}

	if w.file == nil {
		if err := w.openExisting(); err != nil {
			return 0, err
		}
	}
	if w.size+n > w.max() {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}

	written, err := w.file.Write(p)
	w.size += int64(written)
	return written, err
}

// Close implements io.Closer.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.close()
}

// Rotate forces a rollover, e.g. on SIGHUP.
func (w *Writer) Rotate() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rotate()
}

func (w *Writer) close() error {
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

func (w *Writer) rotate() error {
	if err := w.close(); err != nil {
		return err
	}
	if info, err := os.Stat(w.Filename); err == nil && info.Size() > 0 {
		if err := os.Rename(w.Filename, w.backupName()); err != nil {
			return fmt.Errorf("can't rename log file: %w", err)
		}
	}
	if err := w.openNew(); err != nil {
		return err
	}
	return w.prune()
}

func (w *Writer) openExisting() error {
	info, err := os.Stat(w.Filename)
	if os.IsNotExist(err) {
		return w.openNew()
	}
	if err != nil {
		return fmt.Errorf("error getting log file info: %w", err)
	}

	f, err := os.OpenFile(w.Filename, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return w.openNew()
	}
	w.file = f
	w.size = info.Size()
	return nil
}

func (w *Writer) openNew() error {
	if err := os.MkdirAll(filepath.Dir(w.Filename), 0o755); err != nil {
		return fmt.Errorf("can't make directories for new logfile: %w", err)
	}
	f, err := os.OpenFile(w.Filename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("can't open new logfile: %w", err)
	}
	w.file = f
	w.size = 0
	return nil
}

func (w *Writer) split() (dir, prefix, ext string) {
	dir = filepath.Dir(w.Filename)
	base := filepath.Base(w.Filename)
	ext = filepath.Ext(base)
	return dir, base[:len(base)-len(ext)] + "-", ext
}

func (w *Writer) backupName() string {
	dir, prefix, ext := w.split()
	return filepath.Join(dir, prefix+currentTime().UTC().Format(backupTimeFormat)+ext)
}

// Backups lists existing backups, oldest first.
func (w *Writer) Backups() ([]string, error) {
	dir, prefix, ext := w.split()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ext) {
			continue
		}
		ts := name[len(prefix) : len(name)-len(ext)]
		if _, err := time.Parse(backupTimeFormat, ts); err != nil {
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	// The timestamp format sorts lexically.
	sort.Strings(out)
	return out, nil
}

func (w *Writer) prune() error {
	if w.MaxBackups <= 0 {
		return nil
	}
	backups, err := w.Backups()
	if err != nil {
		return err
	}
	for len(backups) > w.MaxBackups {
		if err := os.Remove(backups[0]); err != nil {
			return err
		}
		backups = backups[1:]
	}
	return nil
}

func (w *Writer) max() int64 {
	if w.MaxSize <= 0 {
		return int64(defaultMaxSize) * int64(megabyte)
	}
	return int64(w.MaxSize) * int64(megabyte)
}
