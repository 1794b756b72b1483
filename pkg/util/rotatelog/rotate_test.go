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

package rotatelog

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func fakeClock(t *testing.T) {
	t.Helper()
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	currentTime = func() time.Time {
		now = now.Add(time.Second)
		return now
	}
	megabyte = 1
	t.Cleanup(func() {
		currentTime = time.Now
		megabyte = 1024 * 1024
	})
}

func TestWriteAndRotate(t *testing.T) {
	fakeClock(t)
	name := filepath.Join(t.TempDir(), "events.log")
	w := &Writer{Filename: name, MaxSize: 10}
	defer w.Close()

	if _, err := w.Write([]byte("12345678")); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("abcdef")); err != nil {
		t.Fatal(err)
	}

	backups, err := w.Backups()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 1 {
		t.Fatalf("backups = %v, want 1", backups)
	}
	old, _ := os.ReadFile(backups[0])
	if string(old) != "12345678" {
		t.Errorf("backup content = %q", old)
	}
	cur, _ := os.ReadFile(name)
	if string(cur) != "abcdef" {
		t.Errorf("current content = %q", cur)
	}
}

func TestWriteTooLarge(t *testing.T) {
	fakeClock(t)
	w := &Writer{Filename: filepath.Join(t.TempDir(), "x.log"), MaxSize: 4}
	defer w.Close()
	if _, err := w.Write([]byte("too long")); err == nil {
		t.Error("expected error")
	}
}

func TestMaxBackups(t *testing.T) {
	fakeClock(t)
	name := filepath.Join(t.TempDir(), "events.log")
	w := &Writer{Filename: name, MaxSize: 100, MaxBackups: 2}
	defer w.Close()

	for i := 0; i < 5; i++ {
		if _, err := w.Write([]byte("line\n")); err != nil {
			t.Fatal(err)
		}
		if err := w.Rotate(); err != nil {
			t.Fatal(err)
		}
	}

	backups, err := w.Backups()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 2 {
		t.Errorf("backups = %v, want 2", backups)
	}
}

func TestAppendsToExisting(t *testing.T) {
	name := filepath.Join(t.TempDir(), "events.log")
	if err := os.WriteFile(name, []byte("old\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	w := &Writer{Filename: name}
	if _, err := w.Write([]byte("new\n")); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	b, _ := os.ReadFile(name)
	if string(b) != "old\nnew\n" {
		t.Errorf("content = %q", b)
	}
}
