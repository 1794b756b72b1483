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
	"bufio"
	"fmt"
	"net"
	"sync"
	"time"
)

const dialTimeout = 5 * time.Second

// TcpWriter streams output to a TCP peer.
type TcpWriter struct {
	conn     net.Conn
	buffered *bufio.Writer
	addr     string
	mu       sync.Mutex
}

// NewTcpWriter connects to addr. bufferSize 0 disables buffering.
func NewTcpWriter(addr string, bufferSize int) (*TcpWriter, error) {
	if addr == "" {
		return nil, fmt.Errorf("TCP address cannot be empty")
	}

	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to TCP server %s: %w", addr, err)
	}

	tw := &TcpWriter{
		conn: conn,
		addr: addr,
	}
	if bufferSize > 0 {
		tw.buffered = bufio.NewWriterSize(conn, bufferSize)
	}
	return tw, nil
}

func (w *TcpWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.buffered != nil {
		return w.buffered.Write(p)
	}
	return w.conn.Write(p)
}

// Close flushes and closes the connection.
func (w *TcpWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var flushErr error
	if w.buffered != nil {
		flushErr = w.buffered.Flush()
	}
	if err := w.conn.Close(); err != nil {
		return err
	}
	return flushErr
}

func (w *TcpWriter) Name() string {
	return "tcp://" + w.addr
}

func (w *TcpWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.buffered != nil {
		return w.buffered.Flush()
	}
	return nil
}
