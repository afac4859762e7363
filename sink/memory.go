// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sink

import (
	"bytes"
	"fmt"
	"sync"
)

// MemorySink keeps the image in memory
type MemorySink struct {
	mutex     sync.Mutex
	buf       bytes.Buffer
	writes    int
	finalized bool
	abortErr  error
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (m *MemorySink) Write(payload []byte) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if err := m.check(); err != nil {
		return err
	}
	m.buf.Write(payload)
	m.writes++
	return nil
}

func (m *MemorySink) Finalize() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if err := m.check(); err != nil {
		return err
	}
	m.finalized = true
	return nil
}

func (m *MemorySink) Abort(cause error) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if err := m.check(); err != nil {
		return err
	}
	m.abortErr = fmt.Errorf("%w: %w", ErrAborted, cause)
	return nil
}

func (m *MemorySink) check() error {
	if m.finalized {
		return ErrFinalized
	}
	if m.abortErr != nil {
		return m.abortErr
	}
	return nil
}

// Bytes returns a copy of everything written
func (m *MemorySink) Bytes() []byte {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return bytes.Clone(m.buf.Bytes())
}

// Writes returns the number of Write calls
func (m *MemorySink) Writes() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.writes
}

func (m *MemorySink) Finalized() bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.finalized
}

// Aborted returns the abort error, or nil if the sink was not aborted
func (m *MemorySink) Aborted() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.abortErr
}
