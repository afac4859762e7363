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
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	// DefaultFileName is where a downloaded image is staged by default
	DefaultFileName = "image.new"
	// DefaultFileMode is the mode of the staged image
	DefaultFileMode os.FileMode = 0o700
)

// FileSink writes the image to a temporary file next to Path and renames it
// into place on Finalize. An existing file at Path is only replaced by a
// complete image
type FileSink struct {
	mutex   sync.Mutex
	path    string
	mode    os.FileMode
	file    *os.File
	written int64
	done    error
}

// NewFileSink returns a FileSink that stages the image at path
func NewFileSink(path string) *FileSink {
	if path == "" {
		path = DefaultFileName
	}
	return &FileSink{
		path: path,
		mode: DefaultFileMode,
	}
}

// Path returns the final location of the image
func (f *FileSink) Path() string {
	return f.path
}

// Written returns the number of bytes written so far
func (f *FileSink) Written() int64 {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.written
}

func (f *FileSink) Write(payload []byte) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.done != nil {
		return f.done
	}
	if f.file == nil {
		tmpFile, err := os.CreateTemp(
			filepath.Dir(f.path),
			filepath.Base(f.path)+".*.part",
		)
		if err != nil {
			return fmt.Errorf("sink: create staging file: %w", err)
		}
		f.file = tmpFile
	}
	n, err := f.file.Write(payload)
	f.written += int64(n)
	if err != nil {
		return fmt.Errorf("sink: write %s: %w", f.file.Name(), err)
	}
	return nil
}

func (f *FileSink) Finalize() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.done != nil {
		return f.done
	}
	f.done = ErrFinalized
	if f.file == nil {
		return fmt.Errorf("sink: finalize %s: nothing written", f.path)
	}
	tmpName := f.file.Name()
	if err := f.file.Sync(); err != nil {
		_ = f.file.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("sink: sync %s: %w", tmpName, err)
	}
	if err := f.file.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("sink: close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, f.mode); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("sink: chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("sink: rename %s: %w", tmpName, err)
	}
	return nil
}

// Abort removes the staging file
func (f *FileSink) Abort(cause error) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.done != nil {
		return f.done
	}
	f.done = fmt.Errorf("%w: %w", ErrAborted, cause)
	if f.file == nil {
		return nil
	}
	tmpName := f.file.Name()
	_ = f.file.Close()
	if err := os.Remove(tmpName); err != nil {
		return fmt.Errorf("sink: remove %s: %w", tmpName, err)
	}
	return nil
}
