// Copyright 2026 The gVisor Authors.
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

//go:build linux || darwin || freebsd

package nofollow

import (
	"os"
	"time"

	"github.com/passthrough/nofollow/pkg/log"
	"github.com/passthrough/nofollow/pkg/safeopen"
	"golang.org/x/sys/unix"
)

// locatorFlags open an entry only to fix its identity. O_NONBLOCK keeps FIFOs
// and devices from stalling the open; no data is ever transferred.
const locatorFlags = unix.O_RDONLY | unix.O_NOFOLLOW | unix.O_NONBLOCK | unix.O_NOCTTY | unix.O_CLOEXEC

// hostClose closes transient descriptors. Tests replace it to count closes
// and inject failures.
var hostClose = unix.Close

// closeLog reports close failures, which are otherwise swallowed so that the
// outcome of the operation is what the caller sees.
var closeLog = log.BasicRateLimitedLogger(time.Minute)

// locator is a transient descriptor owned by a single operation.
type locator struct {
	fd   int
	name string

	// file is set by osFile; it then owns fd.
	file *os.File
}

func openLocator(o safeopen.Opener, dirFD int, name string) (*locator, error) {
	fd, err := o.OpenAt(dirFD, name, locatorFlags, 0)
	if err != nil {
		return nil, err
	}
	return &locator{fd: fd, name: name}, nil
}

// osFile returns an *os.File sharing the locator's descriptor. The file is
// closed by close and must not be used afterwards.
func (l *locator) osFile() *os.File {
	if l.file == nil {
		l.file = os.NewFile(uintptr(l.fd), l.name)
	}
	return l.file
}

// close releases the descriptor. A failure is logged and otherwise ignored.
func (l *locator) close() {
	var err error
	if l.file != nil {
		err = l.file.Close()
	} else {
		err = hostClose(l.fd)
	}
	if err != nil {
		closeLog.Warningf("Closing locator descriptor for %q failed: %v", l.name, err)
	}
	l.fd = -1
}

// withLocator runs fn on a locator descriptor for name, closing it on every
// path out.
func withLocator(o safeopen.Opener, dirFD int, name string, fn func(l *locator) error) error {
	l, err := openLocator(o, dirFD, name)
	if err != nil {
		return err
	}
	defer l.close()
	return fn(l)
}
