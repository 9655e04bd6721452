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
	"github.com/passthrough/nofollow/pkg/safeopen"
	"github.com/pkg/xattr"
	"golang.org/x/sys/unix"
)

// locatorXattrs opens the entry as a no-follow locator descriptor and uses
// the f*xattr family on it. A symlink fails the open with ELOOP.
type locatorXattrs struct {
	opener safeopen.Opener
}

var _ xattrAccessor = (*locatorXattrs)(nil)

func (a *locatorXattrs) get(dirFD int, name, attr string, dest []byte) (n int, err error) {
	err = withLocator(a.opener, dirFD, name, func(l *locator) error {
		n, err = unix.Fgetxattr(l.fd, attr, dest)
		return err
	})
	return n, err
}

func (a *locatorXattrs) list(dirFD int, name string, dest []byte) (n int, err error) {
	err = withLocator(a.opener, dirFD, name, func(l *locator) error {
		n, err = unix.Flistxattr(l.fd, dest)
		return err
	})
	return n, err
}

func (a *locatorXattrs) set(dirFD int, name, attr string, value []byte, flags int) error {
	return withLocator(a.opener, dirFD, name, func(l *locator) error {
		if err := checkSetFlags(l.fd, attr, flags); err != nil {
			return err
		}
		return unix.Fsetxattr(l.fd, attr, value, flags)
	})
}

func (a *locatorXattrs) remove(dirFD int, name, attr string) error {
	return withLocator(a.opener, dirFD, name, func(l *locator) error {
		return unix.Fremovexattr(l.fd, attr)
	})
}

func (a *locatorXattrs) value(dirFD int, name, attr string) (v []byte, err error) {
	err = withLocator(a.opener, dirFD, name, func(l *locator) error {
		v, err = xattr.FGet(l.osFile(), attr)
		return err
	})
	return v, err
}

func (a *locatorXattrs) names(dirFD int, name string) (names []string, err error) {
	err = withLocator(a.opener, dirFD, name, func(l *locator) error {
		names, err = xattr.FList(l.osFile())
		return err
	})
	return names, err
}
