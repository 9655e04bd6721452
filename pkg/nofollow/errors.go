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
	"errors"
	"fmt"

	"github.com/pkg/xattr"
	"golang.org/x/sys/unix"
)

// Kind classifies the errors returned by Host.
type Kind int

const (
	// Other is any error not covered below.
	Other Kind = iota

	// NoSuchEntry means the name does not resolve to an entry.
	NoSuchEntry

	// NotFound means the attribute does not exist.
	NotFound

	// AlreadyExists means the attribute or node already exists.
	AlreadyExists

	// Unsupported means the host lacks the mechanism, or the operation is
	// not allowed on this type of entry (e.g. a symlink).
	Unsupported

	// PermissionDenied means the host refused the operation.
	PermissionDenied

	// ResourceExhausted means a descriptor, buffer or space limit was hit.
	ResourceExhausted
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case NoSuchEntry:
		return "NoSuchEntry"
	case NotFound:
		return "NotFound"
	case AlreadyExists:
		return "AlreadyExists"
	case Unsupported:
		return "Unsupported"
	case PermissionDenied:
		return "PermissionDenied"
	case ResourceExhausted:
		return "ResourceExhausted"
	}
	return "Other"
}

// Error is returned by every Host operation. Errno is the host error code,
// unmodified. Failures that carry no errno leave Errno zero and keep the
// original error in Err.
type Error struct {
	Op    string
	Name  string
	Attr  string
	Errno unix.Errno
	Err   error
}

// Error implements error.Error.
func (e *Error) Error() string {
	var cause error = e.Errno
	if e.Err != nil {
		cause = e.Err
	}
	if e.Attr != "" {
		return fmt.Sprintf("%s %q attr %q: %v", e.Op, e.Name, e.Attr, cause)
	}
	return fmt.Sprintf("%s %q: %v", e.Op, e.Name, cause)
}

// Unwrap returns the errno, so errors.Is(err, unix.ENOENT) works, or the
// original error if there is no errno.
func (e *Error) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Errno
}

// Kind returns the error classification.
func (e *Error) Kind() Kind {
	return kindOfErrno(e.Errno)
}

// KindOf classifies err. Errors that carry no errno are Other.
func KindOf(err error) Kind {
	var errno unix.Errno
	if !errors.As(err, &errno) {
		return Other
	}
	return kindOfErrno(errno)
}

// errnoKinds is built from lists since several errno names share a value on
// some hosts (ENOTSUP and EOPNOTSUPP on Linux).
var errnoKinds = func() map[unix.Errno]Kind {
	m := make(map[unix.Errno]Kind)
	for kind, errnos := range map[Kind][]unix.Errno{
		NoSuchEntry:       {unix.ENOENT, unix.ENOTDIR},
		NotFound:          {xattr.ENOATTR},
		AlreadyExists:     {unix.EEXIST},
		Unsupported:       {unix.ENOTSUP, unix.EOPNOTSUPP, unix.ELOOP, unix.ENOSYS, unix.ENXIO},
		PermissionDenied:  {unix.EACCES, unix.EPERM},
		ResourceExhausted: {unix.EMFILE, unix.ENFILE, unix.ERANGE, unix.E2BIG, unix.ENOSPC, unix.EDQUOT},
	} {
		for _, errno := range errnos {
			m[errno] = kind
		}
	}
	return m
}()

func kindOfErrno(errno unix.Errno) Kind {
	return errnoKinds[errno]
}

// wrap converts err into an *Error. An errno found in err, directly or
// inside an *xattr.Error, becomes Errno; anything else is kept as Err.
func wrap(op, name, attr string, err error) error {
	if err == nil {
		return nil
	}
	e := &Error{Op: op, Name: name, Attr: attr}
	var xerr *xattr.Error
	if errors.As(err, &xerr) && xerr.Err != nil {
		err = xerr.Err
	}
	if !errors.As(err, &e.Errno) {
		e.Err = err
	}
	return e
}
