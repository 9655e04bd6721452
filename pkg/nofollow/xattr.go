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
	"strings"

	"golang.org/x/sys/unix"
)

// xattrAccessor is one strategy for reaching the attributes of the entry
// name below dirFD. Errors are raw errnos.
type xattrAccessor interface {
	get(dirFD int, name, attr string, dest []byte) (int, error)
	list(dirFD int, name string, dest []byte) (int, error)
	set(dirFD int, name, attr string, value []byte, flags int) error
	remove(dirFD int, name, attr string) error
	value(dirFD int, name, attr string) ([]byte, error)
	names(dirFD int, name string) ([]string, error)
}

// SplitXattrNames splits a list returned by ListXattr into names.
func SplitXattrNames(list []byte) []string {
	var names []string
	for _, n := range strings.Split(string(list), "\x00") {
		if n != "" {
			names = append(names, n)
		}
	}
	return names
}

// GetXattrFD reads attribute attr of the file open on fd. fd is borrowed.
// Unlike Host.GetXattr, the entry is already resolved, so nothing can be
// swapped underneath.
func GetXattrFD(fd int, attr string, dest []byte) (int, error) {
	n, err := unix.Fgetxattr(fd, attr, dest)
	if err != nil {
		return 0, wrap("fgetxattr", "", attr, err)
	}
	return n, nil
}
