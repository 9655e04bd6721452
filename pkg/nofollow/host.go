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

import "golang.org/x/sys/unix"

// nodeMaker creates a node named name below dirFD. mode carries the file type
// bits.
type nodeMaker func(dirFD int, name string, mode uint32, dev uint64) error

// host composes the per-concern strategies chosen for the build.
type host struct {
	xattrs xattrAccessor
	times  *timeSetter
	mknod  nodeMaker
}

var _ Host = (*host)(nil)

// GetXattr implements Host.GetXattr.
func (h *host) GetXattr(dirFD int, name, attr string, dest []byte) (int, error) {
	if !isNameValid(name) {
		return 0, wrap("getxattr", name, attr, unix.EINVAL)
	}
	n, err := h.xattrs.get(dirFD, name, attr, dest)
	if err != nil {
		return 0, wrap("getxattr", name, attr, err)
	}
	return n, nil
}

// ListXattr implements Host.ListXattr.
func (h *host) ListXattr(dirFD int, name string, dest []byte) (int, error) {
	if !isNameValid(name) {
		return 0, wrap("listxattr", name, "", unix.EINVAL)
	}
	n, err := h.xattrs.list(dirFD, name, dest)
	if err != nil {
		return 0, wrap("listxattr", name, "", err)
	}
	return n, nil
}

// SetXattr implements Host.SetXattr.
func (h *host) SetXattr(dirFD int, name, attr string, value []byte, mode SetMode) error {
	if !isNameValid(name) {
		return wrap("setxattr", name, attr, unix.EINVAL)
	}
	return wrap("setxattr", name, attr, h.xattrs.set(dirFD, name, attr, value, mode.flags()))
}

// RemoveXattr implements Host.RemoveXattr.
func (h *host) RemoveXattr(dirFD int, name, attr string) error {
	if !isNameValid(name) {
		return wrap("removexattr", name, attr, unix.EINVAL)
	}
	return wrap("removexattr", name, attr, h.xattrs.remove(dirFD, name, attr))
}

// XattrValue implements Host.XattrValue.
func (h *host) XattrValue(dirFD int, name, attr string) ([]byte, error) {
	if !isNameValid(name) {
		return nil, wrap("getxattr", name, attr, unix.EINVAL)
	}
	v, err := h.xattrs.value(dirFD, name, attr)
	if err != nil {
		return nil, wrap("getxattr", name, attr, err)
	}
	return v, nil
}

// XattrNames implements Host.XattrNames.
func (h *host) XattrNames(dirFD int, name string) ([]string, error) {
	if !isNameValid(name) {
		return nil, wrap("listxattr", name, "", unix.EINVAL)
	}
	names, err := h.xattrs.names(dirFD, name)
	if err != nil {
		return nil, wrap("listxattr", name, "", err)
	}
	return names, nil
}

// Utimes implements Host.Utimes.
func (h *host) Utimes(dirFD int, name string, ts Timestamps) error {
	if !isNameValid(name) || !ts.Atime.valid() || !ts.Mtime.valid() {
		return wrap("utimensat", name, "", unix.EINVAL)
	}
	return wrap("utimensat", name, "", h.times.set(dirFD, name, ts))
}

// Mknod implements Host.Mknod.
func (h *host) Mknod(dirFD int, name string, kind NodeKind, perm uint32, dev uint64) error {
	if !isNameValid(name) {
		return wrap("mknodat", name, "", unix.EINVAL)
	}
	switch kind {
	case NodeChar, NodeBlock:
	case NodeRegular, NodeFIFO, NodeSocket:
		dev = 0
	default:
		return wrap("mknodat", name, "", unix.EINVAL)
	}
	return wrap("mknodat", name, "", h.mknod(dirFD, name, uint32(kind)|perm&0o7777, dev))
}
