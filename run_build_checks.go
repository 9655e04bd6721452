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

//go:build ignore

// run_build_checks type-checks the module, tests included, for every
// platform variant. Run it with "go run run_build_checks.go".
package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

type target struct {
	goos, goarch string
	tags         []string
}

func (t target) String() string {
	s := t.goos + "/" + t.goarch
	if len(t.tags) > 0 {
		s += " (" + strings.Join(t.tags, ",") + ")"
	}
	return s
}

var targets = []target{
	{goos: "linux", goarch: "amd64"},
	{goos: "linux", goarch: "arm64"},
	{goos: "linux", goarch: "amd64", tags: []string{"nofollow_generic"}},
	{goos: "darwin", goarch: "arm64"},
	{goos: "darwin", goarch: "amd64"},
	{goos: "freebsd", goarch: "amd64"},
}

func run(t target) error {
	args := []string{"vet"}
	if len(t.tags) > 0 {
		args = append(args, "-tags", strings.Join(t.tags, ","))
	}
	args = append(args, "./...")
	cmd := exec.Command("go", args...)
	cmd.Env = append(os.Environ(), "GOOS="+t.goos, "GOARCH="+t.goarch, "CGO_ENABLED=0")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func main() {
	failed := 0
	for _, t := range targets {
		fmt.Printf("checking %v\n", t)
		if err := run(t); err != nil {
			fmt.Fprintf(os.Stderr, "%v: %v\n", t, err)
			failed++
		}
	}
	if failed > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d targets failed\n", failed, len(targets))
		os.Exit(1)
	}
}
