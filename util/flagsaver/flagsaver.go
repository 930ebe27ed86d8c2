// Copyright 2026 Google LLC. All Rights Reserved.
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

// Package flagsaver saves and restores flag values around tests that set
// flags, such as the root store selection flags.
//
// Example:
//
//	func TestFoo(t *testing.T) {
//		defer flagsaver.Save().MustRestore()
//		flag.Set("root_log", path)
//	}
package flagsaver

import (
	"flag"
	"strings"

	"k8s.io/klog/v2"
)

// Stash holds flag values so that they can be restored at the end of a test.
type Stash struct {
	fs    *flag.FlagSet
	flags map[string]string
}

// Save captures the current value of every flag of flag.CommandLine.
func Save() *Stash {
	return SaveSet(flag.CommandLine)
}

// SaveSet captures the current value of every flag of fs. The go test
// flags are excluded, as is log_backtrace_at, which cannot be set back to
// its empty value.
func SaveSet(fs *flag.FlagSet) *Stash {
	s := &Stash{fs: fs, flags: make(map[string]string)}
	fs.VisitAll(func(f *flag.Flag) {
		if !strings.HasPrefix(f.Name, "test.") && f.Name != "log_backtrace_at" {
			s.flags[f.Name] = f.Value.String()
		}
	})
	return s
}

// Restore sets the saved flags back to the values they had in Save.
func (s *Stash) Restore() error {
	for name, value := range s.flags {
		if err := s.fs.Set(name, value); err != nil {
			return err
		}
	}
	return nil
}

// MustRestore calls Restore and exits on failure, since the flags would be
// left in an arbitrary state for later tests.
func (s *Stash) MustRestore() {
	if err := s.Restore(); err != nil {
		klog.Fatalf("MustRestore(): failed to restore flags: %v", err)
	}
}
