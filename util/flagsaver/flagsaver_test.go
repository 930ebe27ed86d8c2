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

package flagsaver

import (
	"flag"
	"testing"
	"time"
)

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.Int("max_records", 0, "")
	fs.String("root_log", "merkle_roots.log", "")
	fs.Duration("deadline", 5*time.Second, "")
	return fs
}

func TestRestore(t *testing.T) {
	for _, tc := range []struct {
		desc     string
		flag     string
		oldValue string
		newValue string
	}{
		{desc: "default int", flag: "max_records", newValue: "666"},
		{desc: "default string", flag: "root_log", newValue: "/tmp/other.log"},
		{desc: "default duration", flag: "deadline", newValue: "1m0s"},
		{desc: "set int", flag: "max_records", oldValue: "555", newValue: "666"},
		{desc: "set string", flag: "root_log", oldValue: "a.log", newValue: "b.log"},
		{desc: "set duration", flag: "deadline", oldValue: "10s", newValue: "1m0s"},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			fs := newFlagSet()
			want := fs.Lookup(tc.flag).DefValue
			if tc.oldValue != "" {
				if err := fs.Set(tc.flag, tc.oldValue); err != nil {
					t.Fatalf("Set(%q, %q)=%v", tc.flag, tc.oldValue, err)
				}
				want = tc.oldValue
			}

			s := SaveSet(fs)
			if err := fs.Set(tc.flag, tc.newValue); err != nil {
				t.Fatalf("Set(%q, %q)=%v", tc.flag, tc.newValue, err)
			}
			if err := s.Restore(); err != nil {
				t.Fatalf("Restore()=%v", err)
			}
			if got := fs.Lookup(tc.flag).Value.String(); got != want {
				t.Errorf("%s=%q after Restore, want %q", tc.flag, got, want)
			}
		})
	}
}

func TestSaveCommandLine(t *testing.T) {
	defer Save().MustRestore()
	if _, ok := Save().flags["test.v"]; ok {
		t.Error("Save() captured a go test flag")
	}
}
