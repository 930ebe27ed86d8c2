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

package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/reviewledger/ledger/cmd/internal/toolutil"
	"github.com/reviewledger/ledger/cmd/testonly"
	"github.com/reviewledger/ledger/merkle/sortedpair"
	"github.com/reviewledger/ledger/merkle/tree"
	"github.com/reviewledger/ledger/review"
)

func newEnv(t *testing.T) *toolutil.Env {
	t.Helper()
	env, err := (&toolutil.Main{StorageSystem: "memory"}).Open()
	if err != nil {
		t.Fatalf("Open()=%v", err)
	}
	t.Cleanup(func() { env.Close() })
	return env
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	rs := testonly.Reviews(10)
	path := testonly.WriteReviews(t, dir, "toys.json", rs)
	want, err := tree.Build(sortedpair.DefaultHasher, review.IDs(rs), review.Encodings(rs))
	if err != nil {
		t.Fatal(err)
	}
	wantRoot, _ := want.RootHash()
	ctx := context.Background()
	env := newEnv(t)

	var out bytes.Buffer
	if err := run(ctx, env, options{dataset: path, store: true, printLevels: 2}, &out); err != nil {
		t.Fatalf("run()=%v", err)
	}
	for _, s := range []string{
		"Dataset: toys\n",
		"Reviews: 10\n",
		"Height: 4\n",
		"Root: " + hex.EncodeToString(wantRoot) + "\n",
		"Level 0: " + hex.EncodeToString(wantRoot)[:8] + "\n",
		"Update check for toys: UNKNOWN\n",
		"Stored toys|" + hex.EncodeToString(wantRoot),
	} {
		if !strings.Contains(out.String(), s) {
			t.Errorf("output lacks %q:\n%s", s, out.String())
		}
	}

	// A second run over the same data finds no update.
	out.Reset()
	if err := run(ctx, env, options{dataset: path, store: true}, &out); err != nil {
		t.Fatalf("run()=%v", err)
	}
	if !strings.Contains(out.String(), "Update check for toys: NO_UPDATES") {
		t.Errorf("second run output:\n%s", out.String())
	}
}

func TestRunAddFile(t *testing.T) {
	dir := t.TempDir()
	rs := testonly.Reviews(6)
	path := testonly.WriteReviews(t, dir, "base.json", rs[:4])
	// One review is already in the tree.
	extra := testonly.WriteReviews(t, dir, "extra.json", rs[3:])
	env := newEnv(t)

	var out bytes.Buffer
	if err := run(context.Background(), env, options{dataset: path, addFile: extra, label: "custom", store: true}, &out); err != nil {
		t.Fatalf("run()=%v", err)
	}
	for _, s := range []string{
		"Added 2 reviews (1 duplicates rejected)\n",
		"Root change: ROOTS_DIFFER\n",
		"Update check for custom: UNKNOWN\n",
	} {
		if !strings.Contains(out.String(), s) {
			t.Errorf("output lacks %q:\n%s", s, out.String())
		}
	}
}

func TestRunErrors(t *testing.T) {
	env := newEnv(t)
	for _, opts := range []options{
		{},
		{dataset: "/does/not/exist.json"},
	} {
		if err := run(context.Background(), env, opts, &bytes.Buffer{}); err == nil {
			t.Errorf("run(%+v) succeeded", opts)
		}
	}
}
