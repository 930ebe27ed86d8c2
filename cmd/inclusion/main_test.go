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
	"errors"
	"path/filepath"
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

func rootOf(t *testing.T, rs []review.Review) []byte {
	t.Helper()
	tr, err := tree.Build(sortedpair.DefaultHasher, review.IDs(rs), review.Encodings(rs))
	if err != nil {
		t.Fatal(err)
	}
	root, err := tr.RootHash()
	if err != nil {
		t.Fatal(err)
	}
	return root
}

func TestProveAndVerify(t *testing.T) {
	dir := t.TempDir()
	rs := testonly.Reviews(9)
	data := testonly.WriteReviews(t, dir, "data.json", rs)
	ctx := context.Background()
	env := newEnv(t)

	for _, name := range []string{"proof.txt", "proof.json"} {
		t.Run(name, func(t *testing.T) {
			proofFile := filepath.Join(dir, name)
			var out bytes.Buffer
			if err := run(ctx, env, options{dataset: data, reviewID: rs[4].ID, proofOut: proofFile}, &out); err != nil {
				t.Fatalf("run(prove)=%v", err)
			}
			for _, s := range []string{"PROOF_GENERATED", "Proof length: 4", "Verified: yes", "Proof written to"} {
				if !strings.Contains(out.String(), s) {
					t.Errorf("prove output lacks %q:\n%s", s, out.String())
				}
			}

			out.Reset()
			if err := run(ctx, env, options{dataset: data, reviewID: rs[4].ID, verifyProof: proofFile, root: hex.EncodeToString(rootOf(t, rs))}, &out); err != nil {
				t.Fatalf("run(verify)=%v", err)
			}
			if !strings.Contains(out.String(), "Verification: VALID") {
				t.Errorf("verify output:\n%s", out.String())
			}

			// The same proof does not vouch for a different review.
			out.Reset()
			err := run(ctx, env, options{dataset: data, reviewID: rs[5].ID, verifyProof: proofFile}, &out)
			if !errors.Is(err, errProofRejected) {
				t.Errorf("run(verify other)=%v, want errProofRejected", err)
			}
		})
	}
}

func TestVerifyAgainstStoredRoot(t *testing.T) {
	dir := t.TempDir()
	rs := testonly.Reviews(5)
	data := testonly.WriteReviews(t, dir, "data.json", rs)
	proofFile := filepath.Join(dir, "p.txt")
	ctx := context.Background()
	env := newEnv(t)

	if err := run(ctx, env, options{dataset: data, reviewID: rs[0].ID, proofOut: proofFile}, &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}
	v, err := env.Verifier()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := v.StoreRoot(ctx, "good", rootOf(t, rs)); err != nil {
		t.Fatal(err)
	}
	if _, err := v.StoreRoot(ctx, "old", rootOf(t, rs[:4])); err != nil {
		t.Fatal(err)
	}

	if err := run(ctx, env, options{dataset: data, reviewID: rs[0].ID, verifyProof: proofFile, label: "good"}, &bytes.Buffer{}); err != nil {
		t.Errorf("verify against good=%v", err)
	}
	if err := run(ctx, env, options{dataset: data, reviewID: rs[0].ID, verifyProof: proofFile, label: "old"}, &bytes.Buffer{}); !errors.Is(err, errProofRejected) {
		t.Errorf("verify against old=%v, want errProofRejected", err)
	}
	if err := run(ctx, env, options{dataset: data, reviewID: rs[0].ID, verifyProof: proofFile, label: "none"}, &bytes.Buffer{}); err == nil {
		t.Error("verify against missing label succeeded")
	}
}

func TestProductAndBatch(t *testing.T) {
	dir := t.TempDir()
	rs := testonly.Reviews(12)
	data := testonly.WriteReviews(t, dir, "data.json", rs)
	env := newEnv(t)

	var out bytes.Buffer
	if err := run(context.Background(), env, options{dataset: data, product: "P1", batch: 5}, &out); err != nil {
		t.Fatalf("run()=%v", err)
	}
	for _, s := range []string{
		"Product P1: 4 requests: 4 generated (4 verified), 0 not found, 0 failed",
		"Batch: 5 requests: 5 generated (5 verified), 0 not found, 0 failed",
	} {
		if !strings.Contains(out.String(), s) {
			t.Errorf("output lacks %q:\n%s", s, out.String())
		}
	}

	if err := run(context.Background(), env, options{dataset: data, product: "P9"}, &bytes.Buffer{}); err == nil {
		t.Error("run(unknown product) succeeded")
	}
}

func TestSingleLeafDataset(t *testing.T) {
	rs := testonly.Reviews(1)
	data := testonly.WriteReviews(t, t.TempDir(), "one.json", rs)
	var out bytes.Buffer
	if err := run(context.Background(), newEnv(t), options{dataset: data, reviewID: rs[0].ID}, &out); err != nil {
		t.Fatalf("run()=%v", err)
	}
	if !strings.Contains(out.String(), "single-leaf tree, leaf equals root") {
		t.Errorf("output:\n%s", out.String())
	}
}

func TestRunErrors(t *testing.T) {
	rs := testonly.Reviews(3)
	data := testonly.WriteReviews(t, t.TempDir(), "d.json", rs)
	env := newEnv(t)
	for _, opts := range []options{
		{dataset: data},
		{dataset: data, reviewID: "missing"},
		{dataset: data, reviewID: "missing", verifyProof: "p.txt"},
		{dataset: data, reviewID: rs[0].ID, verifyProof: "/no/such/proof"},
	} {
		if err := run(context.Background(), env, opts, &bytes.Buffer{}); err == nil {
			t.Errorf("run(%+v) succeeded", opts)
		}
	}
}
