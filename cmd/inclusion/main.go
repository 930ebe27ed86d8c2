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

// The inclusion binary generates inclusion proofs for reviews of a dataset
// and verifies proof files against a trusted root.
package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/reviewledger/ledger/cmd"
	"github.com/reviewledger/ledger/cmd/internal/toolutil"
	"github.com/reviewledger/ledger/integrity"
	"github.com/reviewledger/ledger/merkle/proof"
	"github.com/reviewledger/ledger/prover"
	"github.com/reviewledger/ledger/review"
	"github.com/reviewledger/ledger/util"
	"k8s.io/klog/v2"
)

var (
	mainOpts toolutil.Main

	dataset     = flag.String("dataset", "", "Dataset name from --config, or path of a JSON lines review file")
	maxRecords  = flag.Int("max_records", 0, "If positive, load at most this many reviews")
	reviewID    = flag.String("review_id", "", "Review to prove, or whose proof --verify_proof checks")
	product     = flag.String("product", "", "Prove every review of this product")
	batch       = flag.Int("batch", 0, "Prove the first N reviews in parallel and print a summary")
	proofOut    = flag.String("proof_out", "", "Write the proof for --review_id here; JSON if the name ends in .json, text otherwise")
	verifyProof = flag.String("verify_proof", "", "Proof file to verify for --review_id")
	rootHex     = flag.String("root", "", "Trusted root (hex) for --verify_proof")
	label       = flag.String("label", "", "Take the trusted root for --verify_proof from the root store under this label")
	flagFile    = flag.String("flagfile", "", "Flags file to read flags from")
)

var errProofRejected = errors.New("proof does not verify")

func init() {
	mainOpts.RegisterFlags(flag.CommandLine)
}

type options struct {
	dataset     string
	maxRecords  int
	reviewID    string
	product     string
	batch       int
	proofOut    string
	verifyProof string
	root        string
	label       string
}

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	if *flagFile != "" {
		if err := cmd.ParseFlagFile(*flagFile); err != nil {
			klog.Exitf("Failed to load flags from config file %q: %s", *flagFile, err)
		}
	}

	env, err := mainOpts.Open()
	if err != nil {
		klog.Exitf("Failed to set up: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go util.AwaitSignal(ctx, cancel)

	err = run(ctx, env, options{
		dataset:     *dataset,
		maxRecords:  *maxRecords,
		reviewID:    *reviewID,
		product:     *product,
		batch:       *batch,
		proofOut:    *proofOut,
		verifyProof: *verifyProof,
		root:        *rootHex,
		label:       *label,
	}, os.Stdout)
	if cerr := env.Close(); cerr != nil {
		klog.Errorf("Close: %v", cerr)
	}
	if err != nil {
		klog.Exitf("inclusion: %v", err)
	}
}

func run(ctx context.Context, env *toolutil.Env, opts options, w io.Writer) error {
	if opts.reviewID == "" && opts.product == "" && opts.batch <= 0 {
		return errors.New("one of --review_id, --product or --batch is required")
	}
	d, err := env.Dataset(opts.dataset, opts.maxRecords)
	if err != nil {
		return err
	}
	rs, t, err := env.Load(d)
	if err != nil {
		return err
	}

	if opts.verifyProof != "" {
		return verify(ctx, env, rs, t.RootHash, opts, w)
	}

	p := prover.New(t, env.Hasher, prover.Options{TimeSource: env.TimeSource, MetricFactory: env.MetricFactory})
	p.Index(rs)

	if opts.reviewID != "" {
		res := p.ProveReview(opts.reviewID)
		printResult(w, res)
		if res.Status != prover.Generated {
			return fmt.Errorf("review %q: %v", opts.reviewID, res.Status)
		}
		if opts.proofOut != "" {
			if err := writeProof(opts.proofOut, res.Path); err != nil {
				return err
			}
			fmt.Fprintf(w, "Proof written to %s\n", opts.proofOut)
		}
	}

	if opts.product != "" {
		results, err := p.ProveProduct(opts.product)
		if err != nil {
			return err
		}
		for _, res := range results {
			printResult(w, res)
		}
		fmt.Fprintf(w, "Product %s: %v\n", opts.product, prover.Summarize(results))
	}

	if opts.batch > 0 {
		ids := review.IDs(rs)
		if opts.batch < len(ids) {
			ids = ids[:opts.batch]
		}
		results, err := p.ProveBatch(ctx, ids)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Batch: %v\n", prover.Summarize(results))
	}
	return nil
}

func printResult(w io.Writer, res prover.Result) {
	fmt.Fprintf(w, "Review %s: %v\n", res.ReviewID, res.Status)
	if res.Status != prover.Generated {
		return
	}
	fmt.Fprintf(w, "  Leaf: %s\n", hex.EncodeToString(res.LeafHash))
	fmt.Fprintf(w, "  Root: %s\n", hex.EncodeToString(res.Root))
	fmt.Fprintf(w, "  Proof length: %d\n", len(res.Path))
	switch {
	case res.Verified:
		fmt.Fprintln(w, "  Verified: yes")
	case len(res.Path) == 0 && bytes.Equal(res.LeafHash, res.Root):
		fmt.Fprintln(w, "  Verified: single-leaf tree, leaf equals root")
	default:
		fmt.Fprintln(w, "  Verified: no")
	}
}

func isJSON(path string) bool {
	return filepath.Ext(path) == ".json"
}

func writeProof(path string, p proof.Path) error {
	var (
		b   []byte
		err error
	)
	if isJSON(path) {
		b, err = json.MarshalIndent(p, "", "  ")
	} else {
		b, err = p.MarshalText()
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func readProof(path string) (proof.Path, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p proof.Path
	if isJSON(path) {
		err = json.Unmarshal(b, &p)
	} else {
		err = p.UnmarshalText(b)
	}
	return p, err
}

// verify checks the proof file for opts.reviewID. The trusted root comes
// from --root, else from the root store under --label, else from the tree
// just built.
func verify(ctx context.Context, env *toolutil.Env, rs []review.Review, treeRoot func() ([]byte, error), opts options, w io.Writer) error {
	if opts.reviewID == "" {
		return errors.New("--verify_proof needs --review_id")
	}
	var data []byte
	for _, r := range rs {
		if r.ID == opts.reviewID {
			data = r.Encode()
			break
		}
	}
	if data == nil {
		return fmt.Errorf("review %q not in dataset", opts.reviewID)
	}
	path, err := readProof(opts.verifyProof)
	if err != nil {
		return fmt.Errorf("reading proof: %w", err)
	}

	var root []byte
	switch {
	case opts.root != "":
		root, err = integrity.ParseRoot(opts.root)
	case opts.label != "":
		root, err = storedRoot(ctx, env, opts.label)
	default:
		root, err = treeRoot()
	}
	if err != nil {
		return err
	}

	res := prover.VerifyExternally(env.Hasher, data, path, root)
	fmt.Fprintf(w, "Trusted root: %s\n", hex.EncodeToString(root))
	if !res.Verified {
		fmt.Fprintln(w, "Verification: INVALID")
		return errProofRejected
	}
	fmt.Fprintln(w, "Verification: VALID")
	return nil
}

func storedRoot(ctx context.Context, env *toolutil.Env, label string) ([]byte, error) {
	s, err := env.Store()
	if err != nil {
		return nil, err
	}
	rec, err := s.LatestRoot(ctx, label)
	if err != nil {
		return nil, err
	}
	return rec.Root, nil
}
