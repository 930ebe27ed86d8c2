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

// The buildtree binary loads a review dataset, builds its Merkle tree and
// optionally commits the root hash under the dataset label.
package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/reviewledger/ledger/cmd"
	"github.com/reviewledger/ledger/cmd/internal/toolutil"
	"github.com/reviewledger/ledger/integrity"
	"github.com/reviewledger/ledger/merkle/tree"
	"github.com/reviewledger/ledger/review"
	"k8s.io/klog/v2"
)

var (
	mainOpts toolutil.Main

	dataset     = flag.String("dataset", "", "Dataset name from --config, or path of a JSON lines review file")
	maxRecords  = flag.Int("max_records", 0, "If positive, load at most this many reviews")
	label       = flag.String("label", "", "Label to store the root under. Defaults to the dataset label")
	storeRoot   = flag.Bool("store", false, "Store the root hash in the root store")
	printLevels = flag.Int("print_levels", 0, "Print the hashes of this many levels from the root")
	addFile     = flag.String("add_file", "", "JSON lines file of reviews to add incrementally after the build")
	flagFile    = flag.String("flagfile", "", "Flags file to read flags from")
)

func init() {
	mainOpts.RegisterFlags(flag.CommandLine)
}

type options struct {
	dataset     string
	maxRecords  int
	label       string
	store       bool
	printLevels int
	addFile     string
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
	err = run(context.Background(), env, options{
		dataset:     *dataset,
		maxRecords:  *maxRecords,
		label:       *label,
		store:       *storeRoot,
		printLevels: *printLevels,
		addFile:     *addFile,
	}, os.Stdout)
	if cerr := env.Close(); cerr != nil {
		klog.Errorf("Close: %v", cerr)
	}
	if err != nil {
		klog.Exitf("buildtree: %v", err)
	}
}

func run(ctx context.Context, env *toolutil.Env, opts options, w io.Writer) error {
	d, err := env.Dataset(opts.dataset, opts.maxRecords)
	if err != nil {
		return err
	}
	rs, t, err := env.Load(d)
	if err != nil {
		return err
	}
	if err := printSummary(w, d.Name, len(rs), t); err != nil {
		return err
	}
	if opts.printLevels > 0 {
		printTree(w, t, opts.printLevels)
	}

	if opts.addFile != "" {
		if err := addReviews(w, t, opts.addFile); err != nil {
			return err
		}
	}

	if !opts.store {
		return nil
	}
	root, err := t.RootHash()
	if err != nil {
		return err
	}
	lbl := opts.label
	if lbl == "" {
		lbl = d.RootLabel()
	}
	v, err := env.Verifier()
	if err != nil {
		return err
	}
	upd, err := v.DetectUpdates(ctx, lbl, root)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Update check for %s: %v\n", lbl, upd)
	rec, err := v.StoreRoot(ctx, lbl, root)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Stored %s\n", rec)
	return nil
}

func printSummary(w io.Writer, name string, n int, t *tree.Tree) error {
	root, err := t.RootHash()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Dataset: %s\n", name)
	fmt.Fprintf(w, "Reviews: %d\n", n)
	fmt.Fprintf(w, "Height: %d\n", t.Height())
	if r := t.Renamed(); r > 0 {
		fmt.Fprintf(w, "Renamed duplicate IDs: %d\n", r)
	}
	fmt.Fprintf(w, "Root: %s\n", hex.EncodeToString(root))
	return nil
}

// printTree prints the first levels of t, eight hex digits per node.
func printTree(w io.Writer, t *tree.Tree, levels int) {
	for i, level := range t.Levels(levels) {
		fmt.Fprintf(w, "Level %d:", i)
		for j, h := range level {
			if j == 8 {
				fmt.Fprintf(w, " ... (%d nodes)", len(level))
				break
			}
			fmt.Fprintf(w, " %s", hex.EncodeToString(h)[:8])
		}
		fmt.Fprintln(w)
	}
}

func addReviews(w io.Writer, t *tree.Tree, path string) error {
	rs, _, err := review.LoadFile(path, 0)
	if err != nil {
		return err
	}
	before, err := t.RootHash()
	if err != nil {
		return err
	}
	added, dups := 0, 0
	for _, r := range rs {
		err := t.AddLeaf(r.ID, r.Encode())
		switch {
		case errors.Is(err, tree.ErrDuplicateIdentifier):
			klog.Warningf("Not adding review %s: %v", r.ID, err)
			dups++
		case err != nil:
			return err
		default:
			added++
		}
	}
	root, err := t.RootHash()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Added %d reviews (%d duplicates rejected)\n", added, dups)
	fmt.Fprintf(w, "Height: %d\n", t.Height())
	fmt.Fprintf(w, "Root: %s\n", hex.EncodeToString(root))
	fmt.Fprintf(w, "Root change: %v\n", integrity.CompareRoots(before, root))
	return nil
}
