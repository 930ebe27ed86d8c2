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

// The tamperscan binary corrupts a copy of a review dataset in a chosen way
// and reports how the corruption shows up against the original tree.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/reviewledger/ledger/cmd"
	"github.com/reviewledger/ledger/cmd/internal/toolutil"
	"github.com/reviewledger/ledger/merkle/tree"
	"github.com/reviewledger/ledger/review"
	"github.com/reviewledger/ledger/tamper"
	"k8s.io/klog/v2"
)

var (
	mainOpts toolutil.Main

	dataset     = flag.String("dataset", "", "Dataset name from --config, or path of a JSON lines review file")
	maxRecords  = flag.Int("max_records", 0, "If positive, load at most this many reviews")
	scenario    = flag.String("scenario", "modify", "Corruption to apply: modify, delete, inject or rerate")
	count       = flag.Int("count", 1, "Number of reviews to corrupt")
	seed        = flag.Uint64("seed", 1, "Seed of the random choice of reviews")
	checkStored = flag.Bool("check_stored", false, "Also compare the corrupted root with the root stored under the dataset label")
	flagFile    = flag.String("flagfile", "", "Flags file to read flags from")
)

func init() {
	mainOpts.RegisterFlags(flag.CommandLine)
}

type options struct {
	dataset     string
	maxRecords  int
	scenario    string
	count       int
	seed        uint64
	checkStored bool
}

type mutation func(*tamper.Simulator, []review.Review, int) ([]review.Review, []string, error)

var scenarios = map[string]mutation{
	"modify": (*tamper.Simulator).Modify,
	"delete": (*tamper.Simulator).Delete,
	"inject": (*tamper.Simulator).Inject,
	"rerate": (*tamper.Simulator).ReRate,
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
		scenario:    *scenario,
		count:       *count,
		seed:        *seed,
		checkStored: *checkStored,
	}, os.Stdout)
	if cerr := env.Close(); cerr != nil {
		klog.Errorf("Close: %v", cerr)
	}
	if err != nil {
		klog.Exitf("tamperscan: %v", err)
	}
}

func run(ctx context.Context, env *toolutil.Env, opts options, w io.Writer) error {
	mutate, ok := scenarios[opts.scenario]
	if !ok {
		return fmt.Errorf("unknown scenario %q", opts.scenario)
	}
	d, err := env.Dataset(opts.dataset, opts.maxRecords)
	if err != nil {
		return err
	}
	rs, original, err := env.Load(d)
	if err != nil {
		return err
	}
	det := tamper.NewDetector(original, rs)
	if err := det.SetDataset(d.RootLabel()); err != nil {
		return err
	}

	sim := tamper.NewSeededSimulator(opts.seed, env.TimeSource)
	candidate, ids, err := mutate(sim, rs, opts.count)
	if err != nil {
		return err
	}
	klog.Infof("Scenario %s touched %d reviews", opts.scenario, len(ids))
	newTree, err := tree.Build(env.Hasher, review.IDs(candidate), review.Encodings(candidate))
	if err != nil {
		return err
	}

	rep := det.ComprehensiveAnalysis(candidate, newTree)
	fmt.Fprintf(w, "Scenario: %s x%d\n", opts.scenario, opts.count)
	fmt.Fprint(w, rep)

	if opts.checkStored {
		v, err := env.Verifier()
		if err != nil {
			return err
		}
		root, err := newTree.RootHash()
		if err != nil {
			return err
		}
		st, err := v.Compare(ctx, d.RootLabel(), root)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Stored root check for %s: %v\n", d.RootLabel(), st)
	}
	return nil
}
