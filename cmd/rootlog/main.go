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

// The rootlog binary inspects and updates the stored root hashes.
//
// Usage:
//
//	rootlog [flags] list
//	rootlog [flags] history <label>
//	rootlog [flags] store <label> <hex root>
//	rootlog [flags] compare <label> <hex root>
//	rootlog [flags] diff <hex root> <hex root>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/reviewledger/ledger/cmd"
	"github.com/reviewledger/ledger/cmd/internal/toolutil"
	"github.com/reviewledger/ledger/integrity"
	"k8s.io/klog/v2"
)

var (
	mainOpts toolutil.Main

	flagFile = flag.String("flagfile", "", "Flags file to read flags from")
)

var errUsage = errors.New("usage: rootlog list | history <label> | store <label> <root> | compare <label> <root> | diff <root> <root>")

// arity is the number of arguments each subcommand takes.
var arity = map[string]int{"list": 0, "history": 1, "store": 2, "compare": 2, "diff": 2}

func init() {
	mainOpts.RegisterFlags(flag.CommandLine)
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
	err = run(context.Background(), env, flag.Args(), os.Stdout)
	if cerr := env.Close(); cerr != nil {
		klog.Errorf("Close: %v", cerr)
	}
	if err != nil {
		klog.Exitf("rootlog: %v", err)
	}
}

func run(ctx context.Context, env *toolutil.Env, args []string, w io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	verb, args := args[0], args[1:]
	n, ok := arity[verb]
	if !ok || len(args) != n {
		return errUsage
	}

	if verb == "diff" {
		a, err := integrity.ParseRoot(args[0])
		if err != nil {
			return err
		}
		b, err := integrity.ParseRoot(args[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(w, integrity.CompareRoots(a, b))
		return nil
	}

	v, err := env.Verifier()
	if err != nil {
		return err
	}
	switch verb {
	case "list":
		recs, err := v.Latest(ctx)
		if err != nil {
			return err
		}
		for _, r := range recs {
			fmt.Fprintln(w, r)
		}
		fmt.Fprintf(w, "%d labels\n", len(recs))
	case "history":
		recs, err := v.History(ctx, args[0])
		if err != nil {
			return err
		}
		for _, r := range recs {
			fmt.Fprintln(w, r)
		}
	case "store":
		root, err := integrity.ParseRoot(args[1])
		if err != nil {
			return err
		}
		rec, err := v.StoreRoot(ctx, args[0], root)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Stored %s\n", rec)
	case "compare":
		root, err := integrity.ParseRoot(args[1])
		if err != nil {
			return err
		}
		st, err := v.Compare(ctx, args[0], root)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, st)
	}
	return nil
}
