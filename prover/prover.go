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

// Package prover answers existence queries for reviews committed to a tree:
// it generates inclusion proofs by review or product and checks them.
package prover

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/reviewledger/ledger/merkle/proof"
	"github.com/reviewledger/ledger/merkle/tree"
	"github.com/reviewledger/ledger/monitoring"
	"github.com/reviewledger/ledger/review"
	"github.com/reviewledger/ledger/util/clock"
	"github.com/transparency-dev/merkle"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"k8s.io/klog/v2"
)

// ErrProductNotFound is returned when no indexed review has the product.
var ErrProductNotFound = status.Error(codes.NotFound, "product not found")

// Status is the outcome of a proof request.
type Status int

// Proof request outcomes.
const (
	GenerationFailed Status = iota
	Generated
	ReviewNotFound
)

func (s Status) String() string {
	switch s {
	case Generated:
		return "PROOF_GENERATED"
	case ReviewNotFound:
		return "REVIEW_NOT_FOUND"
	default:
		return "PROOF_GENERATION_FAILED"
	}
}

// Result describes one proof request.
type Result struct {
	ReviewID string
	Status   Status
	Path     proof.Path
	LeafHash []byte
	Root     []byte
	// Verified is set when Path verifies against Root.
	Verified bool
	Elapsed  time.Duration
	// Err holds the cause of a GenerationFailed result.
	Err error
}

// Options configures a Prover. Zero values select the system clock and
// inert metrics.
type Options struct {
	TimeSource    clock.TimeSource
	MetricFactory monitoring.MetricFactory
}

// Prover generates proofs from a tree and an index of the reviews it was
// built from. The tree must not be mutated while proofs are generated.
type Prover struct {
	tree      *tree.Tree
	hasher    merkle.LogHasher
	ts        clock.TimeSource
	encodings map[string][]byte
	products  map[string][]string

	proofs  monitoring.Counter
	latency monitoring.Histogram
}

// New returns a Prover over t. A nil hasher selects the tree's own.
func New(t *tree.Tree, hasher merkle.LogHasher, opts Options) *Prover {
	if hasher == nil {
		hasher = t.Hasher()
	}
	ts := opts.TimeSource
	if ts == nil {
		ts = clock.System
	}
	mf := opts.MetricFactory
	if mf == nil {
		mf = monitoring.InertMetricFactory{}
	}
	return &Prover{
		tree:      t,
		hasher:    hasher,
		ts:        ts,
		encodings: make(map[string][]byte),
		products:  make(map[string][]string),
		proofs:    mf.NewCounter("proofs", "Proof requests by outcome", "status"),
		latency:   mf.NewHistogramWithBuckets("proof_generation_seconds", "Time to generate and check a proof", monitoring.ProofLatencyBuckets()),
	}
}

// Index adds reviews to the lookup tables. Reviews whose ID is already
// indexed are ignored.
func (p *Prover) Index(reviews []review.Review) {
	added := 0
	for _, r := range reviews {
		if _, ok := p.encodings[r.ID]; ok {
			continue
		}
		p.encodings[r.ID] = r.Encode()
		p.products[r.ProductID] = append(p.products[r.ProductID], r.ID)
		added++
	}
	klog.Infof("Indexed %d reviews for %d products", added, len(p.products))
}

// Products returns the number of indexed products.
func (p *Prover) Products() int { return len(p.products) }

// ProveReview generates and checks the proof for the review with id.
func (p *Prover) ProveReview(id string) Result {
	start := p.ts.Now()
	res := p.prove(id)
	res.Elapsed = clock.Since(p.ts, start)
	p.proofs.Inc(res.Status.String())
	if res.Status == Generated {
		p.latency.Observe(res.Elapsed.Seconds())
	}
	return res
}

func (p *Prover) prove(id string) Result {
	res := Result{ReviewID: id}
	data, ok := p.encodings[id]
	if !ok {
		res.Status = ReviewNotFound
		return res
	}
	root, err := p.tree.RootHash()
	if err != nil {
		res.Err = err
		return res
	}
	path, err := p.tree.InclusionProof(id)
	if err != nil {
		res.Err = err
		return res
	}
	res.Status = Generated
	res.Path = path
	res.Root = root
	res.LeafHash = p.hasher.HashLeaf(data)
	res.Verified = proof.Verify(p.hasher, data, path, root)
	return res
}

// ProveProduct proves every indexed review of productID, in index order.
func (p *Prover) ProveProduct(productID string) ([]Result, error) {
	ids, ok := p.products[productID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProductNotFound, productID)
	}
	out := make([]Result, 0, len(ids))
	for _, id := range ids {
		out = append(out, p.ProveReview(id))
	}
	return out, nil
}

// ProveBatch proves ids in parallel. Results are in the order of ids. The
// only error returned is the context's.
func (p *Prover) ProveBatch(ctx context.Context, ids []string) ([]Result, error) {
	out := make([]Result, len(ids))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, id := range ids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = p.ProveReview(id)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// VerifyExternally checks a proof using only the data, the path and a
// trusted root. The result's Status is always Generated.
func VerifyExternally(hasher merkle.LogHasher, data []byte, path proof.Path, root []byte) Result {
	start := clock.System.Now()
	leaf := hasher.HashLeaf(data)
	return Result{
		Status:   Generated,
		Path:     path,
		LeafHash: leaf,
		Root:     root,
		Verified: proof.VerifyLeafHash(hasher, leaf, path, root),
		Elapsed:  clock.Since(clock.System, start),
	}
}

// Summary aggregates a set of results.
type Summary struct {
	Total     int
	Generated int
	Verified  int
	NotFound  int
	Failed    int
	// Mean is the mean elapsed time of generated proofs.
	Mean time.Duration
}

// Summarize counts results by outcome.
func Summarize(results []Result) Summary {
	var s Summary
	var total time.Duration
	for _, r := range results {
		s.Total++
		switch r.Status {
		case Generated:
			s.Generated++
			total += r.Elapsed
			if r.Verified {
				s.Verified++
			}
		case ReviewNotFound:
			s.NotFound++
		default:
			s.Failed++
		}
	}
	if s.Generated > 0 {
		s.Mean = total / time.Duration(s.Generated)
	}
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("%d requests: %d generated (%d verified), %d not found, %d failed, mean %v",
		s.Total, s.Generated, s.Verified, s.NotFound, s.Failed, s.Mean)
}
