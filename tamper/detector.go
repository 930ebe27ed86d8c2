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

package tamper

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/reviewledger/ledger/merkle/proof"
	"github.com/reviewledger/ledger/merkle/tree"
	"github.com/reviewledger/ledger/review"
	"k8s.io/klog/v2"
)

// RootStatus is the outcome of comparing a candidate root with the baseline.
type RootStatus int

// Root comparison outcomes.
const (
	RootError RootStatus = iota
	NoTamperingDetected
	TamperingDetected
)

func (s RootStatus) String() string {
	switch s {
	case NoTamperingDetected:
		return "NO_TAMPERING_DETECTED"
	case TamperingDetected:
		return "TAMPERING_DETECTED"
	default:
		return "ERROR"
	}
}

// RecordStatus classifies one review of a candidate dataset.
type RecordStatus int

// Per-review outcomes.
const (
	Valid RecordStatus = iota
	NewRecordDetected
	ModifiedRecordDetected
	ProofFailed
)

func (s RecordStatus) String() string {
	switch s {
	case Valid:
		return "REVIEW_VALID"
	case NewRecordDetected:
		return "NEW_REVIEW_DETECTED"
	case ModifiedRecordDetected:
		return "MODIFIED_REVIEW_DETECTED"
	default:
		return "PROOF_GENERATION_FAILED"
	}
}

// RootResult is the outcome of DetectByRoot.
type RootResult struct {
	Status       RootStatus
	OriginalRoot []byte
	NewRoot      []byte
}

// Detected reports whether the comparison found tampering.
func (r RootResult) Detected() bool { return r.Status == TamperingDetected }

// RecordResult is the outcome for one review.
type RecordResult struct {
	ID     string
	Status RecordStatus
}

// Tampered reports whether the review is anything but valid.
func (r RecordResult) Tampered() bool { return r.Status != Valid }

// Detector compares candidate datasets with a baseline tree.
type Detector struct {
	original *tree.Tree
	baseline []review.Review
	roots    map[string][]byte
	dataset  string
}

// NewDetector binds a Detector to the tree built from baseline.
func NewDetector(original *tree.Tree, baseline []review.Review) *Detector {
	return &Detector{
		original: original,
		baseline: baseline,
		roots:    make(map[string][]byte),
	}
}

// SetDataset selects label as the current dataset and records the original
// tree's root as its baseline.
func (d *Detector) SetDataset(label string) error {
	root, err := d.original.RootHash()
	if err != nil {
		return err
	}
	d.dataset = label
	d.roots[label] = root
	return nil
}

// StoreOriginalRoot sets the baseline root of label without selecting it.
func (d *Detector) StoreOriginalRoot(label string, root []byte) {
	d.roots[label] = append([]byte(nil), root...)
}

// OriginalRoot returns the baseline root of the current dataset, or nil.
func (d *Detector) OriginalRoot() []byte {
	return d.roots[d.dataset]
}

// DetectByRoot compares candidate with the current dataset's baseline.
func (d *Detector) DetectByRoot(candidate []byte) RootResult {
	orig, ok := d.roots[d.dataset]
	if d.dataset == "" || !ok {
		return RootResult{Status: RootError, NewRoot: candidate}
	}
	res := RootResult{OriginalRoot: orig, NewRoot: candidate, Status: NoTamperingDetected}
	if !bytes.Equal(orig, candidate) {
		res.Status = TamperingDetected
	}
	return res
}

// DetectPerRecord classifies every review of records, which newTree was
// built from. A review is new if the original tree lacks its ID. It is
// modified if its proof in newTree does not verify or its leaf differs from
// the original tree's leaf for the same ID. Proof failures cover reviews
// newTree cannot prove, except that a single-leaf newTree is checked by
// comparing its root with the review's leaf hash.
func (d *Detector) DetectPerRecord(records []review.Review, newTree *tree.Tree) []RecordResult {
	h := newTree.Hasher()
	newRoot, rootErr := newTree.RootHash()
	out := make([]RecordResult, 0, len(records))
	for _, r := range records {
		res := RecordResult{ID: r.ID}
		origLeaf, err := d.original.LeafHash(r.ID)
		if err != nil {
			res.Status = NewRecordDetected
			out = append(out, res)
			continue
		}
		data := r.Encode()
		leaf := h.HashLeaf(data)
		path, err := newTree.InclusionProof(r.ID)
		switch {
		case err != nil || rootErr != nil:
			res.Status = ProofFailed
		case len(path) == 0:
			if bytes.Equal(leaf, newRoot) && bytes.Equal(leaf, origLeaf) {
				res.Status = Valid
			} else if bytes.Equal(leaf, newRoot) {
				res.Status = ModifiedRecordDetected
			} else {
				res.Status = ProofFailed
			}
		case !proof.Verify(h, data, path, newRoot) || !bytes.Equal(leaf, origLeaf):
			res.Status = ModifiedRecordDetected
		default:
			res.Status = Valid
		}
		if res.Tampered() {
			klog.V(2).Infof("Review %s: %v", r.ID, res.Status)
		}
		out = append(out, res)
	}
	return out
}

// FindingKind names one conclusion of a comprehensive analysis.
type FindingKind int

// Analysis conclusions.
const (
	Injection FindingKind = iota
	Deletion
	Modification
	IntegrityViolation
	IntegrityPreserved
)

func (k FindingKind) String() string {
	return [...]string{"INJECTION_DETECTED", "DELETION_DETECTED", "MODIFICATIONS_DETECTED", "INTEGRITY_VIOLATION", "INTEGRITY_PRESERVED"}[k]
}

// Finding is a conclusion with the number of reviews it concerns.
type Finding struct {
	Kind  FindingKind
	Count int
}

func (f Finding) String() string {
	switch f.Kind {
	case Injection:
		return fmt.Sprintf("%v: %d new reviews added", f.Kind, f.Count)
	case Deletion:
		return fmt.Sprintf("%v: %d reviews deleted", f.Kind, f.Count)
	case Modification:
		return fmt.Sprintf("%v: %d reviews modified", f.Kind, f.Count)
	case IntegrityViolation:
		return fmt.Sprintf("%v: Root hash mismatch confirms tampering", f.Kind)
	default:
		return fmt.Sprintf("%v: No tampering detected", f.Kind)
	}
}

// Report aggregates root and per-review outcomes for a candidate dataset.
type Report struct {
	OriginalCount int
	NewCount      int
	TamperedCount int
	Root          RootResult
	Records       []RecordResult
	// Deleted lists baseline review IDs missing from the candidate.
	Deleted  []string
	Findings []Finding
}

// Has reports whether the report contains a finding of kind k.
func (r Report) Has(k FindingKind) bool {
	for _, f := range r.Findings {
		if f.Kind == k {
			return true
		}
	}
	return false
}

// Analysis returns the findings, one per line.
func (r Report) Analysis() string {
	var b strings.Builder
	for _, f := range r.Findings {
		b.WriteString(f.String())
		b.WriteString("\n")
	}
	return b.String()
}

// String renders the report for terminals.
func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Original Reviews: %d\n", r.OriginalCount)
	fmt.Fprintf(&b, "New Reviews: %d\n", r.NewCount)
	fmt.Fprintf(&b, "Tampered Reviews: %d\n", r.TamperedCount)
	fmt.Fprintf(&b, "Root Comparison: %v\n", r.Root.Status)
	if len(r.Root.OriginalRoot) > 0 {
		fmt.Fprintf(&b, "  Original Root: %s\n", shortHex(r.Root.OriginalRoot))
	}
	if len(r.Root.NewRoot) > 0 {
		fmt.Fprintf(&b, "  New Root: %s\n", shortHex(r.Root.NewRoot))
	}
	b.WriteString("Detailed Analysis:\n")
	b.WriteString(r.Analysis())
	if r.TamperedCount > 0 {
		b.WriteString("Tampered Reviews:\n")
		for _, rr := range r.Records {
			if rr.Tampered() {
				fmt.Fprintf(&b, "  Review: %s - %v\n", rr.ID, rr.Status)
			}
		}
	}
	if len(r.Deleted) > 0 {
		b.WriteString("Deleted Reviews:\n")
		for _, id := range r.Deleted {
			fmt.Fprintf(&b, "  Review: %s\n", id)
		}
	}
	return b.String()
}

func shortHex(b []byte) string {
	s := hex.EncodeToString(b)
	if len(s) > 16 {
		return s[:16] + "..."
	}
	return s
}

// ComprehensiveAnalysis runs both detection methods over records and the
// tree built from them and summarises the outcome.
func (d *Detector) ComprehensiveAnalysis(records []review.Review, newTree *tree.Tree) Report {
	var newRoot []byte
	if root, err := newTree.RootHash(); err == nil {
		newRoot = root
	}
	rep := Report{
		OriginalCount: len(d.baseline),
		NewCount:      len(records),
		Root:          d.DetectByRoot(newRoot),
		Records:       d.DetectPerRecord(records, newTree),
	}
	for _, rr := range rep.Records {
		if rr.Tampered() {
			rep.TamperedCount++
		}
	}
	present := make(map[string]bool, len(records))
	for _, r := range records {
		present[r.ID] = true
	}
	for _, r := range d.baseline {
		if !present[r.ID] {
			rep.Deleted = append(rep.Deleted, r.ID)
		}
	}

	switch {
	case rep.NewCount > rep.OriginalCount:
		rep.Findings = append(rep.Findings, Finding{Kind: Injection, Count: rep.NewCount - rep.OriginalCount})
	case rep.NewCount < rep.OriginalCount:
		rep.Findings = append(rep.Findings, Finding{Kind: Deletion, Count: rep.OriginalCount - rep.NewCount})
	}
	if rep.TamperedCount > 0 {
		rep.Findings = append(rep.Findings, Finding{Kind: Modification, Count: rep.TamperedCount})
	}
	if rep.Root.Detected() {
		rep.Findings = append(rep.Findings, Finding{Kind: IntegrityViolation})
	} else if rep.TamperedCount == 0 && rep.NewCount == rep.OriginalCount {
		rep.Findings = append(rep.Findings, Finding{Kind: IntegrityPreserved})
	}
	return rep
}
