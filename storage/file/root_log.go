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

// Package file implements storage.RootStore as an append-only text log with
// one label|hexRoot|unixSeconds line per stored root.
package file

import (
	"bufio"
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/reviewledger/ledger/storage"
	"github.com/reviewledger/ledger/storage/memory"
	"k8s.io/klog/v2"
)

var rootLogPath = flag.String("root_log", "merkle_roots.log", "Path of the append-only root hash log used by the file storage provider")

func init() {
	if err := storage.RegisterProvider("file", func() (storage.RootStore, error) {
		return Open(*rootLogPath)
	}); err != nil {
		klog.Fatalf("Failed to register storage provider file: %v", err)
	}
}

// RootLog is a storage.RootStore backed by an append-only file. The whole log
// is replayed into memory on Open; later lines for a label supersede earlier
// ones.
type RootLog struct {
	path string

	mu      sync.Mutex
	f       *os.File
	index   *memory.RootStore
	skipped int
}

// Open opens or creates the log at path and replays it.
func Open(path string) (*RootLog, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, storage.IOError("open "+path, err)
	}
	l := &RootLog{path: path, f: f, index: memory.NewRootStore()}
	if err := l.replay(f); err != nil {
		f.Close()
		return nil, err
	}
	return l, nil
}

func (l *RootLog) replay(r io.Reader) error {
	sc := bufio.NewScanner(r)
	n, loaded := 0, 0
	for sc.Scan() {
		n++
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		rec, err := ParseLine(line)
		if err != nil {
			klog.Warningf("%s:%d: skipping: %v", l.path, n, err)
			l.skipped++
			continue
		}
		l.index.Append(rec)
		loaded++
	}
	if err := sc.Err(); err != nil {
		return storage.IOError("replay "+l.path, err)
	}
	klog.Infof("Loaded %d root hashes from %s", loaded, l.path)
	return nil
}

// ParseLine parses one root log line.
func ParseLine(line string) (storage.RootRecord, error) {
	parts := strings.Split(line, "|")
	if len(parts) != 3 {
		return storage.RootRecord{}, fmt.Errorf("want 3 fields, got %d", len(parts))
	}
	root, err := hex.DecodeString(parts[1])
	if err != nil {
		return storage.RootRecord{}, fmt.Errorf("root: %v", err)
	}
	secs, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return storage.RootRecord{}, fmt.Errorf("timestamp: %v", err)
	}
	rec := storage.RootRecord{Label: parts[0], Root: root, Timestamp: time.Unix(secs, 0)}
	if err := storage.CheckRecord(rec); err != nil {
		return storage.RootRecord{}, err
	}
	return rec, nil
}

// Skipped returns the number of malformed lines ignored when the log was
// opened.
func (l *RootLog) Skipped() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.skipped
}

// StoreRoot implements storage.RootStore. The line is synced to disk before
// the record becomes visible.
func (l *RootLog) StoreRoot(_ context.Context, r storage.RootRecord) error {
	if err := storage.CheckRecord(r); err != nil {
		return err
	}
	r.Timestamp = time.Unix(r.Timestamp.Unix(), 0)
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return storage.IOError("append "+l.path, os.ErrClosed)
	}
	if _, err := l.f.WriteString(r.String() + "\n"); err != nil {
		return storage.IOError("append "+l.path, err)
	}
	if err := l.f.Sync(); err != nil {
		return storage.IOError("sync "+l.path, err)
	}
	l.index.Append(r)
	klog.V(1).Infof("Root hash for %q saved to %s", r.Label, l.path)
	return nil
}

// LatestRoot implements storage.RootStore.
func (l *RootLog) LatestRoot(ctx context.Context, label string) (storage.RootRecord, error) {
	return l.index.LatestRoot(ctx, label)
}

// LatestRoots implements storage.RootStore.
func (l *RootLog) LatestRoots(ctx context.Context) ([]storage.RootRecord, error) {
	return l.index.LatestRoots(ctx)
}

// History implements storage.RootStore.
func (l *RootLog) History(ctx context.Context, label string) ([]storage.RootRecord, error) {
	return l.index.History(ctx, label)
}

// Close implements storage.RootStore.
func (l *RootLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	if err != nil {
		return storage.IOError("close "+l.path, err)
	}
	return nil
}
