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

package redisstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis"
	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"
	"github.com/reviewledger/ledger/storage"
	"github.com/reviewledger/ledger/storage/testonly"
)

const prefix = "test"

var (
	latestKey = "{test}.latest"
	dsLogKey  = "{test}.log.ds"
	ts        = time.Unix(1700000000, 0)
)

func TestStoreRootRunsScript(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	c := NewMockRedisClient(ctrl)
	c.EXPECT().Eval(storeScript, []string{latestKey, dsLogKey}, "ds", "0a0b|1700000000").Return(redis.NewCmdResult(int64(1), nil))

	s := New(c, prefix)
	if err := s.StoreRoot(context.Background(), storage.RootRecord{Label: "ds", Root: []byte{0x0a, 0x0b}, Timestamp: ts}); err != nil {
		t.Errorf("StoreRoot()=%v", err)
	}
}

func TestStoreRootError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	c := NewMockRedisClient(ctrl)
	c.EXPECT().Eval(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(redis.NewCmdResult(nil, errors.New("connection refused")))

	s := New(c, prefix)
	err := s.StoreRoot(context.Background(), storage.RootRecord{Label: "ds", Root: []byte{1}, Timestamp: ts})
	if !errors.Is(err, storage.ErrIO) {
		t.Errorf("StoreRoot()=%v, want ErrIO", err)
	}
}

func TestStoreRootInvalidSkipsRedis(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	s := New(NewMockRedisClient(ctrl), prefix)
	if err := s.StoreRoot(context.Background(), storage.RootRecord{Label: "ds"}); !errors.Is(err, storage.ErrInvalidRecord) {
		t.Errorf("StoreRoot()=%v, want ErrInvalidRecord", err)
	}
}

func TestLatestRoot(t *testing.T) {
	for _, tc := range []struct {
		desc    string
		val     string
		err     error
		want    storage.RootRecord
		wantErr error
	}{
		{desc: "found", val: "ff00|1700000000", want: storage.RootRecord{Label: "ds", Root: []byte{0xff, 0}, Timestamp: ts}},
		{desc: "missing", err: redis.Nil, wantErr: storage.ErrNotFound},
		{desc: "redis-error", err: errors.New("timeout"), wantErr: storage.ErrIO},
		{desc: "corrupt", val: "zz|1", wantErr: storage.ErrIO},
		{desc: "no-separator", val: "ff00", wantErr: storage.ErrIO},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			c := NewMockRedisClient(ctrl)
			c.EXPECT().HGet(latestKey, "ds").Return(redis.NewStringResult(tc.val, tc.err))

			got, err := New(c, prefix).LatestRoot(context.Background(), "ds")
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("LatestRoot()=%v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("LatestRoot()=%v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("LatestRoot() diff (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLatestRootsSorted(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	c := NewMockRedisClient(ctrl)
	c.EXPECT().HGetAll(latestKey).Return(redis.NewStringStringMapResult(map[string]string{
		"b": "02|2",
		"a": "01|1",
	}, nil))

	got, err := New(c, prefix).LatestRoots(context.Background())
	if err != nil {
		t.Fatalf("LatestRoots()=%v", err)
	}
	want := []storage.RootRecord{
		{Label: "a", Root: []byte{1}, Timestamp: time.Unix(1, 0)},
		{Label: "b", Root: []byte{2}, Timestamp: time.Unix(2, 0)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LatestRoots() diff (-want +got):\n%s", diff)
	}
}

func TestHistory(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	c := NewMockRedisClient(ctrl)
	c.EXPECT().LRange(dsLogKey, int64(0), int64(-1)).Return(redis.NewStringSliceResult([]string{"01|1", "02|2"}, nil))
	c.EXPECT().LRange("{test}.log.none", int64(0), int64(-1)).Return(redis.NewStringSliceResult(nil, nil))

	s := New(c, prefix)
	got, err := s.History(context.Background(), "ds")
	if err != nil {
		t.Fatalf("History()=%v", err)
	}
	if len(got) != 2 || got[1].Timestamp.Unix() != 2 {
		t.Errorf("History()=%v", got)
	}
	if _, err := s.History(context.Background(), "none"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("History(none)=%v, want ErrNotFound", err)
	}
}

// TestRootStoreLive runs the conformance suite against a real Redis when one
// is reachable at TEST_REDIS_ADDR (default localhost:6379).
func TestRootStoreLive(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()
	if err := rdb.Ping().Err(); err != nil {
		t.Skipf("Skipping test as Redis not available at %s: %v", addr, err)
	}
	n := 0
	tester := &testonly.RootStoreTester{
		NewStore: func(t *testing.T) storage.RootStore {
			n++
			return New(rdb, fmt.Sprintf("ledgertest_%d_%d", time.Now().UnixNano(), n))
		},
	}
	tester.RunAllTests(t)
}
