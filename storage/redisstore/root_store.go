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

// Package redisstore implements storage.RootStore on Redis.
//
// Each prefix owns a hash of latest roots, {prefix}.latest, and one list per
// label, {prefix}.log.<label>, holding every stored value in order. Values are
// hexRoot|unixSeconds.
package redisstore

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis"
	"github.com/reviewledger/ledger/storage"
	"k8s.io/klog/v2"
)

//go:generate mockgen -self_package github.com/reviewledger/ledger/storage/redisstore -package redisstore -destination mock_client.go github.com/reviewledger/ledger/storage/redisstore RedisClient

var (
	redisAddr   = flag.String("redis_addr", "localhost:6379", "Address of the Redis server used by the redis storage provider")
	redisPrefix = flag.String("redis_prefix", "ledger", "Key prefix for root records in Redis")
)

func init() {
	if err := storage.RegisterProvider("redis", func() (storage.RootStore, error) {
		return New(redis.NewClient(&redis.Options{Addr: *redisAddr}), *redisPrefix), nil
	}); err != nil {
		klog.Fatalf("Failed to register storage provider redis: %v", err)
	}
}

// RedisClient is the subset of Redis client methods the store uses, which
// allows choosing among client implementations (single node, Cluster, Ring)
// and mocking in tests.
type RedisClient interface {
	Eval(script string, keys []string, args ...interface{}) *redis.Cmd
	HGet(key, field string) *redis.StringCmd
	HGetAll(key string) *redis.StringStringMapCmd
	LRange(key string, start, stop int64) *redis.StringSliceCmd
	Close() error
}

// storeScript appends to the label's log and updates the latest hash in one
// atomic step.
const storeScript = `redis.call("rpush", KEYS[2], ARGV[2]); redis.call("hset", KEYS[1], ARGV[1], ARGV[2]); return 1`

// RootStore is a storage.RootStore backed by Redis.
type RootStore struct {
	c      RedisClient
	prefix string
}

// New returns a RootStore keeping its keys under prefix.
func New(client RedisClient, prefix string) *RootStore {
	return &RootStore{c: client, prefix: prefix}
}

// Keys share the {prefix} hash tag so that Redis Cluster maps them to one
// slot, which the multi-key store script requires.
func (s *RootStore) latestKey() string {
	return fmt.Sprintf("{%s}.latest", s.prefix)
}

func (s *RootStore) logKey(label string) string {
	return fmt.Sprintf("{%s}.log.%s", s.prefix, label)
}

func encodeValue(r storage.RootRecord) string {
	return fmt.Sprintf("%s|%d", r.HexRoot(), r.Timestamp.Unix())
}

func decodeValue(label, v string) (storage.RootRecord, error) {
	h, ts, ok := strings.Cut(v, "|")
	if !ok {
		return storage.RootRecord{}, storage.IOError("decode "+label, fmt.Errorf("bad value %q", v))
	}
	root, err := hex.DecodeString(h)
	if err != nil {
		return storage.RootRecord{}, storage.IOError("decode "+label, err)
	}
	secs, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return storage.RootRecord{}, storage.IOError("decode "+label, err)
	}
	return storage.RootRecord{Label: label, Root: root, Timestamp: time.Unix(secs, 0)}, nil
}

// StoreRoot implements storage.RootStore.
func (s *RootStore) StoreRoot(ctx context.Context, r storage.RootRecord) error {
	if err := storage.CheckRecord(r); err != nil {
		return err
	}
	client := withClientContext(ctx, s.c)
	if err := client.Eval(storeScript, []string{s.latestKey(), s.logKey(r.Label)}, r.Label, encodeValue(r)).Err(); err != nil {
		return storage.IOError("store root", err)
	}
	return nil
}

// LatestRoot implements storage.RootStore.
func (s *RootStore) LatestRoot(ctx context.Context, label string) (storage.RootRecord, error) {
	client := withClientContext(ctx, s.c)
	v, err := client.HGet(s.latestKey(), label).Result()
	if errors.Is(err, redis.Nil) {
		return storage.RootRecord{}, storage.NotFound(label)
	}
	if err != nil {
		return storage.RootRecord{}, storage.IOError("latest root", err)
	}
	return decodeValue(label, v)
}

// LatestRoots implements storage.RootStore.
func (s *RootStore) LatestRoots(ctx context.Context) ([]storage.RootRecord, error) {
	client := withClientContext(ctx, s.c)
	m, err := client.HGetAll(s.latestKey()).Result()
	if err != nil {
		return nil, storage.IOError("latest roots", err)
	}
	labels := make([]string, 0, len(m))
	for l := range m {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	out := make([]storage.RootRecord, 0, len(labels))
	for _, l := range labels {
		r, err := decodeValue(l, m[l])
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// History implements storage.RootStore.
func (s *RootStore) History(ctx context.Context, label string) ([]storage.RootRecord, error) {
	client := withClientContext(ctx, s.c)
	vs, err := client.LRange(s.logKey(label), 0, -1).Result()
	if err != nil {
		return nil, storage.IOError("history", err)
	}
	if len(vs) == 0 {
		return nil, storage.NotFound(label)
	}
	out := make([]storage.RootRecord, 0, len(vs))
	for _, v := range vs {
		r, err := decodeValue(label, v)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Close implements storage.RootStore.
func (s *RootStore) Close() error {
	return s.c.Close()
}

// Each Redis client type has a WithContext method returning its own concrete
// type, so it cannot be part of RedisClient. withClientContext asserts the
// known concrete types instead.
func withClientContext(ctx context.Context, client RedisClient) RedisClient {
	type withContextable interface {
		WithContext(context.Context) RedisClient
	}

	switch c := client.(type) {
	case *redis.Client:
		return c.WithContext(ctx)
	case *redis.ClusterClient:
		return c.WithContext(ctx)
	case *redis.Ring:
		return c.WithContext(ctx)
	case withContextable:
		return c.WithContext(ctx)
	}
	return client
}
