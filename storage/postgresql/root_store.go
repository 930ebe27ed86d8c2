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

// Package postgresql implements storage.RootStore on a PostgreSQL database.
package postgresql

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/reviewledger/ledger/storage"
)

//go:embed schema/roots.sql
var schema string

const (
	insertRootSQL = "INSERT INTO root_log(label, root_hash, stored_at_seconds) VALUES($1, $2, $3)"
	latestRootSQL = `SELECT label, root_hash, stored_at_seconds FROM root_log
		WHERE label = $1 ORDER BY id DESC LIMIT 1`
	latestRootsSQL = `SELECT DISTINCT ON (label) label, root_hash, stored_at_seconds FROM root_log
		ORDER BY label, id DESC`
	historySQL = `SELECT label, root_hash, stored_at_seconds FROM root_log
		WHERE label = $1 ORDER BY id`
)

// RootStore is a storage.RootStore using a PostgreSQL root_log table.
type RootStore struct {
	db *pgxpool.Pool
}

// NewRootStore creates the root_log table in db if needed and returns a
// store using it.
func NewRootStore(ctx context.Context, db *pgxpool.Pool) (*RootStore, error) {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stripComments(stmt)) == "" {
			continue
		}
		if _, err := db.Exec(ctx, stmt); err != nil {
			return nil, toStorageErr("create schema", err)
		}
	}
	return &RootStore{db: db}, nil
}

func stripComments(stmt string) string {
	var b strings.Builder
	for _, line := range strings.Split(stmt, "\n") {
		if !strings.HasPrefix(strings.TrimSpace(line), "--") {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// StoreRoot implements storage.RootStore.
func (s *RootStore) StoreRoot(ctx context.Context, r storage.RootRecord) error {
	if err := storage.CheckRecord(r); err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, insertRootSQL, r.Label, r.Root, r.Timestamp.Unix()); err != nil {
		return toStorageErr("insert root", err)
	}
	return nil
}

// LatestRoot implements storage.RootStore.
func (s *RootStore) LatestRoot(ctx context.Context, label string) (storage.RootRecord, error) {
	r, err := scanRecord(s.db.QueryRow(ctx, latestRootSQL, label))
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.RootRecord{}, storage.NotFound(label)
	}
	if err != nil {
		return storage.RootRecord{}, toStorageErr("latest root", err)
	}
	return r, nil
}

// LatestRoots implements storage.RootStore.
func (s *RootStore) LatestRoots(ctx context.Context) ([]storage.RootRecord, error) {
	return s.query(ctx, "latest roots", latestRootsSQL)
}

// History implements storage.RootStore.
func (s *RootStore) History(ctx context.Context, label string) ([]storage.RootRecord, error) {
	rs, err := s.query(ctx, "history", historySQL, label)
	if err != nil {
		return nil, err
	}
	if len(rs) == 0 {
		return nil, storage.NotFound(label)
	}
	return rs, nil
}

// Close implements storage.RootStore.
func (s *RootStore) Close() error {
	s.db.Close()
	return nil
}

func (s *RootStore) query(ctx context.Context, op, q string, args ...any) ([]storage.RootRecord, error) {
	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, toStorageErr(op, err)
	}
	defer rows.Close()
	var out []storage.RootRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, toStorageErr(op, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, toStorageErr(op, err)
	}
	return out, nil
}

func scanRecord(row pgx.Row) (storage.RootRecord, error) {
	var (
		r    storage.RootRecord
		secs int64
	)
	if err := row.Scan(&r.Label, &r.Root, &secs); err != nil {
		return storage.RootRecord{}, err
	}
	r.Timestamp = time.Unix(secs, 0)
	return r, nil
}

// toStorageErr wraps a database error in storage.ErrIO, keeping the
// SQLSTATE code when there is one.
func toStorageErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return storage.IOError(fmt.Sprintf("%s: sqlstate %s", op, pgErr.Code), err)
	}
	return storage.IOError(op, err)
}
