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

// Package mysql implements storage.RootStore on a MySQL database.
package mysql

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/reviewledger/ledger/storage"
)

//go:embed schema/roots.sql
var schema string

const (
	insertRootSQL = "INSERT INTO RootLog(Label, RootHash, StoredAtSeconds) VALUES(?, ?, ?)"
	latestRootSQL = `SELECT Label, RootHash, StoredAtSeconds FROM RootLog
		WHERE Label = ? ORDER BY Id DESC LIMIT 1`
	latestRootsSQL = `SELECT r.Label, r.RootHash, r.StoredAtSeconds FROM RootLog r
		JOIN (SELECT MAX(Id) AS Id FROM RootLog GROUP BY Label) m ON r.Id = m.Id
		ORDER BY r.Label`
	historySQL = `SELECT Label, RootHash, StoredAtSeconds FROM RootLog
		WHERE Label = ? ORDER BY Id`
)

// RootStore is a storage.RootStore using a MySQL RootLog table. Row ids give
// the store order, so the latest row per label wins.
type RootStore struct {
	db *sql.DB
}

// NewRootStore creates the RootLog table in db if needed and returns a store
// using it.
func NewRootStore(db *sql.DB) (*RootStore, error) {
	if err := createTables(context.Background(), db); err != nil {
		return nil, err
	}
	return &RootStore{db: db}, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	for _, stmt := range statements(schema) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return toStorageErr("create schema", err)
		}
	}
	return nil
}

// statements splits a schema script into statements, dropping comments.
func statements(script string) []string {
	var b strings.Builder
	for _, line := range strings.Split(script, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "--") || line[0] == '#' {
			continue
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	var out []string
	for _, stmt := range strings.Split(b.String(), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

// StoreRoot implements storage.RootStore.
func (s *RootStore) StoreRoot(ctx context.Context, r storage.RootRecord) error {
	if err := storage.CheckRecord(r); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, insertRootSQL, r.Label, r.Root, r.Timestamp.Unix()); err != nil {
		return toStorageErr("insert root", err)
	}
	return nil
}

// LatestRoot implements storage.RootStore.
func (s *RootStore) LatestRoot(ctx context.Context, label string) (storage.RootRecord, error) {
	r, err := scanRecord(s.db.QueryRowContext(ctx, latestRootSQL, label))
	if errors.Is(err, sql.ErrNoRows) {
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
	return s.db.Close()
}

func (s *RootStore) query(ctx context.Context, op, q string, args ...interface{}) ([]storage.RootRecord, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
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

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (storage.RootRecord, error) {
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

// toStorageErr wraps a database error in storage.ErrIO, keeping the MySQL
// error number when there is one.
func toStorageErr(op string, err error) error {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return storage.IOError(fmt.Sprintf("%s: mysql error %d", op, mysqlErr.Number), err)
	}
	return storage.IOError(op, err)
}
