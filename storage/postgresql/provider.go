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

package postgresql

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/reviewledger/ledger/storage"
	"k8s.io/klog/v2"
)

var (
	postgreSQLURI        = flag.String("postgresql_uri", "postgresql:///defaultdb?host=localhost&user=test", "Connection URI for PostgreSQL database")
	postgresqlTLSCA      = flag.String("postgresql_tls_ca", "", "Path to the CA certificate file for PostgreSQL TLS connection")
	postgresqlVerifyFull = flag.Bool("postgresql_verify_full", false, "Enable full TLS verification for PostgreSQL (sslmode=verify-full). If false, only sslmode=verify-ca is used.")

	postgresqlMu  sync.Mutex
	postgresqlErr error
	postgresqlDB  *pgxpool.Pool
)

func init() {
	if err := storage.RegisterProvider("postgresql", newPostgreSQLRootStore); err != nil {
		klog.Fatalf("Failed to register storage provider postgresql: %v", err)
	}
}

func newPostgreSQLRootStore() (storage.RootStore, error) {
	db, err := GetDatabase()
	if err != nil {
		return nil, err
	}
	return NewRootStore(context.Background(), db)
}

// GetDatabase returns the process-wide PostgreSQL pool configured by flags,
// opening it on first use.
func GetDatabase() (*pgxpool.Pool, error) {
	postgresqlMu.Lock()
	defer postgresqlMu.Unlock()
	if postgresqlDB != nil || postgresqlErr != nil {
		return postgresqlDB, postgresqlErr
	}
	uri, err := tlsURI(*postgreSQLURI)
	if err != nil {
		postgresqlErr = err
		return nil, err
	}
	db, err := OpenDB(uri)
	if err != nil {
		postgresqlErr = err
		return nil, err
	}
	postgresqlDB, postgresqlErr = db, nil
	return db, nil
}

// tlsURI adds the TLS flags to uri when a CA file is configured.
func tlsURI(uri string) (string, error) {
	if *postgresqlTLSCA == "" {
		return uri, nil
	}
	if _, err := os.Stat(*postgresqlTLSCA); err != nil {
		return "", fmt.Errorf("postgresql CA file error: %w", err)
	}
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("invalid postgresql URI %q: %w", uri, err)
	}
	q := u.Query()
	q.Set("sslrootcert", *postgresqlTLSCA)
	if *postgresqlVerifyFull {
		q.Set("sslmode", "verify-full")
	} else if q.Get("sslmode") == "" {
		q.Set("sslmode", "verify-ca")
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// OpenDB opens a connection pool for PostgreSQL-based storage.
func OpenDB(dbURL string) (*pgxpool.Pool, error) {
	db, err := pgxpool.New(context.Background(), dbURL)
	if err != nil {
		// Don't log uri as it could contain credentials
		klog.Warningf("Could not open PostgreSQL database, check config: %s", err)
		return nil, storage.IOError("open postgresql", err)
	}
	return db, nil
}
