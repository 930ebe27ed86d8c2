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

package mysql

import (
	"crypto/tls"
	"crypto/x509"
	"database/sql"
	"errors"
	"flag"
	"os"
	"sync"

	"github.com/go-sql-driver/mysql"
	"github.com/reviewledger/ledger/storage"
	"k8s.io/klog/v2"
)

var (
	mySQLURI        = flag.String("mysql_uri", "test:zaphod@tcp(127.0.0.1:3306)/test", "Connection URI for MySQL database")
	maxConns        = flag.Int("mysql_max_conns", 0, "Maximum connections to the database")
	maxIdle         = flag.Int("mysql_max_idle_conns", -1, "Maximum idle database connections in the connection pool")
	mySQLTLSCA      = flag.String("mysql_tls_ca", "", "Path to the CA certificate file for MySQL TLS connection")
	mySQLServerName = flag.String("mysql_server_name", "", "Name of the MySQL server to be used as the Server Name in the TLS configuration")

	mysqlMu  sync.Mutex
	mysqlErr error
	mysqlDB  *sql.DB
)

func init() {
	if err := storage.RegisterProvider("mysql", newMySQLRootStore); err != nil {
		klog.Fatalf("Failed to register storage provider mysql: %v", err)
	}
}

func newMySQLRootStore() (storage.RootStore, error) {
	db, err := GetDatabase()
	if err != nil {
		return nil, err
	}
	return NewRootStore(db)
}

// GetDatabase returns the process-wide MySQL database configured by flags,
// opening it on first use.
func GetDatabase() (*sql.DB, error) {
	mysqlMu.Lock()
	defer mysqlMu.Unlock()
	if mysqlDB != nil || mysqlErr != nil {
		return mysqlDB, mysqlErr
	}
	dsn := *mySQLURI
	if *mySQLTLSCA != "" {
		if err := registerMySQLTLSConfig(); err != nil {
			return nil, err
		}
		dsn += "?tls=custom"
	}
	db, err := OpenDB(dsn)
	if err != nil {
		mysqlErr = err
		return nil, err
	}
	if *maxConns > 0 {
		db.SetMaxOpenConns(*maxConns)
	}
	if *maxIdle >= 0 {
		db.SetMaxIdleConns(*maxIdle)
	}
	mysqlDB, mysqlErr = db, nil
	return db, nil
}

// OpenDB opens a database connection for all MySQL-based storage
// implementations.
func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		klog.Warningf("Could not open MySQL database, check config: %s", err)
		return nil, storage.IOError("open mysql", err)
	}
	if _, err := db.Exec("SET sql_mode = 'STRICT_ALL_TABLES'"); err != nil {
		klog.Warningf("Failed to set strict mode on mysql db: %s", err)
		db.Close()
		return nil, storage.IOError("open mysql", err)
	}
	return db, nil
}

// registerMySQLTLSConfig registers a custom TLS config for MySQL using the
// provided CA certificate and optional server name.
func registerMySQLTLSConfig() error {
	rootCertPool := x509.NewCertPool()
	pem, err := os.ReadFile(*mySQLTLSCA)
	if err != nil {
		return err
	}
	if ok := rootCertPool.AppendCertsFromPEM(pem); !ok {
		return errors.New("failed to append PEM")
	}
	tlsConfig := &tls.Config{RootCAs: rootCertPool}
	if *mySQLServerName != "" {
		tlsConfig.ServerName = *mySQLServerName
	}
	return mysql.RegisterTLSConfig("custom", tlsConfig)
}
