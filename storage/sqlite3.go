// Copyright (c) 2022-2023 The Ledgerd developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

// Package storage persists accepted blocks to sqlite3. The in-memory
// chain remains the source of truth; the database is a write-through
// journal the daemon replays at startup.
package storage

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

func createBlockTable(conn *sql.DB) error {
	tableCreation := `
		CREATE TABLE IF NOT EXISTS blocks (
			height INTEGER PRIMARY KEY,
			hash TEXT,
			encoding BLOB
		);
	`
	_, err := conn.Exec(tableCreation)
	return err
}

// CreateTables creates the tables needed by the daemon if they don't
// already exist.
func CreateTables(conn *sql.DB) error {
	return createBlockTable(conn)
}

// GetCurrentHeight returns the height of the latest stored block, or an
// error on an empty database.
func GetCurrentHeight(ctx context.Context, conn *sql.DB) (int, error) {
	var height int
	query := "SELECT height FROM blocks ORDER BY height DESC LIMIT 1"
	err := conn.QueryRowContext(ctx, query).Scan(&height)
	return height, err
}

// GetBlock returns the wire encoding of the block at the given height.
func GetBlock(ctx context.Context, conn *sql.DB, height int) ([]byte, error) {
	var encoding []byte
	query := "SELECT encoding FROM blocks WHERE height = ?"
	err := conn.QueryRowContext(ctx, query, height).Scan(&encoding)
	if err != nil {
		return nil, errors.Wrapf(err, "getting block with height %d", height)
	}
	return encoding, nil
}

// StoreBlock inserts a block at the given height. Heights are unique;
// storing a height twice is an error, since the chain never rewrites
// history.
func StoreBlock(conn *sql.DB, height int, hash string, encoding []byte) error {
	insertBlock := "INSERT INTO blocks (height, hash, encoding) VALUES (?, ?, ?)"
	_, err := conn.Exec(insertBlock, height, hash, encoding)
	return errors.Wrapf(err, "storing block %d", height)
}

// Store adapts a database handle to the block-store interface the ledger
// writes accepted blocks through.
type Store struct {
	DB *sql.DB
}

func (s Store) StoreBlock(height int, hash string, encoding []byte) error {
	return StoreBlock(s.DB, height, hash, encoding)
}
