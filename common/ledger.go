// Copyright (c) 2022-2023 The Ledgerd developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

package common

import (
	"bytes"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/powchain/ledgerd/chain"
	"github.com/powchain/ledgerd/hash32"
)

// BlockStore persists accepted blocks in wire form; the storage package
// satisfies it. A nil store means in-memory operation only.
type BlockStore interface {
	StoreBlock(height int, hash string, encoding []byte) error
}

// Ledger wraps the chain for shared use by the forger goroutine and the
// gRPC frontend. The chain core itself is single-threaded by design, so
// the Ledger serializes access with a lock and writes accepted blocks
// through to the store.
type Ledger struct {
	mutex sync.RWMutex
	chain *chain.Blockchain
	store BlockStore
}

// NewLedger returns an empty ledger backed by the given store (which may
// be nil).
func NewLedger(store BlockStore) *Ledger {
	return &Ledger{chain: chain.New(), store: store}
}

// Height returns the number of accepted blocks.
func (l *Ledger) Height() int {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return l.chain.Len()
}

// GetBlock returns the block at the given height, or nil if out of range.
func (l *Ledger) GetBlock(height int) *chain.Block {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return l.chain.Block(height)
}

// LatestBlock returns the most recently accepted block, or nil for an
// empty ledger.
func (l *Ledger) LatestBlock() *chain.Block {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return l.chain.LatestBlock()
}

// UnspentOutputs returns the current unspent output digests in a fixed
// (byte-wise ascending) order, so streams over them are deterministic.
func (l *Ledger) UnspentOutputs() []hash32.T {
	l.mutex.RLock()
	set := l.chain.UnspentOutputs()
	l.mutex.RUnlock()

	hashes := make([]hash32.T, 0, len(set))
	for h := range set {
		hashes = append(hashes, h)
	}
	sort.Slice(hashes, func(i, j int) bool {
		return bytes.Compare(hashes[i][:], hashes[j][:]) < 0
	})
	return hashes
}

// Submit validates and appends a block, then writes it through to the
// store. A chain.RuleError means the block was rejected and nothing
// changed; a store error means the block was accepted in memory but not
// persisted, which the caller should treat as fatal.
func (l *Ledger) Submit(block *chain.Block) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if err := l.chain.UpdateWithBlock(block); err != nil {
		return err
	}
	if l.store == nil {
		return nil
	}
	encoding, err := block.MarshalBinary()
	if err != nil {
		return errors.Wrap(err, "marshaling accepted block")
	}
	if err := l.store.StoreBlock(int(block.Index), hash32.Encode(block.Hash), encoding); err != nil {
		return errors.Wrapf(err, "storing block %d", block.Index)
	}
	return nil
}

// Replay validates and appends a block already present in the store,
// without writing it back. Used when rebuilding the chain at startup.
func (l *Ledger) Replay(block *chain.Block) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.chain.UpdateWithBlock(block)
}
