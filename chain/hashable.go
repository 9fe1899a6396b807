// Copyright (c) 2022-2023 The Ledgerd developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

// Package chain implements the proof-of-work ledger core: canonical
// serialization of outputs, transactions and blocks, the mining search,
// and the append-only validated blockchain.
package chain

import (
	"crypto/sha256"

	"github.com/powchain/ledgerd/hash32"
)

// Hashable is the capability of producing a canonical byte sequence.
// Anything that has it gains a SHA-256 digest of that sequence.
type Hashable interface {
	// Bytes returns the canonical preimage of the entity. The encoding is
	// fixed: integers are little-endian fixed-width, strings are raw UTF-8
	// with no framing, and composites are plain concatenation.
	Bytes() []byte
}

// HashOf returns the SHA-256 digest of a Hashable's canonical bytes.
// No salting, no domain separation.
func HashOf(h Hashable) hash32.T {
	return sha256.Sum256(h.Bytes())
}
