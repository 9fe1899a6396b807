// Copyright (c) 2022-2023 The Ledgerd developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

package chain

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"lukechampine.com/uint128"

	"github.com/powchain/ledgerd/hash32"
)

// Block is the mined unit of the ledger.
//
// Index is the block's 0-based position in the chain. Timestamp is
// milliseconds since the Unix epoch; the validator only requires it to be
// strictly increasing. PreviousBlockHash links to the preceding block's
// stored hash (all zeros for the genesis block). Nonce is the mining
// search variable. Difficulty is the target the digest's top 16 bytes
// must stay under (see CheckDifficulty). Hash is set by mining and starts
// as 32 zero bytes; it is not part of the preimage.
type Block struct {
	Index             uint32
	Timestamp         uint128.Uint128
	PreviousBlockHash hash32.T
	Nonce             uint64
	Transactions      []Transaction
	Difficulty        uint128.Uint128
	Hash              hash32.T
}

// NewBlock constructs an unmined block. The hash is initialized to 32
// zero bytes and the nonce to 0.
func NewBlock(index uint32, timestamp uint128.Uint128, previousBlockHash hash32.T,
	transactions []Transaction, difficulty uint128.Uint128) *Block {
	return &Block{
		Index:             index,
		Timestamp:         timestamp,
		PreviousBlockHash: previousBlockHash,
		Transactions:      transactions,
		Difficulty:        difficulty,
	}
}

// Bytes returns the block preimage:
//
//	LE-u32(index) || LE-u128(timestamp) || previous_block_hash ||
//	LE-u64(nonce) || each transaction's preimage in order ||
//	LE-u128(difficulty)
//
// The stored Hash field is not part of the preimage.
func (b *Block) Bytes() []byte {
	var u128buf [16]byte
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, b.Index)
	b.Timestamp.PutBytes(u128buf[:])
	buf.Write(u128buf[:])
	buf.Write(b.PreviousBlockHash[:])
	binary.Write(&buf, binary.LittleEndian, b.Nonce)
	for _, tx := range b.Transactions {
		buf.Write(tx.Bytes())
	}
	b.Difficulty.PutBytes(u128buf[:])
	buf.Write(u128buf[:])
	return buf.Bytes()
}

func (b *Block) String() string {
	return fmt.Sprintf("Block[%d]: hash %s, timestamp %v, %d transaction(s), nonce %d",
		b.Index, hash32.Encode(b.Hash), b.Timestamp, len(b.Transactions), b.Nonce)
}

// Mine searches nonces 0, 1, 2, ... and stores the first digest that
// satisfies the block's difficulty, together with the nonce that produced
// it. The search is deterministic: identical inputs always yield the same
// (nonce, hash). If every nonce below math.MaxUint64 fails - only
// possible for degenerate targets such as zero - the hash is left
// untouched and ErrNonceExhausted is returned; math.MaxUint64 itself is
// not tried.
func (b *Block) Mine() error {
	for nonce := uint64(0); nonce < math.MaxUint64; nonce++ {
		b.Nonce = nonce
		hash := HashOf(b)
		if CheckDifficulty(hash, b.Difficulty) {
			b.Hash = hash
			return nil
		}
	}
	return ErrNonceExhausted
}
