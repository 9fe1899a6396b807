// Copyright (c) 2022-2023 The Ledgerd developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

package chain

import (
	"fmt"
	"math/bits"

	"github.com/powchain/ledgerd/hash32"
)

// Blockchain is the append-only ledger: an ordered list of validated
// blocks plus the set of digests of currently spendable outputs. It is
// strictly linear; there is no fork resolution and no rollback.
//
// Blockchain is not safe for concurrent use; callers that share one
// across goroutines must wrap it in their own lock.
type Blockchain struct {
	blocks         []*Block
	unspentOutputs map[hash32.T]struct{}
}

// New returns an empty blockchain.
func New() *Blockchain {
	return &Blockchain{
		unspentOutputs: make(map[hash32.T]struct{}),
	}
}

// Len returns the number of blocks in the chain.
func (bc *Blockchain) Len() int {
	return len(bc.blocks)
}

// Block returns the block at the given height, or nil if the height is
// out of range. The chain retains ownership of the returned block.
func (bc *Blockchain) Block(height int) *Block {
	if height < 0 || height >= len(bc.blocks) {
		return nil
	}
	return bc.blocks[height]
}

// LatestBlock returns the most recently accepted block, or nil for an
// empty chain.
func (bc *Blockchain) LatestBlock() *Block {
	if len(bc.blocks) == 0 {
		return nil
	}
	return bc.blocks[len(bc.blocks)-1]
}

// UnspentOutputs returns a copy of the set of unspent output digests.
func (bc *Blockchain) UnspentOutputs() map[hash32.T]struct{} {
	set := make(map[hash32.T]struct{}, len(bc.unspentOutputs))
	for h := range bc.unspentOutputs {
		set[h] = struct{}{}
	}
	return set
}

// IsUnspent reports whether an output digest is currently spendable.
func (bc *Blockchain) IsUnspent(outputHash hash32.T) bool {
	_, ok := bc.unspentOutputs[outputHash]
	return ok
}

func (bc *Blockchain) isGenesisBlock(index int) bool {
	return index == 0
}

// UpdateWithBlock validates the candidate block and, if every rule
// passes, appends it and updates the unspent-output set. Checks run in a
// fixed order and the first violation is the sole reported error; on any
// error neither the block list nor the unspent-output set is changed.
//
// The rules, in order:
//
//  1. The candidate's index is the next chain position.
//  2. The recomputed digest of the candidate's preimage satisfies its
//     difficulty. The stored Hash field is ignored here; successors link
//     against whatever the field holds, which mining set from the same
//     recomputation.
//  3. A genesis candidate must link to 32 zero bytes; any other candidate
//     must carry a timestamp strictly after its predecessor's and link to
//     the predecessor's stored hash.
//  4. If the transaction list is non-empty, the first transaction must be
//     a coinbase; every other transaction must spend only outputs unspent
//     as of the start of the block (an output created earlier in the same
//     block does not count), must not create more value than it spends,
//     and the coinbase's output value must cover the accumulated fees.
//
// The difficulty field itself is trusted, and coin ownership is not
// enforced: any transaction may spend any unspent output.
func (bc *Blockchain) UpdateWithBlock(block *Block) error {
	index := len(bc.blocks)
	if block.Index != uint32(index) {
		return ruleError(ErrMismatchedIndex, fmt.Sprintf(
			"block index %d, expected %d", block.Index, index))
	}
	if !CheckDifficulty(HashOf(block), block.Difficulty) {
		return ruleError(ErrInvalidHash, fmt.Sprintf(
			"block %d digest does not satisfy difficulty %v", block.Index, block.Difficulty))
	}
	if bc.isGenesisBlock(index) {
		if block.PreviousBlockHash != hash32.Nil {
			return ruleError(ErrInvalidGenesisBlockFormat,
				"genesis block previous hash is not all zeros")
		}
	} else {
		previousBlock := bc.blocks[index-1]
		if block.Timestamp.Cmp(previousBlock.Timestamp) <= 0 {
			return ruleError(ErrAchronologicalTimestamp, fmt.Sprintf(
				"block %d timestamp %v not after %v", block.Index,
				block.Timestamp, previousBlock.Timestamp))
		}
		if block.PreviousBlockHash != previousBlock.Hash {
			return ruleError(ErrMismatchedPreviousHash, fmt.Sprintf(
				"block %d previous hash %s, expected %s", block.Index,
				hash32.Encode(block.PreviousBlockHash), hash32.Encode(previousBlock.Hash)))
		}
	}

	// A block with no transactions is valid; it just moves the clock.
	if len(block.Transactions) > 0 {
		spent, created, err := bc.checkTransactions(block)
		if err != nil {
			return err
		}
		for h := range spent {
			delete(bc.unspentOutputs, h)
		}
		for h := range created {
			bc.unspentOutputs[h] = struct{}{}
		}
	}
	bc.blocks = append(bc.blocks, block)
	return nil
}

// checkTransactions runs rule 4 against a non-empty transaction list and
// returns the spent and created digest sets to commit. The unspent-output
// set is not touched: the sets are computed eagerly against the pre-block
// state and applied only after every transaction has passed.
func (bc *Blockchain) checkTransactions(block *Block) (spent, created map[hash32.T]struct{}, err error) {
	coinbase := block.Transactions[0]
	if !coinbase.IsCoinbase() {
		return nil, nil, ruleError(ErrInvalidCoinbaseTransaction, fmt.Sprintf(
			"block %d first transaction has %d input(s)", block.Index, len(coinbase.Inputs)))
	}

	spent = make(map[hash32.T]struct{})
	created = make(map[hash32.T]struct{})
	var totalFee uint64
	for i, tx := range block.Transactions[1:] {
		inputHashes := tx.InputHashes()
		for h := range inputHashes {
			if !bc.IsUnspent(h) {
				return nil, nil, ruleError(ErrInvalidInput, fmt.Sprintf(
					"transaction %d spends unknown or spent output %s", i+1, hash32.Encode(h)))
			}
		}
		inputValue, ok := tx.InputValue()
		if !ok {
			return nil, nil, ruleError(ErrInsufficientInputValue, fmt.Sprintf(
				"transaction %d input value overflows", i+1))
		}
		outputValue, ok := tx.OutputValue()
		if !ok || outputValue > inputValue {
			return nil, nil, ruleError(ErrInsufficientInputValue, fmt.Sprintf(
				"transaction %d creates more value than it spends", i+1))
		}
		fee := inputValue - outputValue
		var carry uint64
		totalFee, carry = bits.Add64(totalFee, fee, 0)
		if carry != 0 {
			return nil, nil, ruleError(ErrInsufficientInputValue, fmt.Sprintf(
				"total fee overflows at transaction %d", i+1))
		}
		for h := range inputHashes {
			spent[h] = struct{}{}
		}
		for h := range tx.OutputHashes() {
			created[h] = struct{}{}
		}
	}

	coinbaseValue, ok := coinbase.OutputValue()
	if !ok || coinbaseValue < totalFee {
		return nil, nil, ruleError(ErrFeeExceedsCoinbaseTransactionOutputValue, fmt.Sprintf(
			"coinbase output value does not cover total fee %d", totalFee))
	}
	for h := range coinbase.OutputHashes() {
		created[h] = struct{}{}
	}
	return spent, created, nil
}
