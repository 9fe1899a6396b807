// Copyright (c) 2022-2023 The Ledgerd developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

package chain

import (
	"bytes"
	"math/bits"

	"github.com/powchain/ledgerd/hash32"
)

// Transaction spends a set of previously created outputs (its inputs) and
// creates a set of new ones. A transaction with no inputs is a coinbase;
// the excess of input value over output value is the fee.
type Transaction struct {
	Inputs  []Output
	Outputs []Output
}

// Bytes returns the transaction preimage: each input's output preimage in
// order, then each output's, plain concatenation with no counts or
// separators. Two transactions whose concatenated output bytes agree but
// whose input/output split differs therefore share a digest; the split is
// validated, not hashed.
func (tx Transaction) Bytes() []byte {
	var buf bytes.Buffer
	for _, input := range tx.Inputs {
		buf.Write(input.Bytes())
	}
	for _, output := range tx.Outputs {
		buf.Write(output.Bytes())
	}
	return buf.Bytes()
}

// Hash returns the transaction's digest.
func (tx Transaction) Hash() hash32.T {
	return HashOf(tx)
}

// sumValues adds output values with overflow detection. ok is false if the
// sum does not fit in a uint64.
func sumValues(outputs []Output) (sum uint64, ok bool) {
	for _, o := range outputs {
		var carry uint64
		sum, carry = bits.Add64(sum, o.Value, 0)
		if carry != 0 {
			return 0, false
		}
	}
	return sum, true
}

// InputValue returns the sum of the inputs' values. ok is false on
// uint64 overflow.
func (tx Transaction) InputValue() (uint64, bool) {
	return sumValues(tx.Inputs)
}

// OutputValue returns the sum of the outputs' values. ok is false on
// uint64 overflow.
func (tx Transaction) OutputValue() (uint64, bool) {
	return sumValues(tx.Outputs)
}

func hashSet(outputs []Output) map[hash32.T]struct{} {
	set := make(map[hash32.T]struct{}, len(outputs))
	for _, o := range outputs {
		set[o.Hash()] = struct{}{}
	}
	return set
}

// InputHashes returns the set of digests of the transaction's inputs.
func (tx Transaction) InputHashes() map[hash32.T]struct{} {
	return hashSet(tx.Inputs)
}

// OutputHashes returns the set of digests of the transaction's outputs.
func (tx Transaction) OutputHashes() map[hash32.T]struct{} {
	return hashSet(tx.Outputs)
}

// IsCoinbase reports whether the transaction creates value from nothing:
// it has no inputs. The first transaction of a block must be one.
func (tx Transaction) IsCoinbase() bool {
	return len(tx.Inputs) == 0
}
