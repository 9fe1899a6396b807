// Copyright (c) 2022-2023 The Ledgerd developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

package chain

import (
	"bytes"
	"encoding/binary"

	"github.com/powchain/ledgerd/hash32"
)

// Output is a transfer of value to an address. The address is an opaque
// UTF-8 string; nothing validates or authenticates it. Outputs are value
// types: a transaction input is a byte-wise copy of an output produced by
// an earlier transaction, and the two are matched by digest equality.
type Output struct {
	ToAddress string
	Value     uint64
}

// Bytes returns the output preimage: the address as raw UTF-8 followed by
// the little-endian value. No length prefix, no terminator.
func (o Output) Bytes() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, len(o.ToAddress)+8))
	buf.WriteString(o.ToAddress)
	binary.Write(buf, binary.LittleEndian, o.Value)
	return buf.Bytes()
}

// Hash returns the output's digest, the identity under which it lives in
// the unspent-output set.
func (o Output) Hash() hash32.T {
	return HashOf(o)
}
