// Copyright (c) 2022-2023 The Ledgerd developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

package chain

import (
	"lukechampine.com/uint128"

	"github.com/powchain/ledgerd/hash32"
)

// TargetOf reassembles the last 16 bytes of a digest as a little-endian
// 128-bit integer:
//
//	d[16] | d[17]<<8 | d[18]<<16 | ... | d[31]<<120
//
// This is the quantity a block's difficulty constrains.
func TargetOf(digest hash32.T) uint128.Uint128 {
	return uint128.FromBytes(digest[16:])
}

// CheckDifficulty reports whether a digest satisfies a difficulty target:
// strictly less-than over the top 16 bytes. A difficulty of zero is
// unsatisfiable.
func CheckDifficulty(digest hash32.T, difficulty uint128.Uint128) bool {
	return TargetOf(digest).Cmp(difficulty) < 0
}
