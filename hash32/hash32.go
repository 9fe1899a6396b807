// Copyright (c) 2022-2023 The Ledgerd developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

package hash32

import (
	"encoding/hex"
	"errors"
)

// This type is for any kind of 32-byte hash, such as a block hash or an
// output digest. Variables of this type are passed around and returned
// by value (treat like an integer).
type T [32]byte

// A genesis block links to a previous hash of all zeros, and a freshly
// constructed block has an all-zeros hash until it is mined, so Nil
// doubles as the unset sentinel.
var Nil = T{}

// FromSlice converts a slice to a hash32. The slice must hold exactly
// 32 bytes.
func FromSlice(arg []byte) T {
	var h T
	copy(h[:], arg)
	return h
}

// ToSlice converts a hash32 to a byte slice.
func ToSlice(arg T) []byte {
	return arg[:]
}

func Decode(s string) (T, error) {
	r := T{}
	hash, err := hex.DecodeString(s)
	if err != nil {
		return r, err
	}
	if len(hash) != 32 {
		return r, errors.New("Decode: length is not 32 bytes")
	}
	return FromSlice(hash), nil
}

func Encode(arg T) string {
	return hex.EncodeToString(ToSlice(arg))
}
