// Copyright (c) 2022-2023 The Ledgerd developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .
package chain

import (
	"encoding/hex"
	"testing"
)

func TestOutputBytes(t *testing.T) {
	output := Output{ToAddress: "test-recipient-address", Value: 1}

	// raw UTF-8 address followed by the little-endian value, nothing else
	want := "746573742d726563697069656e742d61646472657373" + "0100000000000000"
	if got := hex.EncodeToString(output.Bytes()); got != want {
		t.Fatalf("output preimage:\n got %s\nwant %s", got, want)
	}
}

func TestOutputBytesEmptyAddress(t *testing.T) {
	output := Output{ToAddress: "", Value: 0x0706050403020100}

	want := "0001020304050607"
	if got := hex.EncodeToString(output.Bytes()); got != want {
		t.Fatalf("output preimage: got %s, want %s", got, want)
	}
}

func TestOutputHash(t *testing.T) {
	a := Output{ToAddress: "Alice", Value: 1}
	b := Output{ToAddress: "Alice", Value: 1}
	c := Output{ToAddress: "Alice", Value: 2}

	if a.Hash() != b.Hash() {
		t.Fatal("identical outputs must have identical digests")
	}
	if a.Hash() == c.Hash() {
		t.Fatal("outputs with different values must have different digests")
	}
}
