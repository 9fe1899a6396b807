// Copyright (c) 2022-2023 The Ledgerd developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

package hash32

import (
	"bytes"
	"testing"
)

func TestEncodeDecode(t *testing.T) {
	h := T{}
	for i := range h {
		h[i] = byte(i)
	}

	round, err := Decode(Encode(h))
	if err != nil {
		t.Fatal("decode failed:", err)
	}
	if round != h {
		t.Fatal("encode/decode round trip mismatch")
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := Decode("zz"); err == nil {
		t.Fatal("decoding bad hex should fail")
	}
	if _, err := Decode("abcd"); err == nil {
		t.Fatal("decoding a short hash should fail")
	}
}

func TestSliceConversions(t *testing.T) {
	h := T{}
	h[0] = 0x7f
	if !bytes.Equal(ToSlice(h), h[:]) {
		t.Fatal("ToSlice mismatch")
	}
	if FromSlice(ToSlice(h)) != h {
		t.Fatal("FromSlice(ToSlice) mismatch")
	}
}
