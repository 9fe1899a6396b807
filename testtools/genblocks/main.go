// Copyright (c) 2022-2023 The Ledgerd developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .
//
// This tool writes to stdout a freshly-mined chain of blocks, one per
// line in hex wire encoding. Each block carries a single coinbase paying
// the given miner address. The output is suitable as test fixture data
// or for feeding a ledgerd instance through SubmitBlock, e.g. with
// grpcurl.
//
// Typical way to run this program to create 6 blocks:
//     $ go run testtools/genblocks/main.go -num-blocks 6 > testdata/blocks

package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"

	"lukechampine.com/uint128"

	"github.com/powchain/ledgerd/chain"
	"github.com/powchain/ledgerd/hash32"
)

type Options struct {
	numBlocks  int
	miner      string
	reward     uint64
	difficulty string
	startTime  uint64
}

func main() {
	opts := &Options{}
	flag.IntVar(&opts.numBlocks, "num-blocks", 4, "number of blocks to generate")
	flag.StringVar(&opts.miner, "miner", "test-miner-address", "coinbase payout address")
	flag.Uint64Var(&opts.reward, "reward", 50, "coinbase output value")
	flag.StringVar(&opts.difficulty, "difficulty", "0000ffffffffffffffffffffffffffff",
		"hex difficulty target the blocks are mined at")
	flag.Uint64Var(&opts.startTime, "start-time", 1000, "first block's timestamp (milliseconds)")
	flag.Parse()

	difficulty, err := parseDifficultyHex(opts.difficulty)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bad difficulty:", err)
		os.Exit(1)
	}

	bc := chain.New()
	prevhash := hash32.Nil
	for i := 0; i < opts.numBlocks; i++ {
		coinbase := chain.Transaction{
			Outputs: []chain.Output{{ToAddress: opts.miner, Value: opts.reward}},
		}
		block := chain.NewBlock(uint32(i), uint128.From64(opts.startTime+uint64(i)),
			prevhash, []chain.Transaction{coinbase}, difficulty)
		if err := block.Mine(); err != nil {
			fmt.Fprintln(os.Stderr, "mining block", i, "failed:", err)
			os.Exit(1)
		}
		// Run each block through the validator so broken fixtures can't
		// be generated.
		if err := bc.UpdateWithBlock(block); err != nil {
			fmt.Fprintln(os.Stderr, "generated block", i, "rejected:", err)
			os.Exit(1)
		}
		prevhash = block.Hash

		encoding, err := block.MarshalBinary()
		if err != nil {
			fmt.Fprintln(os.Stderr, "marshaling block", i, "failed:", err)
			os.Exit(1)
		}
		fmt.Println(hex.EncodeToString(encoding))
	}
}

func parseDifficultyHex(s string) (uint128.Uint128, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return uint128.Zero, err
	}
	if len(raw) != 16 {
		return uint128.Zero, fmt.Errorf("difficulty must be 16 bytes, got %d", len(raw))
	}
	// flag value is big-endian as humans write it; the predicate wants
	// the numeric value
	le := make([]byte, 16)
	for i := range raw {
		le[15-i] = raw[i]
	}
	return uint128.FromBytes(le), nil
}
