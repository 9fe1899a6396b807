// Copyright (c) 2022-2023 The Ledgerd developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .
package common

import (
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"lukechampine.com/uint128"

	"github.com/powchain/ledgerd/chain"
)

var logger = logrus.New()

// mockNow is the fake clock; each call advances it by one millisecond so
// forged blocks always have strictly increasing timestamps.
var mockClockMillis int64

func mockNow() time.Time {
	mockClockMillis++
	return time.UnixMilli(mockClockMillis)
}

func mockSleep(d time.Duration) {
	mockClockMillis += d.Milliseconds()
}

func TestMain(m *testing.M) {
	output, err := os.OpenFile("test-log", os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		os.Exit(1)
	}
	logger.SetOutput(output)
	Log = logger.WithFields(logrus.Fields{
		"app": "test",
	})
	Time.Now = mockNow
	Time.Sleep = mockSleep
	os.Exit(m.Run())
}

func TestNowMillis(t *testing.T) {
	mockClockMillis = 41
	if got := NowMillis(); !got.Equals(uint128.From64(42)) {
		t.Fatalf("NowMillis: got %v, want 42", got)
	}
}

func testForgerConfig() ForgerConfig {
	return ForgerConfig{
		MinerAddress: "unit-test-miner",
		BlockReward:  50,
		Difficulty:   uint128.Max,
		Interval:     time.Millisecond,
	}
}

func TestBlockForger(t *testing.T) {
	mockClockMillis = 1000
	ledger := NewLedger(nil)

	BlockForger(ledger, testForgerConfig(), 3)

	if ledger.Height() != 3 {
		t.Fatalf("forged height: got %d, want 3", ledger.Height())
	}
	for i := 0; i < 3; i++ {
		block := ledger.GetBlock(i)
		if block == nil {
			t.Fatalf("missing block %d", i)
		}
		if block.Index != uint32(i) {
			t.Fatalf("block %d has index %d", i, block.Index)
		}
		if len(block.Transactions) != 1 || !block.Transactions[0].IsCoinbase() {
			t.Fatalf("block %d should carry exactly the coinbase", i)
		}
		if got := block.Transactions[0].Outputs[0].ToAddress; got != "unit-test-miner" {
			t.Fatalf("block %d pays %q", i, got)
		}
	}

	// each forged block links to its predecessor
	for i := 1; i < 3; i++ {
		previous, block := ledger.GetBlock(i-1), ledger.GetBlock(i)
		if block.PreviousBlockHash != previous.Hash {
			t.Fatalf("block %d does not link to block %d", i, i-1)
		}
		if block.Timestamp.Cmp(previous.Timestamp) <= 0 {
			t.Fatalf("block %d timestamp not after block %d", i, i-1)
		}
	}

	// the mined coinbase output is spendable
	coinbase := ledger.GetBlock(2).Transactions[0]
	unspent := ledger.UnspentOutputs()
	found := false
	for _, h := range unspent {
		if h == coinbase.Outputs[0].Hash() {
			found = true
		}
	}
	if !found {
		t.Fatal("forged coinbase output not in the unspent set")
	}
}

func TestBlockForgerStalledClock(t *testing.T) {
	mockClockMillis = 2000
	ledger := NewLedger(nil)

	// freeze the clock entirely; the forger must still produce strictly
	// increasing timestamps
	Time.Now = func() time.Time { return time.UnixMilli(2000) }
	Time.Sleep = func(d time.Duration) {}
	defer func() {
		Time.Now = mockNow
		Time.Sleep = mockSleep
	}()

	BlockForger(ledger, testForgerConfig(), 3)
	if ledger.Height() != 3 {
		t.Fatalf("forged height: got %d, want 3", ledger.Height())
	}
}

func TestLedgerSubmitRejection(t *testing.T) {
	mockClockMillis = 3000
	ledger := NewLedger(nil)
	BlockForger(ledger, testForgerConfig(), 1)

	// re-submitting the genesis block collides on index
	genesis := ledger.GetBlock(0)
	err := ledger.Submit(genesis)
	if err == nil {
		t.Fatal("duplicate block accepted")
	}
	if code, ok := chain.RuleErrorCode(err); !ok || code != chain.ErrMismatchedIndex {
		t.Fatalf("got %v, want ErrMismatchedIndex", err)
	}
	if ledger.Height() != 1 {
		t.Fatal("rejected submit changed the chain")
	}
}
