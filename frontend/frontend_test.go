// Copyright (c) 2022-2023 The Ledgerd developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .
package frontend

import (
	"context"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"lukechampine.com/uint128"

	"github.com/powchain/ledgerd/chain"
	"github.com/powchain/ledgerd/common"
	"github.com/powchain/ledgerd/hash32"
	"github.com/powchain/ledgerd/ledgerrpc"
)

var logger = logrus.New()

func TestMain(m *testing.M) {
	output, err := os.OpenFile("test-log", os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		os.Exit(1)
	}
	logger.SetOutput(output)
	common.Log = logger.WithFields(logrus.Fields{
		"app": "test",
	})
	os.Exit(m.Run())
}

// mineTestBlock mines a coinbase-only block on top of the given tip.
func mineTestBlock(t *testing.T, index uint32, timestamp uint64, previous hash32.T) *chain.Block {
	t.Helper()
	block := chain.NewBlock(index, uint128.From64(timestamp), previous, []chain.Transaction{{
		Outputs: []chain.Output{{ToAddress: "miner", Value: 50}},
	}}, uint128.Max)
	if err := block.Mine(); err != nil {
		t.Fatal("mining test block:", err)
	}
	return block
}

// testsetup builds a streamer over a ledger holding two blocks.
func testsetup(t *testing.T) (ledgerrpc.LedgerStreamerServer, *common.Ledger) {
	t.Helper()
	ledger := common.NewLedger(nil)
	genesis := mineTestBlock(t, 0, 1, hash32.Nil)
	if err := ledger.Submit(genesis); err != nil {
		t.Fatal("submitting genesis:", err)
	}
	if err := ledger.Submit(mineTestBlock(t, 1, 2, genesis.Hash)); err != nil {
		t.Fatal("submitting block 1:", err)
	}

	streamer, err := NewLedgerStreamer(ledger, uint128.Max, true, false)
	if err != nil {
		t.Fatal("NewLedgerStreamer failed:", err)
	}
	return streamer, ledger
}

func TestGetLedgerInfo(t *testing.T) {
	streamer, ledger := testsetup(t)

	info, err := streamer.GetLedgerInfo(context.Background(), &ledgerrpc.Empty{})
	if err != nil {
		t.Fatal("GetLedgerInfo failed:", err)
	}
	if info.BlockHeight != 2 {
		t.Fatalf("block height: got %d, want 2", info.BlockHeight)
	}
	if info.LatestBlockHash != hash32.Encode(ledger.LatestBlock().Hash) {
		t.Fatal("latest block hash mismatch")
	}
	if !info.Forging {
		t.Fatal("forging flag lost")
	}
}

func TestGetLatestBlock(t *testing.T) {
	streamer, ledger := testsetup(t)

	id, err := streamer.GetLatestBlock(context.Background(), &ledgerrpc.Empty{})
	if err != nil {
		t.Fatal("GetLatestBlock failed:", err)
	}
	if id.Height != 1 {
		t.Fatalf("height: got %d, want 1", id.Height)
	}
	if hash32.FromSlice(id.Hash) != ledger.LatestBlock().Hash {
		t.Fatal("hash mismatch")
	}
}

func TestGetLatestBlockEmptyChain(t *testing.T) {
	streamer, err := NewLedgerStreamer(common.NewLedger(nil), uint128.Max, false, false)
	if err != nil {
		t.Fatal("NewLedgerStreamer failed:", err)
	}
	if _, err := streamer.GetLatestBlock(context.Background(), &ledgerrpc.Empty{}); err == nil {
		t.Fatal("GetLatestBlock on an empty chain should fail")
	}
}

func TestGetBlock(t *testing.T) {
	streamer, ledger := testsetup(t)

	raw, err := streamer.GetBlock(context.Background(), &ledgerrpc.BlockID{Height: 1})
	if err != nil {
		t.Fatal("GetBlock failed:", err)
	}
	var block chain.Block
	if err := block.UnmarshalBinary(raw.Data); err != nil {
		t.Fatal("parsing returned block:", err)
	}
	if block.Hash != ledger.GetBlock(1).Hash {
		t.Fatal("returned block mismatch")
	}

	if _, err := streamer.GetBlock(context.Background(), &ledgerrpc.BlockID{Height: 5}); err == nil {
		t.Fatal("GetBlock past the tip should fail")
	}
}

type testgetbrange struct {
	ledgerrpc.LedgerStreamer_GetBlockRangeServer
	sent []*ledgerrpc.RawBlock
}

func (tg *testgetbrange) Context() context.Context {
	return context.Background()
}

func (tg *testgetbrange) Send(raw *ledgerrpc.RawBlock) error {
	tg.sent = append(tg.sent, raw)
	return nil
}

func TestGetBlockRange(t *testing.T) {
	streamer, _ := testsetup(t)

	resp := &testgetbrange{}
	err := streamer.GetBlockRange(&ledgerrpc.BlockRange{Start: 0, End: 1}, resp)
	if err != nil {
		t.Fatal("GetBlockRange failed:", err)
	}
	if len(resp.sent) != 2 {
		t.Fatalf("blocks streamed: got %d, want 2", len(resp.sent))
	}

	err = streamer.GetBlockRange(&ledgerrpc.BlockRange{Start: 1, End: 0}, &testgetbrange{})
	if err == nil {
		t.Fatal("inverted range should fail")
	}
	err = streamer.GetBlockRange(&ledgerrpc.BlockRange{Start: 0, End: 9}, &testgetbrange{})
	if err == nil {
		t.Fatal("range past the tip should fail")
	}
}

func TestSubmitBlock(t *testing.T) {
	streamer, ledger := testsetup(t)

	block := mineTestBlock(t, 2, 3, ledger.LatestBlock().Hash)
	data, err := block.MarshalBinary()
	if err != nil {
		t.Fatal("marshal failed:", err)
	}
	resp, err := streamer.SubmitBlock(context.Background(), &ledgerrpc.RawBlock{Data: data})
	if err != nil {
		t.Fatal("SubmitBlock failed:", err)
	}
	if resp.ErrorCode != 0 {
		t.Fatalf("submit rejected: %s", resp.ErrorMessage)
	}
	if ledger.Height() != 3 {
		t.Fatal("submitted block not appended")
	}

	// resubmitting collides on index and reports the rule in-band
	resp, err = streamer.SubmitBlock(context.Background(), &ledgerrpc.RawBlock{Data: data})
	if err != nil {
		t.Fatal("SubmitBlock failed:", err)
	}
	if resp.ErrorCode != int32(chain.ErrMismatchedIndex)+1 {
		t.Fatalf("error code: got %d, want %d", resp.ErrorCode, int32(chain.ErrMismatchedIndex)+1)
	}

	// garbage is a gRPC-level error, not a validation outcome
	if _, err := streamer.SubmitBlock(context.Background(), &ledgerrpc.RawBlock{Data: []byte{0xde, 0xad}}); err == nil {
		t.Fatal("SubmitBlock with garbage should fail")
	}
}

type testgetunspent struct {
	ledgerrpc.LedgerStreamer_GetUnspentOutputsServer
	sent []*ledgerrpc.UnspentOutput
}

func (tg *testgetunspent) Context() context.Context {
	return context.Background()
}

func (tg *testgetunspent) Send(u *ledgerrpc.UnspentOutput) error {
	tg.sent = append(tg.sent, u)
	return nil
}

func TestGetUnspentOutputs(t *testing.T) {
	streamer, ledger := testsetup(t)

	resp := &testgetunspent{}
	if err := streamer.GetUnspentOutputs(&ledgerrpc.Empty{}, resp); err != nil {
		t.Fatal("GetUnspentOutputs failed:", err)
	}
	if len(resp.sent) != len(ledger.UnspentOutputs()) {
		t.Fatalf("streamed %d digests, want %d", len(resp.sent), len(ledger.UnspentOutputs()))
	}
}

func TestPing(t *testing.T) {
	streamer, _ := testsetup(t) // ping disabled
	if _, err := streamer.Ping(context.Background(), &ledgerrpc.Empty{}); err == nil {
		t.Fatal("Ping should be disabled by default")
	}

	enabled, err := NewLedgerStreamer(common.NewLedger(nil), uint128.Max, false, true)
	if err != nil {
		t.Fatal("NewLedgerStreamer failed:", err)
	}
	if _, err := enabled.Ping(context.Background(), &ledgerrpc.Empty{}); err != nil {
		t.Fatal("enabled Ping failed:", err)
	}
}
