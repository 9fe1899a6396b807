// Copyright (c) 2022-2023 The Ledgerd developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

// Package frontend implements the gRPC handlers called by miners and
// wallets.
package frontend

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"lukechampine.com/uint128"

	"github.com/powchain/ledgerd/chain"
	"github.com/powchain/ledgerd/common"
	"github.com/powchain/ledgerd/hash32"
	"github.com/powchain/ledgerd/ledgerrpc"
)

type ledgerStreamer struct {
	ledger     *common.Ledger
	difficulty uint128.Uint128
	forging    bool
	pingEnable bool
	ledgerrpc.UnimplementedLedgerStreamerServer
}

// NewLedgerStreamer constructs a gRPC context. The difficulty and
// forging flag only feed GetLedgerInfo; validation reads each block's
// own difficulty field.
func NewLedgerStreamer(ledger *common.Ledger, difficulty uint128.Uint128,
	forging bool, pingEnable bool) (ledgerrpc.LedgerStreamerServer, error) {
	return &ledgerStreamer{
		ledger:     ledger,
		difficulty: difficulty,
		forging:    forging,
		pingEnable: pingEnable,
	}, nil
}

// GetLedgerInfo returns useful information about this instance and the
// chain.
func (s *ledgerStreamer) GetLedgerInfo(ctx context.Context, placeholder *ledgerrpc.Empty) (*ledgerrpc.LedgerInfo, error) {
	common.Log.Debugf("gRPC GetLedgerInfo(%+v)\n", placeholder)
	info := &ledgerrpc.LedgerInfo{
		Version:     common.Version,
		Vendor:      "Ledgerd developers",
		BlockHeight: uint64(s.ledger.Height()),
		Difficulty:  s.difficulty.Big().Text(16),
		Forging:     s.forging,
	}
	if tip := s.ledger.LatestBlock(); tip != nil {
		info.LatestBlockHash = hash32.Encode(tip.Hash)
	}
	return info, nil
}

// GetLatestBlock returns the height and stored hash of the chain tip.
func (s *ledgerStreamer) GetLatestBlock(ctx context.Context, placeholder *ledgerrpc.Empty) (*ledgerrpc.BlockID, error) {
	common.Log.Debugf("gRPC GetLatestBlock(%+v)\n", placeholder)
	tip := s.ledger.LatestBlock()
	if tip == nil {
		return nil, status.Error(codes.NotFound, "GetLatestBlock: the chain is empty")
	}
	return &ledgerrpc.BlockID{
		Height: uint64(tip.Index),
		Hash:   hash32.ToSlice(tip.Hash),
	}, nil
}

func (s *ledgerStreamer) rawBlock(height uint64) (*ledgerrpc.RawBlock, error) {
	block := s.ledger.GetBlock(int(height))
	if block == nil {
		return nil, status.Errorf(codes.OutOfRange,
			"block %d is newer than the latest block", height)
	}
	data, err := block.MarshalBinary()
	if err != nil {
		return nil, status.Errorf(codes.Internal,
			"marshaling block %d failed: %s", height, err.Error())
	}
	return &ledgerrpc.RawBlock{Data: data}, nil
}

// GetBlock returns the block at the requested height. The BlockID hash
// field is ignored; this chain has no fork to disambiguate.
func (s *ledgerStreamer) GetBlock(ctx context.Context, id *ledgerrpc.BlockID) (*ledgerrpc.RawBlock, error) {
	common.Log.Debugf("gRPC GetBlock(%+v)\n", id)
	return s.rawBlock(id.Height)
}

// GetBlockRange streams the blocks at heights [start, end], inclusive.
func (s *ledgerStreamer) GetBlockRange(span *ledgerrpc.BlockRange, resp ledgerrpc.LedgerStreamer_GetBlockRangeServer) error {
	common.Log.Debugf("gRPC GetBlockRange(%+v)\n", span)
	if span.End < span.Start {
		return status.Errorf(codes.InvalidArgument,
			"GetBlockRange: end %d before start %d", span.End, span.Start)
	}
	for height := span.Start; height <= span.End; height++ {
		raw, err := s.rawBlock(height)
		if err != nil {
			return err
		}
		if err := resp.Send(raw); err != nil {
			return err
		}
	}
	return nil
}

// SubmitBlock validates an externally-mined block and appends it to the
// chain if every rule passes. Rule violations are reported in-band in
// the response, not as gRPC errors, so miners can react to the specific
// rule.
func (s *ledgerStreamer) SubmitBlock(ctx context.Context, raw *ledgerrpc.RawBlock) (*ledgerrpc.SubmitResponse, error) {
	common.Log.Debugf("gRPC SubmitBlock(%d bytes)\n", len(raw.Data))
	var block chain.Block
	if err := block.UnmarshalBinary(raw.Data); err != nil {
		return nil, status.Errorf(codes.InvalidArgument,
			"SubmitBlock: could not parse block: %s", err.Error())
	}
	if err := s.ledger.Submit(&block); err != nil {
		code, ok := chain.RuleErrorCode(err)
		if !ok {
			// Not a validation outcome: the block was accepted but could
			// not be persisted.
			return nil, status.Errorf(codes.Internal,
				"SubmitBlock: %s", err.Error())
		}
		common.Log.WithFields(map[string]interface{}{
			"height": block.Index,
			"code":   code.String(),
		}).Info("rejected submitted block")
		return &ledgerrpc.SubmitResponse{
			ErrorCode:    int32(code) + 1,
			ErrorMessage: err.Error(),
		}, nil
	}
	common.Log.Info("accepted submitted block ", block.Index, " ", hash32.Encode(block.Hash))
	return &ledgerrpc.SubmitResponse{}, nil
}

// GetUnspentOutputs streams the digest of every currently spendable
// output.
func (s *ledgerStreamer) GetUnspentOutputs(placeholder *ledgerrpc.Empty, resp ledgerrpc.LedgerStreamer_GetUnspentOutputsServer) error {
	common.Log.Debugf("gRPC GetUnspentOutputs(%+v)\n", placeholder)
	for _, h := range s.ledger.UnspentOutputs() {
		if err := resp.Send(&ledgerrpc.UnspentOutput{Hash: hash32.ToSlice(h)}); err != nil {
			return err
		}
	}
	return nil
}

// Ping returns an empty reply. It is disabled by default to discourage
// load testing against shared instances.
func (s *ledgerStreamer) Ping(ctx context.Context, placeholder *ledgerrpc.Empty) (*ledgerrpc.Empty, error) {
	if !s.pingEnable {
		return nil, status.Error(codes.FailedPrecondition,
			"Ping not enabled, start ledgerd with --ping-very-insecure")
	}
	return &ledgerrpc.Empty{}, nil
}
