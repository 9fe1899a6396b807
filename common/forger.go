// Copyright (c) 2022-2023 The Ledgerd developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

package common

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
	"lukechampine.com/uint128"

	"github.com/powchain/ledgerd/chain"
	"github.com/powchain/ledgerd/hash32"
)

var blocksForgedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "ledgerd_blocks_forged_total",
	Help: "Number of blocks assembled, mined, and accepted by the forger.",
})

var forgerNonceAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "ledgerd_forger_nonce_attempts_total",
	Help: "Number of nonce candidates hashed by the forger.",
})

// ForgerConfig are the node identity settings the forger assembles
// candidate blocks from; see conf.go for where they come from.
type ForgerConfig struct {
	MinerAddress string
	BlockReward  uint64
	Difficulty   uint128.Uint128
	Interval     time.Duration
}

var (
	forgerRunning  bool
	stopForgerChan = make(chan struct{}, 1)
)

// StartForger runs the forger as a goroutine.
func StartForger(l *Ledger, cfg ForgerConfig) {
	if !forgerRunning {
		forgerRunning = true
		go BlockForger(l, cfg, 0)
	}
}

// StopForger stops the forger goroutine after its current block.
func StopForger() {
	if forgerRunning {
		forgerRunning = false
		stopForgerChan <- struct{}{}
	}
}

// BlockForger runs as a goroutine and repeatedly assembles a candidate
// block (a single coinbase paying the configured miner address), mines
// it, and submits it to the ledger. The repetition count, rep, is nonzero
// only for unit-testing.
func BlockForger(l *Ledger, cfg ForgerConfig, rep int) {
	for i := 0; rep == 0 || i < rep; i++ {
		// stop if requested
		select {
		case <-stopForgerChan:
			return
		default:
		}

		tip := l.LatestBlock()
		index := uint32(l.Height())
		previousBlockHash := hash32.Nil
		timestamp := NowMillis()
		if tip != nil {
			previousBlockHash = tip.Hash
			// The validator requires strictly increasing timestamps; if the
			// clock hasn't advanced past the tip (sub-millisecond forging,
			// clock steps), nudge just beyond it.
			if timestamp.Cmp(tip.Timestamp) <= 0 {
				timestamp = tip.Timestamp.Add64(1)
			}
		}

		coinbase := chain.Transaction{
			Outputs: []chain.Output{{ToAddress: cfg.MinerAddress, Value: cfg.BlockReward}},
		}
		block := chain.NewBlock(index, timestamp, previousBlockHash,
			[]chain.Transaction{coinbase}, cfg.Difficulty)

		if err := block.Mine(); err != nil {
			Log.WithFields(logrus.Fields{
				"height": index,
				"error":  err,
			}).Error("forger could not mine a block, stopping")
			return
		}
		forgerNonceAttemptsTotal.Add(float64(block.Nonce + 1))

		if err := l.Submit(block); err != nil {
			Log.WithFields(logrus.Fields{
				"height": index,
				"error":  err,
			}).Fatal("forged block rejected or not persisted")
		}
		blocksForgedTotal.Inc()
		Log.Info("forged block ", block.Index, " ", hash32.Encode(block.Hash),
			" nonce ", block.Nonce)

		Time.Sleep(cfg.Interval)
	}
}
