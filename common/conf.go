// Copyright (c) 2022-2023 The Ledgerd developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

package common

import (
	"math/big"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/ini.v1"
	"lukechampine.com/uint128"
)

// The forger's defaults when ledgerd.conf doesn't say otherwise. The
// default difficulty leaves the top two digest bytes at zero, which mines
// in a few tens of thousands of attempts.
const (
	DefaultBlockReward   = uint64(50)
	DefaultDifficulty    = "0000ffffffffffffffffffffffffffff"
	DefaultForgeInterval = 10 * time.Second
)

// ParseDifficulty interprets a hex string as a 128-bit difficulty target.
func ParseDifficulty(s string) (uint128.Uint128, error) {
	n, ok := new(big.Int).SetString(s, 16)
	if !ok {
		return uint128.Zero, errors.Errorf("difficulty %q is not valid hex", s)
	}
	if n.Sign() < 0 || n.BitLen() > 128 {
		return uint128.Zero, errors.Errorf("difficulty %q does not fit in 128 bits", s)
	}
	return uint128.FromBig(n), nil
}

// ParseForgerConfig reads node identity settings (the forger's miner
// address, block reward, difficulty, and forging interval) from an
// ini-format conf file:
//
//	mineraddress=miner-payout-address
//	blockreward=50
//	difficulty=0000ffffffffffffffffffffffffffff
//	forgeinterval=10s
//
// Every key is optional except mineraddress.
func ParseForgerConfig(confPath string) (ForgerConfig, error) {
	cfg := ForgerConfig{
		BlockReward: DefaultBlockReward,
		Interval:    DefaultForgeInterval,
	}

	file, err := ini.Load(confPath)
	if err != nil {
		return cfg, errors.Wrapf(err, "reading conf file %s", confPath)
	}
	section := file.Section("")

	cfg.MinerAddress = section.Key("mineraddress").String()
	if cfg.MinerAddress == "" {
		return cfg, errors.Errorf("conf file %s has no mineraddress", confPath)
	}
	if section.HasKey("blockreward") {
		cfg.BlockReward, err = section.Key("blockreward").Uint64()
		if err != nil {
			return cfg, errors.Wrap(err, "parsing blockreward")
		}
	}
	difficulty := section.Key("difficulty").MustString(DefaultDifficulty)
	cfg.Difficulty, err = ParseDifficulty(difficulty)
	if err != nil {
		return cfg, err
	}
	if section.HasKey("forgeinterval") {
		cfg.Interval, err = section.Key("forgeinterval").Duration()
		if err != nil {
			return cfg, errors.Wrap(err, "parsing forgeinterval")
		}
	}
	return cfg, nil
}
