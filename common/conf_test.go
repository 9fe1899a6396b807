// Copyright (c) 2022-2023 The Ledgerd developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .
package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"lukechampine.com/uint128"
)

func writeConf(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledgerd.conf")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal("writing conf:", err)
	}
	return path
}

func TestParseForgerConfig(t *testing.T) {
	path := writeConf(t, `
mineraddress=miner-payout-address
blockreward=25
difficulty=00ffffffffffffffffffffffffffffff
forgeinterval=30s
`)

	cfg, err := ParseForgerConfig(path)
	if err != nil {
		t.Fatal("parse failed:", err)
	}
	if cfg.MinerAddress != "miner-payout-address" {
		t.Fatalf("mineraddress: got %q", cfg.MinerAddress)
	}
	if cfg.BlockReward != 25 {
		t.Fatalf("blockreward: got %d", cfg.BlockReward)
	}
	want := uint128.New(0xffffffffffffffff, 0x00ffffffffffffff)
	if !cfg.Difficulty.Equals(want) {
		t.Fatalf("difficulty: got %v, want %v", cfg.Difficulty, want)
	}
	if cfg.Interval != 30*time.Second {
		t.Fatalf("forgeinterval: got %v", cfg.Interval)
	}
}

func TestParseForgerConfigDefaults(t *testing.T) {
	path := writeConf(t, "mineraddress=m\n")

	cfg, err := ParseForgerConfig(path)
	if err != nil {
		t.Fatal("parse failed:", err)
	}
	if cfg.BlockReward != DefaultBlockReward {
		t.Fatalf("blockreward default: got %d", cfg.BlockReward)
	}
	wantDifficulty, _ := ParseDifficulty(DefaultDifficulty)
	if !cfg.Difficulty.Equals(wantDifficulty) {
		t.Fatalf("difficulty default: got %v", cfg.Difficulty)
	}
	if cfg.Interval != DefaultForgeInterval {
		t.Fatalf("forgeinterval default: got %v", cfg.Interval)
	}
}

func TestParseForgerConfigMissingMiner(t *testing.T) {
	path := writeConf(t, "blockreward=25\n")
	if _, err := ParseForgerConfig(path); err == nil {
		t.Fatal("conf without mineraddress should fail")
	}
}

func TestParseForgerConfigMissingFile(t *testing.T) {
	if _, err := ParseForgerConfig(filepath.Join(t.TempDir(), "nope.conf")); err == nil {
		t.Fatal("missing conf file should fail")
	}
}

func TestParseDifficulty(t *testing.T) {
	d, err := ParseDifficulty("0000ffffffffffffffffffffffffffff")
	if err != nil {
		t.Fatal("parse failed:", err)
	}
	if !d.Equals(uint128.New(0xffffffffffffffff, 0x0000ffffffffffff)) {
		t.Fatalf("difficulty: got %v", d)
	}

	if _, err := ParseDifficulty("not-hex"); err == nil {
		t.Fatal("bad hex should fail")
	}
	if _, err := ParseDifficulty("1" + "00000000000000000000000000000000"); err == nil {
		t.Fatal("129-bit value should fail")
	}
}
