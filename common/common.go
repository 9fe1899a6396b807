// Copyright (c) 2022-2023 The Ledgerd developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

package common

import (
	"time"

	"github.com/sirupsen/logrus"
	"lukechampine.com/uint128"
)

// Build metadata; a build can set these at link time with -ldflags -X.
var (
	Version   = "v0.0.0.0-dev"
	GitCommit = ""
	Branch    = ""
	BuildDate = ""
	BuildUser = ""
)

// Options carries the daemon's command-line settings, bound by the cmd
// layer from cobra flags and viper.
type Options struct {
	GRPCBindAddr        string `json:"grpc_bind_address,omitempty"`
	GRPCLogging         bool   `json:"grpc_logging_insecure,omitempty"`
	HTTPBindAddr        string `json:"http_bind_address,omitempty"`
	TLSCertPath         string `json:"tls_cert_path,omitempty"`
	TLSKeyPath          string `json:"tls_cert_key,omitempty"`
	LogLevel            uint64 `json:"log_level,omitempty"`
	LogFile             string `json:"log_file,omitempty"`
	LedgerConfPath      string `json:"ledger_conf,omitempty"`
	DataDir             string `json:"data_dir"`
	NoTLSVeryInsecure   bool   `json:"no_tls_very_insecure,omitempty"`
	GenCertVeryInsecure bool   `json:"gen_cert_very_insecure,omitempty"`
	NoForge             bool   `json:"no_forge,omitempty"`
	PingEnable          bool   `json:"ping_enable"`
}

// Time allows time-related functions to be mocked for testing, so that
// tests can be deterministic and so they don't require real time to
// elapse. In production, these point to the standard library `time`
// functions; in unit tests they point to mock functions (set by the
// specific test as required). More functions can be added later.
var Time struct {
	Sleep func(d time.Duration)
	Now   func() time.Time
}

// Log as a global variable simplifies logging
var Log *logrus.Entry

// NowMillis returns the current time as milliseconds since the Unix
// epoch, in the 128-bit form block timestamps use. The chain core never
// reads the clock itself; this is the caller-side source it is fed from.
func NowMillis() uint128.Uint128 {
	return uint128.From64(uint64(Time.Now().UnixMilli()))
}
