// Copyright (c) 2022-2023 The Ledgerd developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

package chain

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrNonceExhausted is returned by Mine when no nonce in the uint64 range
// satisfies the block's difficulty.
var ErrNonceExhausted = errors.New("nonce space exhausted without satisfying difficulty")

// ErrorCode identifies a kind of block-validation rule violation. The
// taxonomy is closed; UpdateWithBlock reports exactly one of these per
// rejected block.
type ErrorCode int

// These constants are used to identify a specific RuleError.
const (
	// ErrMismatchedIndex indicates the candidate's index is not the next
	// position in the chain.
	ErrMismatchedIndex ErrorCode = iota

	// ErrInvalidHash indicates the candidate's recomputed digest does not
	// satisfy its stored difficulty.
	ErrInvalidHash

	// ErrAchronologicalTimestamp indicates the candidate's timestamp is
	// not strictly greater than its predecessor's.
	ErrAchronologicalTimestamp

	// ErrMismatchedPreviousHash indicates the candidate does not link to
	// the preceding block's stored hash.
	ErrMismatchedPreviousHash

	// ErrInvalidGenesisBlockFormat indicates a block at index 0 whose
	// previous-block hash is not 32 zero bytes.
	ErrInvalidGenesisBlockFormat

	// ErrInvalidInput indicates a transaction input whose digest is not in
	// the unspent-output set as of the start of the block.
	ErrInvalidInput

	// ErrInsufficientInputValue indicates a transaction whose output value
	// exceeds its input value (or whose value sums overflow).
	ErrInsufficientInputValue

	// ErrInvalidCoinbaseTransaction indicates a first transaction that has
	// inputs.
	ErrInvalidCoinbaseTransaction

	// ErrFeeExceedsCoinbaseTransactionOutputValue indicates a coinbase
	// whose output value does not cover the block's total fees.
	ErrFeeExceedsCoinbaseTransactionOutputValue
)

// Map of ErrorCode values back to their constant names for pretty printing.
var errorCodeStrings = map[ErrorCode]string{
	ErrMismatchedIndex:            "ErrMismatchedIndex",
	ErrInvalidHash:                "ErrInvalidHash",
	ErrAchronologicalTimestamp:    "ErrAchronologicalTimestamp",
	ErrMismatchedPreviousHash:     "ErrMismatchedPreviousHash",
	ErrInvalidGenesisBlockFormat:  "ErrInvalidGenesisBlockFormat",
	ErrInvalidInput:               "ErrInvalidInput",
	ErrInsufficientInputValue:     "ErrInsufficientInputValue",
	ErrInvalidCoinbaseTransaction: "ErrInvalidCoinbaseTransaction",
	ErrFeeExceedsCoinbaseTransactionOutputValue: "ErrFeeExceedsCoinbaseTransactionOutputValue",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s, ok := errorCodeStrings[e]; ok {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// RuleError identifies a rule violation. It is used to indicate that
// processing of a block failed due to one of the many validation rules.
// The caller can use type assertions on the returned error to access the
// ErrorCode field and react to the specific violation.
type RuleError struct {
	ErrorCode   ErrorCode // Describes the kind of error
	Description string    // Human readable description of the issue
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	return e.Description
}

// ruleError creates a RuleError given a set of arguments.
func ruleError(c ErrorCode, desc string) RuleError {
	return RuleError{ErrorCode: c, Description: desc}
}

// RuleErrorCode extracts the ErrorCode from err. ok is false if err is
// not a RuleError.
func RuleErrorCode(err error) (ErrorCode, bool) {
	var ruleErr RuleError
	if errors.As(err, &ruleErr) {
		return ruleErr.ErrorCode, true
	}
	return 0, false
}
