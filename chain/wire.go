// Copyright (c) 2022-2023 The Ledgerd developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

package chain

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
	"lukechampine.com/uint128"

	"github.com/powchain/ledgerd/chain/internal/bytestring"
	"github.com/powchain/ledgerd/hash32"
)

// The hash preimage concatenates raw addresses with no framing, so it
// cannot be parsed back. Storage and RPC instead use this framed
// encoding: integers stay little-endian fixed-width, addresses are
// CompactSize-length-prefixed, and transaction lists carry CompactSize
// counts. A block additionally carries its stored hash, after the
// preimage fields:
//
//	LE-u32(index) || LE-u128(timestamp) || previous_block_hash ||
//	LE-u64(nonce) || CompactSize(len(transactions)) || transactions ||
//	LE-u128(difficulty) || hash
//
// with each transaction encoded as
//
//	CompactSize(len(inputs)) || inputs ||
//	CompactSize(len(outputs)) || outputs
//
// and each output as
//
//	CompactSize(len(to_address)) || to_address || LE-u64(value)

// WriteCompactLengthPrefixedLen writes the given length to the stream.
func WriteCompactLengthPrefixedLen(buf *bytes.Buffer, length int) {
	if length < 253 {
		binary.Write(buf, binary.LittleEndian, uint8(length))
	} else if length <= 0xffff {
		binary.Write(buf, binary.LittleEndian, byte(253))
		binary.Write(buf, binary.LittleEndian, uint16(length))
	} else if length <= 0xffffffff {
		binary.Write(buf, binary.LittleEndian, byte(254))
		binary.Write(buf, binary.LittleEndian, uint32(length))
	} else {
		binary.Write(buf, binary.LittleEndian, byte(255))
		binary.Write(buf, binary.LittleEndian, uint64(length))
	}
}

func writeCompactLengthPrefixed(buf *bytes.Buffer, val []byte) {
	WriteCompactLengthPrefixedLen(buf, len(val))
	binary.Write(buf, binary.LittleEndian, val)
}

func writeUint128(buf *bytes.Buffer, v uint128.Uint128) {
	var b [16]byte
	v.PutBytes(b[:])
	buf.Write(b[:])
}

func (o *Output) writeTo(buf *bytes.Buffer) {
	writeCompactLengthPrefixed(buf, []byte(o.ToAddress))
	binary.Write(buf, binary.LittleEndian, o.Value)
}

// parseFromSlice deserializes an output from the given data and returns a
// slice to the remaining data.
func (o *Output) parseFromSlice(data []byte) (rest []byte, err error) {
	s := bytestring.String(data)

	var address bytestring.String
	if !s.ReadCompactLengthPrefixed(&address) {
		return nil, errors.New("could not read to_address")
	}
	if !s.ReadUint64(&o.Value) {
		return nil, errors.New("could not read value")
	}
	o.ToAddress = string(address)
	return []byte(s), nil
}

func (tx *Transaction) writeTo(buf *bytes.Buffer) {
	WriteCompactLengthPrefixedLen(buf, len(tx.Inputs))
	for i := range tx.Inputs {
		tx.Inputs[i].writeTo(buf)
	}
	WriteCompactLengthPrefixedLen(buf, len(tx.Outputs))
	for i := range tx.Outputs {
		tx.Outputs[i].writeTo(buf)
	}
}

func parseOutputs(data []byte) (outputs []Output, rest []byte, err error) {
	s := bytestring.String(data)
	var count uint64
	if !s.ReadCompactSize(&count) {
		return nil, nil, errors.New("could not read output count")
	}
	data = []byte(s)

	outputs = make([]Output, count)
	for i := uint64(0); i < count; i++ {
		data, err = outputs[i].parseFromSlice(data)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "parsing output %d", i)
		}
	}
	return outputs, data, nil
}

// parseFromSlice deserializes a transaction from the given data and
// returns a slice to the remaining data.
func (tx *Transaction) parseFromSlice(data []byte) (rest []byte, err error) {
	inputs, data, err := parseOutputs(data)
	if err != nil {
		return nil, errors.Wrap(err, "parsing inputs")
	}
	outputs, data, err := parseOutputs(data)
	if err != nil {
		return nil, errors.Wrap(err, "parsing outputs")
	}
	tx.Inputs = inputs
	tx.Outputs = outputs
	return data, nil
}

// MarshalBinary returns the block in framed wire form.
func (b *Block) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, b.Index)
	writeUint128(&buf, b.Timestamp)
	buf.Write(b.PreviousBlockHash[:])
	binary.Write(&buf, binary.LittleEndian, b.Nonce)
	WriteCompactLengthPrefixedLen(&buf, len(b.Transactions))
	for i := range b.Transactions {
		b.Transactions[i].writeTo(&buf)
	}
	writeUint128(&buf, b.Difficulty)
	buf.Write(b.Hash[:])
	return buf.Bytes(), nil
}

// ParseFromSlice deserializes a block from the given data stream and
// returns a slice to the remaining data. The caller should verify there
// is no remaining data if none is expected.
func (b *Block) ParseFromSlice(data []byte) (rest []byte, err error) {
	s := bytestring.String(data)

	var block Block
	if !s.ReadUint32(&block.Index) {
		return nil, errors.New("could not read index")
	}
	if !s.ReadUint128(&block.Timestamp) {
		return nil, errors.New("could not read timestamp")
	}
	b32 := make([]byte, 32)
	if !s.ReadBytes(&b32, 32) {
		return nil, errors.New("could not read previous_block_hash")
	}
	block.PreviousBlockHash = hash32.FromSlice(b32)
	if !s.ReadUint64(&block.Nonce) {
		return nil, errors.New("could not read nonce")
	}

	var txCount uint64
	if !s.ReadCompactSize(&txCount) {
		return nil, errors.New("could not read tx_count")
	}
	data = []byte(s)
	block.Transactions = make([]Transaction, txCount)
	for i := uint64(0); i < txCount; i++ {
		data, err = block.Transactions[i].parseFromSlice(data)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing transaction %d", i)
		}
	}

	s = bytestring.String(data)
	if !s.ReadUint128(&block.Difficulty) {
		return nil, errors.New("could not read difficulty")
	}
	if !s.ReadBytes(&b32, 32) {
		return nil, errors.New("could not read hash")
	}
	block.Hash = hash32.FromSlice(b32)

	*b = block
	return []byte(s), nil
}

// UnmarshalBinary deserializes a block from exactly the given data.
func (b *Block) UnmarshalBinary(data []byte) error {
	rest, err := b.ParseFromSlice(data)
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return errors.Errorf("%d trailing bytes after block", len(rest))
	}
	return nil
}
