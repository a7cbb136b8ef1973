package model

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// CallType distinguishes EVM frame kinds.
type CallType uint8

const (
	CallTypeCall CallType = iota
	CallTypeDelegate
	CallTypeStatic
	CallTypeCreate
)

func (c CallType) String() string {
	switch c {
	case CallTypeCall:
		return "call"
	case CallTypeDelegate:
		return "delegatecall"
	case CallTypeStatic:
		return "staticcall"
	case CallTypeCreate:
		return "create"
	default:
		return "unknown"
	}
}

// MarshalText encodes the call type as its lowercase name.
func (c CallType) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a call type name.
func (c *CallType) UnmarshalText(text []byte) error {
	switch string(text) {
	case "call", "":
		*c = CallTypeCall
	case "delegatecall":
		*c = CallTypeDelegate
	case "staticcall":
		*c = CallTypeStatic
	case "create", "create2":
		*c = CallTypeCreate
	default:
		return fmt.Errorf("unknown call type: %s", text)
	}
	return nil
}

// Log is one event emitted at a trace frame.
type Log struct {
	Address common.Address `json:"address"`
	Topics  []common.Hash  `json:"topics"`
	Data    hexutil.Bytes  `json:"data"`
}

// Trace is one EVM sub-call or CREATE frame. Immutable once ingested.
type Trace struct {
	TraceIndex   uint64         `json:"trace_index"`
	TraceAddress []uint64       `json:"trace_address"`
	From         common.Address `json:"from"`
	To           common.Address `json:"to"`
	CallType     CallType       `json:"call_type"`
	Input        hexutil.Bytes  `json:"input"`
	Output       hexutil.Bytes  `json:"output"`
	Logs         []Log          `json:"logs,omitempty"`
	Value        *hexutil.Big   `json:"value,omitempty"`
	Gas          uint64         `json:"gas"`
	Error        string         `json:"error,omitempty"`
}

// Selector returns the 4-byte function selector of the frame input.
func (t *Trace) Selector() ([4]byte, bool) {
	var sel [4]byte
	if len(t.Input) < 4 {
		return sel, false
	}
	copy(sel[:], t.Input[:4])
	return sel, true
}

// ValueInt returns the frame value as a big integer, never nil.
func (t *Trace) ValueInt() *big.Int {
	if t.Value == nil {
		return new(big.Int)
	}
	return t.Value.ToInt()
}

// TxTraceList is the pre-ordered trace list for one transaction.
type TxTraceList struct {
	TxHash            common.Hash  `json:"tx_hash"`
	TxIndex           uint64       `json:"tx_index"`
	Success           bool         `json:"success"`
	GasUsed           uint64       `json:"gas_used"`
	EffectiveGasPrice *hexutil.Big `json:"effective_gas_price,omitempty"`
	Traces            []Trace      `json:"traces"`
}

// BlockHeader summarizes the block the traces belong to.
type BlockHeader struct {
	Number      uint64         `json:"number"`
	Hash        common.Hash    `json:"hash"`
	Timestamp   uint64         `json:"timestamp"`
	BaseFee     *hexutil.Big   `json:"base_fee,omitempty"`
	Beneficiary common.Address `json:"beneficiary"`
}

// BlockTraces is the classifier input for one block.
type BlockTraces struct {
	Header BlockHeader   `json:"header"`
	Txs    []TxTraceList `json:"transactions"`
}

// GasDetails carries per-transaction gas accounting, including any
// direct coinbase transfer observed while walking the traces.
type GasDetails struct {
	CoinbaseTransfer  *big.Int `json:"coinbase_transfer,omitempty"`
	GasUsed           uint64   `json:"gas_used"`
	EffectiveGasPrice *big.Int `json:"effective_gas_price,omitempty"`
	PriorityFee       *big.Int `json:"priority_fee,omitempty"`
}
