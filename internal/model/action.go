package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ActionKind enumerates the closed set of normalized action shapes.
// Protocols never add kinds; new decoders emit existing ones.
type ActionKind uint8

const (
	KindUnclassified ActionKind = iota
	KindSwap
	KindMint
	KindBurn
	KindCollect
	KindTransfer
	KindFlashLoan
	KindLiquidation
	KindAggregatorSwap
	KindNewPool
	KindEthTransfer
)

func (k ActionKind) String() string {
	switch k {
	case KindSwap:
		return "swap"
	case KindMint:
		return "mint"
	case KindBurn:
		return "burn"
	case KindCollect:
		return "collect"
	case KindTransfer:
		return "transfer"
	case KindFlashLoan:
		return "flash_loan"
	case KindLiquidation:
		return "liquidation"
	case KindAggregatorSwap:
		return "aggregator_swap"
	case KindNewPool:
		return "new_pool"
	case KindEthTransfer:
		return "eth_transfer"
	default:
		return "unclassified"
	}
}

// Action is the protocol-agnostic semantic event produced by the
// classifier. Downstream consumers switch on Kind and assert the
// concrete variant; the set is closed.
type Action interface {
	Kind() ActionKind
	TraceIdx() uint64
	Proto() Protocol
}

// RequiresMultiFrame reports whether the action needs descendant frames
// to finish its classification.
func RequiresMultiFrame(a Action) bool {
	switch a.Kind() {
	case KindFlashLoan, KindLiquidation, KindAggregatorSwap:
		return true
	default:
		return false
	}
}

// Swap is one pool swap.
type Swap struct {
	TraceIndex uint64         `json:"trace_index"`
	Protocol   Protocol       `json:"protocol"`
	From       common.Address `json:"from"`
	Recipient  common.Address `json:"recipient"`
	Pool       common.Address `json:"pool"`
	TokenIn    Token          `json:"token_in"`
	TokenOut   Token          `json:"token_out"`
	AmountIn   Rational       `json:"amount_in"`
	AmountOut  Rational       `json:"amount_out"`
	MsgValue   *big.Int       `json:"msg_value,omitempty"`
}

func (a *Swap) Kind() ActionKind { return KindSwap }
func (a *Swap) TraceIdx() uint64 { return a.TraceIndex }
func (a *Swap) Proto() Protocol  { return a.Protocol }

// Mint is a liquidity provision.
type Mint struct {
	TraceIndex uint64         `json:"trace_index"`
	Protocol   Protocol       `json:"protocol"`
	From       common.Address `json:"from"`
	Recipient  common.Address `json:"recipient"`
	Pool       common.Address `json:"pool"`
	Tokens     []Token        `json:"tokens"`
	Amounts    []Rational     `json:"amounts"`
}

func (a *Mint) Kind() ActionKind { return KindMint }
func (a *Mint) TraceIdx() uint64 { return a.TraceIndex }
func (a *Mint) Proto() Protocol  { return a.Protocol }

// Burn is a liquidity removal.
type Burn struct {
	TraceIndex uint64         `json:"trace_index"`
	Protocol   Protocol       `json:"protocol"`
	From       common.Address `json:"from"`
	Recipient  common.Address `json:"recipient"`
	Pool       common.Address `json:"pool"`
	Tokens     []Token        `json:"tokens"`
	Amounts    []Rational     `json:"amounts"`
}

func (a *Burn) Kind() ActionKind { return KindBurn }
func (a *Burn) TraceIdx() uint64 { return a.TraceIndex }
func (a *Burn) Proto() Protocol  { return a.Protocol }

// Collect is a fee collection on a concentrated-liquidity position.
type Collect struct {
	TraceIndex uint64         `json:"trace_index"`
	Protocol   Protocol       `json:"protocol"`
	From       common.Address `json:"from"`
	Recipient  common.Address `json:"recipient"`
	Pool       common.Address `json:"pool"`
	Tokens     []Token        `json:"tokens"`
	Amounts    []Rational     `json:"amounts"`
}

func (a *Collect) Kind() ActionKind { return KindCollect }
func (a *Collect) TraceIdx() uint64 { return a.TraceIndex }
func (a *Collect) Proto() Protocol  { return a.Protocol }

// TransferOrigin records whether a Transfer came from an event log or
// from decoding an ERC20 transfer call. The sanitizer keeps the
// log-derived one when both exist.
type TransferOrigin uint8

const (
	TransferFromLog TransferOrigin = iota
	TransferFromCall
)

// Transfer is one token movement. Fee is non-zero only after tax-token
// reconciliation collapsed a fee leg into this transfer.
type Transfer struct {
	TraceIndex uint64         `json:"trace_index"`
	From       common.Address `json:"from"`
	To         common.Address `json:"to"`
	Token      Token          `json:"token"`
	Amount     Rational       `json:"amount"`
	Fee        Rational       `json:"fee"`
	Origin     TransferOrigin `json:"-"`
}

func (a *Transfer) Kind() ActionKind { return KindTransfer }
func (a *Transfer) TraceIdx() uint64 { return a.TraceIndex }
func (a *Transfer) Proto() Protocol  { return ProtocolERC20 }

// FlashLoan is an uncollateralized loan frame. Child actions and
// repayments are filled by the multi-frame rewriter.
type FlashLoan struct {
	TraceIndex   uint64         `json:"trace_index"`
	Protocol     Protocol       `json:"protocol"`
	From         common.Address `json:"from"`
	Pool         common.Address `json:"pool"`
	Receiver     common.Address `json:"receiver"`
	Assets       []Token        `json:"assets"`
	Amounts      []Rational     `json:"amounts"`
	ChildActions []Action       `json:"child_actions,omitempty"`
	Repayments   []*Transfer    `json:"repayments,omitempty"`
	FeesPaid     []Rational     `json:"fees_paid,omitempty"`
}

func (a *FlashLoan) Kind() ActionKind { return KindFlashLoan }
func (a *FlashLoan) TraceIdx() uint64 { return a.TraceIndex }
func (a *FlashLoan) Proto() Protocol  { return a.Protocol }

// Liquidation is a debt liquidation. LiquidatedCollateral is filled by
// the multi-frame rewriter from the collateral transfer to the
// liquidator.
type Liquidation struct {
	TraceIndex           uint64         `json:"trace_index"`
	Protocol             Protocol       `json:"protocol"`
	Pool                 common.Address `json:"pool"`
	Liquidator           common.Address `json:"liquidator"`
	Debtor               common.Address `json:"debtor"`
	CollateralAsset      Token          `json:"collateral_asset"`
	DebtAsset            Token          `json:"debt_asset"`
	CoveredDebt          Rational       `json:"covered_debt"`
	LiquidatedCollateral Rational       `json:"liquidated_collateral"`
}

func (a *Liquidation) Kind() ActionKind { return KindLiquidation }
func (a *Liquidation) TraceIdx() uint64 { return a.TraceIndex }
func (a *Liquidation) Proto() Protocol  { return a.Protocol }

// AggregatorSwap is a router-level swap whose legs are pool swaps in
// descendant frames.
type AggregatorSwap struct {
	TraceIndex uint64         `json:"trace_index"`
	Protocol   Protocol       `json:"protocol"`
	From       common.Address `json:"from"`
	Recipient  common.Address `json:"recipient"`
	TokenIn    Token          `json:"token_in"`
	TokenOut   Token          `json:"token_out"`
	AmountIn   Rational       `json:"amount_in"`
	AmountOut  Rational       `json:"amount_out"`
	ChildSwaps []*Swap        `json:"child_swaps,omitempty"`
}

func (a *AggregatorSwap) Kind() ActionKind { return KindAggregatorSwap }
func (a *AggregatorSwap) TraceIdx() uint64 { return a.TraceIndex }
func (a *AggregatorSwap) Proto() Protocol  { return a.Protocol }

// NewPool is a factory deployment discovered from a CREATE trace.
type NewPool struct {
	TraceIndex uint64           `json:"trace_index"`
	Protocol   Protocol         `json:"protocol"`
	Pool       common.Address   `json:"pool"`
	Tokens     []common.Address `json:"tokens"`
}

func (a *NewPool) Kind() ActionKind { return KindNewPool }
func (a *NewPool) TraceIdx() uint64 { return a.TraceIndex }
func (a *NewPool) Proto() Protocol  { return a.Protocol }

// EthTransfer is a plain value call with no calldata.
type EthTransfer struct {
	TraceIndex uint64         `json:"trace_index"`
	From       common.Address `json:"from"`
	To         common.Address `json:"to"`
	Value      *big.Int       `json:"value"`
}

func (a *EthTransfer) Kind() ActionKind { return KindEthTransfer }
func (a *EthTransfer) TraceIdx() uint64 { return a.TraceIndex }
func (a *EthTransfer) Proto() Protocol  { return ProtocolUnknown }

// Unclassified keeps tree structure for frames no decoder matched.
type Unclassified struct {
	TraceIndex uint64 `json:"trace_index"`
}

func (a *Unclassified) Kind() ActionKind { return KindUnclassified }
func (a *Unclassified) TraceIdx() uint64 { return a.TraceIndex }
func (a *Unclassified) Proto() Protocol  { return ProtocolUnknown }
