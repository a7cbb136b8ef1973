package classifier

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"traceScope/internal/model"
	"traceScope/internal/tree"
)

var (
	liquidatorAddr = common.HexToAddress("0x80d4230C0A68FC59cb264329d3a717FcAa472A13")
	debtorAddr     = common.HexToAddress("0xE967954b9b48cB1a0079d76466E82C4D52A8f5d3")
	treasuryAddr   = common.HexToAddress("0x464C71f6c2F760DdA6093dCB91C24c39e5d6e18c")
	receiverAddr   = common.HexToAddress("0x3333333333333333333333333333333333333333")
	reserveAddr    = common.HexToAddress("0x4444444444444444444444444444444444444444")
)

func token(address common.Address, symbol string, decimals uint8) model.Token {
	return model.Token{Address: address, Symbol: symbol, Decimals: decimals}
}

func transferOf(traceIndex uint64, from, to common.Address, tok model.Token, num, den int64) *model.Transfer {
	return &model.Transfer{
		TraceIndex: traceIndex,
		From:       from,
		To:         to,
		Token:      tok,
		Amount:     model.NewRational(rat(num, den)),
		Origin:     model.TransferFromLog,
	}
}

func TestLiquidationRewritePicksLiquidatorTransfer(t *testing.T) {
	usdc := token(usdcAddr, "USDC", 6)
	wbtc := token(wbtcAddr, "WBTC", 8)

	tt := tree.NewTxTree(common.Hash{}, 0, 5)
	root := tt.Insert(-1, &model.Unclassified{TraceIndex: 0})
	liq := &model.Liquidation{
		TraceIndex:      1,
		Protocol:        model.ProtocolAaveV3,
		Pool:            aaveAddr,
		Liquidator:      liquidatorAddr,
		Debtor:          debtorAddr,
		CollateralAsset: wbtc,
		DebtAsset:       usdc,
		CoveredDebt:     model.NewRational(rat(63857746423, 1_000_000)),
	}
	anchor := tt.Insert(root, liq)
	tt.Insert(anchor, transferOf(2, liquidatorAddr, aaveAddr, usdc, 63857746423, 1_000_000))
	tt.Insert(anchor, transferOf(3, aaveAddr, liquidatorAddr, wbtc, 165516722, 100_000_000))
	tt.Insert(anchor, transferOf(4, aaveAddr, treasuryAddr, wbtc, 1, 100))

	newRewriter(zap.NewNop()).rewrite(tt, []uint64{1})

	testRat(t, liq.LiquidatedCollateral, rat(165516722, 100_000_000), "liquidated collateral")

	if tt.FindByTraceIndex(3) != nil {
		t.Fatalf("collateral transfer not pruned")
	}
	if tt.FindByTraceIndex(2) == nil || tt.FindByTraceIndex(4) == nil {
		t.Fatalf("unrelated transfers were pruned")
	}
	// The anchor's collateral is not also an independent node.
	if tt.LiveCount() != 4 {
		t.Fatalf("expected 4 live nodes, got %d", tt.LiveCount())
	}
}

func TestLiquidationRewriteNoDescendantsKeepsAnchor(t *testing.T) {
	tt := tree.NewTxTree(common.Hash{}, 0, 2)
	liq := &model.Liquidation{
		TraceIndex: 0,
		Liquidator: liquidatorAddr,
	}
	tt.Insert(-1, liq)

	newRewriter(zap.NewNop()).rewrite(tt, []uint64{0})

	if tt.FindByTraceIndex(0) == nil {
		t.Fatalf("anchor was erased")
	}
	if !liq.LiquidatedCollateral.IsZero() {
		t.Fatalf("collateral set without descendants")
	}
}

func TestFlashLoanRewriteCollectsChildrenAndRepayment(t *testing.T) {
	weth := token(wethAddr, "WETH", 18)

	tt := tree.NewTxTree(common.Hash{}, 0, 6)
	loan := &model.FlashLoan{
		TraceIndex: 0,
		Protocol:   model.ProtocolAaveV3,
		From:       userAddr,
		Pool:       aaveAddr,
		Receiver:   receiverAddr,
		Assets:     []model.Token{weth},
		Amounts:    []model.Rational{model.NewRational(rat(10, 1))},
	}
	anchor := tt.Insert(-1, loan)

	// Disbursement, a child swap, and the repayment with fee.
	tt.Insert(anchor, transferOf(1, reserveAddr, receiverAddr, weth, 10, 1))
	swap := &model.Swap{TraceIndex: 2, Protocol: model.ProtocolUniswapV2, Pool: v2PoolAddr}
	tt.Insert(anchor, swap)
	tt.Insert(anchor, transferOf(3, receiverAddr, reserveAddr, weth, 10009, 1000))

	newRewriter(zap.NewNop()).rewrite(tt, []uint64{0})

	if len(loan.ChildActions) != 1 || loan.ChildActions[0] != model.Action(swap) {
		t.Fatalf("expected swap as child action, got %d children", len(loan.ChildActions))
	}
	if len(loan.Repayments) != 1 {
		t.Fatalf("expected 1 repayment, got %d", len(loan.Repayments))
	}
	testRat(t, loan.FeesPaid[0], rat(9, 1000), "loan fee")

	if tt.FindByTraceIndex(2) != nil || tt.FindByTraceIndex(3) != nil {
		t.Fatalf("collapsed descendants still in tree")
	}
	if tt.FindByTraceIndex(1) == nil {
		t.Fatalf("disbursement transfer should remain")
	}
}

func TestAggregatorSwapRewriteAttachesLegs(t *testing.T) {
	usdc := token(usdcAddr, "USDC", 6)
	weth := token(wethAddr, "WETH", 18)
	dai := token(daiAddr, "DAI", 18)

	tt := tree.NewTxTree(common.Hash{}, 0, 4)
	agg := &model.AggregatorSwap{
		TraceIndex: 0,
		Protocol:   model.ProtocolOneInch,
		From:       userAddr,
	}
	anchor := tt.Insert(-1, agg)

	first := &model.Swap{
		TraceIndex: 1, Protocol: model.ProtocolUniswapV2,
		TokenIn: usdc, TokenOut: weth,
		AmountIn: model.NewRational(rat(100, 1)), AmountOut: model.NewRational(rat(1, 20)),
	}
	second := &model.Swap{
		TraceIndex: 2, Protocol: model.ProtocolUniswapV3,
		TokenIn: weth, TokenOut: dai,
		AmountIn: model.NewRational(rat(1, 20)), AmountOut: model.NewRational(rat(99, 1)),
	}
	tt.Insert(anchor, first)
	tt.Insert(anchor, second)

	newRewriter(zap.NewNop()).rewrite(tt, []uint64{0})

	if len(agg.ChildSwaps) != 2 {
		t.Fatalf("expected 2 legs, got %d", len(agg.ChildSwaps))
	}
	if agg.TokenIn.Address != usdcAddr || agg.TokenOut.Address != daiAddr {
		t.Fatalf("outer tokens not filled from legs: %+v", agg)
	}
	testRat(t, agg.AmountIn, rat(100, 1), "outer amount in")
	testRat(t, agg.AmountOut, rat(99, 1), "outer amount out")

	if tt.LiveCount() != 1 {
		t.Fatalf("legs not pruned, %d live nodes", tt.LiveCount())
	}
}

func TestRewriteProcessesDeepestFirst(t *testing.T) {
	weth := token(wethAddr, "WETH", 18)
	usdc := token(usdcAddr, "USDC", 6)

	// A flash loan wrapping an aggregator swap: the inner anchor must
	// fold its legs before the outer anchor collects it.
	tt := tree.NewTxTree(common.Hash{}, 0, 5)
	loan := &model.FlashLoan{
		TraceIndex: 0,
		Protocol:   model.ProtocolAaveV3,
		Receiver:   receiverAddr,
		Assets:     []model.Token{weth},
		Amounts:    []model.Rational{model.NewRational(rat(10, 1))},
	}
	anchor := tt.Insert(-1, loan)
	agg := &model.AggregatorSwap{TraceIndex: 1, Protocol: model.ProtocolOneInch}
	aggIdx := tt.Insert(anchor, agg)
	leg := &model.Swap{
		TraceIndex: 2, Protocol: model.ProtocolUniswapV2,
		TokenIn: weth, TokenOut: usdc,
		AmountIn: model.NewRational(rat(10, 1)), AmountOut: model.NewRational(rat(18000, 1)),
	}
	tt.Insert(aggIdx, leg)

	newRewriter(zap.NewNop()).rewrite(tt, []uint64{0, 1})

	if len(agg.ChildSwaps) != 1 {
		t.Fatalf("inner rewrite did not run first: %d legs", len(agg.ChildSwaps))
	}
	if len(loan.ChildActions) != 1 || loan.ChildActions[0] != model.Action(agg) {
		t.Fatalf("outer anchor did not collect the rewritten inner anchor")
	}
	if tt.LiveCount() != 1 {
		t.Fatalf("expected only the loan anchor live, got %d", tt.LiveCount())
	}
}
