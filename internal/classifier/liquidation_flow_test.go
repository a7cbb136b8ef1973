package classifier

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"traceScope/internal/model"
)

// Full pipeline run for a liquidation: the anchor is marked during the
// build, the rewriter pulls the collateral amount from the descendant
// transfer to the liquidator, and the remaining transfers survive.
func TestAaveLiquidationEndToEnd(t *testing.T) {
	engine, _ := testEngine(t)

	liquidation := model.Trace{
		TraceIndex: 0,
		From:       liquidatorAddr,
		To:         aaveAddr,
		CallType:   model.CallTypeCall,
		Input: mustPackInput(t, aavePoolABI, "liquidationCall",
			wbtcAddr, usdcAddr, debtorAddr, big.NewInt(63_857_746_423), false),
	}

	transferTrace := func(traceIndex uint64, token, from, to common.Address, amount *big.Int) model.Trace {
		log := mustPackLog(t, erc20ABI, "Transfer",
			[]common.Hash{addrTopic(from), addrTopic(to)}, amount)
		log.Address = token
		return model.Trace{
			TraceIndex:   traceIndex,
			TraceAddress: []uint64{traceIndex - 1},
			From:         from,
			To:           token,
			CallType:     model.CallTypeCall,
			Input:        mustPackInput(t, erc20ABI, "transfer", to, amount),
			Logs:         []model.Log{log},
		}
	}

	debtRepay := transferTrace(1, usdcAddr, liquidatorAddr, aaveAddr, big.NewInt(63_857_746_423))
	collateral := transferTrace(2, wbtcAddr, aaveAddr, liquidatorAddr, big.NewInt(165_516_722))
	protocolFee := transferTrace(3, wbtcAddr, aaveAddr, treasuryAddr, big.NewInt(33_103))

	result := classifyBlock(t, engine, liquidation, debtRepay, collateral, protocolFee)
	txTree := result.Tree.Txs[0]

	liq, ok := txTree.Root().Action.(*model.Liquidation)
	if !ok {
		t.Fatalf("expected liquidation root, got %T", txTree.Root().Action)
	}
	if liq.Liquidator != liquidatorAddr || liq.Debtor != debtorAddr {
		t.Fatalf("unexpected parties: %+v", liq)
	}
	testRat(t, liq.CoveredDebt, rat(63_857_746_423, 1_000_000), "covered debt")
	testRat(t, liq.LiquidatedCollateral, rat(165_516_722, 100_000_000), "liquidated collateral")

	// The collateral transfer was consumed; the other two remain.
	if txTree.FindByTraceIndex(2) != nil {
		t.Fatalf("collateral transfer not pruned")
	}
	if txTree.FindByTraceIndex(1) == nil || txTree.FindByTraceIndex(3) == nil {
		t.Fatalf("independent transfers were pruned")
	}
}
