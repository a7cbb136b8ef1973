package classifier

import (
	"context"
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"traceScope/internal/model"
	"traceScope/internal/tree"
)

func testEngine(t *testing.T) (*Classifier, *Registry) {
	t.Helper()
	registry, err := DefaultRegistry()
	if err != nil {
		t.Fatalf("default registry: %v", err)
	}
	return NewClassifier(registry, testStore(t), nil, zap.NewNop(), 2), registry
}

func classifyBlock(t *testing.T, engine *Classifier, traces ...model.Trace) *BlockResult {
	t.Helper()
	block := &model.BlockTraces{
		Header: model.BlockHeader{Number: 18_500_000},
		Txs: []model.TxTraceList{{
			TxHash:  common.HexToHash("0xaa"),
			Success: true,
			Traces:  traces,
		}},
	}
	result, err := engine.BuildBlockTree(context.Background(), block)
	if err != nil {
		t.Fatalf("build block tree: %v", err)
	}
	return result
}

func v2SwapTrace(t *testing.T, traceIndex uint64, traceAddress []uint64) model.Trace {
	t.Helper()
	swapLog := mustPackLog(t, uniswapV2PairABI, "Swap",
		[]common.Hash{addrTopic(userAddr), addrTopic(userAddr)},
		big.NewInt(1_000_000), // amount0In: 1 USDC
		big.NewInt(0),
		big.NewInt(0),
		mustWei(t, "500000000000000000"), // amount1Out: 0.5 WETH
	)
	swapLog.Address = v2PoolAddr

	return model.Trace{
		TraceIndex:   traceIndex,
		TraceAddress: traceAddress,
		From:         userAddr,
		To:           v2PoolAddr,
		CallType:     model.CallTypeCall,
		Input: mustPackInput(t, uniswapV2PairABI, "swap",
			big.NewInt(0), mustWei(t, "500000000000000000"), userAddr, []byte{}),
		Logs: []model.Log{swapLog},
	}
}

func mustWei(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		t.Fatalf("bad integer literal %s", s)
	}
	return v
}

func TestUniswapV2SwapClassification(t *testing.T) {
	engine, _ := testEngine(t)
	result := classifyBlock(t, engine, v2SwapTrace(t, 0, nil))

	if len(result.Tree.Txs) != 1 {
		t.Fatalf("expected 1 tx tree, got %d", len(result.Tree.Txs))
	}
	root := result.Tree.Txs[0].Root()
	swap, ok := root.Action.(*model.Swap)
	if !ok {
		t.Fatalf("expected swap, got %T", root.Action)
	}

	if swap.Protocol != model.ProtocolUniswapV2 {
		t.Fatalf("unexpected protocol %s", swap.Protocol)
	}
	if swap.Pool != v2PoolAddr {
		t.Fatalf("unexpected pool %s", swap.Pool.Hex())
	}
	if swap.TokenIn.Address != usdcAddr || swap.TokenIn.Decimals != 6 {
		t.Fatalf("unexpected token in: %+v", swap.TokenIn)
	}
	if swap.TokenOut.Address != wethAddr || swap.TokenOut.Decimals != 18 {
		t.Fatalf("unexpected token out: %+v", swap.TokenOut)
	}
	testRat(t, swap.AmountIn, rat(1, 1), "amount in")
	testRat(t, swap.AmountOut, rat(1, 2), "amount out")
}

func TestMakerPSMBuyGem(t *testing.T) {
	engine, _ := testEngine(t)

	buyLog := mustPackLog(t, makerPSMABI, "BuyGem",
		[]common.Hash{addrTopic(userAddr)},
		big.NewInt(1_000_000),
		mustWei(t, "1000000000000000"), // 0.001 wad fee
	)
	buyLog.Address = psmAddr

	trace := model.Trace{
		TraceIndex: 0,
		From:       userAddr,
		To:         psmAddr,
		CallType:   model.CallTypeCall,
		Input:      mustPackInput(t, makerPSMABI, "buyGem", userAddr, big.NewInt(1_000_000)),
		Logs:       []model.Log{buyLog},
	}

	result := classifyBlock(t, engine, trace)
	swap, ok := result.Tree.Txs[0].Root().Action.(*model.Swap)
	if !ok {
		t.Fatalf("expected swap, got %T", result.Tree.Txs[0].Root().Action)
	}

	if swap.TokenIn.Address != daiAddr {
		t.Fatalf("expected DAI in, got %s", swap.TokenIn.Symbol)
	}
	if swap.TokenOut.Address != usdcAddr {
		t.Fatalf("expected USDC out, got %s", swap.TokenOut.Symbol)
	}
	testRat(t, swap.AmountOut, rat(1, 1), "gem amount out")
	testRat(t, swap.AmountIn, rat(1001, 1000), "dai amount in")
}

func TestUnknownProtocolStaysUnclassified(t *testing.T) {
	engine, _ := testEngine(t)

	unknown := model.Trace{
		TraceIndex: 0,
		From:       userAddr,
		To:         otherAddr,
		CallType:   model.CallTypeCall,
		Input:      hexutil.Bytes{0xde, 0xad, 0xbe, 0xef, 0x01},
	}
	sibling := v2SwapTrace(t, 1, []uint64{0})
	// The unknown root call wraps the pool swap.
	unknown.TraceAddress = nil

	result := classifyBlock(t, engine, unknown, sibling)
	txTree := result.Tree.Txs[0]

	if txTree.LiveCount() != 2 {
		t.Fatalf("expected 2 nodes, got %d", txTree.LiveCount())
	}
	root := txTree.Root()
	if _, ok := root.Action.(*model.Unclassified); !ok {
		t.Fatalf("expected unclassified root, got %T", root.Action)
	}
	if root.Action.TraceIdx() != 0 {
		t.Fatalf("unexpected root trace index %d", root.Action.TraceIdx())
	}
	child := txTree.FindByTraceIndex(1)
	if _, ok := child.Action.(*model.Swap); !ok {
		t.Fatalf("sibling classification affected: %T", child.Action)
	}
}

func TestTraceCoverageOneNodePerTrace(t *testing.T) {
	engine, _ := testEngine(t)

	traces := []model.Trace{
		{TraceIndex: 0, From: userAddr, To: otherAddr, CallType: model.CallTypeCall},
		{TraceIndex: 1, TraceAddress: []uint64{0}, From: otherAddr, To: otherAddr, CallType: model.CallTypeStatic},
		{TraceIndex: 2, TraceAddress: []uint64{1}, From: otherAddr, To: userAddr, CallType: model.CallTypeCall, Error: "out of gas"},
		{TraceIndex: 3, TraceAddress: []uint64{1, 0}, From: userAddr, To: otherAddr, CallType: model.CallTypeCall},
	}

	result := classifyBlock(t, engine, traces...)
	txTree := result.Tree.Txs[0]

	if txTree.LiveCount() != len(traces) {
		t.Fatalf("expected %d nodes, got %d", len(traces), txTree.LiveCount())
	}

	var last int64 = -1
	txTree.PreOrder(func(n *tree.Node) bool {
		idx := int64(n.Action.TraceIdx())
		if idx <= last {
			t.Fatalf("pre-order indices not strictly increasing at %d", idx)
		}
		last = idx
		return true
	})
}

func TestEthTransferClassification(t *testing.T) {
	engine, _ := testEngine(t)

	value := hexutil.Big(*mustWei(t, "1000000000000000000"))
	trace := model.Trace{
		TraceIndex: 0,
		From:       userAddr,
		To:         otherAddr,
		CallType:   model.CallTypeCall,
		Value:      &value,
	}

	result := classifyBlock(t, engine, trace)
	eth, ok := result.Tree.Txs[0].Root().Action.(*model.EthTransfer)
	if !ok {
		t.Fatalf("expected eth transfer, got %T", result.Tree.Txs[0].Root().Action)
	}
	if eth.From != userAddr || eth.To != otherAddr {
		t.Fatalf("unexpected parties: %+v", eth)
	}
}

func TestERC20TransferCallClassification(t *testing.T) {
	engine, _ := testEngine(t)

	trace := model.Trace{
		TraceIndex: 0,
		From:       userAddr,
		To:         usdcAddr,
		CallType:   model.CallTypeCall,
		Input:      mustPackInput(t, erc20ABI, "transfer", otherAddr, big.NewInt(2_500_000)),
	}

	result := classifyBlock(t, engine, trace)
	transfer, ok := result.Tree.Txs[0].Root().Action.(*model.Transfer)
	if !ok {
		t.Fatalf("expected transfer, got %T", result.Tree.Txs[0].Root().Action)
	}
	if transfer.Origin != model.TransferFromCall {
		t.Fatalf("expected call-derived transfer")
	}
	if transfer.From != userAddr || transfer.To != otherAddr {
		t.Fatalf("unexpected parties: %+v", transfer)
	}
	testRat(t, transfer.Amount, rat(5, 2), "amount")
}

func TestDispatchDeterminism(t *testing.T) {
	run := func() []byte {
		engine, _ := testEngine(t)
		result := classifyBlock(t, engine, v2SwapTrace(t, 0, nil))
		data, err := json.Marshal(result.Tree.Txs[0].Root().Action)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		return data
	}

	first := run()
	second := run()
	if string(first) != string(second) {
		t.Fatalf("same trace and metadata produced different actions:\n%s\n%s", first, second)
	}
}

func TestCancelledContextDiscardsBlock(t *testing.T) {
	engine, _ := testEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	block := &model.BlockTraces{
		Header: model.BlockHeader{Number: 1},
		Txs: []model.TxTraceList{{
			Success: true,
			Traces:  []model.Trace{{TraceIndex: 0, To: otherAddr, CallType: model.CallTypeCall}},
		}},
	}
	if _, err := engine.BuildBlockTree(ctx, block); err == nil {
		t.Fatalf("expected error from cancelled context")
	}
}
