package metadata

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"traceScope/internal/model"
)

var (
	poolA  = common.HexToAddress("0x1000000000000000000000000000000000000001")
	tokenA = common.HexToAddress("0x2000000000000000000000000000000000000001")
	tokenB = common.HexToAddress("0x2000000000000000000000000000000000000002")
)

func TestTxScopeSameTxVisibility(t *testing.T) {
	store := NewStore()
	snapshot := NewSnapshot(store, 100)
	scope := snapshot.TxScope()

	scope.RegisterPool(poolA, model.ProtocolUniswapV2, []common.Address{tokenA, tokenB})

	info, ok := scope.ProtocolInfo(poolA)
	if !ok {
		t.Fatalf("pool not visible in its own scope")
	}
	if info.Protocol != model.ProtocolUniswapV2 || info.InitBlock != 100 {
		t.Fatalf("unexpected info: %+v", info)
	}
}

func TestTxScopeIsolationWithinBlock(t *testing.T) {
	store := NewStore()
	snapshot := NewSnapshot(store, 100)

	scopeA := snapshot.TxScope()
	scopeB := snapshot.TxScope()

	scopeA.RegisterPool(poolA, model.ProtocolUniswapV2, []common.Address{tokenA, tokenB})

	if _, ok := scopeB.ProtocolInfo(poolA); ok {
		t.Fatalf("tx B observed tx A's discovery before commit")
	}
	if _, ok := store.ProtocolInfo(poolA); ok {
		t.Fatalf("base store observed discovery before commit")
	}
}

func TestCommitPublishesAndIsMonotone(t *testing.T) {
	store := NewStore()
	store.SetProtocol(common.HexToAddress("0x3000000000000000000000000000000000000003"), model.ProtocolInfo{Protocol: model.ProtocolCurve})

	before := store.ProtocolCount()

	snapshot := NewSnapshot(store, 100)
	scope := snapshot.TxScope()
	scope.RegisterPool(poolA, model.ProtocolUniswapV2, []common.Address{tokenA, tokenB})

	committed, err := snapshot.Commit()
	if err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if len(committed) != 1 || committed[0].Address != poolA {
		t.Fatalf("unexpected committed set: %+v", committed)
	}

	if store.ProtocolCount() != before+1 {
		t.Fatalf("store not a superset after commit")
	}
	if _, ok := store.ProtocolInfo(poolA); !ok {
		t.Fatalf("committed pool missing from base store")
	}
}

func TestCommitIdempotentReRegistration(t *testing.T) {
	store := NewStore()
	tokens := []common.Address{tokenA, tokenB}

	for i := 0; i < 2; i++ {
		snapshot := NewSnapshot(store, 100)
		scope := snapshot.TxScope()
		scope.RegisterPool(poolA, model.ProtocolUniswapV2, tokens)
		if _, err := snapshot.Commit(); err != nil {
			t.Fatalf("commit %d failed: %v", i, err)
		}
	}
}

func TestCommitConflictFailsBlock(t *testing.T) {
	store := NewStore()

	snapshot := NewSnapshot(store, 100)
	scope := snapshot.TxScope()
	scope.RegisterPool(poolA, model.ProtocolUniswapV2, []common.Address{tokenA, tokenB})
	if _, err := snapshot.Commit(); err != nil {
		t.Fatalf("first commit failed: %v", err)
	}

	snapshot = NewSnapshot(store, 101)
	scope = snapshot.TxScope()
	scope.RegisterPool(poolA, model.ProtocolCurve, []common.Address{tokenA})
	if _, err := snapshot.Commit(); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}
