package tree

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"traceScope/internal/model"
)

func buildTestTree(t *testing.T) *TxTree {
	t.Helper()
	tt := NewTxTree(common.Hash{}, 0, 5)
	root := tt.Insert(-1, &model.Unclassified{TraceIndex: 0})
	child1 := tt.Insert(root, &model.Transfer{TraceIndex: 1})
	tt.Insert(child1, &model.Transfer{TraceIndex: 2})
	tt.Insert(root, &model.Unclassified{TraceIndex: 3})
	return tt
}

func TestPreOrderMonotoneIndices(t *testing.T) {
	tt := buildTestTree(t)

	var indices []uint64
	tt.PreOrder(func(n *Node) bool {
		indices = append(indices, n.Action.TraceIdx())
		return true
	})

	if len(indices) != 4 {
		t.Fatalf("expected 4 nodes, got %d", len(indices))
	}
	for i := 1; i < len(indices); i++ {
		if indices[i] <= indices[i-1] {
			t.Fatalf("indices not strictly increasing: %v", indices)
		}
	}
}

func TestCollectExcludesRoot(t *testing.T) {
	tt := buildTestTree(t)

	hits := tt.Collect(0, func(a model.Action) bool {
		return a.Kind() == model.KindTransfer
	})
	if len(hits) != 2 {
		t.Fatalf("expected 2 transfer descendants, got %d", len(hits))
	}

	// Collect from a subtree root does not return that root.
	hits = tt.Collect(1, func(a model.Action) bool {
		return a.Kind() == model.KindTransfer
	})
	if len(hits) != 1 || hits[0].Action.TraceIdx() != 2 {
		t.Fatalf("expected only the nested transfer, got %d hits", len(hits))
	}
}

func TestPruneRemovesFromTraversal(t *testing.T) {
	tt := buildTestTree(t)

	node := tt.FindByTraceIndex(2)
	if node == nil {
		t.Fatalf("node 2 not found")
	}
	tt.Prune([]NodeIndex{node.Index})

	if tt.LiveCount() != 3 {
		t.Fatalf("expected 3 live nodes, got %d", tt.LiveCount())
	}
	if tt.FindByTraceIndex(2) != nil {
		t.Fatalf("pruned node still reachable")
	}
	// Arena indices stay stable after pruning.
	if got := tt.Node(3).Action.TraceIdx(); got != 3 {
		t.Fatalf("expected trace index 3 at node 3, got %d", got)
	}
}

func TestPruneKeepsSubtreeReachable(t *testing.T) {
	tt := buildTestTree(t)

	// Pruning an inner node keeps its children in traversal.
	node := tt.FindByTraceIndex(1)
	tt.Prune([]NodeIndex{node.Index})

	var indices []uint64
	tt.PreOrder(func(n *Node) bool {
		indices = append(indices, n.Action.TraceIdx())
		return true
	})
	want := []uint64{0, 2, 3}
	if len(indices) != len(want) {
		t.Fatalf("expected %v, got %v", want, indices)
	}
	for i := range want {
		if indices[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, indices)
		}
	}
}
