package tree

import (
	"github.com/ethereum/go-ethereum/common"

	"traceScope/internal/model"
)

// NodeIndex addresses a node inside a transaction tree arena. Indices
// stay stable across pruning; pruned nodes are tombstoned, not moved.
type NodeIndex int

// Node is one classified trace frame. Children are held by index so
// actions can be rewritten in place without aliasing hazards.
type Node struct {
	Index    NodeIndex
	Parent   NodeIndex
	Children []NodeIndex
	Action   model.Action
	deleted  bool
}

// Deleted reports whether the node was pruned by the rewriter or
// sanitizer.
func (n *Node) Deleted() bool { return n.deleted }

// TxTree is the classified tree for one transaction. The root is the
// top-level call; pre-order over live nodes matches trace order.
type TxTree struct {
	TxHash     common.Hash
	TxIndex    uint64
	GasDetails model.GasDetails
	nodes      []Node
}

// NewTxTree allocates a tree with room for n nodes.
func NewTxTree(txHash common.Hash, txIndex uint64, n int) *TxTree {
	return &TxTree{
		TxHash:  txHash,
		TxIndex: txIndex,
		nodes:   make([]Node, 0, n),
	}
}

// Insert appends a node under parent and returns its index. Pass -1 as
// parent for the root. Traces arrive pre-ordered, so appending keeps
// the arena in pre-order.
func (t *TxTree) Insert(parent NodeIndex, action model.Action) NodeIndex {
	idx := NodeIndex(len(t.nodes))
	t.nodes = append(t.nodes, Node{
		Index:  idx,
		Parent: parent,
		Action: action,
	})
	if parent >= 0 {
		t.nodes[parent].Children = append(t.nodes[parent].Children, idx)
	}
	return idx
}

// Node returns the node at idx, or nil if out of range.
func (t *TxTree) Node(idx NodeIndex) *Node {
	if idx < 0 || int(idx) >= len(t.nodes) {
		return nil
	}
	return &t.nodes[idx]
}

// Len returns the total node count including pruned nodes.
func (t *TxTree) Len() int { return len(t.nodes) }

// Root returns the root node, or nil for an empty tree.
func (t *TxTree) Root() *Node {
	if len(t.nodes) == 0 {
		return nil
	}
	return &t.nodes[0]
}

// PreOrder visits every live node in pre-order. Returning false stops
// the walk.
func (t *TxTree) PreOrder(visit func(*Node) bool) {
	if len(t.nodes) == 0 {
		return
	}
	t.walk(0, visit)
}

func (t *TxTree) walk(idx NodeIndex, visit func(*Node) bool) bool {
	node := &t.nodes[idx]
	if !node.deleted {
		if !visit(node) {
			return false
		}
	}
	for _, child := range node.Children {
		if !t.walk(child, visit) {
			return false
		}
	}
	return true
}

// Collect returns the live descendants of idx (idx excluded) whose
// action satisfies pred, in pre-order.
func (t *TxTree) Collect(idx NodeIndex, pred func(model.Action) bool) []*Node {
	var hits []*Node
	node := t.Node(idx)
	if node == nil {
		return nil
	}
	for _, child := range node.Children {
		t.walk(child, func(n *Node) bool {
			if pred(n.Action) {
				hits = append(hits, n)
			}
			return true
		})
	}
	return hits
}

// Prune tombstones the given nodes. Their subtrees stay reachable;
// only the listed nodes disappear from traversal.
func (t *TxTree) Prune(indices []NodeIndex) {
	for _, idx := range indices {
		if node := t.Node(idx); node != nil {
			node.deleted = true
		}
	}
}

// FindByTraceIndex returns the live node carrying the given trace
// index, or nil.
func (t *TxTree) FindByTraceIndex(traceIndex uint64) *Node {
	var found *Node
	t.PreOrder(func(n *Node) bool {
		if n.Action.TraceIdx() == traceIndex {
			found = n
			return false
		}
		return true
	})
	return found
}

// LiveCount returns the number of nodes still in the tree.
func (t *TxTree) LiveCount() int {
	count := 0
	t.PreOrder(func(*Node) bool {
		count++
		return true
	})
	return count
}

// BlockTree is the classifier output for one block: transaction trees
// in block order plus the header summary. Immutable once emitted.
type BlockTree struct {
	Header model.BlockHeader
	Txs    []*TxTree
}
