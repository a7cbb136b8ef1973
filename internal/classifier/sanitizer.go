package classifier

import (
	"math/big"

	"traceScope/internal/model"
	"traceScope/internal/tree"
)

// sanitizer reconciles tax-token fee legs and removes call/log
// duplicate transfers. Both passes are transaction-local and running
// them twice equals running them once.
type sanitizer struct{}

func (s *sanitizer) sanitize(t *tree.TxTree) {
	s.reconcileTaxTokens(t)
	s.dropDuplicateTransfers(t)
}

type transferNode struct {
	node     *tree.Node
	transfer *model.Transfer
}

func liveTransfers(t *tree.TxTree) []transferNode {
	var out []transferNode
	t.PreOrder(func(n *tree.Node) bool {
		if transfer, ok := n.Action.(*model.Transfer); ok {
			out = append(out, transferNode{node: n, transfer: transfer})
		}
		return true
	})
	return out
}

// reconcileTaxTokens collapses an on-transfer fee pair into a single
// transfer: Transfer(A->B, x) followed in B's frame by
// Transfer(B->sink, f) of the same token becomes
// Transfer(A->B, x-f, fee=f).
func (s *sanitizer) reconcileTaxTokens(t *tree.TxTree) {
	transfers := liveTransfers(t)

	for i, first := range transfers {
		if !first.transfer.Fee.IsZero() {
			continue
		}
		for j := i + 1; j < len(transfers); j++ {
			second := transfers[j]
			if second.node.Deleted() {
				continue
			}
			if second.transfer.Token.Address != first.transfer.Token.Address {
				continue
			}
			if second.transfer.From != first.transfer.To {
				continue
			}
			// The first transfer of the token out of B must be the
			// fee leg; any other shape is an intervening transfer
			// and ends the pairing.
			if !second.transfer.Fee.IsZero() {
				break
			}
			if !isDescendantOrSame(t, first.node, second.node) {
				break
			}

			amount := new(big.Rat).Sub(first.transfer.Amount.Rat, second.transfer.Amount.Rat)
			first.transfer.Amount = model.NewRational(amount)
			first.transfer.Fee = second.transfer.Amount
			t.Prune([]tree.NodeIndex{second.node.Index})
			break
		}
	}
}

// dropDuplicateTransfers removes a call-derived transfer when the same
// movement also exists as a log-derived transfer in the same trace
// neighborhood, keeping the log-derived one.
func (s *sanitizer) dropDuplicateTransfers(t *tree.TxTree) {
	transfers := liveTransfers(t)

	for _, call := range transfers {
		if call.transfer.Origin != model.TransferFromCall || call.node.Deleted() {
			continue
		}
		for _, log := range transfers {
			if log.transfer.Origin != model.TransferFromLog || log.node.Deleted() {
				continue
			}
			if !sameTransfer(call.transfer, log.transfer) {
				continue
			}
			if !isNeighbor(call.node, log.node) {
				continue
			}
			t.Prune([]tree.NodeIndex{call.node.Index})
			break
		}
	}
}

func sameTransfer(a, b *model.Transfer) bool {
	return a.Token.Address == b.Token.Address &&
		a.From == b.From &&
		a.To == b.To &&
		a.Amount.Rat != nil && b.Amount.Rat != nil &&
		a.Amount.Cmp(b.Amount.Rat) == 0
}

// isNeighbor reports whether two nodes share a trace or sit in an
// immediate ancestor/descendant pair.
func isNeighbor(a, b *tree.Node) bool {
	if a.Index == b.Index {
		return true
	}
	return a.Parent == b.Index || b.Parent == a.Index
}

// isDescendantOrSame reports whether b is a (or the same) frame inside
// a's subtree.
func isDescendantOrSame(t *tree.TxTree, a, b *tree.Node) bool {
	for idx := b.Index; idx >= 0; {
		if idx == a.Index {
			return true
		}
		node := t.Node(idx)
		if node == nil {
			return false
		}
		idx = node.Parent
	}
	return false
}
