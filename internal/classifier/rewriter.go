package classifier

import (
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"traceScope/internal/model"
	"traceScope/internal/tree"
)

// MultiFrameClassifier finishes an action whose economic effect spans
// descendant frames. Search selects candidate descendants; Parse
// mutates the anchor in place and returns the node indices to prune.
type MultiFrameClassifier struct {
	Kind   model.ActionKind
	Search func(model.Action) bool
	Parse  func(anchor model.Action, hits []*tree.Node) []tree.NodeIndex
}

// rewriter drains a transaction's marked anchors deepest-first, so
// outer wrappers observe inner rewrites already applied and pruning
// never invalidates an outer anchor.
type rewriter struct {
	classifiers map[model.ActionKind]*MultiFrameClassifier
	logger      *zap.Logger
}

func newRewriter(logger *zap.Logger) *rewriter {
	return &rewriter{
		classifiers: map[model.ActionKind]*MultiFrameClassifier{
			model.KindFlashLoan:      flashLoanClassifier(),
			model.KindLiquidation:    liquidationClassifier(),
			model.KindAggregatorSwap: aggregatorSwapClassifier(),
		},
		logger: logger,
	}
}

func (r *rewriter) rewrite(t *tree.TxTree, marked []uint64) {
	sorted := append([]uint64(nil), marked...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] > sorted[j] })

	for _, traceIndex := range sorted {
		node := t.FindByTraceIndex(traceIndex)
		if node == nil {
			continue
		}
		clf, ok := r.classifiers[node.Action.Kind()]
		if !ok {
			continue
		}

		hits := t.Collect(node.Index, clf.Search)
		if len(hits) == 0 {
			// The anchor is kept unchanged, never erased.
			r.logger.Warn("incomplete rewrite",
				zap.String("tx", t.TxHash.Hex()),
				zap.Uint64("trace_index", traceIndex),
				zap.String("kind", node.Action.Kind().String()),
				zap.Error(ErrIncompleteRewrite),
			)
			continue
		}

		t.Prune(clf.Parse(node.Action, hits))
	}
}

// liquidationClassifier fills the collateral amount from the transfer
// paid out to the liquidator and consumes that transfer.
func liquidationClassifier() *MultiFrameClassifier {
	return &MultiFrameClassifier{
		Kind: model.KindLiquidation,
		Search: func(a model.Action) bool {
			return a.Kind() == model.KindTransfer
		},
		Parse: func(anchor model.Action, hits []*tree.Node) []tree.NodeIndex {
			liq := anchor.(*model.Liquidation)

			pick := func(requireToken bool) *tree.Node {
				for _, hit := range hits {
					transfer := hit.Action.(*model.Transfer)
					if transfer.To != liq.Liquidator {
						continue
					}
					if requireToken && transfer.Token.Address != liq.CollateralAsset.Address {
						continue
					}
					return hit
				}
				return nil
			}

			hit := pick(true)
			if hit == nil {
				hit = pick(false)
			}
			if hit == nil {
				return nil
			}
			liq.LiquidatedCollateral = hit.Action.(*model.Transfer).Amount
			return []tree.NodeIndex{hit.Index}
		},
	}
}

// flashLoanClassifier folds descendant activity into the loan frame:
// swaps, mints, burns and nested loans become child actions, transfers
// back to the disbursing reserve become repayments, and the fee per
// asset is repayment minus principal.
func flashLoanClassifier() *MultiFrameClassifier {
	return &MultiFrameClassifier{
		Kind: model.KindFlashLoan,
		Search: func(a model.Action) bool {
			switch a.Kind() {
			case model.KindSwap, model.KindMint, model.KindBurn, model.KindTransfer,
				model.KindLiquidation, model.KindFlashLoan, model.KindAggregatorSwap:
				return true
			default:
				return false
			}
		},
		Parse: func(anchor model.Action, hits []*tree.Node) []tree.NodeIndex {
			loan := anchor.(*model.FlashLoan)
			var prune []tree.NodeIndex

			assetIndex := func(token common.Address) int {
				for i, asset := range loan.Assets {
					if asset.Address == token {
						return i
					}
				}
				return -1
			}

			// Reserves observed disbursing the loan, per asset. A
			// later transfer of the asset back to its reserve is the
			// repayment.
			reserves := make(map[common.Address]common.Address)

			for _, hit := range hits {
				transfer, isTransfer := hit.Action.(*model.Transfer)
				if !isTransfer {
					loan.ChildActions = append(loan.ChildActions, hit.Action)
					prune = append(prune, hit.Index)
					continue
				}

				if i := assetIndex(transfer.Token.Address); i >= 0 &&
					transfer.To == loan.Receiver &&
					!loan.Amounts[i].IsZero() &&
					transfer.Amount.Cmp(loan.Amounts[i].Rat) == 0 {
					reserves[transfer.Token.Address] = transfer.From
					continue
				}

				if reserve, ok := reserves[transfer.Token.Address]; ok &&
					transfer.From == loan.Receiver && transfer.To == reserve {
					loan.Repayments = append(loan.Repayments, transfer)
					prune = append(prune, hit.Index)
					continue
				}

				loan.ChildActions = append(loan.ChildActions, hit.Action)
				prune = append(prune, hit.Index)
			}

			loan.FeesPaid = loanFees(loan)
			return prune
		},
	}
}

// loanFees computes repayment minus principal per asset, zero when no
// repayment was identified.
func loanFees(loan *model.FlashLoan) []model.Rational {
	fees := make([]model.Rational, len(loan.Assets))
	for i, asset := range loan.Assets {
		fee := new(big.Rat)
		for _, repay := range loan.Repayments {
			if repay.Token.Address == asset.Address {
				fee.Add(fee, repay.Amount.Rat)
			}
		}
		if fee.Sign() != 0 && !loan.Amounts[i].IsZero() {
			fee.Sub(fee, loan.Amounts[i].Rat)
		} else {
			fee = new(big.Rat)
		}
		fees[i] = model.NewRational(fee)
	}
	return fees
}

// aggregatorSwapClassifier attaches the pool swaps executed under the
// router frame and backfills outer amounts when the router call could
// not provide them.
func aggregatorSwapClassifier() *MultiFrameClassifier {
	return &MultiFrameClassifier{
		Kind: model.KindAggregatorSwap,
		Search: func(a model.Action) bool {
			return a.Kind() == model.KindSwap
		},
		Parse: func(anchor model.Action, hits []*tree.Node) []tree.NodeIndex {
			agg := anchor.(*model.AggregatorSwap)
			var prune []tree.NodeIndex

			for _, hit := range hits {
				agg.ChildSwaps = append(agg.ChildSwaps, hit.Action.(*model.Swap))
				prune = append(prune, hit.Index)
			}

			if len(agg.ChildSwaps) > 0 {
				first := agg.ChildSwaps[0]
				last := agg.ChildSwaps[len(agg.ChildSwaps)-1]
				if agg.AmountIn.IsZero() {
					agg.TokenIn = first.TokenIn
					agg.AmountIn = first.AmountIn
				}
				if agg.AmountOut.IsZero() {
					agg.TokenOut = last.TokenOut
					agg.AmountOut = last.AmountOut
				}
			}
			return prune
		},
	}
}
