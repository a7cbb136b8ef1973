package classifier

import (
	"bytes"
	"context"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"traceScope/internal/metadata"
	"traceScope/internal/model"
	"traceScope/internal/tree"
)

// Classifier turns raw block traces into classified block trees.
// Transactions are independent once the metadata snapshot is taken and
// are classified in parallel; within a transaction classification is
// strictly sequential.
type Classifier struct {
	registry *Registry
	store    *metadata.Store
	tracer   Tracer
	logger   *zap.Logger
	workers  int
}

// NewClassifier builds a classifier over an immutable registry and a
// shared metadata store.
func NewClassifier(registry *Registry, store *metadata.Store, tracer Tracer, logger *zap.Logger, workers int) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers <= 0 {
		workers = 1
	}
	return &Classifier{
		registry: registry,
		store:    store,
		tracer:   tracer,
		logger:   logger,
		workers:  workers,
	}
}

// BlockResult is a classified block: the tree, the token addresses
// whose decimals were missing during classification, and the pools
// discovery committed to the store.
type BlockResult struct {
	Tree            *tree.BlockTree
	MissingTokens   []common.Address
	DiscoveredPools []metadata.Registration
	Errors          []model.DecodeError
}

// BuildBlockTree classifies every successful transaction of a block;
// failed transactions and transactions without traces are left out of
// the block tree. Discovery
// writes become visible to later blocks only after the snapshot
// commit; a metadata conflict fails the whole block, and a cancelled
// context discards all partial output.
func (c *Classifier) BuildBlockTree(ctx context.Context, block *model.BlockTraces) (*BlockResult, error) {
	snapshot := metadata.NewSnapshot(c.store, block.Header.Number)
	warnOnce := &logOnce{}

	results := make([]*txBuildResult, len(block.Txs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for i := range block.Txs {
		tx := &block.Txs[i]
		if !tx.Success || len(tx.Traces) == 0 {
			continue
		}
		i := i
		g.Go(func() error {
			builder := &treeBuilder{
				registry:    c.registry,
				scope:       snapshot.TxScope(),
				tracer:      c.tracer,
				logger:      c.logger,
				warnOnce:    warnOnce,
				block:       block.Header.Number,
				beneficiary: block.Header.Beneficiary,
			}

			result, err := builder.build(gctx, tx)
			if err != nil {
				return err
			}
			setPriorityFee(&result.Tree.GasDetails, block.Header.BaseFee)

			newRewriter(c.logger).rewrite(result.Tree, result.MultiFrame)
			(&sanitizer{}).sanitize(result.Tree)

			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	committed, err := snapshot.Commit()
	if err != nil {
		return nil, err
	}

	blockTree := &tree.BlockTree{Header: block.Header}
	var missing []common.Address
	var decodeErrors []model.DecodeError
	for _, result := range results {
		if result == nil {
			continue
		}
		blockTree.Txs = append(blockTree.Txs, result.Tree)
		missing = append(missing, result.MissingTokens...)
		decodeErrors = append(decodeErrors, result.Errors...)
	}

	return &BlockResult{
		Tree:            blockTree,
		MissingTokens:   dedupAddresses(missing),
		DiscoveredPools: committed,
		Errors:          decodeErrors,
	}, nil
}

func setPriorityFee(details *model.GasDetails, baseFee *hexutil.Big) {
	if details.EffectiveGasPrice == nil || baseFee == nil {
		return
	}
	details.PriorityFee = new(big.Int).Sub(details.EffectiveGasPrice, baseFee.ToInt())
}

func dedupAddresses(addrs []common.Address) []common.Address {
	if len(addrs) == 0 {
		return nil
	}
	sort.Slice(addrs, func(i, j int) bool {
		return bytes.Compare(addrs[i].Bytes(), addrs[j].Bytes()) < 0
	})
	out := addrs[:1]
	for _, addr := range addrs[1:] {
		if addr != out[len(out)-1] {
			out = append(out, addr)
		}
	}
	return out
}
