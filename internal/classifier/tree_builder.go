package classifier

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"traceScope/internal/metadata"
	"traceScope/internal/model"
	"traceScope/internal/tree"
)

// MissingTokenError reports a token lookup miss with the address, so
// the builder can collect tokens whose decimals need backfilling.
type MissingTokenError struct {
	Token common.Address
}

func (e *MissingTokenError) Error() string {
	return fmt.Sprintf("missing metadata: token %s", e.Token.Hex())
}

func (e *MissingTokenError) Unwrap() error { return ErrMissingMetadata }

// logOnce deduplicates warning logs per (address, block).
type logOnce struct {
	seen sync.Map
}

func (l *logOnce) first(key string) bool {
	_, loaded := l.seen.LoadOrStore(key, struct{}{})
	return !loaded
}

// txBuildResult is one transaction's tree plus the post-build work the
// rewriter and the block need.
type txBuildResult struct {
	Tree          *tree.TxTree
	MultiFrame    []uint64
	MissingTokens []common.Address
	Errors        []model.DecodeError
}

// treeBuilder walks one transaction's pre-ordered traces and produces
// its tree. It owns the transaction's metadata scope; no decoder sees
// siblings or children.
type treeBuilder struct {
	registry    *Registry
	scope       *metadata.TxScope
	tracer      Tracer
	logger      *zap.Logger
	warnOnce    *logOnce
	block       uint64
	beneficiary common.Address
	txHash      common.Hash
}

// build reconstructs the call hierarchy and classifies every frame.
// Exactly one node is produced per trace.
func (b *treeBuilder) build(ctx context.Context, tx *model.TxTraceList) (*txBuildResult, error) {
	b.txHash = tx.TxHash
	result := &txBuildResult{
		Tree: tree.NewTxTree(tx.TxHash, tx.TxIndex, len(tx.Traces)),
	}
	result.Tree.GasDetails = gasDetails(tx)

	// parents[d] is the node index of the open frame at depth d;
	// parentTraces mirrors it with the frame's trace for CREATE
	// dispatch, which needs the factory calldata.
	var parents []tree.NodeIndex
	var parentTraces []*model.Trace

	dctx := &DecodeContext{Block: b.block, Meta: b.scope, Logger: b.logger}

	for i := range tx.Traces {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		trace := &tx.Traces[i]
		depth := len(trace.TraceAddress)
		if depth > len(parents) {
			// Malformed depth annotation; attach to the deepest open
			// frame rather than dropping the trace.
			depth = len(parents)
		}

		parent := tree.NodeIndex(-1)
		var parentTrace *model.Trace
		if depth > 0 && depth <= len(parents) {
			parent = parents[depth-1]
			parentTrace = parentTraces[depth-1]
		}

		b.accountCoinbase(result.Tree, trace)

		action := b.classify(ctx, dctx, trace, parentTrace, result)
		idx := result.Tree.Insert(parent, action)

		if model.RequiresMultiFrame(action) {
			result.MultiFrame = append(result.MultiFrame, action.TraceIdx())
		}

		parents = append(parents[:depth], idx)
		parentTraces = append(parentTraces[:depth], trace)
	}

	return result, nil
}

// classify routes one frame through discovery or action dispatch and
// applies the error policy: nothing a single frame does may fail the
// transaction.
func (b *treeBuilder) classify(ctx context.Context, dctx *DecodeContext, trace *model.Trace, parentTrace *model.Trace, result *txBuildResult) model.Action {
	unclassified := &model.Unclassified{TraceIndex: trace.TraceIndex}

	if trace.Error != "" {
		return unclassified
	}
	if trace.CallType == model.CallTypeStatic {
		return unclassified
	}
	if trace.CallType == model.CallTypeCreate {
		return b.classifyCreate(ctx, trace, parentTrace)
	}

	if action, err := b.classifyCall(dctx, trace); err == nil {
		return action
	} else if !errors.Is(err, ErrNotRecognized) {
		b.reportError(trace, err, result)
		return unclassified
	}

	if len(trace.Logs) > 0 {
		action, err := decodeTransferLog(dctx, trace)
		if err == nil {
			return action
		}
		if !errors.Is(err, ErrNotRecognized) {
			b.reportError(trace, err, result)
			return unclassified
		}
	}

	if len(trace.Input) == 0 && trace.ValueInt().Sign() > 0 {
		return &model.EthTransfer{
			TraceIndex: trace.TraceIndex,
			From:       trace.From,
			To:         trace.To,
			Value:      trace.ValueInt(),
		}
	}

	return unclassified
}

// classifyCall resolves (protocol, selector) and runs the decoder.
// Unknown addresses fall back to the ERC20 selector classifier.
func (b *treeBuilder) classifyCall(dctx *DecodeContext, trace *model.Trace) (model.Action, error) {
	selector, ok := trace.Selector()
	if !ok {
		return nil, ErrNotRecognized
	}

	protocol := model.ProtocolERC20
	if info, found := b.scope.ProtocolInfo(trace.To); found {
		protocol = info.Protocol
	}

	decoder, found := b.registry.ActionDecoder(protocol, selector)
	if !found && protocol != model.ProtocolERC20 {
		decoder, found = b.registry.ActionDecoder(model.ProtocolERC20, selector)
	}
	if !found {
		return nil, ErrNotRecognized
	}

	call := CallInfo{
		TraceIndex: trace.TraceIndex,
		From:       trace.From,
		Target:     trace.To,
		MsgSender:  trace.From,
		Value:      trace.ValueInt(),
	}
	return decoder.Decode(dctx, trace, call)
}

// classifyCreate dispatches a CREATE frame through the discovery
// table, keyed on the parent call's target and selector.
func (b *treeBuilder) classifyCreate(ctx context.Context, trace *model.Trace, parentTrace *model.Trace) model.Action {
	unclassified := &model.Unclassified{TraceIndex: trace.TraceIndex}
	if parentTrace == nil {
		return unclassified
	}
	selector, ok := parentTrace.Selector()
	if !ok {
		return unclassified
	}
	decoder, found := b.registry.FactoryDecoder(parentTrace.To, selector)
	if !found {
		return unclassified
	}

	resolver, _ := b.tracer.(TokenResolver)
	dctx := &DiscoveryContext{
		Block:    b.block,
		Tracer:   b.tracer,
		Resolver: resolver,
		Scope:    b.scope,
		Logger:   b.logger,
	}
	pools, err := decoder.Decode(ctx, dctx, trace, parentTrace)
	if err != nil {
		b.logger.Warn("pool discovery failed",
			zap.String("factory", parentTrace.To.Hex()),
			zap.Uint64("trace_index", trace.TraceIndex),
			zap.Error(err),
		)
		return unclassified
	}
	if len(pools) == 0 {
		return unclassified
	}
	return pools[0]
}

// accountCoinbase folds direct block-beneficiary payments into the
// transaction's gas details.
func (b *treeBuilder) accountCoinbase(t *tree.TxTree, trace *model.Trace) {
	if trace.CallType != model.CallTypeCall || trace.Error != "" {
		return
	}
	if b.beneficiary == (common.Address{}) {
		return
	}
	if trace.To != b.beneficiary || trace.ValueInt().Sign() <= 0 {
		return
	}
	if t.GasDetails.CoinbaseTransfer == nil {
		t.GasDetails.CoinbaseTransfer = new(big.Int)
	}
	t.GasDetails.CoinbaseTransfer.Add(t.GasDetails.CoinbaseTransfer, trace.ValueInt())
}

// reportError applies the per-frame logging policy: decode failures
// always log, metadata misses log once per (address, block) and feed
// the missing-token backfill set.
func (b *treeBuilder) reportError(trace *model.Trace, err error, result *txBuildResult) {
	var missing *MissingTokenError
	if errors.As(err, &missing) {
		result.MissingTokens = append(result.MissingTokens, missing.Token)
		if b.warnOnce.first(fmt.Sprintf("%s:%d", missing.Token.Hex(), b.block)) {
			b.logger.Warn("metadata missing",
				zap.String("token", missing.Token.Hex()),
				zap.Uint64("block", b.block),
			)
		}
		return
	}
	if errors.Is(err, ErrMissingMetadata) {
		if b.warnOnce.first(fmt.Sprintf("%s:%d", trace.To.Hex(), b.block)) {
			b.logger.Warn("metadata missing",
				zap.String("address", trace.To.Hex()),
				zap.Uint64("block", b.block),
			)
		}
		return
	}
	b.logger.Warn("classification failed",
		zap.String("address", trace.To.Hex()),
		zap.Uint64("trace_index", trace.TraceIndex),
		zap.String("selector", selectorHex(trace)),
		zap.Error(err),
	)
	result.Errors = append(result.Errors, model.DecodeError{
		BlockNumber: b.block,
		TxHash:      b.txHash.Hex(),
		TraceIndex:  trace.TraceIndex,
		Address:     trace.To.Hex(),
		Selector:    selectorHex(trace),
		Error:       err.Error(),
	})
}

func selectorHex(trace *model.Trace) string {
	sel, ok := trace.Selector()
	if !ok {
		return ""
	}
	return hexutil.Encode(sel[:])
}

func gasDetails(tx *model.TxTraceList) model.GasDetails {
	details := model.GasDetails{GasUsed: tx.GasUsed}
	if tx.EffectiveGasPrice != nil {
		details.EffectiveGasPrice = tx.EffectiveGasPrice.ToInt()
	}
	return details
}
