package classifier

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"traceScope/internal/metadata"
	"traceScope/internal/model"
)

// Tracer fetches extra init data from the factory context during
// discovery. It is the only async boundary in the pipeline.
type Tracer interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// TokenResolver loads token metadata for addresses the store does not
// know yet. The chain client implements it.
type TokenResolver interface {
	TokenInfo(ctx context.Context, token common.Address) (model.TokenInfo, error)
}

// DiscoveryContext carries the dependencies factory decoders may use.
type DiscoveryContext struct {
	Block    uint64
	Tracer   Tracer
	Resolver TokenResolver
	Scope    *metadata.TxScope
	Logger   *zap.Logger
}

// FactoryDecoder decodes one factory deployment function into the set
// of pools it created. Keyed on the factory address because the
// deployed contract is, by definition, not yet in the protocol table.
type FactoryDecoder struct {
	Protocol model.Protocol
	Factory  common.Address
	ABI      *lazyABI
	Method   string

	// Transform returns the pools deployed by this call. Usually one;
	// Curve meta factories may deploy several per call.
	Transform func(ctx context.Context, d *DiscoveryContext, deployed common.Address, traceIndex uint64, call *CallData) ([]*model.NewPool, error)
}

// Selector returns the 4-byte selector of the factory function.
func (d *FactoryDecoder) Selector() ([4]byte, error) {
	var sel [4]byte
	parsed, err := d.ABI.get()
	if err != nil {
		return sel, err
	}
	method, ok := parsed.Methods[d.Method]
	if !ok {
		return sel, fmt.Errorf("abi has no method %q", d.Method)
	}
	copy(sel[:], method.ID)
	return sel, nil
}

// Decode unpacks the parent calldata, runs the transform, registers
// each discovered pool into the transaction scope, and returns the
// NewPool actions anchored at the CREATE trace index.
func (d *FactoryDecoder) Decode(ctx context.Context, dctx *DiscoveryContext, create *model.Trace, parent *model.Trace) ([]*model.NewPool, error) {
	parsed, err := d.ABI.get()
	if err != nil {
		return nil, err
	}
	method, ok := parsed.Methods[d.Method]
	if !ok {
		return nil, fmt.Errorf("abi has no method %q", d.Method)
	}
	if len(parent.Input) < 4 {
		return nil, fmt.Errorf("%w: factory calldata shorter than selector", ErrDecode)
	}
	values, err := method.Inputs.Unpack(parent.Input[4:])
	if err != nil {
		return nil, fmt.Errorf("%w: factory calldata %s: %v", ErrDecode, d.Method, err)
	}

	pools, err := d.Transform(ctx, dctx, create.To, create.TraceIndex, newCallData(method.Inputs, values))
	if err != nil {
		return nil, err
	}

	for _, pool := range pools {
		dctx.Scope.RegisterPool(pool.Pool, pool.Protocol, pool.Tokens)
		dctx.resolveTokens(ctx, pool.Tokens)
	}
	return pools, nil
}

// resolveTokens backfills metadata for pool tokens the store does not
// know, so same-transaction activity on the new pool can normalize
// amounts.
func (d *DiscoveryContext) resolveTokens(ctx context.Context, tokens []common.Address) {
	if d.Resolver == nil {
		return
	}
	for _, token := range tokens {
		if _, ok := d.Scope.TokenInfo(token); ok {
			continue
		}
		info, err := d.Resolver.TokenInfo(ctx, token)
		if err != nil {
			d.Logger.Debug("token metadata fetch failed",
				zap.String("token", token.Hex()),
				zap.Error(err),
			)
			continue
		}
		d.Scope.RegisterToken(token, info)
	}
}

// fetchCoin reads coins(i) from a Curve pool through the tracer.
func fetchCoin(ctx context.Context, tracer Tracer, pool common.Address, i int64) (common.Address, error) {
	if tracer == nil {
		return common.Address{}, fmt.Errorf("%w: no tracer for coins(%d)", ErrMissingMetadata, i)
	}
	parsed, err := curvePoolABI.get()
	if err != nil {
		return common.Address{}, err
	}
	data, err := parsed.Pack("coins", big.NewInt(i))
	if err != nil {
		return common.Address{}, fmt.Errorf("pack coins: %w", err)
	}
	resp, err := tracer.CallContract(ctx, ethereum.CallMsg{To: &pool, Data: data}, nil)
	if err != nil {
		return common.Address{}, fmt.Errorf("call coins(%d): %w", i, err)
	}
	values, err := parsed.Unpack("coins", resp)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: coins(%d): %v", ErrDecode, i, err)
	}
	coin, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("%w: coins(%d) is %T", ErrDecode, i, values[0])
	}
	return coin, nil
}
