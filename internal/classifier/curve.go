package classifier

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"traceScope/internal/model"
)

// curveFactoryDecoders covers the Curve pool factory. Plain pools name
// their coins in calldata; metapools need the base pool's coins, which
// only the tracer can provide.
func curveFactoryDecoders() []*FactoryDecoder {
	return []*FactoryDecoder{
		{
			Protocol: model.ProtocolCurve,
			Factory:  curveFactoryAddr,
			ABI:      curveFactoryABI,
			Method:   "deploy_plain_pool",
			Transform: func(ctx context.Context, d *DiscoveryContext, deployed common.Address, traceIndex uint64, call *CallData) ([]*model.NewPool, error) {
				raw, err := call.Value("_coins")
				if err != nil {
					return nil, err
				}
				fixed, ok := raw.([4]common.Address)
				if !ok {
					return nil, fmt.Errorf("%w: _coins is %T, not address[4]", ErrDecode, raw)
				}

				coins := make([]common.Address, 0, len(fixed))
				for _, coin := range fixed {
					if coin == (common.Address{}) {
						continue
					}
					coins = append(coins, coin)
				}
				return []*model.NewPool{{
					TraceIndex: traceIndex,
					Protocol:   model.ProtocolCurve,
					Pool:       deployed,
					Tokens:     coins,
				}}, nil
			},
		},
		{
			Protocol: model.ProtocolCurve,
			Factory:  curveFactoryAddr,
			ABI:      curveFactoryABI,
			Method:   "deploy_metapool",
			Transform: func(ctx context.Context, d *DiscoveryContext, deployed common.Address, traceIndex uint64, call *CallData) ([]*model.NewPool, error) {
				coin, err := call.Address("_coin")
				if err != nil {
					return nil, err
				}
				basePool, err := call.Address("_base_pool")
				if err != nil {
					return nil, err
				}

				coins := []common.Address{coin}
				for i := int64(0); i < 4; i++ {
					baseCoin, err := fetchCoin(ctx, d.Tracer, basePool, i)
					if err != nil {
						// Base pools expose 2 to 4 coins; the first
						// failing index is the end of the set.
						if i == 0 {
							return nil, err
						}
						break
					}
					if baseCoin == (common.Address{}) {
						break
					}
					coins = append(coins, baseCoin)
				}

				d.Logger.Debug("curve metapool discovered",
					zap.String("pool", deployed.Hex()),
					zap.String("base_pool", basePool.Hex()),
					zap.Int("coins", len(coins)),
				)

				return []*model.NewPool{{
					TraceIndex: traceIndex,
					Protocol:   model.ProtocolCurve,
					Pool:       deployed,
					Tokens:     coins,
				}}, nil
			},
		},
	}
}
