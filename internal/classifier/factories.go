package classifier

import (
	"bytes"
	"context"

	"github.com/ethereum/go-ethereum/common"

	"traceScope/internal/model"
)

// Mainnet factory addresses the discovery pipeline is keyed on.
var (
	uniswapV2FactoryAddr   = common.HexToAddress("0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f")
	sushiSwapV2FactoryAddr = common.HexToAddress("0xC0AEe478e3658e2610c5F7A4A2E1777cE9e4f2Ac")
	uniswapV3FactoryAddr   = common.HexToAddress("0x1F98431c8aD98523631AE4a59f267346ea31F984")
	sushiSwapV3FactoryAddr = common.HexToAddress("0xbACEB8eC6b9355Dfc0269C18bac9d6E2Bdc29C4F")
	curveFactoryAddr       = common.HexToAddress("0xB9fC157394Af804a3578134A6585C0dc9cc990d4")
)

func uniswapFactoryDecoders() []*FactoryDecoder {
	return []*FactoryDecoder{
		v2FactoryDecoder(model.ProtocolUniswapV2, uniswapV2FactoryAddr),
		v2FactoryDecoder(model.ProtocolSushiSwapV2, sushiSwapV2FactoryAddr),
		v3FactoryDecoder(model.ProtocolUniswapV3, uniswapV3FactoryAddr),
		v3FactoryDecoder(model.ProtocolSushiSwapV3, sushiSwapV3FactoryAddr),
	}
}

func v2FactoryDecoder(protocol model.Protocol, factory common.Address) *FactoryDecoder {
	return &FactoryDecoder{
		Protocol: protocol,
		Factory:  factory,
		ABI:      uniswapV2FactoryABI,
		Method:   "createPair",
		Transform: func(ctx context.Context, d *DiscoveryContext, deployed common.Address, traceIndex uint64, call *CallData) ([]*model.NewPool, error) {
			tokenA, err := call.Address("tokenA")
			if err != nil {
				return nil, err
			}
			tokenB, err := call.Address("tokenB")
			if err != nil {
				return nil, err
			}
			return []*model.NewPool{{
				TraceIndex: traceIndex,
				Protocol:   protocol,
				Pool:       deployed,
				Tokens:     sortTokenPair(tokenA, tokenB),
			}}, nil
		},
	}
}

func v3FactoryDecoder(protocol model.Protocol, factory common.Address) *FactoryDecoder {
	return &FactoryDecoder{
		Protocol: protocol,
		Factory:  factory,
		ABI:      uniswapV3FactoryABI,
		Method:   "createPool",
		Transform: func(ctx context.Context, d *DiscoveryContext, deployed common.Address, traceIndex uint64, call *CallData) ([]*model.NewPool, error) {
			tokenA, err := call.Address("tokenA")
			if err != nil {
				return nil, err
			}
			tokenB, err := call.Address("tokenB")
			if err != nil {
				return nil, err
			}
			return []*model.NewPool{{
				TraceIndex: traceIndex,
				Protocol:   protocol,
				Pool:       deployed,
				Tokens:     sortTokenPair(tokenA, tokenB),
			}}, nil
		},
	}
}

// sortTokenPair orders a pair the way the factories do: token0 is the
// numerically lower address.
func sortTokenPair(a, b common.Address) []common.Address {
	if bytes.Compare(a.Bytes(), b.Bytes()) > 0 {
		a, b = b, a
	}
	return []common.Address{a, b}
}
