package classifier

import (
	"fmt"
	"math/big"

	"traceScope/internal/model"
)

func uniswapV3Decoders() []*ActionDecoder {
	return append(
		v3PoolDecoders(model.ProtocolUniswapV3),
		v3PoolDecoders(model.ProtocolSushiSwapV3)...,
	)
}

// v3PoolDecoders builds the pool decoder set for a V3-style protocol.
// Swap amounts are signed: positive flows into the pool.
func v3PoolDecoders(protocol model.Protocol) []*ActionDecoder {
	return []*ActionDecoder{
		{
			Protocol:  protocol,
			ABI:       uniswapV3PoolABI,
			Method:    "swap",
			WantsLogs: true,
			Logs:      []string{"Swap"},
			Transform: func(ctx *DecodeContext, call CallInfo, in *DecodedInput) (model.Action, error) {
				tokens, err := poolTokens(ctx, call.Target)
				if err != nil {
					return nil, err
				}
				if len(tokens) < 2 {
					return nil, fmt.Errorf("%w: pool %s has %d tokens", ErrMissingMetadata, call.Target.Hex(), len(tokens))
				}

				swapLog := in.Log(0)
				amount0, err := swapLog.BigInt("amount0")
				if err != nil {
					return nil, err
				}
				amount1, err := swapLog.BigInt("amount1")
				if err != nil {
					return nil, err
				}
				recipient, err := swapLog.Addr("recipient")
				if err != nil {
					return nil, err
				}

				tokenIn, tokenOut := tokens[0], tokens[1]
				amountIn, amountOut := amount0, amount1
				if amount0.Sign() < 0 {
					tokenIn, tokenOut = tokens[1], tokens[0]
					amountIn, amountOut = amount1, amount0
				}
				amountOut = new(big.Int).Neg(amountOut)

				return &model.Swap{
					TraceIndex: call.TraceIndex,
					Protocol:   protocol,
					From:       call.From,
					Recipient:  recipient,
					Pool:       call.Target,
					TokenIn:    tokenIn,
					TokenOut:   tokenOut,
					AmountIn:   model.RationalFromInt(amountIn, tokenIn.Decimals),
					AmountOut:  model.RationalFromInt(amountOut, tokenOut.Decimals),
					MsgValue:   call.Value,
				}, nil
			},
		},
		{
			Protocol:      protocol,
			ABI:           uniswapV3PoolABI,
			Method:        "mint",
			WantsCallData: true,
			WantsLogs:     true,
			Logs:          []string{"Mint"},
			Transform: func(ctx *DecodeContext, call CallInfo, in *DecodedInput) (model.Action, error) {
				tokens, err := poolTokens(ctx, call.Target)
				if err != nil {
					return nil, err
				}
				recipient, err := in.CallData.Address("recipient")
				if err != nil {
					return nil, err
				}
				amounts, err := v2PairAmounts(in.Log(0), tokens)
				if err != nil {
					return nil, err
				}
				return &model.Mint{
					TraceIndex: call.TraceIndex,
					Protocol:   protocol,
					From:       call.From,
					Recipient:  recipient,
					Pool:       call.Target,
					Tokens:     tokens,
					Amounts:    amounts,
				}, nil
			},
		},
		{
			Protocol:  protocol,
			ABI:       uniswapV3PoolABI,
			Method:    "burn",
			WantsLogs: true,
			Logs:      []string{"Burn"},
			Transform: func(ctx *DecodeContext, call CallInfo, in *DecodedInput) (model.Action, error) {
				tokens, err := poolTokens(ctx, call.Target)
				if err != nil {
					return nil, err
				}
				amounts, err := v2PairAmounts(in.Log(0), tokens)
				if err != nil {
					return nil, err
				}
				return &model.Burn{
					TraceIndex: call.TraceIndex,
					Protocol:   protocol,
					From:       call.From,
					Recipient:  call.From,
					Pool:       call.Target,
					Tokens:     tokens,
					Amounts:    amounts,
				}, nil
			},
		},
		{
			Protocol:  protocol,
			ABI:       uniswapV3PoolABI,
			Method:    "collect",
			WantsLogs: true,
			Logs:      []string{"Collect"},
			Transform: func(ctx *DecodeContext, call CallInfo, in *DecodedInput) (model.Action, error) {
				tokens, err := poolTokens(ctx, call.Target)
				if err != nil {
					return nil, err
				}
				recipient, err := in.Log(0).Addr("recipient")
				if err != nil {
					return nil, err
				}
				amounts, err := v2PairAmounts(in.Log(0), tokens)
				if err != nil {
					return nil, err
				}
				return &model.Collect{
					TraceIndex: call.TraceIndex,
					Protocol:   protocol,
					From:       call.From,
					Recipient:  recipient,
					Pool:       call.Target,
					Tokens:     tokens,
					Amounts:    amounts,
				}, nil
			},
		},
	}
}
