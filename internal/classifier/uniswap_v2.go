package classifier

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"traceScope/internal/model"
)

// poolTokens resolves the token pair registered for a pool.
func poolTokens(ctx *DecodeContext, pool common.Address) ([]model.Token, error) {
	info, ok := ctx.Meta.ProtocolInfo(pool)
	if !ok {
		return nil, fmt.Errorf("%w: pool %s", ErrMissingMetadata, pool.Hex())
	}
	tokens := make([]model.Token, 0, len(info.Tokens))
	for _, address := range info.Tokens {
		token, err := ctx.Token(address)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, nil
}

func uniswapV2Decoders() []*ActionDecoder {
	return append(
		v2PairDecoders(model.ProtocolUniswapV2),
		v2PairDecoders(model.ProtocolSushiSwapV2)...,
	)
}

// v2PairDecoders builds the pair decoder set for a V2-style protocol.
// SushiSwap pairs are byte-identical to Uniswap pairs, so the bodies
// are shared and only the protocol tag differs.
func v2PairDecoders(protocol model.Protocol) []*ActionDecoder {
	return []*ActionDecoder{
		{
			Protocol:  protocol,
			ABI:       uniswapV2PairABI,
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
				amount0In, err := swapLog.BigInt("amount0In")
				if err != nil {
					return nil, err
				}
				amount1In, err := swapLog.BigInt("amount1In")
				if err != nil {
					return nil, err
				}
				amount0Out, err := swapLog.BigInt("amount0Out")
				if err != nil {
					return nil, err
				}
				amount1Out, err := swapLog.BigInt("amount1Out")
				if err != nil {
					return nil, err
				}
				recipient, err := swapLog.Addr("to")
				if err != nil {
					return nil, err
				}

				tokenIn, tokenOut := tokens[0], tokens[1]
				amountIn, amountOut := amount0In, amount1Out
				if amount0In.Sign() == 0 {
					tokenIn, tokenOut = tokens[1], tokens[0]
					amountIn, amountOut = amount1In, amount0Out
				}

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
			ABI:           uniswapV2PairABI,
			Method:        "mint",
			WantsCallData: true,
			WantsLogs:     true,
			Logs:          []string{"Mint"},
			Transform: func(ctx *DecodeContext, call CallInfo, in *DecodedInput) (model.Action, error) {
				tokens, err := poolTokens(ctx, call.Target)
				if err != nil {
					return nil, err
				}
				recipient, err := in.CallData.Address("to")
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
			ABI:       uniswapV2PairABI,
			Method:    "burn",
			WantsLogs: true,
			Logs:      []string{"Burn"},
			Transform: func(ctx *DecodeContext, call CallInfo, in *DecodedInput) (model.Action, error) {
				tokens, err := poolTokens(ctx, call.Target)
				if err != nil {
					return nil, err
				}
				recipient, err := in.Log(0).Addr("to")
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
					Recipient:  recipient,
					Pool:       call.Target,
					Tokens:     tokens,
					Amounts:    amounts,
				}, nil
			},
		},
	}
}

func v2PairAmounts(log *DecodedLog, tokens []model.Token) ([]model.Rational, error) {
	if len(tokens) < 2 {
		return nil, fmt.Errorf("%w: pair needs two tokens", ErrMissingMetadata)
	}
	amount0, err := log.BigInt("amount0")
	if err != nil {
		return nil, err
	}
	amount1, err := log.BigInt("amount1")
	if err != nil {
		return nil, err
	}
	return []model.Rational{
		model.RationalFromInt(amount0, tokens[0].Decimals),
		model.RationalFromInt(amount1, tokens[1].Decimals),
	}, nil
}
