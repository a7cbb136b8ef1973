package classifier

import (
	"fmt"
	"math/big"

	"traceScope/internal/model"
)

// wad is the 18-decimal fixed-point base Maker quotes fees in.
var wad = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// makerPSMDecoders classifies PSM gem trades as swaps against DAI. The
// PSM's protocol row lists [dai, gem] as its token pair.
func makerPSMDecoders() []*ActionDecoder {
	return []*ActionDecoder{
		{
			Protocol:      model.ProtocolMakerPSM,
			ABI:           makerPSMABI,
			Method:        "buyGem",
			WantsCallData: true,
			WantsLogs:     true,
			Logs:          []string{"BuyGem"},
			Transform: func(ctx *DecodeContext, call CallInfo, in *DecodedInput) (model.Action, error) {
				dai, gem, err := psmTokens(ctx, call)
				if err != nil {
					return nil, err
				}
				recipient, err := in.CallData.Address("usr")
				if err != nil {
					return nil, err
				}
				gemAmt, err := in.CallData.BigInt("gemAmt")
				if err != nil {
					return nil, err
				}
				feeWad, err := in.Log(0).BigInt("fee")
				if err != nil {
					return nil, err
				}

				gemAmount := model.RationalFromInt(gemAmt, gem.Decimals)
				// fee is a wad rate on the gem value, paid in DAI.
				daiAmount := new(big.Rat).Mul(gemAmount.Rat, feeMultiplier(feeWad, 1))

				return &model.Swap{
					TraceIndex: call.TraceIndex,
					Protocol:   model.ProtocolMakerPSM,
					From:       call.From,
					Recipient:  recipient,
					Pool:       call.Target,
					TokenIn:    dai,
					TokenOut:   gem,
					AmountIn:   model.NewRational(daiAmount),
					AmountOut:  gemAmount,
					MsgValue:   call.Value,
				}, nil
			},
		},
		{
			Protocol:      model.ProtocolMakerPSM,
			ABI:           makerPSMABI,
			Method:        "sellGem",
			WantsCallData: true,
			WantsLogs:     true,
			Logs:          []string{"SellGem"},
			Transform: func(ctx *DecodeContext, call CallInfo, in *DecodedInput) (model.Action, error) {
				dai, gem, err := psmTokens(ctx, call)
				if err != nil {
					return nil, err
				}
				recipient, err := in.CallData.Address("usr")
				if err != nil {
					return nil, err
				}
				gemAmt, err := in.CallData.BigInt("gemAmt")
				if err != nil {
					return nil, err
				}
				feeWad, err := in.Log(0).BigInt("fee")
				if err != nil {
					return nil, err
				}

				gemAmount := model.RationalFromInt(gemAmt, gem.Decimals)
				daiAmount := new(big.Rat).Mul(gemAmount.Rat, feeMultiplier(feeWad, -1))

				return &model.Swap{
					TraceIndex: call.TraceIndex,
					Protocol:   model.ProtocolMakerPSM,
					From:       call.From,
					Recipient:  recipient,
					Pool:       call.Target,
					TokenIn:    gem,
					TokenOut:   dai,
					AmountIn:   gemAmount,
					AmountOut:  model.NewRational(daiAmount),
					MsgValue:   call.Value,
				}, nil
			},
		},
	}
}

func psmTokens(ctx *DecodeContext, call CallInfo) (dai, gem model.Token, err error) {
	tokens, err := poolTokens(ctx, call.Target)
	if err != nil {
		return model.Token{}, model.Token{}, err
	}
	if len(tokens) < 2 {
		return model.Token{}, model.Token{}, fmt.Errorf("%w: psm %s has %d tokens", ErrMissingMetadata, call.Target.Hex(), len(tokens))
	}
	return tokens[0], tokens[1], nil
}

// feeMultiplier returns 1 + sign*fee/wad.
func feeMultiplier(feeWad *big.Int, sign int64) *big.Rat {
	rate := new(big.Rat).SetFrac(new(big.Int).Mul(big.NewInt(sign), feeWad), wad)
	return rate.Add(rate, new(big.Rat).SetInt64(1))
}
