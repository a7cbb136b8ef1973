package classifier

import (
	"traceScope/internal/model"
)

// oneInchDecoders classifies aggregation-router swaps. The anchor only
// carries the outer legs; child pool swaps are attached by the
// multi-frame rewriter.
func oneInchDecoders() []*ActionDecoder {
	return []*ActionDecoder{
		{
			Protocol:        model.ProtocolOneInch,
			ABI:             oneInchRouterABI,
			Method:          "swap",
			WantsCallData:   true,
			WantsReturnData: true,
			Transform: func(ctx *DecodeContext, call CallInfo, in *DecodedInput) (model.Action, error) {
				desc, err := in.CallData.Tuple("desc")
				if err != nil {
					return nil, err
				}
				srcAddr, err := desc.Address("srcToken")
				if err != nil {
					return nil, err
				}
				dstAddr, err := desc.Address("dstToken")
				if err != nil {
					return nil, err
				}
				recipient, err := desc.Address("dstReceiver")
				if err != nil {
					return nil, err
				}
				returnAmount, err := in.ReturnData.BigInt("returnAmount")
				if err != nil {
					return nil, err
				}
				spentAmount, err := in.ReturnData.BigInt("spentAmount")
				if err != nil {
					return nil, err
				}

				tokenIn, amountIn, err := ctx.Normalize(srcAddr, spentAmount)
				if err != nil {
					return nil, err
				}
				tokenOut, amountOut, err := ctx.Normalize(dstAddr, returnAmount)
				if err != nil {
					return nil, err
				}

				return &model.AggregatorSwap{
					TraceIndex: call.TraceIndex,
					Protocol:   model.ProtocolOneInch,
					From:       call.MsgSender,
					Recipient:  recipient,
					TokenIn:    tokenIn,
					TokenOut:   tokenOut,
					AmountIn:   amountIn,
					AmountOut:  amountOut,
				}, nil
			},
		},
	}
}
