package classifier

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"traceScope/internal/model"
)

// erc20Decoders classifies direct transfer/transferFrom calls on token
// contracts. These are call-derived transfers; the sanitizer drops
// them when a log-derived twin exists in the same trace neighborhood.
func erc20Decoders() []*ActionDecoder {
	return []*ActionDecoder{
		{
			Protocol:      model.ProtocolERC20,
			ABI:           erc20ABI,
			Method:        "transfer",
			WantsCallData: true,
			Transform: func(ctx *DecodeContext, call CallInfo, in *DecodedInput) (model.Action, error) {
				to, err := in.CallData.Address("to")
				if err != nil {
					return nil, err
				}
				value, err := in.CallData.BigInt("value")
				if err != nil {
					return nil, err
				}
				return newCallTransfer(ctx, call, call.From, to, value)
			},
		},
		{
			Protocol:      model.ProtocolERC20,
			ABI:           erc20ABI,
			Method:        "transferFrom",
			WantsCallData: true,
			Transform: func(ctx *DecodeContext, call CallInfo, in *DecodedInput) (model.Action, error) {
				from, err := in.CallData.Address("from")
				if err != nil {
					return nil, err
				}
				to, err := in.CallData.Address("to")
				if err != nil {
					return nil, err
				}
				value, err := in.CallData.BigInt("value")
				if err != nil {
					return nil, err
				}
				return newCallTransfer(ctx, call, from, to, value)
			},
		},
	}
}

func newCallTransfer(ctx *DecodeContext, call CallInfo, from, to common.Address, value *big.Int) (model.Action, error) {
	token, amount, err := ctx.Normalize(call.Target, value)
	if err != nil {
		return nil, err
	}
	return &model.Transfer{
		TraceIndex: call.TraceIndex,
		From:       from,
		To:         to,
		Token:      token,
		Amount:     amount,
		Origin:     model.TransferFromCall,
	}, nil
}

// decodeTransferLog is the fallback for frames no decoder matched: the
// first Transfer event in the frame becomes a log-derived Transfer
// action. On delegate frames the emitting proxy is the effective token
// address.
func decodeTransferLog(ctx *DecodeContext, trace *model.Trace) (model.Action, error) {
	parsed, err := erc20ABI.get()
	if err != nil {
		return nil, err
	}
	event := parsed.Events["Transfer"]

	for i := range trace.Logs {
		log := &trace.Logs[i]
		if len(log.Topics) != 3 || log.Topics[0] != event.ID {
			continue
		}
		decoded, err := decodeEventLog(&event, log)
		if err != nil {
			return nil, err
		}
		from, err := decoded.Addr("from")
		if err != nil {
			return nil, err
		}
		to, err := decoded.Addr("to")
		if err != nil {
			return nil, err
		}
		value, err := decoded.BigInt("value")
		if err != nil {
			return nil, err
		}

		tokenAddr := log.Address
		if trace.CallType == model.CallTypeDelegate {
			tokenAddr = trace.From
		}
		token, amount, err := ctx.Normalize(tokenAddr, value)
		if err != nil {
			return nil, err
		}
		return &model.Transfer{
			TraceIndex: trace.TraceIndex,
			From:       from,
			To:         to,
			Token:      token,
			Amount:     amount,
			Origin:     model.TransferFromLog,
		}, nil
	}
	return nil, fmt.Errorf("%w: no transfer log", ErrNotRecognized)
}
