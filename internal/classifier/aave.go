package classifier

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"traceScope/internal/model"
)

func aaveDecoders() []*ActionDecoder {
	return append(
		aavePoolDecoders(model.ProtocolAaveV2),
		aavePoolDecoders(model.ProtocolAaveV3)...,
	)
}

// aavePoolDecoders builds the lending-pool decoder set. The V2 and V3
// pool surfaces share the call shapes the classifier cares about, so
// only the protocol tag differs.
func aavePoolDecoders(protocol model.Protocol) []*ActionDecoder {
	return []*ActionDecoder{
		{
			Protocol:      protocol,
			ABI:           aavePoolABI,
			Method:        "liquidationCall",
			WantsCallData: true,
			Transform: func(ctx *DecodeContext, call CallInfo, in *DecodedInput) (model.Action, error) {
				collateralAddr, err := in.CallData.Address("collateralAsset")
				if err != nil {
					return nil, err
				}
				debtAddr, err := in.CallData.Address("debtAsset")
				if err != nil {
					return nil, err
				}
				debtor, err := in.CallData.Address("user")
				if err != nil {
					return nil, err
				}
				debtToCover, err := in.CallData.BigInt("debtToCover")
				if err != nil {
					return nil, err
				}

				collateral, err := ctx.Token(collateralAddr)
				if err != nil {
					return nil, err
				}
				debt, coveredDebt, err := ctx.Normalize(debtAddr, debtToCover)
				if err != nil {
					return nil, err
				}

				// LiquidatedCollateral is filled by the rewriter from
				// the collateral transfer to the liquidator.
				return &model.Liquidation{
					TraceIndex:      call.TraceIndex,
					Protocol:        protocol,
					Pool:            call.Target,
					Liquidator:      call.MsgSender,
					Debtor:          debtor,
					CollateralAsset: collateral,
					DebtAsset:       debt,
					CoveredDebt:     coveredDebt,
				}, nil
			},
		},
		{
			Protocol:      protocol,
			ABI:           aavePoolABI,
			Method:        "flashLoan",
			WantsCallData: true,
			Transform: func(ctx *DecodeContext, call CallInfo, in *DecodedInput) (model.Action, error) {
				receiver, err := in.CallData.Address("receiverAddress")
				if err != nil {
					return nil, err
				}
				assetAddrs, err := in.CallData.Addresses("assets")
				if err != nil {
					return nil, err
				}
				rawAmounts, err := in.CallData.BigInts("amounts")
				if err != nil {
					return nil, err
				}
				return newFlashLoan(ctx, call, protocol, receiver, assetAddrs, rawAmounts)
			},
		},
		{
			Protocol:      protocol,
			ABI:           aavePoolABI,
			Method:        "flashLoanSimple",
			WantsCallData: true,
			Transform: func(ctx *DecodeContext, call CallInfo, in *DecodedInput) (model.Action, error) {
				receiver, err := in.CallData.Address("receiverAddress")
				if err != nil {
					return nil, err
				}
				asset, err := in.CallData.Address("asset")
				if err != nil {
					return nil, err
				}
				amount, err := in.CallData.BigInt("amount")
				if err != nil {
					return nil, err
				}
				return newFlashLoan(ctx, call, protocol, receiver, []common.Address{asset}, []*big.Int{amount})
			},
		},
	}
}

func newFlashLoan(ctx *DecodeContext, call CallInfo, protocol model.Protocol, receiver common.Address, assetAddrs []common.Address, rawAmounts []*big.Int) (model.Action, error) {
	assets := make([]model.Token, 0, len(assetAddrs))
	amounts := make([]model.Rational, 0, len(assetAddrs))
	for i, address := range assetAddrs {
		token, amount, err := ctx.Normalize(address, rawAmounts[i])
		if err != nil {
			return nil, err
		}
		assets = append(assets, token)
		amounts = append(amounts, amount)
	}

	// Child actions and repayments are filled by the rewriter.
	return &model.FlashLoan{
		TraceIndex: call.TraceIndex,
		Protocol:   protocol,
		From:       call.From,
		Pool:       call.Target,
		Receiver:   receiver,
		Assets:     assets,
		Amounts:    amounts,
	}, nil
}
