package classifier

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"traceScope/internal/metadata"
	"traceScope/internal/model"
)

var (
	usdcAddr = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	wethAddr = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	daiAddr  = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	wbtcAddr = common.HexToAddress("0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599")

	v2PoolAddr = common.HexToAddress("0xB4e16d0168e52d35CaCD2c6185b44281Ec28C9Dc")
	psmAddr    = common.HexToAddress("0x89B78CfA322F6C5dE0aBcEecab66Aee45393cC5A")
	aaveAddr   = common.HexToAddress("0x87870Bca3F3fD6335C3F4ce8392D69350B4fA4E2")

	userAddr  = common.HexToAddress("0x1111111111111111111111111111111111111111")
	otherAddr = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func testStore(t *testing.T) *metadata.Store {
	t.Helper()
	store := metadata.NewStore()

	store.SetToken(usdcAddr, model.TokenInfo{Symbol: "USDC", Decimals: 6})
	store.SetToken(wethAddr, model.TokenInfo{Symbol: "WETH", Decimals: 18})
	store.SetToken(daiAddr, model.TokenInfo{Symbol: "DAI", Decimals: 18})
	store.SetToken(wbtcAddr, model.TokenInfo{Symbol: "WBTC", Decimals: 8})

	store.SetProtocol(v2PoolAddr, model.ProtocolInfo{
		Protocol: model.ProtocolUniswapV2,
		Tokens:   []common.Address{usdcAddr, wethAddr},
	})
	store.SetProtocol(psmAddr, model.ProtocolInfo{
		Protocol: model.ProtocolMakerPSM,
		Tokens:   []common.Address{daiAddr, usdcAddr},
	})
	store.SetProtocol(aaveAddr, model.ProtocolInfo{
		Protocol: model.ProtocolAaveV3,
	})

	return store
}

func mustPackInput(t *testing.T, la *lazyABI, method string, args ...interface{}) hexutil.Bytes {
	t.Helper()
	parsed, err := la.get()
	if err != nil {
		t.Fatalf("parse abi: %v", err)
	}
	data, err := parsed.Pack(method, args...)
	if err != nil {
		t.Fatalf("pack %s: %v", method, err)
	}
	return data
}

func mustPackLog(t *testing.T, la *lazyABI, event string, indexed []common.Hash, dataVals ...interface{}) model.Log {
	t.Helper()
	parsed, err := la.get()
	if err != nil {
		t.Fatalf("parse abi: %v", err)
	}
	ev, ok := parsed.Events[event]
	if !ok {
		t.Fatalf("abi has no event %s", event)
	}
	data, err := ev.Inputs.NonIndexed().Pack(dataVals...)
	if err != nil {
		t.Fatalf("pack %s data: %v", event, err)
	}
	return model.Log{
		Topics: append([]common.Hash{ev.ID}, indexed...),
		Data:   data,
	}
}

func addrTopic(address common.Address) common.Hash {
	return common.BytesToHash(common.LeftPadBytes(address.Bytes(), 32))
}

func bigTopic(v *big.Int) common.Hash {
	return common.BigToHash(v)
}

func rat(num, den int64) *big.Rat {
	return big.NewRat(num, den)
}

func testRat(t *testing.T, got model.Rational, want *big.Rat, what string) {
	t.Helper()
	if got.Rat == nil || got.Cmp(want) != 0 {
		t.Fatalf("%s: expected %s, got %v", what, want.RatString(), got)
	}
}
