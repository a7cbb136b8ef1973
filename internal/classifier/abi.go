package classifier

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// lazyABI parses an embedded ABI JSON once on first use.
type lazyABI struct {
	json string
	once sync.Once
	abi  abi.ABI
	err  error
}

func (l *lazyABI) get() (abi.ABI, error) {
	l.once.Do(func() {
		l.abi, l.err = abi.JSON(strings.NewReader(l.json))
	})
	return l.abi, l.err
}

var erc20ABI = &lazyABI{json: `[
  {"inputs": [{"name": "to", "type": "address"}, {"name": "value", "type": "uint256"}], "name": "transfer", "outputs": [{"type": "bool"}], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [{"name": "from", "type": "address"}, {"name": "to", "type": "address"}, {"name": "value", "type": "uint256"}], "name": "transferFrom", "outputs": [{"type": "bool"}], "stateMutability": "nonpayable", "type": "function"},
  {"anonymous": false, "inputs": [
    {"indexed": true, "name": "from", "type": "address"},
    {"indexed": true, "name": "to", "type": "address"},
    {"indexed": false, "name": "value", "type": "uint256"}
  ], "name": "Transfer", "type": "event"}
]`}

var uniswapV2PairABI = &lazyABI{json: `[
  {"inputs": [
    {"name": "amount0Out", "type": "uint256"},
    {"name": "amount1Out", "type": "uint256"},
    {"name": "to", "type": "address"},
    {"name": "data", "type": "bytes"}
  ], "name": "swap", "outputs": [], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [{"name": "to", "type": "address"}], "name": "mint", "outputs": [{"name": "liquidity", "type": "uint256"}], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [{"name": "to", "type": "address"}], "name": "burn", "outputs": [{"name": "amount0", "type": "uint256"}, {"name": "amount1", "type": "uint256"}], "stateMutability": "nonpayable", "type": "function"},
  {"anonymous": false, "inputs": [
    {"indexed": true, "name": "sender", "type": "address"},
    {"indexed": false, "name": "amount0In", "type": "uint256"},
    {"indexed": false, "name": "amount1In", "type": "uint256"},
    {"indexed": false, "name": "amount0Out", "type": "uint256"},
    {"indexed": false, "name": "amount1Out", "type": "uint256"},
    {"indexed": true, "name": "to", "type": "address"}
  ], "name": "Swap", "type": "event"},
  {"anonymous": false, "inputs": [
    {"indexed": true, "name": "sender", "type": "address"},
    {"indexed": false, "name": "amount0", "type": "uint256"},
    {"indexed": false, "name": "amount1", "type": "uint256"}
  ], "name": "Mint", "type": "event"},
  {"anonymous": false, "inputs": [
    {"indexed": true, "name": "sender", "type": "address"},
    {"indexed": false, "name": "amount0", "type": "uint256"},
    {"indexed": false, "name": "amount1", "type": "uint256"},
    {"indexed": true, "name": "to", "type": "address"}
  ], "name": "Burn", "type": "event"}
]`}

var uniswapV2FactoryABI = &lazyABI{json: `[
  {"inputs": [
    {"name": "tokenA", "type": "address"},
    {"name": "tokenB", "type": "address"}
  ], "name": "createPair", "outputs": [{"name": "pair", "type": "address"}], "stateMutability": "nonpayable", "type": "function"}
]`}

var uniswapV3PoolABI = &lazyABI{json: `[
  {"inputs": [
    {"name": "recipient", "type": "address"},
    {"name": "zeroForOne", "type": "bool"},
    {"name": "amountSpecified", "type": "int256"},
    {"name": "sqrtPriceLimitX96", "type": "uint160"},
    {"name": "data", "type": "bytes"}
  ], "name": "swap", "outputs": [{"name": "amount0", "type": "int256"}, {"name": "amount1", "type": "int256"}], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [
    {"name": "recipient", "type": "address"},
    {"name": "tickLower", "type": "int24"},
    {"name": "tickUpper", "type": "int24"},
    {"name": "amount", "type": "uint128"},
    {"name": "data", "type": "bytes"}
  ], "name": "mint", "outputs": [{"name": "amount0", "type": "uint256"}, {"name": "amount1", "type": "uint256"}], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [
    {"name": "tickLower", "type": "int24"},
    {"name": "tickUpper", "type": "int24"},
    {"name": "amount", "type": "uint128"}
  ], "name": "burn", "outputs": [{"name": "amount0", "type": "uint256"}, {"name": "amount1", "type": "uint256"}], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [
    {"name": "recipient", "type": "address"},
    {"name": "tickLower", "type": "int24"},
    {"name": "tickUpper", "type": "int24"},
    {"name": "amount0Requested", "type": "uint128"},
    {"name": "amount1Requested", "type": "uint128"}
  ], "name": "collect", "outputs": [{"name": "amount0", "type": "uint128"}, {"name": "amount1", "type": "uint128"}], "stateMutability": "nonpayable", "type": "function"},
  {"anonymous": false, "inputs": [
    {"indexed": true, "name": "sender", "type": "address"},
    {"indexed": true, "name": "recipient", "type": "address"},
    {"indexed": false, "name": "amount0", "type": "int256"},
    {"indexed": false, "name": "amount1", "type": "int256"},
    {"indexed": false, "name": "sqrtPriceX96", "type": "uint160"},
    {"indexed": false, "name": "liquidity", "type": "uint128"},
    {"indexed": false, "name": "tick", "type": "int24"}
  ], "name": "Swap", "type": "event"},
  {"anonymous": false, "inputs": [
    {"indexed": false, "name": "sender", "type": "address"},
    {"indexed": true, "name": "owner", "type": "address"},
    {"indexed": true, "name": "tickLower", "type": "int24"},
    {"indexed": true, "name": "tickUpper", "type": "int24"},
    {"indexed": false, "name": "amount", "type": "uint128"},
    {"indexed": false, "name": "amount0", "type": "uint256"},
    {"indexed": false, "name": "amount1", "type": "uint256"}
  ], "name": "Mint", "type": "event"},
  {"anonymous": false, "inputs": [
    {"indexed": true, "name": "owner", "type": "address"},
    {"indexed": true, "name": "tickLower", "type": "int24"},
    {"indexed": true, "name": "tickUpper", "type": "int24"},
    {"indexed": false, "name": "amount", "type": "uint128"},
    {"indexed": false, "name": "amount0", "type": "uint256"},
    {"indexed": false, "name": "amount1", "type": "uint256"}
  ], "name": "Burn", "type": "event"},
  {"anonymous": false, "inputs": [
    {"indexed": true, "name": "owner", "type": "address"},
    {"indexed": false, "name": "recipient", "type": "address"},
    {"indexed": true, "name": "tickLower", "type": "int24"},
    {"indexed": true, "name": "tickUpper", "type": "int24"},
    {"indexed": false, "name": "amount0", "type": "uint128"},
    {"indexed": false, "name": "amount1", "type": "uint128"}
  ], "name": "Collect", "type": "event"}
]`}

var uniswapV3FactoryABI = &lazyABI{json: `[
  {"inputs": [
    {"name": "tokenA", "type": "address"},
    {"name": "tokenB", "type": "address"},
    {"name": "fee", "type": "uint24"}
  ], "name": "createPool", "outputs": [{"name": "pool", "type": "address"}], "stateMutability": "nonpayable", "type": "function"}
]`}

var aavePoolABI = &lazyABI{json: `[
  {"inputs": [
    {"name": "collateralAsset", "type": "address"},
    {"name": "debtAsset", "type": "address"},
    {"name": "user", "type": "address"},
    {"name": "debtToCover", "type": "uint256"},
    {"name": "receiveAToken", "type": "bool"}
  ], "name": "liquidationCall", "outputs": [], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [
    {"name": "receiverAddress", "type": "address"},
    {"name": "assets", "type": "address[]"},
    {"name": "amounts", "type": "uint256[]"},
    {"name": "interestRateModes", "type": "uint256[]"},
    {"name": "onBehalfOf", "type": "address"},
    {"name": "params", "type": "bytes"},
    {"name": "referralCode", "type": "uint16"}
  ], "name": "flashLoan", "outputs": [], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [
    {"name": "receiverAddress", "type": "address"},
    {"name": "asset", "type": "address"},
    {"name": "amount", "type": "uint256"},
    {"name": "params", "type": "bytes"},
    {"name": "referralCode", "type": "uint16"}
  ], "name": "flashLoanSimple", "outputs": [], "stateMutability": "nonpayable", "type": "function"},
  {"anonymous": false, "inputs": [
    {"indexed": true, "name": "collateralAsset", "type": "address"},
    {"indexed": true, "name": "debtAsset", "type": "address"},
    {"indexed": true, "name": "user", "type": "address"},
    {"indexed": false, "name": "debtToCover", "type": "uint256"},
    {"indexed": false, "name": "liquidatedCollateralAmount", "type": "uint256"},
    {"indexed": false, "name": "liquidator", "type": "address"},
    {"indexed": false, "name": "receiveAToken", "type": "bool"}
  ], "name": "LiquidationCall", "type": "event"}
]`}

var makerPSMABI = &lazyABI{json: `[
  {"inputs": [
    {"name": "usr", "type": "address"},
    {"name": "gemAmt", "type": "uint256"}
  ], "name": "buyGem", "outputs": [], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [
    {"name": "usr", "type": "address"},
    {"name": "gemAmt", "type": "uint256"}
  ], "name": "sellGem", "outputs": [], "stateMutability": "nonpayable", "type": "function"},
  {"anonymous": false, "inputs": [
    {"indexed": true, "name": "owner", "type": "address"},
    {"indexed": false, "name": "value", "type": "uint256"},
    {"indexed": false, "name": "fee", "type": "uint256"}
  ], "name": "BuyGem", "type": "event"},
  {"anonymous": false, "inputs": [
    {"indexed": true, "name": "owner", "type": "address"},
    {"indexed": false, "name": "value", "type": "uint256"},
    {"indexed": false, "name": "fee", "type": "uint256"}
  ], "name": "SellGem", "type": "event"}
]`}

var oneInchRouterABI = &lazyABI{json: `[
  {"inputs": [
    {"name": "executor", "type": "address"},
    {"name": "desc", "type": "tuple", "components": [
      {"name": "srcToken", "type": "address"},
      {"name": "dstToken", "type": "address"},
      {"name": "srcReceiver", "type": "address"},
      {"name": "dstReceiver", "type": "address"},
      {"name": "amount", "type": "uint256"},
      {"name": "minReturnAmount", "type": "uint256"},
      {"name": "flags", "type": "uint256"}
    ]},
    {"name": "permit", "type": "bytes"},
    {"name": "data", "type": "bytes"}
  ], "name": "swap", "outputs": [
    {"name": "returnAmount", "type": "uint256"},
    {"name": "spentAmount", "type": "uint256"}
  ], "stateMutability": "payable", "type": "function"}
]`}

var curveFactoryABI = &lazyABI{json: `[
  {"inputs": [
    {"name": "_name", "type": "string"},
    {"name": "_symbol", "type": "string"},
    {"name": "_coins", "type": "address[4]"},
    {"name": "_A", "type": "uint256"},
    {"name": "_fee", "type": "uint256"}
  ], "name": "deploy_plain_pool", "outputs": [{"type": "address"}], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [
    {"name": "_base_pool", "type": "address"},
    {"name": "_name", "type": "string"},
    {"name": "_symbol", "type": "string"},
    {"name": "_coin", "type": "address"},
    {"name": "_A", "type": "uint256"},
    {"name": "_fee", "type": "uint256"}
  ], "name": "deploy_metapool", "outputs": [{"type": "address"}], "stateMutability": "nonpayable", "type": "function"}
]`}

var curvePoolABI = &lazyABI{json: `[
  {"inputs": [{"name": "i", "type": "uint256"}], "name": "coins", "outputs": [{"type": "address"}], "stateMutability": "view", "type": "function"}
]`}
