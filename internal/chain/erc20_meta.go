package chain

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"traceScope/internal/model"
)

const erc20MetaABIStringJSON = `[
  {"inputs": [], "name": "decimals", "outputs": [{"type": "uint8"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "symbol", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"}
]`

const erc20MetaABIBytes32JSON = `[
  {"inputs": [], "name": "decimals", "outputs": [{"type": "uint8"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "symbol", "outputs": [{"type": "bytes32"}], "stateMutability": "view", "type": "function"}
]`

var (
	erc20MetaString      abi.ABI
	erc20MetaStringOnce  sync.Once
	erc20MetaStringErr   error
	erc20MetaBytes32     abi.ABI
	erc20MetaBytes32Once sync.Once
	erc20MetaBytes32Err  error
)

func erc20MetaStringInstance() (abi.ABI, error) {
	erc20MetaStringOnce.Do(func() {
		erc20MetaString, erc20MetaStringErr = abi.JSON(strings.NewReader(erc20MetaABIStringJSON))
	})
	return erc20MetaString, erc20MetaStringErr
}

func erc20MetaBytes32Instance() (abi.ABI, error) {
	erc20MetaBytes32Once.Do(func() {
		erc20MetaBytes32, erc20MetaBytes32Err = abi.JSON(strings.NewReader(erc20MetaABIBytes32JSON))
	})
	return erc20MetaBytes32, erc20MetaBytes32Err
}

// TokenInfo loads token metadata via ERC20 calls.
func (c *Client) TokenInfo(ctx context.Context, token common.Address) (model.TokenInfo, error) {
	return FetchTokenInfo(ctx, c, token)
}

// FetchTokenInfo loads token metadata via ERC20 calls. Non-standard
// tokens expose symbol as bytes32; both shapes are tried.
func FetchTokenInfo(ctx context.Context, client *Client, token common.Address) (model.TokenInfo, error) {
	info := model.TokenInfo{}
	if client == nil {
		return info, fmt.Errorf("chain client is nil")
	}

	stringABI, err := erc20MetaStringInstance()
	if err != nil {
		return info, fmt.Errorf("parse erc20 string abi: %w", err)
	}
	bytes32ABI, err := erc20MetaBytes32Instance()
	if err != nil {
		return info, fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}

	call := func(method string, parsed abi.ABI) ([]interface{}, error) {
		data, err := parsed.Pack(method)
		if err != nil {
			return nil, fmt.Errorf("pack %s: %w", method, err)
		}
		msg := ethereum.CallMsg{To: &token, Data: data}
		resp, err := client.CallContract(ctx, msg, nil)
		if err != nil {
			return nil, fmt.Errorf("call %s: %w", method, err)
		}
		values, err := parsed.Unpack(method, resp)
		if err != nil {
			return nil, fmt.Errorf("unpack %s: %w", method, err)
		}
		return values, nil
	}

	values, err := call("decimals", stringABI)
	if err != nil {
		return info, err
	}
	decimals, err := asUint8(values[0])
	if err != nil {
		return info, err
	}
	info.Decimals = decimals

	if values, err := call("symbol", stringABI); err == nil {
		if symbol, ok := values[0].(string); ok {
			info.Symbol = symbol
		}
	} else if values, err := call("symbol", bytes32ABI); err == nil {
		if symbol, ok := bytes32ToString(values[0]); ok {
			info.Symbol = symbol
		}
	}

	return info, nil
}

func asUint8(value interface{}) (uint8, error) {
	switch typed := value.(type) {
	case uint8:
		return typed, nil
	case *big.Int:
		if !typed.IsUint64() || typed.Uint64() > 255 {
			return 0, fmt.Errorf("value out of uint8 range: %s", typed)
		}
		return uint8(typed.Uint64()), nil
	default:
		return 0, fmt.Errorf("unexpected uint8 type %T", value)
	}
}

func bytes32ToString(value interface{}) (string, bool) {
	raw, ok := value.([32]byte)
	if !ok {
		return "", false
	}
	trimmed := bytes.TrimRight(raw[:], "\x00")
	if len(trimmed) == 0 {
		return "", false
	}
	return string(trimmed), true
}
