package model

import "fmt"

// Protocol identifies the protocol a classified action belongs to.
type Protocol string

const (
	ProtocolUnknown     Protocol = ""
	ProtocolUniswapV2   Protocol = "uniswap-v2"
	ProtocolSushiSwapV2 Protocol = "sushiswap-v2"
	ProtocolUniswapV3   Protocol = "uniswap-v3"
	ProtocolSushiSwapV3 Protocol = "sushiswap-v3"
	ProtocolCurve       Protocol = "curve"
	ProtocolAaveV2      Protocol = "aave-v2"
	ProtocolAaveV3      Protocol = "aave-v3"
	ProtocolMakerPSM    Protocol = "maker-psm"
	ProtocolOneInch     Protocol = "oneinch"
	ProtocolERC20       Protocol = "erc20"
)

var knownProtocols = map[Protocol]struct{}{
	ProtocolUniswapV2:   {},
	ProtocolSushiSwapV2: {},
	ProtocolUniswapV3:   {},
	ProtocolSushiSwapV3: {},
	ProtocolCurve:       {},
	ProtocolAaveV2:      {},
	ProtocolAaveV3:      {},
	ProtocolMakerPSM:    {},
	ProtocolOneInch:     {},
	ProtocolERC20:       {},
}

// ParseProtocol validates a protocol name from configuration.
func ParseProtocol(name string) (Protocol, error) {
	p := Protocol(name)
	if _, ok := knownProtocols[p]; !ok {
		return ProtocolUnknown, fmt.Errorf("unknown protocol: %s", name)
	}
	return p, nil
}

func (p Protocol) String() string {
	return string(p)
}
