package model

import "github.com/ethereum/go-ethereum/common"

// Token is an ERC20 token reference with the metadata needed to scale
// raw amounts.
type Token struct {
	Address  common.Address `json:"address"`
	Symbol   string         `json:"symbol"`
	Decimals uint8          `json:"decimals"`
}

// TokenInfo captures ERC20 metadata from the metadata store.
type TokenInfo struct {
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

// ProtocolInfo is the metadata-store row for a classified address.
type ProtocolInfo struct {
	Protocol  Protocol         `json:"protocol"`
	Tokens    []common.Address `json:"tokens"`
	InitBlock uint64           `json:"init_block"`
}
