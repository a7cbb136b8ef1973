package config

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"

	"traceScope/internal/model"
)

// ManualMapping is one validated entry of the manual-mapping table:
// an address automatic discovery cannot identify, with its protocol
// and optional token metadata.
type ManualMapping struct {
	Protocol  model.Protocol
	Address   common.Address
	InitBlock uint64
	Tokens    []ManualToken
}

// ManualToken carries token metadata supplied alongside a mapping.
type ManualToken struct {
	Address  common.Address
	Decimals uint8
	Symbol   string
}

type rawManualEntry struct {
	Protocol  string           `mapstructure:"protocol"`
	Address   string           `mapstructure:"address"`
	InitBlock uint64           `mapstructure:"init_block"`
	Tokens    []rawManualToken `mapstructure:"tokens"`
}

type rawManualToken struct {
	Address  string `mapstructure:"address"`
	Decimals uint8  `mapstructure:"decimals"`
	Symbol   string `mapstructure:"symbol"`
}

// LoadManualMappings reads and validates the manual-mapping file.
// Unknown protocol names and malformed addresses are fatal.
func LoadManualMappings(path string) ([]ManualMapping, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read manual mappings: %w", err)
	}

	var raw []rawManualEntry
	if err := v.UnmarshalKey("mappings", &raw); err != nil {
		return nil, fmt.Errorf("decode manual mappings: %w", err)
	}

	mappings := make([]ManualMapping, 0, len(raw))
	for i, entry := range raw {
		protocol, err := model.ParseProtocol(entry.Protocol)
		if err != nil {
			return nil, fmt.Errorf("manual mapping %d: %w", i, err)
		}
		if !common.IsHexAddress(entry.Address) {
			return nil, fmt.Errorf("manual mapping %d: invalid address: %s", i, entry.Address)
		}

		mapping := ManualMapping{
			Protocol:  protocol,
			Address:   common.HexToAddress(entry.Address),
			InitBlock: entry.InitBlock,
		}
		for j, token := range entry.Tokens {
			if !common.IsHexAddress(token.Address) {
				return nil, fmt.Errorf("manual mapping %d token %d: invalid address: %s", i, j, token.Address)
			}
			mapping.Tokens = append(mapping.Tokens, ManualToken{
				Address:  common.HexToAddress(token.Address),
				Decimals: token.Decimals,
				Symbol:   token.Symbol,
			})
		}
		mappings = append(mappings, mapping)
	}

	return mappings, nil
}
