package classifier

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"traceScope/internal/model"
)

// MatchKey routes a call trace to its action decoder.
type MatchKey struct {
	Protocol model.Protocol
	Selector [4]byte
}

// FactoryKey routes a CREATE trace to its factory decoder via the
// parent call's target and selector.
type FactoryKey struct {
	Factory  common.Address
	Selector [4]byte
}

// Registry is the immutable dispatch table built once at startup.
// Duplicate keys are a configuration error and fail construction.
type Registry struct {
	actions   map[MatchKey]*ActionDecoder
	factories map[FactoryKey]*FactoryDecoder
}

// NewRegistry builds the dispatch table from declarative decoder lists.
func NewRegistry(actions []*ActionDecoder, factories []*FactoryDecoder) (*Registry, error) {
	r := &Registry{
		actions:   make(map[MatchKey]*ActionDecoder, len(actions)),
		factories: make(map[FactoryKey]*FactoryDecoder, len(factories)),
	}

	for _, decoder := range actions {
		sel, err := decoder.Selector()
		if err != nil {
			return nil, fmt.Errorf("decoder %s.%s: %w", decoder.Protocol, decoder.Method, err)
		}
		key := MatchKey{Protocol: decoder.Protocol, Selector: sel}
		if _, ok := r.actions[key]; ok {
			return nil, fmt.Errorf("duplicate decoder for %s selector %x", decoder.Protocol, sel)
		}
		r.actions[key] = decoder
	}

	for _, decoder := range factories {
		sel, err := decoder.Selector()
		if err != nil {
			return nil, fmt.Errorf("factory decoder %s.%s: %w", decoder.Protocol, decoder.Method, err)
		}
		key := FactoryKey{Factory: decoder.Factory, Selector: sel}
		if _, ok := r.factories[key]; ok {
			return nil, fmt.Errorf("duplicate factory decoder for %s selector %x", decoder.Factory.Hex(), sel)
		}
		r.factories[key] = decoder
	}

	return r, nil
}

// ActionDecoder looks up the decoder for a (protocol, selector) pair.
func (r *Registry) ActionDecoder(protocol model.Protocol, selector [4]byte) (*ActionDecoder, bool) {
	decoder, ok := r.actions[MatchKey{Protocol: protocol, Selector: selector}]
	return decoder, ok
}

// FactoryDecoder looks up the decoder for a (factory, selector) pair.
func (r *Registry) FactoryDecoder(factory common.Address, selector [4]byte) (*FactoryDecoder, bool) {
	decoder, ok := r.factories[FactoryKey{Factory: factory, Selector: selector}]
	return decoder, ok
}

// ActionCount returns the number of registered action decoders.
func (r *Registry) ActionCount() int { return len(r.actions) }

// FactoryCount returns the number of registered factory decoders.
func (r *Registry) FactoryCount() int { return len(r.factories) }

// DefaultRegistry assembles every built-in decoder.
func DefaultRegistry() (*Registry, error) {
	var actions []*ActionDecoder
	actions = append(actions, erc20Decoders()...)
	actions = append(actions, uniswapV2Decoders()...)
	actions = append(actions, uniswapV3Decoders()...)
	actions = append(actions, aaveDecoders()...)
	actions = append(actions, makerPSMDecoders()...)
	actions = append(actions, oneInchDecoders()...)

	var factories []*FactoryDecoder
	factories = append(factories, uniswapFactoryDecoders()...)
	factories = append(factories, curveFactoryDecoders()...)

	return NewRegistry(actions, factories)
}
