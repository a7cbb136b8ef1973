package classifier

import (
	"testing"

	"traceScope/internal/model"
)

func TestDefaultRegistryBuilds(t *testing.T) {
	registry, err := DefaultRegistry()
	if err != nil {
		t.Fatalf("default registry: %v", err)
	}
	if registry.ActionCount() == 0 || registry.FactoryCount() == 0 {
		t.Fatalf("registry unexpectedly empty: %d actions, %d factories",
			registry.ActionCount(), registry.FactoryCount())
	}
}

func TestRegistryLookup(t *testing.T) {
	registry, err := DefaultRegistry()
	if err != nil {
		t.Fatalf("default registry: %v", err)
	}

	sel, err := v2PairDecoders(model.ProtocolUniswapV2)[0].Selector()
	if err != nil {
		t.Fatalf("selector: %v", err)
	}

	if _, ok := registry.ActionDecoder(model.ProtocolUniswapV2, sel); !ok {
		t.Fatalf("v2 swap decoder not found")
	}
	if _, ok := registry.ActionDecoder(model.ProtocolCurve, sel); ok {
		t.Fatalf("lookup matched the wrong protocol")
	}
	if _, ok := registry.FactoryDecoder(uniswapV3FactoryAddr, mustSelector(t, uniswapV3FactoryABI, "createPool")); !ok {
		t.Fatalf("v3 factory decoder not found")
	}
}

func TestDuplicateRegistrationIsFatal(t *testing.T) {
	decoder := v2PairDecoders(model.ProtocolUniswapV2)[0]
	if _, err := NewRegistry([]*ActionDecoder{decoder, decoder}, nil); err == nil {
		t.Fatalf("expected duplicate registration error")
	}

	factory := v3FactoryDecoder(model.ProtocolUniswapV3, uniswapV3FactoryAddr)
	if _, err := NewRegistry(nil, []*FactoryDecoder{factory, factory}); err == nil {
		t.Fatalf("expected duplicate factory registration error")
	}
}

func mustSelector(t *testing.T, la *lazyABI, method string) [4]byte {
	t.Helper()
	parsed, err := la.get()
	if err != nil {
		t.Fatalf("parse abi: %v", err)
	}
	var sel [4]byte
	copy(sel[:], parsed.Methods[method].ID)
	return sel
}
