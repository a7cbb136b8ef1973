package metadata

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"traceScope/internal/model"
)

// Snapshot is the per-block view of the store. Reads hit the base
// store; discovery writes buffer into per-transaction scopes and are
// merged at end of block, so two transactions in the same block never
// observe each other's discoveries.
type Snapshot struct {
	base  *Store
	block uint64

	mu     sync.Mutex
	scopes []*TxScope
}

// NewSnapshot publishes a block-scoped view of the store.
func NewSnapshot(base *Store, block uint64) *Snapshot {
	return &Snapshot{base: base, block: block}
}

// Block returns the block number the snapshot was taken for.
func (s *Snapshot) Block() uint64 { return s.block }

// TxScope opens a transaction-local overlay. The overlay sees the base
// store plus its own buffered discoveries, making same-transaction
// pool discovery visible to later traces of that transaction.
func (s *Snapshot) TxScope() *TxScope {
	scope := &TxScope{
		base:      s.base,
		block:     s.block,
		protocols: make(map[common.Address]model.ProtocolInfo),
		tokens:    make(map[common.Address]model.TokenInfo),
	}
	s.mu.Lock()
	s.scopes = append(s.scopes, scope)
	s.mu.Unlock()
	return scope
}

// Registration is one pool row committed from a block's discoveries.
type Registration struct {
	Address common.Address
	Info    model.ProtocolInfo
}

// Commit merges every transaction delta into the base store and
// returns the newly committed pools. Identical re-registrations are
// no-ops; a conflicting registration fails the block.
func (s *Snapshot) Commit() ([]Registration, error) {
	s.mu.Lock()
	scopes := s.scopes
	s.scopes = nil
	s.mu.Unlock()

	var committed []Registration
	for _, scope := range scopes {
		for address, info := range scope.protocols {
			_, known := s.base.ProtocolInfo(address)
			if err := s.base.RegisterPool(address, info); err != nil {
				return nil, err
			}
			if !known {
				committed = append(committed, Registration{Address: address, Info: info})
			}
		}
		for address, info := range scope.tokens {
			if _, ok := s.base.TokenInfo(address); !ok {
				s.base.SetToken(address, info)
			}
		}
	}
	return committed, nil
}

// TxScope is a transaction-local metadata overlay. It is owned by a
// single worker and needs no locking.
type TxScope struct {
	base      *Store
	block     uint64
	protocols map[common.Address]model.ProtocolInfo
	tokens    map[common.Address]model.TokenInfo
}

// ProtocolInfo checks the transaction delta first, then the base.
func (t *TxScope) ProtocolInfo(address common.Address) (model.ProtocolInfo, bool) {
	if info, ok := t.protocols[address]; ok {
		return info, true
	}
	return t.base.ProtocolInfo(address)
}

// TokenInfo checks the transaction delta first, then the base.
func (t *TxScope) TokenInfo(address common.Address) (model.TokenInfo, bool) {
	if info, ok := t.tokens[address]; ok {
		return info, true
	}
	return t.base.TokenInfo(address)
}

// RegisterPool buffers a discovered pool into the transaction delta.
func (t *TxScope) RegisterPool(address common.Address, protocol model.Protocol, tokens []common.Address) {
	t.protocols[address] = model.ProtocolInfo{
		Protocol:  protocol,
		Tokens:    tokens,
		InitBlock: t.block,
	}
}

// RegisterToken buffers token metadata fetched during discovery.
func (t *TxScope) RegisterToken(address common.Address, info model.TokenInfo) {
	if _, ok := t.TokenInfo(address); ok {
		return
	}
	t.tokens[address] = info
}
