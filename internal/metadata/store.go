package metadata

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"traceScope/internal/model"
)

// Reader is the read surface decoders see: point queries only.
type Reader interface {
	ProtocolInfo(address common.Address) (model.ProtocolInfo, bool)
	TokenInfo(address common.Address) (model.TokenInfo, bool)
}

// Store is the in-memory metadata table set: address to protocol and
// address to token info. It is read-mostly; discovery writes land in
// per-block deltas and are merged through Commit.
type Store struct {
	mu        sync.RWMutex
	protocols map[common.Address]model.ProtocolInfo
	tokens    map[common.Address]model.TokenInfo
}

// NewStore builds an empty store.
func NewStore() *Store {
	return &Store{
		protocols: make(map[common.Address]model.ProtocolInfo),
		tokens:    make(map[common.Address]model.TokenInfo),
	}
}

// ProtocolInfo returns the protocol row for an address.
func (s *Store) ProtocolInfo(address common.Address) (model.ProtocolInfo, bool) {
	s.mu.RLock()
	info, ok := s.protocols[address]
	s.mu.RUnlock()
	return info, ok
}

// TokenInfo returns the token row for an address.
func (s *Store) TokenInfo(address common.Address) (model.TokenInfo, bool) {
	s.mu.RLock()
	info, ok := s.tokens[address]
	s.mu.RUnlock()
	return info, ok
}

// SetToken inserts or replaces a token row.
func (s *Store) SetToken(address common.Address, info model.TokenInfo) {
	s.mu.Lock()
	s.tokens[address] = info
	s.mu.Unlock()
}

// SetProtocol inserts or replaces a protocol row. Used for bootstrap
// loading; discovery goes through RegisterPool.
func (s *Store) SetProtocol(address common.Address, info model.ProtocolInfo) {
	s.mu.Lock()
	s.protocols[address] = info
	s.mu.Unlock()
}

// RegisterPool appends a discovered pool. Re-registration with
// identical data is a no-op; conflicting data is an error.
func (s *Store) RegisterPool(address common.Address, info model.ProtocolInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.protocols[address]; ok {
		if !sameProtocolInfo(existing, info) {
			return fmt.Errorf("%w: pool %s already registered as %s", ErrConflict, address.Hex(), existing.Protocol)
		}
		return nil
	}
	s.protocols[address] = info
	return nil
}

// ProtocolCount returns the number of protocol rows.
func (s *Store) ProtocolCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.protocols)
}

func sameProtocolInfo(a, b model.ProtocolInfo) bool {
	if a.Protocol != b.Protocol || len(a.Tokens) != len(b.Tokens) {
		return false
	}
	for i := range a.Tokens {
		if a.Tokens[i] != b.Tokens[i] {
			return false
		}
	}
	return true
}

// ErrConflict marks discovery re-registration with incompatible data.
var ErrConflict = fmt.Errorf("metadata conflict")
