package postgres

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"traceScope/internal/metadata"
	"traceScope/internal/model"
)

// Store provides Postgres persistence for the metadata tables.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// LoadInto reads every protocol and token row into the in-memory
// store before block processing starts.
func (s *Store) LoadInto(ctx context.Context, store *metadata.Store) error {
	rows, err := s.pool.Query(ctx, `SELECT address, protocol, tokens, init_block FROM protocols`)
	if err != nil {
		return fmt.Errorf("load protocols: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var address, protocol string
		var tokens []string
		var initBlock int64
		if err := rows.Scan(&address, &protocol, &tokens, &initBlock); err != nil {
			return fmt.Errorf("scan protocol row: %w", err)
		}
		parsed, err := model.ParseProtocol(protocol)
		if err != nil {
			return fmt.Errorf("protocol row %s: %w", address, err)
		}
		info := model.ProtocolInfo{
			Protocol:  parsed,
			InitBlock: uint64(initBlock),
		}
		for _, token := range tokens {
			info.Tokens = append(info.Tokens, common.HexToAddress(token))
		}
		store.SetProtocol(common.HexToAddress(address), info)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate protocols: %w", err)
	}

	tokenRows, err := s.pool.Query(ctx, `SELECT address, symbol, decimals FROM tokens`)
	if err != nil {
		return fmt.Errorf("load tokens: %w", err)
	}
	defer tokenRows.Close()

	for tokenRows.Next() {
		var address, symbol string
		var decimals int16
		if err := tokenRows.Scan(&address, &symbol, &decimals); err != nil {
			return fmt.Errorf("scan token row: %w", err)
		}
		store.SetToken(common.HexToAddress(address), model.TokenInfo{
			Symbol:   symbol,
			Decimals: uint8(decimals),
		})
	}
	if err := tokenRows.Err(); err != nil {
		return fmt.Errorf("iterate tokens: %w", err)
	}

	return nil
}

// AppendPools persists pools committed by discovery. Inserts are
// idempotent on address; existing rows are left untouched, matching
// the in-memory conflict handling that already ran.
func (s *Store) AppendPools(ctx context.Context, registrations []metadata.Registration) error {
	if len(registrations) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, reg := range registrations {
		tokens := make([]string, 0, len(reg.Info.Tokens))
		for _, token := range reg.Info.Tokens {
			tokens = append(tokens, token.Hex())
		}
		batch.Queue(`
			INSERT INTO protocols (address, protocol, tokens, init_block, created_at)
			VALUES ($1, $2, $3, $4, now())
			ON CONFLICT (address) DO NOTHING
		`,
			reg.Address.Hex(),
			string(reg.Info.Protocol),
			tokens,
			int64(reg.Info.InitBlock),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range registrations {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
