package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"traceScope/internal/chain"
	"traceScope/internal/classifier"
	"traceScope/internal/config"
	"traceScope/internal/metadata"
	"traceScope/internal/metadata/postgres"
	"traceScope/internal/model"
	"traceScope/internal/storage"
)

func runClassify(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadClassify(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.In == "" {
		return fmt.Errorf("input path is required")
	}
	if cfg.Out == "" {
		return fmt.Errorf("output path is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var tracer classifier.Tracer
	if cfg.RPCURL != "" {
		chainClient, err := chain.NewClient(ctx, cfg.RPCURL, cfg.MaxRetries, cfg.RetryBackoff)
		if err != nil {
			return fmt.Errorf("connect rpc: %w", err)
		}
		defer chainClient.Close()
		tracer = chainClient
	}

	registry, err := classifier.DefaultRegistry()
	if err != nil {
		return fmt.Errorf("build registry: %w", err)
	}

	store := metadata.NewStore()

	var pgStore *postgres.Store
	if cfg.PGDSN != "" {
		pgStore, err = postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pgStore.Close()
		if err := pgStore.LoadInto(ctx, store); err != nil {
			return err
		}
	}

	if cfg.ManualMappings != "" {
		mappings, err := config.LoadManualMappings(cfg.ManualMappings)
		if err != nil {
			return err
		}
		applyManualMappings(store, mappings)
		logger.Info("manual mappings applied", zap.Int("entries", len(mappings)))
	}

	engine := classifier.NewClassifier(registry, store, tracer, logger, cfg.Workers)
	storageSink := storage.NewJsonlStorage(cfg.Out)

	errWriter, err := newJSONLWriter(cfg.Errors)
	if err != nil {
		return err
	}
	defer errWriter.Close()

	inputFile, err := os.Open(cfg.In)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer inputFile.Close()

	logger.Info("classify start",
		zap.String("in", cfg.In),
		zap.String("out", cfg.Out),
		zap.Int("workers", cfg.Workers),
		zap.Int("decoders", registry.ActionCount()),
		zap.Int("factories", registry.FactoryCount()),
		zap.Int("known_addresses", store.ProtocolCount()),
	)

	scanner := bufio.NewScanner(inputFile)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 64*1024*1024)

	var blocks, txs, discovered int
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var block model.BlockTraces
		if err := json.Unmarshal(line, &block); err != nil {
			return fmt.Errorf("decode block traces: %w", err)
		}

		result, err := engine.BuildBlockTree(ctx, &block)
		if err != nil {
			return fmt.Errorf("classify block %d: %w", block.Header.Number, err)
		}

		if err := storageSink.PutBlockTree(result.Tree); err != nil {
			return err
		}
		if pgStore != nil {
			if err := pgStore.AppendPools(ctx, result.DiscoveredPools); err != nil {
				return fmt.Errorf("persist discovered pools: %w", err)
			}
		}

		for _, decodeErr := range result.Errors {
			if err := errWriter.Write(decodeErr); err != nil {
				return err
			}
		}

		blocks++
		txs += len(result.Tree.Txs)
		discovered += len(result.DiscoveredPools)

		if len(result.MissingTokens) > 0 {
			logger.Debug("tokens missing decimals",
				zap.Uint64("block", block.Header.Number),
				zap.Int("tokens", len(result.MissingTokens)),
			)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan input: %w", err)
	}

	logger.Info("classify complete",
		zap.Int("blocks", blocks),
		zap.Int("transactions", txs),
		zap.Int("pools_discovered", discovered),
	)

	return nil
}

func applyManualMappings(store *metadata.Store, mappings []config.ManualMapping) {
	for _, mapping := range mappings {
		tokens := make([]common.Address, 0, len(mapping.Tokens))
		for _, token := range mapping.Tokens {
			tokens = append(tokens, token.Address)
			store.SetToken(token.Address, model.TokenInfo{
				Symbol:   token.Symbol,
				Decimals: token.Decimals,
			})
		}
		store.SetProtocol(mapping.Address, model.ProtocolInfo{
			Protocol:  mapping.Protocol,
			Tokens:    tokens,
			InitBlock: mapping.InitBlock,
		})
	}
}
