package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "classifier",
		Short:        "Execution-trace classifier",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	classifyCmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify raw block traces into block trees",
		RunE:  runClassify,
	}

	classifyCmd.Flags().String("rpc", "", "RPC URL for discovery tracer calls")
	classifyCmd.Flags().String("in", "", "input block traces JSONL")
	classifyCmd.Flags().String("out", "./data/block_trees.jsonl", "output block trees JSONL")
	classifyCmd.Flags().String("errors", "./data/classify_errors.jsonl", "classification errors JSONL")
	classifyCmd.Flags().String("pg-dsn", "", "Postgres DSN for the metadata store")
	classifyCmd.Flags().Int("workers", 8, "parallel transaction workers per block")
	classifyCmd.Flags().String("manual-mappings", "", "manual protocol mapping YAML")
	classifyCmd.Flags().Int("max-retries", 5, "maximum tracer retry attempts")
	classifyCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial tracer retry backoff")
	classifyCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(classifyCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
