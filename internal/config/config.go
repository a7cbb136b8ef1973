package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ClassifyConfig holds settings for the classify command, merged from
// config file, environment, and flags.
type ClassifyConfig struct {
	RPCURL         string
	In             string
	Out            string
	Errors         string
	PGDSN          string
	Workers        int
	ManualMappings string
	MaxRetries     int
	RetryBackoff   time.Duration
	LogLevel       string
}

// LoadClassify merges config file, environment variables, and flags
// into ClassifyConfig.
func LoadClassify(cfgFile string, flags *pflag.FlagSet) (ClassifyConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("TRACESCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("out", "./data/block_trees.jsonl")
	v.SetDefault("errors", "./data/classify_errors.jsonl")
	v.SetDefault("workers", 8)
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return ClassifyConfig{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return ClassifyConfig{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return ClassifyConfig{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := ClassifyConfig{
		RPCURL:         v.GetString("rpc"),
		In:             v.GetString("in"),
		Out:            v.GetString("out"),
		Errors:         v.GetString("errors"),
		PGDSN:          v.GetString("pg-dsn"),
		Workers:        v.GetInt("workers"),
		ManualMappings: v.GetString("manual-mappings"),
		MaxRetries:     v.GetInt("max-retries"),
		RetryBackoff:   v.GetDuration("retry-backoff"),
		LogLevel:       v.GetString("log-level"),
	}

	return cfg, nil
}
