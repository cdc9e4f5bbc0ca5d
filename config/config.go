package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/onflow/txhistory/ledger/common/hash"
	"github.com/onflow/txhistory/model/ledger"
)

const (
	// All constant strings are used for CLI flag names and corresponding keys for config values.
	configFile        = "config"
	dataDir           = "datadir"
	chainID           = "chain-id"
	hasher            = "hasher"
	listenAddress     = "listen-address"
	metricsAddress    = "metrics-address"
	maxLimit          = "max-limit"
	maxBatchSize      = "max-batch-size"
	cacheSize         = "cache-size"
	quorumNumerator   = "quorum-numerator"
	quorumDenominator = "quorum-denominator"
	logLevel          = "loglevel"
	rateLimit         = "rate-limit"
	rateBurst         = "rate-burst"

	envPrefix = "TXHISTORY"
)

// Config is the configuration of a transaction history server.
type Config struct {
	DataDir           string `validate:"required"`
	ChainID           uint8
	Hasher            string `validate:"required"`
	ListenAddress     string `validate:"required"`
	MetricsAddress    string
	MaxLimit          uint64 `validate:"gt=0"`
	MaxBatchSize      int    `validate:"gt=0"`
	CacheSize         uint   `validate:"gt=0"`
	QuorumNumerator   uint64
	QuorumDenominator uint64
	LogLevel          string
	// RateLimit is the number of JSON-RPC requests served per second,
	// 0 disables rate limiting.
	RateLimit float64 `validate:"gte=0"`
	RateBurst int     `validate:"gte=0"`
}

func DefaultConfig() *Config {
	return &Config{
		DataDir:           "./data",
		ChainID:           4,
		Hasher:            hash.SHA3_256,
		ListenAddress:     "localhost:8080",
		MetricsAddress:    "localhost:9090",
		MaxLimit:          1000,
		MaxBatchSize:      20,
		CacheSize:         1000,
		QuorumNumerator:   ledger.DefaultQuorumThreshold.Numerator,
		QuorumDenominator: ledger.DefaultQuorumThreshold.Denominator,
		LogLevel:          "info",
		RateLimit:         0,
		RateBurst:         10,
	}
}

// InitializeFlags adds the configuration flags to flags, with the values of
// config as defaults.
func InitializeFlags(flags *pflag.FlagSet, config *Config) {
	flags.String(configFile, "", "path to a configuration file, flags and environment take precedence")
	flags.String(dataDir, config.DataDir, "directory of the badger database")
	flags.Uint8(chainID, config.ChainID, "chain id of the history")
	flags.String(hasher, config.Hasher, "hash function of the accumulator, SHA3_256 or SHA2_256")
	flags.String(listenAddress, config.ListenAddress, "address the JSON-RPC server listens on")
	flags.String(metricsAddress, config.MetricsAddress, "address the metrics server listens on, empty to disable")
	flags.Uint64(maxLimit, config.MaxLimit, "largest number of transactions returned by one query")
	flags.Int(maxBatchSize, config.MaxBatchSize, "largest number of calls in one JSON-RPC batch")
	flags.Uint(cacheSize, config.CacheSize, "number of entries of each storage cache")
	flags.Uint64(quorumNumerator, config.QuorumNumerator, "numerator of the fraction of voting power a quorum must exceed")
	flags.Uint64(quorumDenominator, config.QuorumDenominator, "denominator of the fraction of voting power a quorum must exceed")
	flags.String(logLevel, config.LogLevel, "level for logging output")
	flags.Float64(rateLimit, config.RateLimit, "JSON-RPC requests served per second, 0 disables rate limiting")
	flags.Int(rateBurst, config.RateBurst, "JSON-RPC requests accepted at once when rate limited")
}

// Load resolves the configuration from flags, TXHISTORY_ prefixed
// environment variables and the configuration file, in that order of
// precedence.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	err := v.BindPFlags(flags)
	if err != nil {
		return nil, fmt.Errorf("could not bind flags: %w", err)
	}

	if path := v.GetString(configFile); path != "" {
		v.SetConfigFile(path)
		err = v.ReadInConfig()
		if err != nil {
			return nil, fmt.Errorf("could not read config file %s: %w", path, err)
		}
	}

	config := &Config{
		DataDir:           v.GetString(dataDir),
		ChainID:           uint8(v.GetUint(chainID)),
		Hasher:            v.GetString(hasher),
		ListenAddress:     v.GetString(listenAddress),
		MetricsAddress:    v.GetString(metricsAddress),
		MaxLimit:          v.GetUint64(maxLimit),
		MaxBatchSize:      v.GetInt(maxBatchSize),
		CacheSize:         v.GetUint(cacheSize),
		QuorumNumerator:   v.GetUint64(quorumNumerator),
		QuorumDenominator: v.GetUint64(quorumDenominator),
		LogLevel:          v.GetString(logLevel),
		RateLimit:         v.GetFloat64(rateLimit),
		RateBurst:         v.GetInt(rateBurst),
	}
	err = config.Validate()
	if err != nil {
		return nil, err
	}
	return config, nil
}

var validate = validator.New()

func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, ok := hash.ByAlgorithm(c.Hasher); !ok {
		return fmt.Errorf("unknown %s %q", hasher, c.Hasher)
	}
	err = c.QuorumThreshold().Validate()
	if err != nil {
		return fmt.Errorf("invalid quorum threshold: %w", err)
	}
	_, err = zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", logLevel, err)
	}
	return nil
}

func (c *Config) QuorumThreshold() ledger.QuorumThreshold {
	return ledger.QuorumThreshold{Numerator: c.QuorumNumerator, Denominator: c.QuorumDenominator}
}

// NewHasher returns the accumulator hasher. The config must be valid.
func (c *Config) NewHasher() hash.Hasher {
	h, ok := hash.ByAlgorithm(c.Hasher)
	if !ok {
		panic(fmt.Sprintf("unknown hasher %q", c.Hasher))
	}
	return h
}

func (c *Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
