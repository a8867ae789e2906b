package config

import (
	"fmt"
	"net"
	"path/filepath"
	"strconv"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/jessevdk/go-flags"
	"go.uber.org/zap/zapcore"

	"github.com/txsched/txsched/metrics"
	"github.com/txsched/txsched/util"
)

// Constants for config default values
const (
	defaultLogLevel       = zapcore.InfoLevel
	defaultLogDirname     = "logs"
	defaultLogFilename    = "schedd.log"
	defaultConfigFileName = "schedd.conf"
	defaultDataDirname    = "data"
	defaultChainRPC       = "http://127.0.0.1:8545"
	DefaultRPCPort        = 12591
	// defaultMaxFutureBlocks bounds how far ahead a scheduled block may
	// point; conditions beyond it are rejected by the verifier.
	defaultMaxFutureBlocks = uint64(1_000_000)
)

var DefaultRPCListener = "127.0.0.1:" + strconv.Itoa(DefaultRPCPort)

var (
	//   C:\Users\<username>\AppData\Local\Schedd on Windows
	//   ~/.schedd on Linux
	//   ~/Library/Application Support/Schedd on MacOS
	DefaultScheddDir = btcutil.AppDataDir("schedd", false)

	DefaultDataDir = DataDir(DefaultScheddDir)
)

// Config is the main config for the schedd cli command
type Config struct {
	LogLevel        string `long:"loglevel" description:"Logging level for all subsystems" choice:"trace" choice:"debug" choice:"info" choice:"warn" choice:"error" choice:"fatal"`
	ChainRPCAddress string `long:"chainrpcaddress" description:"The JSON-RPC endpoint of the chain node used for height polling and transaction submission"`
	MaxFutureBlocks uint64 `long:"maxfutureblocks" description:"The maximum number of blocks ahead of the latest block a condition may target"`
	RPCListener     string `long:"rpclistener" description:"the listener for RPC connections, e.g., 127.0.0.1:1234"`

	PollerConfig *PollerConfig `group:"poller" namespace:"poller"`

	SubmitterConfig *SubmitterConfig `group:"submitter" namespace:"submitter"`

	DatabaseConfig *DBConfig `group:"dbconfig" namespace:"dbconfig"`

	Metrics *metrics.Config `group:"metrics" namespace:"metrics"`
}

func DefaultConfigWithHome(homePath string) Config {
	pollerCfg := DefaultPollerConfig()
	submitterCfg := DefaultSubmitterConfig()
	cfg := Config{
		LogLevel:        defaultLogLevel.String(),
		ChainRPCAddress: defaultChainRPC,
		MaxFutureBlocks: defaultMaxFutureBlocks,
		RPCListener:     DefaultRPCListener,
		PollerConfig:    &pollerCfg,
		SubmitterConfig: &submitterCfg,
		DatabaseConfig:  DefaultDBConfigWithHomePath(homePath),
		Metrics:         metrics.DefaultConfig(),
	}

	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	return cfg
}

func DefaultConfig() Config {
	return DefaultConfigWithHome(DefaultScheddDir)
}

func CfgFile(homePath string) string {
	return filepath.Join(homePath, defaultConfigFileName)
}

func LogDir(homePath string) string {
	return filepath.Join(homePath, defaultLogDirname)
}

func LogFile(homePath string) string {
	return filepath.Join(LogDir(homePath), defaultLogFilename)
}

func DataDir(homePath string) string {
	return filepath.Join(homePath, defaultDataDirname)
}

// LoadConfig initializes and parses the config using a config file.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Load the configuration file overwriting defaults with any specified options
//  3. Make sure everything we just loaded makes sense
func LoadConfig(homePath string) (*Config, error) {
	// The home directory is required to have a configuration file with a
	// specific name under it.
	cfgFile := CfgFile(homePath)
	if !util.FileExists(cfgFile) {
		return nil, fmt.Errorf("specified config file does "+
			"not exist in %s", cfgFile)
	}

	var cfg Config
	fileParser := flags.NewParser(&cfg, flags.Default)
	err := flags.NewIniParser(fileParser).ParseFile(cfgFile)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the given configuration to be sane. This makes sure no
// illegal values or a combination of values are set.
func (cfg *Config) Validate() error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if cfg.ChainRPCAddress == "" {
		return fmt.Errorf("chain RPC address cannot be empty")
	}

	if cfg.MaxFutureBlocks == 0 {
		return fmt.Errorf("max future blocks must be positive")
	}

	if _, err := net.ResolveTCPAddr("tcp", cfg.RPCListener); err != nil {
		return fmt.Errorf("invalid RPC listener address %s: %w", cfg.RPCListener, err)
	}

	if cfg.PollerConfig == nil {
		return fmt.Errorf("poller config cannot be empty")
	}
	if err := cfg.PollerConfig.Validate(); err != nil {
		return fmt.Errorf("poller configuration validation failed: %w", err)
	}

	if cfg.SubmitterConfig == nil {
		return fmt.Errorf("submitter config cannot be empty")
	}
	if err := cfg.SubmitterConfig.Validate(); err != nil {
		return fmt.Errorf("submitter configuration validation failed: %w", err)
	}

	if cfg.DatabaseConfig == nil {
		return fmt.Errorf("database config cannot be empty")
	}

	if cfg.Metrics == nil {
		return fmt.Errorf("metrics configuration cannot be empty")
	}
	if err := cfg.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics configuration validation failed: %w", err)
	}

	return nil
}
