// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/rovshanmuradov/plasma-amm/internal/dex/plasma"
)

type Config struct {
	RPCList         []string `mapstructure:"rpc_list"`
	Commitment      string   `mapstructure:"commitment"`
	Pools           []string `mapstructure:"pools"`
	Discover        bool     `mapstructure:"discover"`
	ProgramID       string   `mapstructure:"program_id"`
	TokenProgramID  string   `mapstructure:"token_program_id"`
	RefreshInterval int      `mapstructure:"refresh_interval_ms"`
	RequestTimeout  int      `mapstructure:"request_timeout_ms"`
	Retries         int      `mapstructure:"retries"`
	Workers         int      `mapstructure:"workers"`
	DebugLogging    bool     `mapstructure:"debug_logging"`
	LogFile         string   `mapstructure:"log_file"`
	MetricsAddr     string   `mapstructure:"metrics_addr"`
}

const (
	DefaultCommitment      = "confirmed"
	DefaultRefreshInterval = 1000
	DefaultRequestTimeout  = 10_000
	DefaultRetries         = 3
	DefaultWorkers         = 8
	DefaultLogFile         = "plasma.log"

	envPrefix = "PLASMA"
)

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"commitment":          DefaultCommitment,
		"program_id":          plasma.ProgramID.String(),
		"token_program_id":    solana.TokenProgramID.String(),
		"refresh_interval_ms": DefaultRefreshInterval,
		"request_timeout_ms":  DefaultRequestTimeout,
		"retries":             DefaultRetries,
		"workers":             DefaultWorkers,
		"log_file":            DefaultLogFile,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// .env рядом с конфигом необязателен
	envFile := filepath.Join(filepath.Dir(path), ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	if err := loadEnvironmentVariables(v, &cfg); err != nil {
		return nil, err
	}

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if len(cfg.RPCList) == 0 {
		return errors.New("rpc_list is empty")
	}
	for _, rpcURL := range cfg.RPCList {
		if err := validateURLWithCache(rpcURL, "http"); err != nil {
			return fmt.Errorf("invalid RPC URL %q: %w", rpcURL, err)
		}
	}
	if len(cfg.Pools) == 0 && !cfg.Discover {
		return errors.New("no pools configured and discovery is disabled")
	}
	if _, err := cfg.PoolKeys(); err != nil {
		return err
	}
	if _, err := cfg.PlasmaConfig(); err != nil {
		return err
	}
	switch rpc.CommitmentType(cfg.Commitment) {
	case rpc.CommitmentProcessed, rpc.CommitmentConfirmed, rpc.CommitmentFinalized:
	default:
		return fmt.Errorf("invalid commitment %q", cfg.Commitment)
	}
	return validateNumericParams(cfg)
}

func validateNumericParams(cfg *Config) error {
	if cfg.RefreshInterval <= 0 {
		return errors.New("invalid refresh_interval_ms")
	}
	if cfg.RequestTimeout <= 0 {
		return errors.New("invalid request_timeout_ms")
	}
	if cfg.Retries < 0 {
		return errors.New("invalid retries count")
	}
	if cfg.Workers < 0 {
		return errors.New("invalid workers count")
	}
	return nil
}

var urlCache sync.Map

func validateURLWithCache(rawURL string, protocol string) error {
	if _, ok := urlCache.Load(rawURL); ok {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) || parsed.Host == "" {
		return errors.New("invalid URL protocol")
	}
	urlCache.Store(rawURL, parsed)
	return nil
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) error {
	v.AutomaticEnv()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if list := splitList(v.GetString("RPC_LIST")); len(list) > 0 {
		cfg.RPCList = list
	}
	if list := splitList(v.GetString("POOLS")); len(list) > 0 {
		cfg.Pools = list
	}
	if id := strings.TrimSpace(v.GetString("PROGRAM_ID")); id != "" {
		cfg.ProgramID = id
	}
	if c := strings.TrimSpace(v.GetString("COMMITMENT")); c != "" {
		cfg.Commitment = c
	}
	if v.IsSet("DEBUG_LOGGING") {
		cfg.DebugLogging = v.GetBool("DEBUG_LOGGING")
	}
	return nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if clean := strings.TrimSpace(item); clean != "" {
			out = append(out, clean)
		}
	}
	return out
}

// PoolKeys парсит адреса пулов
func (c *Config) PoolKeys() ([]solana.PublicKey, error) {
	keys := make([]solana.PublicKey, 0, len(c.Pools))
	for _, p := range c.Pools {
		key, err := solana.PublicKeyFromBase58(p)
		if err != nil {
			return nil, fmt.Errorf("invalid pool address %q: %w", p, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// PlasmaConfig собирает идентификаторы программ для декодера и билдера
func (c *Config) PlasmaConfig() (plasma.Config, error) {
	cfg := plasma.DefaultConfig()
	if c.ProgramID != "" {
		id, err := solana.PublicKeyFromBase58(c.ProgramID)
		if err != nil {
			return plasma.Config{}, fmt.Errorf("invalid program_id: %w", err)
		}
		cfg.ProgramID = id
	}
	if c.TokenProgramID != "" {
		id, err := solana.PublicKeyFromBase58(c.TokenProgramID)
		if err != nil {
			return plasma.Config{}, fmt.Errorf("invalid token_program_id: %w", err)
		}
		cfg.TokenProgramID = id
	}
	return cfg, cfg.Validate()
}

func (c *Config) RefreshEvery() time.Duration {
	return time.Duration(c.RefreshInterval) * time.Millisecond
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Millisecond
}
