// Package config loads command configuration from flags, AIRDROP_*
// environment variables and an optional config file.
package config

import (
	"fmt"
	"math/big"
	"reflect"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/go-playground/validator.v9"
)

const EnvPrefix = "AIRDROP"

// Secrets are read from the environment or the config file only.
const (
	KeyPrivateKey       = "private-key"
	KeyKeystorePassword = "keystore-password"
)

// Send configures the send command.
type Send struct {
	RPC              []string      `mapstructure:"rpc" validate:"required,min=1,dive,required"`
	Contract         string        `mapstructure:"contract" validate:"required,eth_addr"`
	Keystore         string        `mapstructure:"keystore"`
	KeystorePassword string        `mapstructure:"keystore-password"`
	PrivateKey       string        `mapstructure:"private-key" validate:"required_without=Keystore"`
	Addresses        string        `mapstructure:"addresses" validate:"required"`
	Amount           string        `mapstructure:"amount" validate:"required,ether"`
	BatchSize        int           `mapstructure:"batch-size" validate:"min=1"`
	RetryDelay       time.Duration `mapstructure:"retry-delay" validate:"gt=0"`
	MaxAttempts      int           `mapstructure:"max-attempts" validate:"min=0"`
	PollInterval     time.Duration `mapstructure:"poll-interval" validate:"gt=0"`
	OutputDir        string        `mapstructure:"output-dir" validate:"required"`
	ExcludeContracts bool          `mapstructure:"exclude-contracts"`
	GasLimit         uint64        `mapstructure:"gas-limit"`
	Yes              bool          `mapstructure:"yes"`
}

// AmountWei converts the per-recipient ether amount to wei, truncating
// anything below one wei.
func (s *Send) AmountWei() (*big.Int, error) {
	return EtherToWei(s.Amount)
}

// Validate configures the validate command.
type Validate struct {
	RPC              []string `mapstructure:"rpc" validate:"required_with=ExcludeContracts"`
	Addresses        string   `mapstructure:"addresses" validate:"required"`
	ExcludeContracts bool     `mapstructure:"exclude-contracts"`
	OutputDir        string   `mapstructure:"output-dir"`
}

// Status configures the status command.
type Status struct {
	RPC          []string      `mapstructure:"rpc" validate:"required,min=1,dive,required"`
	TxFile       string        `mapstructure:"tx-file" validate:"required"`
	PollInterval time.Duration `mapstructure:"poll-interval" validate:"gt=0"`
	OutputDir    string        `mapstructure:"output-dir" validate:"required"`
	Once         bool          `mapstructure:"once"`
}

// Distribute configures the distribute command.
type Distribute struct {
	Inventory string `mapstructure:"inventory" validate:"required"`
	Output    string `mapstructure:"output" validate:"required"`
	ExportCSV string `mapstructure:"export-csv"`
	Seed      int64  `mapstructure:"seed"`
}

// Merkle configures the merkle command.
type Merkle struct {
	Glob   string `mapstructure:"glob" validate:"required"`
	Proofs bool   `mapstructure:"proofs"`
}

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("ether", isEther); err != nil {
		panic(err)
	}
	return v
}

// isEther accepts a positive decimal amount.
func isEther(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	d, err := decimal.NewFromString(fl.Field().String())
	return err == nil && d.IsPositive()
}

// EtherToWei converts a decimal ether amount to wei.
func EtherToWei(amount string) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	wei := d.Shift(18).Truncate(0)
	if !wei.IsPositive() {
		return nil, fmt.Errorf("amount %q is less than one wei", amount)
	}
	return wei.BigInt(), nil
}

// Load merges, in increasing priority, the config file, AIRDROP_*
// environment variables and explicitly set flags into out, then validates it.
func Load(flags *pflag.FlagSet, configFile string, out interface{}) error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, key := range []string{KeyPrivateKey, KeyKeystorePassword} {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	if err := v.Unmarshal(out); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	return Check(out)
}

// Check validates a loaded config struct.
func Check(cfg interface{}) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
