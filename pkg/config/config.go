package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultBaseCurrency is the native coin ticker used when base_currency is omitted
	DefaultBaseCurrency = "ETH"

	// DefaultMaxDeltaDays is the retention window used when max_delta_days is omitted
	DefaultMaxDeltaDays = 90
)

// ErrInvalidConfig is returned when the configuration fails validation
var ErrInvalidConfig = errors.New("invalid configuration")

// CurrencyMapping maps a currency ticker to a ledger commodity and an optional account suffix
type CurrencyMapping struct {
	Commodity     string  `yaml:"commodity"`
	AccountSuffix *string `yaml:"account_suffix,omitempty"`
}

// Config holds the static configuration consumed by the downloader and the importers
type Config struct {
	// Name selects the interchange file names: {name}.json and {name}-balances.json
	Name string `yaml:"name"`

	// AccountMap maps an owned address (lowercase) to a ledger account prefix
	AccountMap map[string]string `yaml:"account_map"`

	FeeAccount      string `yaml:"fee_account"`
	ExpensesAccount string `yaml:"expenses_account"`
	IncomeAccount   string `yaml:"income_account"`

	BaseCurrency string                     `yaml:"base_currency"`
	CurrencyMap  map[string]CurrencyMapping `yaml:"currency_map"`

	// MaxDeltaDays is a pointer so that an explicit 0 is distinguishable from "unset"
	MaxDeltaDays *int `yaml:"max_delta_days"`

	// Block explorer API configuration
	APIURL              string  `yaml:"block_explorer_api_url"`
	APIKey              string  `yaml:"block_explorer_api_key"`
	RequestDelaySeconds float64 `yaml:"block_explorer_api_request_delay"`
}

// Load reads the configuration file at path, applies environment overrides and defaults,
// and validates the result. JSON files are accepted since YAML is a superset of JSON.
func Load(path string) (*Config, error) {
	// A missing .env file is not an error
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Parse decodes configuration bytes and applies defaults. It does not validate.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.BaseCurrency == "" {
		c.BaseCurrency = DefaultBaseCurrency
	}
	if c.MaxDeltaDays == nil {
		days := DefaultMaxDeltaDays
		c.MaxDeltaDays = &days
	}

	// Addresses are matched case-insensitively
	normalized := make(map[string]string, len(c.AccountMap))
	for address, account := range c.AccountMap {
		normalized[strings.ToLower(address)] = account
	}
	c.AccountMap = normalized
}

func (c *Config) applyEnv() error {
	c.APIURL = getEnv("EXPLORER_API_URL", c.APIURL)
	c.APIKey = getEnv("EXPLORER_API_KEY", c.APIKey)

	if value := os.Getenv("EXPLORER_REQUEST_DELAY"); value != "" {
		delay, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: EXPLORER_REQUEST_DELAY must be a number of seconds: %v", ErrInvalidConfig, err)
		}
		c.RequestDelaySeconds = delay
	}
	return nil
}

// Validate ensures all required configuration is present
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidConfig)
	}

	if len(c.AccountMap) == 0 {
		return fmt.Errorf("%w: account_map must contain at least one address", ErrInvalidConfig)
	}

	for address, account := range c.AccountMap {
		if !common.IsHexAddress(address) {
			return fmt.Errorf("%w: account_map key %q is not a valid address", ErrInvalidConfig, address)
		}
		if account == "" {
			return fmt.Errorf("%w: account_map entry for %s is empty", ErrInvalidConfig, address)
		}
	}

	if c.FeeAccount == "" {
		return fmt.Errorf("%w: fee_account is required", ErrInvalidConfig)
	}
	if c.ExpensesAccount == "" {
		return fmt.Errorf("%w: expenses_account is required", ErrInvalidConfig)
	}
	if c.IncomeAccount == "" {
		return fmt.Errorf("%w: income_account is required", ErrInvalidConfig)
	}

	for ticker, mapping := range c.CurrencyMap {
		if mapping.Commodity == "" {
			return fmt.Errorf("%w: currency_map entry for %s has no commodity", ErrInvalidConfig, ticker)
		}
	}

	if c.MaxDeltaDays != nil && *c.MaxDeltaDays < 0 {
		return fmt.Errorf("%w: max_delta_days cannot be negative", ErrInvalidConfig)
	}

	if c.RequestDelaySeconds < 0 {
		return fmt.Errorf("%w: block_explorer_api_request_delay cannot be negative", ErrInvalidConfig)
	}

	return nil
}

// ValidateExplorer checks the settings needed to talk to the block explorer
func (c *Config) ValidateExplorer() error {
	if c.APIURL == "" {
		return fmt.Errorf("%w: block_explorer_api_url is required", ErrInvalidConfig)
	}
	return nil
}

// Commodity returns the ledger commodity for a currency ticker
func (c *Config) Commodity(currency string) string {
	if mapping, ok := c.CurrencyMap[currency]; ok {
		return mapping.Commodity
	}
	return currency
}

// AccountSuffix returns the sub-account segment for a currency ticker.
// It falls back to the mapped commodity, then to the ticker itself.
func (c *Config) AccountSuffix(currency string) string {
	mapping, ok := c.CurrencyMap[currency]
	if !ok {
		return currency
	}
	if mapping.AccountSuffix != nil {
		return *mapping.AccountSuffix
	}
	return mapping.Commodity
}

// OwnedAccount returns the account prefix for an owned address
func (c *Config) OwnedAccount(address string) (string, bool) {
	account, ok := c.AccountMap[strings.ToLower(address)]
	return account, ok
}

// Addresses returns the owned addresses in sorted order
func (c *Config) Addresses() []string {
	addresses := make([]string, 0, len(c.AccountMap))
	for address := range c.AccountMap {
		addresses = append(addresses, address)
	}
	sort.Strings(addresses)
	return addresses
}

// RequestDelay returns the minimum spacing between explorer requests
func (c *Config) RequestDelay() time.Duration {
	return time.Duration(c.RequestDelaySeconds * float64(time.Second))
}

// RetentionDays returns the retention window for imported entries, in calendar days
func (c *Config) RetentionDays() int {
	if c.MaxDeltaDays != nil {
		return *c.MaxDeltaDays
	}
	return DefaultMaxDeltaDays
}

// TransferFileName returns the interchange file name routed to the transaction importer
func (c *Config) TransferFileName() string {
	return c.Name + ".json"
}

// BalanceFileName returns the interchange file name routed to the balance importer
func (c *Config) BalanceFileName() string {
	return c.Name + "-balances.json"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
