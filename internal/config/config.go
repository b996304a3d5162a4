package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the validated, immutable snapshot of everything the engine
// needs at startup. Nothing downstream mutates it.
type Config struct {
	Exchange ExchangeConfig
	Pairs    []Pair
	Accounts []Account
	Runtime  RuntimeConfig
}

type ExchangeConfig struct {
	OrderURL          string
	WSPublicURL       string
	WSPrivateURL      string
	APIInterval       time.Duration
	WebsocketInterval time.Duration
}

// Pair is the immutable per-symbol trading configuration.
type Pair struct {
	Symbol                   string
	Interval                 string
	Threshold                float64
	FeesExemptionPercentage  float64
	NumPreviousCandles       int
	USDTAmount               float64
	Leverage                 int
	WebhookURL               string
	ArmTTL                   time.Duration
}

// Account is one isolated trading identity credentialed against the
// exchange; the engine drives every configured pair for every account.
type Account struct {
	Name      string
	APIKey    string
	APISecret string
}

type LogConfig struct {
	Level      string
	Format     string
	File       string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

type RuntimeConfig struct {
	HealthPort int
	Log        LogConfig
}

const (
	historyCapacity    = 20
	defaultArmTTL      = 6 * time.Hour
	defaultLadderCount = 20
)

// HistoryCapacity is the fixed CandleHistory capacity shared by every pair.
func HistoryCapacity() int { return historyCapacity }

// LadderCount is the number of trigger-ladder rungs computed at position
// open; it is the same for every pair.
func LadderCount() int { return defaultLadderCount }

// Load reads config.{yaml,json} from ./configs (or CONFIG_PATH), applies
// ${ENV_VAR} substitution to the exchange URLs, each pair's symbol and
// webhook_url, and each account's api_key and api_secret, and validates
// the result. Other string fields are taken literally.
func Load() (*Config, error) {
	viper.AddConfigPath("configs")
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		viper.AddConfigPath(p)
	}
	viper.SetConfigName("config")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{
		Exchange: ExchangeConfig{
			OrderURL:          envSub(firstNonEmpty(os.Getenv("ORDER_URL"), viper.GetString("order_url"))),
			WSPublicURL:       envSub(viper.GetString("ws_public_url")),
			WSPrivateURL:      envSub(viper.GetString("ws_private_url")),
			APIInterval:       viper.GetDuration("api_interval"),
			WebsocketInterval: viper.GetDuration("websocket_interval"),
		},
		Runtime: RuntimeConfig{
			HealthPort: intOrDefault(viper.GetInt("runtime.health_port"), 3000),
			Log: LogConfig{
				Level:      stringOrDefault(viper.GetString("runtime.log.level"), "info"),
				Format:     stringOrDefault(viper.GetString("runtime.log.format"), "text"),
				File:       viper.GetString("runtime.log.file"),
				MaxSize:    intOrDefault(viper.GetInt("runtime.log.max_size"), 50),
				MaxBackups: intOrDefault(viper.GetInt("runtime.log.max_backups"), 5),
				MaxAge:     intOrDefault(viper.GetInt("runtime.log.max_age"), 30),
				Compress:   viper.GetBool("runtime.log.compress"),
			},
		},
	}

	rawPairs, ok := viper.Get("pairs").([]interface{})
	if !ok {
		return nil, fmt.Errorf("config: pairs must be a non-empty list")
	}
	for i, raw := range rawPairs {
		m, ok := raw.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("config: pairs[%d] is not an object", i)
		}
		cfg.Pairs = append(cfg.Pairs, pairFromMap(m))
	}

	rawAccounts, _ := viper.Get("accounts").([]interface{})
	for i, raw := range rawAccounts {
		m, ok := raw.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("config: accounts[%d] is not an object", i)
		}
		cfg.Accounts = append(cfg.Accounts, accountFromMap(m))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func pairFromMap(m map[string]interface{}) Pair {
	armTTL := defaultArmTTL
	if v, ok := m["arm_ttl"].(string); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			armTTL = d
		}
	}
	return Pair{
		Symbol:                  envSub(stringField(m, "symbol")),
		Interval:                stringFieldOrDefault(m, "interval", "1m"),
		Threshold:               floatField(m, "threshold"),
		FeesExemptionPercentage: floatField(m, "fees_exemption_percentage"),
		NumPreviousCandles:      intField(m, "num_previous_candles"),
		USDTAmount:              floatField(m, "usdt_amount"),
		Leverage:                intFieldOrDefault(m, "leverage", 1),
		WebhookURL:              envSub(stringField(m, "webhook_url")),
		ArmTTL:                  armTTL,
	}
}

func accountFromMap(m map[string]interface{}) Account {
	name := stringField(m, "name")
	apiKey := envSub(stringField(m, "api_key"))
	apiSecret := envSub(stringField(m, "api_secret"))
	if apiKey == "" {
		apiKey = os.Getenv(strings.ToUpper(name) + "_API_KEY")
	}
	if apiSecret == "" {
		apiSecret = os.Getenv(strings.ToUpper(name) + "_API_SECRET")
	}
	return Account{Name: name, APIKey: apiKey, APISecret: apiSecret}
}

// Validate enforces the startup checks from §4.8: non-empty pairs and
// accounts, complete credentials, positive notionals and history windows.
func (c *Config) Validate() error {
	if len(c.Pairs) == 0 {
		return fmt.Errorf("config: at least one pair is required")
	}
	if len(c.Accounts) == 0 {
		return fmt.Errorf("config: at least one account is required")
	}
	seenAccounts := map[string]bool{}
	for _, a := range c.Accounts {
		if a.Name == "" {
			return fmt.Errorf("config: account name is required")
		}
		if seenAccounts[a.Name] {
			return fmt.Errorf("config: duplicate account name %q", a.Name)
		}
		seenAccounts[a.Name] = true
		if a.APIKey == "" || a.APISecret == "" {
			return fmt.Errorf("config: account %q is missing credentials", a.Name)
		}
	}
	for _, p := range c.Pairs {
		if p.Symbol == "" {
			return fmt.Errorf("config: pair symbol is required")
		}
		if p.Threshold <= 0 {
			return fmt.Errorf("config: pair %q threshold must be positive", p.Symbol)
		}
		if p.FeesExemptionPercentage < 0 {
			return fmt.Errorf("config: pair %q fees_exemption_percentage must be non-negative", p.Symbol)
		}
		if p.NumPreviousCandles <= 0 || p.NumPreviousCandles > historyCapacity {
			return fmt.Errorf("config: pair %q num_previous_candles must be in (0, %d]", p.Symbol, historyCapacity)
		}
		if p.USDTAmount <= 0 {
			return fmt.Errorf("config: pair %q usdt_amount must be positive", p.Symbol)
		}
		if p.Leverage <= 0 {
			return fmt.Errorf("config: pair %q leverage must be positive", p.Symbol)
		}
	}
	return nil
}

var envPattern = regexp.MustCompile(`\$\{(\w+)\}`)

func envSub(val string) string {
	if val == "" {
		return ""
	}
	return envPattern.ReplaceAllStringFunc(val, func(match string) string {
		key := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		return os.Getenv(key)
	})
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func stringFieldOrDefault(m map[string]interface{}, key, def string) string {
	if v := stringField(m, key); v != "" {
		return v
	}
	return def
}

func floatField(m map[string]interface{}, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

func intField(m map[string]interface{}, key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

func intFieldOrDefault(m map[string]interface{}, key string, def int) int {
	if v := intField(m, key); v != 0 {
		return v
	}
	return def
}

func intOrDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func stringOrDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
