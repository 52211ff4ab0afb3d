package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/powerpix/powerpix-api/internal/domain"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type AppConfig struct {
	API        *APIConfig        `mapstructure:"api"`
	Gin        *GinConfig        `mapstructure:"gin"`
	Log        *LogConfig        `mapstructure:"log"`
	Storage    *StorageConfig    `mapstructure:"storage"`
	Postgres   *PostgresConfig   `mapstructure:"postgres"`
	Redis      *RedisConfig      `mapstructure:"redis"`
	Gateway    *GatewayConfig    `mapstructure:"gateway"`
	Results    *ResultsConfig    `mapstructure:"results"`
	Pricing    *PricingConfig    `mapstructure:"pricing"`
	Settlement *SettlementConfig `mapstructure:"settlement"`
	Cron       *CronConfig       `mapstructure:"cron"`
	Admin      *AdminConfig      `mapstructure:"admin"`

	v *viper.Viper
}

type APIConfig struct {
	Environment        string   `mapstructure:"environment"`
	Port               string   `mapstructure:"port"`
	BaseURL            string   `mapstructure:"base_url"`
	AllowedCORSDomains []string `mapstructure:"allowed_cors_domains"`
	JWTSigningKey      string   `mapstructure:"jwt_signing_key"`
}

type GinConfig struct {
	Mode string `mapstructure:"mode"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DB       string `mapstructure:"db"`
	SSLMode  string `mapstructure:"sslmode"`
	TimeZone string `mapstructure:"timezone"`
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	DedupTTL time.Duration `mapstructure:"dedup_ttl"`
}

type GatewayConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	APIKey       string        `mapstructure:"api_key"`
	WebhookToken string        `mapstructure:"webhook_token"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type ResultsConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// PricingConfig holds the fallback price used until an admin saves one. Amounts are decimals, e.g. "25.00".
type PricingConfig struct {
	BasePrice       string `mapstructure:"base_price"`
	DiscountPercent int64  `mapstructure:"discount_percent"`
	OverridePrice   string `mapstructure:"override_price"`
	PromoActive     bool   `mapstructure:"promo_active"`
}

type SettlementConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

type CronConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	Reconcile          string        `mapstructure:"reconcile"`
	ReconcileOlderThan time.Duration `mapstructure:"reconcile_older_than"`
	Results            string        `mapstructure:"results"`
}

type AdminConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

func (c *PricingConfig) Defaults() (domain.PriceConfig, error) {
	base, err := domain.ParseMoney(c.BasePrice)
	if err != nil {
		return domain.PriceConfig{}, fmt.Errorf("pricing.base_price -> %w", err)
	}

	var override domain.Money
	if c.OverridePrice != "" {
		override, err = domain.ParseMoney(c.OverridePrice)
		if err != nil {
			return domain.PriceConfig{}, fmt.Errorf("pricing.override_price -> %w", err)
		}
	}

	cfg := domain.PriceConfig{
		BasePrice:       base,
		DiscountPercent: c.DiscountPercent,
		OverridePrice:   override,
		PromoActive:     c.PromoActive,
	}
	if err := cfg.Validate(); err != nil {
		return domain.PriceConfig{}, err
	}

	return cfg, nil
}

func (c *PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.Host, c.User, c.Password, c.DB, c.Port, c.SSLMode, c.TimeZone)
}

func Load(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("v.ReadInConfig -> %w", err)
	}

	return unmarshal(v)
}

// OnChange reloads the file on every write and hands the new config to fn.
// Only hot-reloadable settings should be read from it.
func (c *AppConfig) OnChange(fn func(*AppConfig, error)) {
	c.v.OnConfigChange(func(fsnotify.Event) {
		fn(unmarshal(c.v))
	})
	c.v.WatchConfig()
}

func unmarshal(v *viper.Viper) (*AppConfig, error) {
	conf := &AppConfig{}
	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("v.Unmarshal -> %w", err)
	}
	conf.v = v

	return conf, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.environment", "development")
	v.SetDefault("api.port", "8080")
	v.SetDefault("api.base_url", "localhost:8080")
	v.SetDefault("api.allowed_cors_domains", []string{})
	v.SetDefault("api.jwt_signing_key", "")

	v.SetDefault("gin.mode", "debug")
	v.SetDefault("log.level", "info")
	v.SetDefault("storage.driver", StoragePostgres)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", "5432")
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.password", "postgres")
	v.SetDefault("postgres.db", "powerpix")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.timezone", "UTC")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.dedup_ttl", "10m")

	v.SetDefault("gateway.base_url", "https://sandbox.asaas.com/api/v3")
	v.SetDefault("gateway.api_key", "")
	v.SetDefault("gateway.webhook_token", "")
	v.SetDefault("gateway.timeout", "30s")

	v.SetDefault("results.base_url", "https://www.powerball.com")
	v.SetDefault("results.timeout", "10s")

	v.SetDefault("pricing.base_price", domain.DefaultBasePrice.String())
	v.SetDefault("pricing.discount_percent", 0)
	v.SetDefault("pricing.override_price", "")
	v.SetDefault("pricing.promo_active", false)

	v.SetDefault("settlement.concurrency", 8)

	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.reconcile", "0 */5 * * * *")
	v.SetDefault("cron.reconcile_older_than", "10m")
	v.SetDefault("cron.results", "0 0 * * * *")

	v.SetDefault("admin.username", "")
	v.SetDefault("admin.password", "")
}
