package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Pricing   PricingConfig
	Storage   StorageConfig
	Webhooks  WebhookConfig
	Sheets    SheetsConfig
	Reporting ReportingConfig
	MongoDB   MongoDBConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port     string
	LogLevel string
	// Env is "development" or "production".
	Env string
}

// Development reports whether human readable logs were requested.
func (c ServerConfig) Development() bool {
	return strings.EqualFold(c.Env, "development")
}

// PricingConfig carries the request fallbacks and the shipping tariff used
// by the quotation engine.
type PricingConfig struct {
	DefaultMarkup          float64
	DefaultDiscount        float64
	DefaultExchangeRate    float64
	DefaultOriginPort      string
	DefaultDestinationPort string
	Tariff                 TariffConfig
}

// TariffConfig describes how shipping costs are derived.
type TariffConfig struct {
	// RouteCosts is keyed by lower-cased "origin-destination".
	RouteCosts       map[string]float64
	DefaultRouteCost float64
	WeightRate       float64 // per kg
	VolumeRate       float64 // per m3
	InsuranceRate    float64 // fraction of declared value
	TaxRate          float64 // fraction of base + variable cost
}

// StorageConfig controls where quotation documents are written.
type StorageConfig struct {
	QuotationsDir string
}

// WebhookConfig lists the upstream endpoints reachable through the proxy.
type WebhookConfig struct {
	Endpoints map[string]string
	Timeout   time.Duration
	// CacheTTL keeps successful GET lookups for this long. Zero disables caching.
	CacheTTL time.Duration
}

// SheetsConfig contains configuration required to interact with Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// Enabled reports whether the Sheets ledger should be wired.
func (c SheetsConfig) Enabled() bool {
	return c.CredentialsPath != "" && c.SpreadsheetID != ""
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	CronSchedule string
	Timezone     string
}

// Location resolves Timezone, defaulting to the process zone when unset.
func (c ReportingConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// Enabled reports whether the MongoDB archive should be wired.
func (c MongoDBConfig) Enabled() bool {
	return c.URI != ""
}

// DefaultRouteCosts is the route table used when QUOTE_ROUTE_COSTS is unset.
var DefaultRouteCosts = map[string]float64{
	"valencia-valparaiso":  2500,
	"valencia-sanantonio":  2400,
	"barcelona-valparaiso": 2600,
	"barcelona-sanantonio": 2500,
}

// DefaultWebhookEndpoints is the proxy map used when no WEBHOOK_<NAME>_URL overrides it.
var DefaultWebhookEndpoints = map[string]string{
	"principal":     "https://n8n-807184488368.southamerica-west1.run.app/webhook/6f697684-4cfc-4bc1-8918-bfffc9f20b9f",
	"opcionales":    "https://n8n-807184488368.southamerica-west1.run.app/webhook/ac8b70a7-6be5-4e1a-87b3-3813464dd254",
	"ver_detalle":   "https://n8n-807184488368.southamerica-west1.run.app/webhook/c02247e7-84f0-49b3-a2df-28817da48017",
	"cotizacion":    "https://n8n-807184488368.southamerica-west1.run.app/webhook/d9f32e08-c5d2-4a77-b3de-ba817e8fca3e",
	"calculo_envio": "https://n8n-807184488368.southamerica-west1.run.app/webhook/ceec46e2-1fa3-4f9b-94bb-a974bc439bf6",
	"dashboard":     "https://n8n-807184488368.southamerica-west1.run.app/webhook/8012d60e-8a29-4910-b385-6514edc3d912",
}

// DefaultPricing returns the built-in pricing configuration.
func DefaultPricing() PricingConfig {
	routes := make(map[string]float64, len(DefaultRouteCosts))
	for k, v := range DefaultRouteCosts {
		routes[k] = v
	}
	return PricingConfig{
		DefaultMarkup:          20,
		DefaultDiscount:        5,
		DefaultExchangeRate:    950,
		DefaultOriginPort:      "valencia",
		DefaultDestinationPort: "valparaiso",
		Tariff: TariffConfig{
			RouteCosts:       routes,
			DefaultRouteCost: 3000,
			WeightRate:       5,
			VolumeRate:       100,
			InsuranceRate:    0.01,
			TaxRate:          0.19,
		},
	}
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are fine when everything comes from the environment.
		_ = godotenv.Load()
	}

	pricing, err := loadPricing()
	if err != nil {
		return nil, err
	}

	webhookTimeout, err := getenvDuration("WEBHOOK_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	webhookCacheTTL, err := getenvDuration("WEBHOOK_CACHE_TTL", 0)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:     getenvWithDefault("APP_PORT", "5000"),
			LogLevel: getenvWithDefault("LOG_LEVEL", "info"),
			Env:      getenvWithDefault("APP_ENV", "production"),
		},
		Pricing: pricing,
		Storage: StorageConfig{
			QuotationsDir: getenvWithDefault("QUOTATIONS_DIR", "data/cotizaciones"),
		},
		Webhooks: WebhookConfig{
			Endpoints: loadWebhookEndpoints(),
			Timeout:   webhookTimeout,
			CacheTTL:  webhookCacheTTL,
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
		},
		Reporting: ReportingConfig{
			CronSchedule: getenvWithDefault("REPORT_CRON_SCHEDULE", "55 23 * * *"),
			Timezone:     getenvWithDefault("TIMEZONE", "America/Santiago"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "cotizador"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.Storage.QuotationsDir == "" {
		return errors.New("QUOTATIONS_DIR must not be empty")
	}

	if err := c.Pricing.Validate(); err != nil {
		return err
	}

	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_DATABASE_ID must be provided together")
	}

	if c.Sheets.Enabled() && c.Reporting.CronSchedule == "" {
		return errors.New("REPORT_CRON_SCHEDULE must be provided")
	}

	if c.Reporting.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}

	if _, err := c.Reporting.Location(); err != nil {
		return err
	}

	if c.MongoDB.Enabled() && c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must not be empty")
	}

	return nil
}

// Validate checks the tariff and fallbacks for values the engine cannot use.
func (p PricingConfig) Validate() error {
	switch {
	case p.DefaultExchangeRate <= 0:
		return errors.New("QUOTE_DEFAULT_EXCHANGE_RATE must be positive")
	case p.DefaultMarkup < 0:
		return errors.New("QUOTE_DEFAULT_MARKUP must not be negative")
	case p.DefaultDiscount < 0 || p.DefaultDiscount > 100:
		return errors.New("QUOTE_DEFAULT_DISCOUNT must be within [0,100]")
	case p.Tariff.DefaultRouteCost < 0:
		return errors.New("QUOTE_DEFAULT_ROUTE_COST must not be negative")
	case p.Tariff.WeightRate < 0, p.Tariff.VolumeRate < 0:
		return errors.New("QUOTE_WEIGHT_RATE and QUOTE_VOLUME_RATE must not be negative")
	case p.Tariff.InsuranceRate < 0, p.Tariff.TaxRate < 0:
		return errors.New("QUOTE_INSURANCE_RATE and QUOTE_TAX_RATE must not be negative")
	}
	for route, cost := range p.Tariff.RouteCosts {
		if cost < 0 {
			return fmt.Errorf("route %s has a negative cost", route)
		}
	}
	return nil
}

// ParseRouteCosts parses "origin-destination=cost" pairs separated by commas.
// Keys are lower-cased so lookups stay case-insensitive.
func ParseRouteCosts(raw string) (map[string]float64, error) {
	routes := make(map[string]float64)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		route, cost, ok := strings.Cut(pair, "=")
		route = strings.ToLower(strings.TrimSpace(route))
		if !ok || route == "" || !strings.Contains(route, "-") {
			return nil, fmt.Errorf("invalid route entry %q, expected origin-destination=cost", pair)
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(cost), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid cost for route %s: %w", route, err)
		}
		routes[route] = value
	}
	if len(routes) == 0 {
		return nil, errors.New("route table is empty")
	}
	return routes, nil
}

func loadPricing() (PricingConfig, error) {
	p := DefaultPricing()

	floats := []struct {
		key string
		dst *float64
	}{
		{"QUOTE_DEFAULT_MARKUP", &p.DefaultMarkup},
		{"QUOTE_DEFAULT_DISCOUNT", &p.DefaultDiscount},
		{"QUOTE_DEFAULT_EXCHANGE_RATE", &p.DefaultExchangeRate},
		{"QUOTE_DEFAULT_ROUTE_COST", &p.Tariff.DefaultRouteCost},
		{"QUOTE_WEIGHT_RATE", &p.Tariff.WeightRate},
		{"QUOTE_VOLUME_RATE", &p.Tariff.VolumeRate},
		{"QUOTE_INSURANCE_RATE", &p.Tariff.InsuranceRate},
		{"QUOTE_TAX_RATE", &p.Tariff.TaxRate},
	}
	for _, f := range floats {
		v, err := getenvFloat(f.key, *f.dst)
		if err != nil {
			return PricingConfig{}, err
		}
		*f.dst = v
	}

	p.DefaultOriginPort = getenvWithDefault("QUOTE_DEFAULT_ORIGIN_PORT", p.DefaultOriginPort)
	p.DefaultDestinationPort = getenvWithDefault("QUOTE_DEFAULT_DESTINATION_PORT", p.DefaultDestinationPort)

	if raw := os.Getenv("QUOTE_ROUTE_COSTS"); raw != "" {
		routes, err := ParseRouteCosts(raw)
		if err != nil {
			return PricingConfig{}, fmt.Errorf("QUOTE_ROUTE_COSTS: %w", err)
		}
		p.Tariff.RouteCosts = routes
	}

	return p, nil
}

func loadWebhookEndpoints() map[string]string {
	endpoints := make(map[string]string, len(DefaultWebhookEndpoints))
	for name, url := range DefaultWebhookEndpoints {
		key := "WEBHOOK_" + strings.ToUpper(name) + "_URL"
		endpoints[name] = getenvWithDefault(key, url)
	}
	return endpoints
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvFloat(key string, fallback float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be numeric: %w", key, err)
	}
	return f, nil
}

func getenvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}
