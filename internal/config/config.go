// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Sui       SuiConfig       `mapstructure:"sui"`
	Bluefin   BluefinConfig   `mapstructure:"bluefin"`
	FlowX     FlowXConfig     `mapstructure:"flowx"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Health    HealthConfig    `mapstructure:"health"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// HTTPConfig holds the API listener settings.
type HTTPConfig struct {
	Port            int           `mapstructure:"port"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the listen address.
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// SuiConfig holds the Sui fullnode JSON-RPC settings.
type SuiConfig struct {
	RPCURL            string        `mapstructure:"rpc_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	PageSize          int           `mapstructure:"page_size"`
}

// BluefinConfig holds the Bluefin spot protocol settings.
type BluefinConfig struct {
	APIURL            string        `mapstructure:"api_url"`
	BasePackage       string        `mapstructure:"base_package"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
}

// FlowXConfig holds the FlowX CLMM API settings.
type FlowXConfig struct {
	APIURL            string        `mapstructure:"api_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	BatchConcurrency  int           `mapstructure:"batch_concurrency"`
}

// StorageConfig selects and configures the backing store.
type StorageConfig struct {
	Driver  string `mapstructure:"driver"`
	DSN     string `mapstructure:"dsn"`
	Migrate bool   `mapstructure:"migrate"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	TraceExporter  string `mapstructure:"trace_exporter"` // otlp-grpc, otlp-http, zipkin, console, none
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"` // key=value
	PrometheusPort int    `mapstructure:"prometheus_port"`
	RecordBodies   bool   `mapstructure:"record_bodies"` // outbound request/response bodies as span events
}

// HealthConfig holds the health probe listener settings.
type HealthConfig struct {
	Port int `mapstructure:"port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("POOL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "POOL_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "POOL_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "POOL_LOG_LEVEL", "LOG_LEVEL")

	// HTTP
	v.BindEnv("http.port", "POOL_HTTP_PORT", "PORT")

	// Sui
	v.BindEnv("sui.rpc_url", "POOL_SUI_RPC_URL", "SUI_RPC_URL")

	// Bluefin
	v.BindEnv("bluefin.api_url", "POOL_BLUEFIN_API_URL", "BLUEFIN_API_URL")
	v.BindEnv("bluefin.base_package", "POOL_BLUEFIN_BASE_PACKAGE", "BLUEFIN_BASE_PACKAGE")

	// FlowX
	v.BindEnv("flowx.api_url", "POOL_FLOWX_API_URL", "FLOWX_API_URL")

	// Storage
	v.BindEnv("storage.driver", "POOL_STORAGE_DRIVER", "STORAGE_DRIVER")
	v.BindEnv("storage.dsn", "POOL_DATABASE_URL", "DATABASE_URL")

	// Telemetry
	v.BindEnv("telemetry.enabled", "POOL_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "POOL_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "POOL_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("telemetry.otlp_headers", "POOL_OTEL_HEADERS", "OTEL_EXPORTER_OTLP_HEADERS")
	v.BindEnv("telemetry.record_bodies", "POOL_OTEL_RECORD_BODIES")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "pool-service")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("http.port", 3000)
	v.SetDefault("http.allowed_origins", []string{"*"})
	v.SetDefault("http.read_timeout", "15s")
	v.SetDefault("http.write_timeout", "60s")
	v.SetDefault("http.shutdown_timeout", "10s")

	v.SetDefault("sui.rpc_url", "https://fullnode.mainnet.sui.io:443")
	v.SetDefault("sui.timeout", "15s")
	v.SetDefault("sui.requests_per_second", 20)
	v.SetDefault("sui.page_size", 50)

	// Bluefin spot mainnet
	v.SetDefault("bluefin.api_url", "https://swap.api.sui-prod.bluefin.io")
	v.SetDefault("bluefin.base_package", "0x3492c874c1e3b3e2984e8c41b589e642d4d0a5d6459e5a9cfc2d52fd7c89c267")
	v.SetDefault("bluefin.timeout", "10s")
	v.SetDefault("bluefin.requests_per_second", 10)

	v.SetDefault("flowx.api_url", "https://api.flowx.finance")
	v.SetDefault("flowx.timeout", "10s")
	v.SetDefault("flowx.requests_per_second", 10)
	v.SetDefault("flowx.batch_concurrency", 4)

	v.SetDefault("storage.driver", DriverPostgres)
	v.SetDefault("storage.migrate", true)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "pool-service")
	v.SetDefault("telemetry.trace_exporter", "otlp-grpc")
	v.SetDefault("telemetry.prometheus_port", 9090)
	v.SetDefault("telemetry.record_bodies", false)

	v.SetDefault("health.port", 8081)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 {
		return fmt.Errorf("http.port must be positive, got %d", c.HTTP.Port)
	}
	if c.Sui.RPCURL == "" {
		return fmt.Errorf("sui.rpc_url is required")
	}
	if c.Bluefin.APIURL == "" {
		return fmt.Errorf("bluefin.api_url is required")
	}
	if !strings.HasPrefix(c.Bluefin.BasePackage, "0x") {
		return fmt.Errorf("invalid bluefin.base_package: %q", c.Bluefin.BasePackage)
	}
	if c.FlowX.APIURL == "" {
		return fmt.Errorf("flowx.api_url is required")
	}
	if c.FlowX.BatchConcurrency < 1 {
		return fmt.Errorf("flowx.batch_concurrency must be at least 1")
	}

	switch c.Storage.Driver {
	case DriverPostgres, DriverSQLite:
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for driver %s", c.Storage.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown storage.driver: %q", c.Storage.Driver)
	}
	return nil
}
