package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Catalogue CatalogueConfig `mapstructure:"catalogue"`
	Pricing   PricingConfig   `mapstructure:"pricing"`
	Scraper   ScraperConfig   `mapstructure:"scraper"`
	FX        FXConfig        `mapstructure:"fx"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Output    OutputConfig    `mapstructure:"output"`
}

// CatalogueConfig locates the merchant catalogue to price
type CatalogueConfig struct {
	CSVPath string `mapstructure:"csv_path"`
}

// PricingConfig holds the optimizer and demand-model parameters
type PricingConfig struct {
	MarginFloor      float64            `mapstructure:"margin_floor"`
	PriceStep        float64            `mapstructure:"price_step"`
	BaselineUnits    float64            `mapstructure:"baseline_units"`
	BaseCurrency     string             `mapstructure:"base_currency"`
	Endings          []float64          `mapstructure:"endings"`
	ElasticityPriors map[string]float64 `mapstructure:"elasticity_priors"`
}

// ScraperConfig holds competitor-store scraping configuration
type ScraperConfig struct {
	Timeout              int           `mapstructure:"timeout"`
	MaxRetries           int           `mapstructure:"max_retries"`
	MaxWorkers           int           `mapstructure:"max_workers"`
	MaxRequestsPerSecond int           `mapstructure:"max_requests_per_second"`
	Proxies              []string      `mapstructure:"proxies"`
	Stores               []StoreConfig `mapstructure:"stores"`
}

// StoreConfig describes one competitor storefront
type StoreConfig struct {
	Name       string          `mapstructure:"name"`
	BaseURL    string          `mapstructure:"base_url"`
	SearchPath string          `mapstructure:"search_path"` // contains a {query} placeholder
	Currency   string          `mapstructure:"currency"`
	Selectors  SelectorsConfig `mapstructure:"selectors"`
}

// SelectorsConfig holds the CSS selectors used to extract listings
type SelectorsConfig struct {
	Item  string `mapstructure:"item"`
	Title string `mapstructure:"title"`
	Price string `mapstructure:"price"`
	URL   string `mapstructure:"url"`
	Brand string `mapstructure:"brand"`
	Size  string `mapstructure:"size"`
}

// FXConfig holds currency-rate configuration
type FXConfig struct {
	RatesURL string `mapstructure:"rates_url"`
	Timeout  int    `mapstructure:"timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// RedisConfig holds Redis connection details
type RedisConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Password      string `mapstructure:"password"`
	Database      int    `mapstructure:"database"`
	ConsumerGroup string `mapstructure:"consumer_group"`
	MinIdleTime   int    `mapstructure:"min_idle_time"`
}

// OutputConfig holds report and export destinations
type OutputConfig struct {
	DataDir   string `mapstructure:"data_dir"`
	ReportDir string `mapstructure:"report_dir"`
}

// Load loads configuration from YAML file with environment variable overrides
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil, fmt.Errorf("config.yaml file not found in current directory")
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("catalogue.csv_path", "./catalogue.csv")

	viper.SetDefault("pricing.margin_floor", 0.10)
	viper.SetDefault("pricing.price_step", 0.50)
	viper.SetDefault("pricing.baseline_units", 100.0)
	viper.SetDefault("pricing.base_currency", "USD")
	viper.SetDefault("pricing.endings", []float64{0.99, 0.95})

	viper.SetDefault("scraper.timeout", 30)
	viper.SetDefault("scraper.max_retries", 3)
	viper.SetDefault("scraper.max_workers", 10)
	viper.SetDefault("scraper.max_requests_per_second", 2)

	viper.SetDefault("fx.rates_url", "https://open.er-api.com/v6/latest")
	viper.SetDefault("fx.timeout", 10)

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "pricer")
	viper.SetDefault("database.user", "pricer_user")
	viper.SetDefault("database.password", "pricer_pass")

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.database", 0)
	viper.SetDefault("redis.consumer_group", "pricer_consumer")
	viper.SetDefault("redis.min_idle_time", 120)

	viper.SetDefault("output.data_dir", "./data")
	viper.SetDefault("output.report_dir", "./reports")
}
