package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"FinDash/pkg/util"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

// Config is the explicit configuration object handed to both entry points.
type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Log         struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Server struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`
	Metrics struct {
		Enabled       bool          `yaml:"enabled" default:"true"`
		Path          string        `yaml:"path" default:"/metrics"`
		SlowThreshold time.Duration `yaml:"slow_threshold" default:"2s"`
	} `yaml:"metrics"`
	Training struct {
		Source       string  `yaml:"source" default:"csv"` // csv | clickhouse
		DataPath     string  `yaml:"data_path" default:"data/historical_stocks.csv"`
		ModelDir     string  `yaml:"model_dir" default:"models"`
		Window       int     `yaml:"window" default:"10"`
		MinRows      int     `yaml:"min_rows" default:"20"`
		Tiers        int     `yaml:"tiers" default:"3"`
		TestSize     float64 `yaml:"test_size" default:"0.2"`
		Seed         int64   `yaml:"seed" default:"42"`
		NEstimators  int     `yaml:"n_estimators" default:"100"`
		Contaminate  float64 `yaml:"contamination" default:"0.03"`
		AtomicCommit bool    `yaml:"atomic_commit"`
		Schedule     string  `yaml:"schedule"`
		LedgerPath   string  `yaml:"ledger_path"`
		Columns      struct {
			Ticker string `yaml:"ticker" default:"Name"`
			Date   string `yaml:"date" default:"Date"`
			Close  string `yaml:"close" default:"Close"`
			Volume string `yaml:"volume" default:"Volume"`
		} `yaml:"columns"`
	} `yaml:"training"`
	Dashboard struct {
		Symbols        []string      `yaml:"symbols" default:"[\"AAPL\",\"MSFT\",\"GOOGL\",\"TSLA\",\"NVDA\",\"SPY\",\"QQQ\"]"`
		DefaultSymbols []string      `yaml:"default_symbols" default:"[\"AAPL\",\"SPY\"]"`
		Lookback       time.Duration `yaml:"lookback" default:"120h"`
		Timeframe      string        `yaml:"timeframe" default:"1Hour"`
		Feed           string        `yaml:"feed" default:"iex"`
		MAWindow       int           `yaml:"ma_window" default:"24"`
		Projection     int           `yaml:"projection" default:"24"`
		PushInterval   time.Duration `yaml:"push_interval"`
		CacheTTL       time.Duration `yaml:"cache_ttl" default:"5m"`
		Footer         string        `yaml:"footer" default:"© FinDash"`
	} `yaml:"dashboard"`
	Alpaca struct {
		APIKey     string        `yaml:"api_key"`
		APISecret  string        `yaml:"api_secret"`
		DataURL    string        `yaml:"data_url" default:"https://data.alpaca.markets"`
		Timeout    time.Duration `yaml:"timeout" default:"10s"`
		PageLimit  int           `yaml:"page_limit" default:"10000"`
		RatePerSec float64       `yaml:"rate_per_sec" default:"3"`
		Burst      int           `yaml:"burst" default:"10"`
	} `yaml:"alpaca"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"findash"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic" default:"findash.training.results"`
		RequiredAcks int           `yaml:"required_acks" default:"-1"`
		Compression  string        `yaml:"compression" default:"gzip"`
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host        string        `yaml:"host"`
		Port        int           `yaml:"port" default:"9000"`
		Database    string        `yaml:"database" default:"findash"`
		User        string        `yaml:"user" default:"default"`
		Password    string        `yaml:"password"`
		Table       string        `yaml:"table" default:"historical_prices"`
		UseHTTP     bool          `yaml:"use_http"`
		DialTimeout time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout time.Duration `yaml:"read_timeout" default:"30s"`
		QueryLimit  time.Duration `yaml:"query_limit" default:"60s"`
	} `yaml:"clickhouse"`
}

// Default returns a config populated only from struct defaults.
func Default() *Config {
	var c Config
	if err := defaults.Set(&c); err != nil {
		// tags are static; a failure here is a programming error
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return &c
}

// Load applies defaults, then the YAML file at path on top. A missing file is not an error.
func Load(path string) (*Config, error) {
	c := Default()

	b, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(b) > 0 {
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	return c, nil
}

// LoadWithEnv loads config and overrides it with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.ApplyEnv()
	return c, nil
}

// ApplyEnv overrides fields from the process environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		c.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_SECRET_KEY"); v != "" {
		c.Alpaca.APISecret = v
	}
	if v := os.Getenv("DATA_PATH"); v != "" {
		c.Training.DataPath = v
	}
	if v := os.Getenv("MODEL_DIR"); v != "" {
		c.Training.ModelDir = v
	}
	if v := os.Getenv("TRAINING_SCHEDULE"); v != "" {
		c.Training.Schedule = v
	}
	if v := os.Getenv("TRAINING_SEED"); v != "" {
		c.Training.Seed = int64(util.ParseIntDefault(v, int(c.Training.Seed)))
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = util.SplitList(v)
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		c.Server.Port = util.ParseIntDefault(v, c.Server.Port)
	}
}

// ValidateTraining checks the fields the training pipeline depends on.
func (c *Config) ValidateTraining() error {
	switch c.Training.Source {
	case "csv":
		if c.Training.DataPath == "" {
			return fmt.Errorf("training.data_path is required")
		}
	case "clickhouse":
		if c.ClickHouse.Host == "" {
			return fmt.Errorf("clickhouse.host is required when training.source is clickhouse")
		}
	default:
		return fmt.Errorf("training.source must be 'csv' or 'clickhouse', got '%s'", c.Training.Source)
	}
	if c.Training.ModelDir == "" {
		return fmt.Errorf("training.model_dir is required")
	}
	if c.Training.Window < 2 {
		return fmt.Errorf("training.window must be at least 2")
	}
	if c.Training.Tiers < 2 {
		return fmt.Errorf("training.tiers must be at least 2")
	}
	if c.Training.TestSize <= 0 || c.Training.TestSize >= 1 {
		return fmt.Errorf("training.test_size must be in (0, 1)")
	}
	if c.Training.Contaminate <= 0 || c.Training.Contaminate >= 0.5 {
		return fmt.Errorf("training.contamination must be in (0, 0.5)")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	return nil
}

// ValidateDashboard checks the fields the dashboard depends on. Missing credentials are fatal.
func (c *Config) ValidateDashboard() error {
	if c.Alpaca.APIKey == "" {
		return fmt.Errorf("alpaca.api_key is required")
	}
	if c.Alpaca.APISecret == "" {
		return fmt.Errorf("alpaca.api_secret is required")
	}
	if len(c.Dashboard.Symbols) == 0 {
		return fmt.Errorf("dashboard.symbols cannot be empty")
	}
	if c.Dashboard.MAWindow < 1 {
		return fmt.Errorf("dashboard.ma_window must be positive")
	}
	if c.Dashboard.Lookback <= 0 {
		return fmt.Errorf("dashboard.lookback must be positive")
	}
	if c.Alpaca.RatePerSec <= 0 {
		return fmt.Errorf("alpaca.rate_per_sec must be positive")
	}
	if c.Alpaca.Burst < 1 {
		return fmt.Errorf("alpaca.burst must be at least 1")
	}
	return nil
}
