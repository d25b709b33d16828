package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	configName = "config"
	configType = "yaml"
)

type Config struct {
	AppEnv     string `mapstructure:"APP_ENV"`
	AppName    string `mapstructure:"APP_NAME"`
	AppVersion string `mapstructure:"APP_VERSION"`
	NodeID     int64  `mapstructure:"NODE_ID"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`
	TLS        struct {
		Enable   bool   `mapstructure:"ENABLE"`
		CertPath string `mapstructure:"CERT_PATH"`
		KeyPath  string `mapstructure:"KEY_PATH"`
	} `mapstructure:"TLS"`
	Otel struct {
		Addr string `mapstructure:"ADDR"`
	} `mapstructure:"OTEL"`
	Pyroscope struct {
		Addr string `mapstructure:"ADDR"`
	} `mapstructure:"PYROSCOPE"`
	Server struct {
		Addr         string        `mapstructure:"ADDR"`
		ReadTimeout  time.Duration `mapstructure:"READ_TIMEOUT"`
		WriteTimeout time.Duration `mapstructure:"WRITE_TIMEOUT"`
		IdleTimeout  time.Duration `mapstructure:"IDLE_TIMEOUT"`
	} `mapstructure:"HTTP_SERVER"`
	Grpc struct {
		Addr string `mapstructure:"ADDR"`
	} `mapstructure:"GRPC_SERVER"`
	Database struct {
		Type           string `mapstructure:"TYPE"`
		Host           string `mapstructure:"HOST"`
		Port           string `mapstructure:"PORT"`
		DBNAME         string `mapstructure:"DBNAME"`
		User           string `mapstructure:"USER"`
		Password       string `mapstructure:"PASSWORD"`
		SSLMode        string `mapstructure:"SSLMODE"`
		Timezone       string `mapstructure:"TIMEZONE"`
		Metrics        bool   `mapstructure:"METRICS"`
		Tracing        bool   `mapstructure:"TRACING"`
		ConnectionPool struct {
			MaxIdleConn     int           `mapstructure:"MAX_IDLE_CONN"`
			MaxOpenConns    int           `mapstructure:"MAX_OPEN_CONNS"`
			ConnMaxLifetime time.Duration `mapstructure:"CONN_MAX_LIFETIME"`
			ConnMaxIdleTime time.Duration `mapstructure:"CONN_MAX_IDLE_TIME"`
		} `mapstructure:"CONNECTION_POOL"`
	} `mapstructure:"DATABASE"`
	Redis struct {
		Addr        string        `mapstructure:"ADDR"`
		Password    string        `mapstructure:"PASSWORD"`
		DB          int           `mapstructure:"DB"`
		PoolSize    int           `mapstructure:"POOL_SIZE"`
		PoolTimeout time.Duration `mapstructure:"POOL_TIMEOUT"`
	} `mapstructure:"REDIS"`
	Store struct {
		Backend      string        `mapstructure:"BACKEND"` // gorm | redis | memory
		CallTimeout  time.Duration `mapstructure:"CALL_TIMEOUT"`
		MaxTxRetries int           `mapstructure:"MAX_TX_RETRIES"`
		KeyPrefix    string        `mapstructure:"KEY_PREFIX"`
	} `mapstructure:"STORE"`
	Coin struct {
		WindowDays  int    `mapstructure:"WINDOW_DAYS"`
		RedeemCoins int64  `mapstructure:"REDEEM_COINS"`
		RedeemValue int64  `mapstructure:"REDEEM_VALUE"`
		PayoutQueue string `mapstructure:"PAYOUT_QUEUE"`
	} `mapstructure:"COIN"`
	Worker struct {
		Concurrency int `mapstructure:"CONCURRENCY"`
	} `mapstructure:"WORKER"`
}

var Module = fx.Module("config", fx.Provide(LoadConfig))

// Default returns the configuration used when no config file is present.
func Default() *Config {
	var cfg Config
	cfg.AppEnv = "development"
	cfg.AppName = "nearbyu-loyalty"
	cfg.NodeID = 1
	cfg.LogLevel = "info"
	cfg.Server.Addr = "8080"
	cfg.Server.ReadTimeout = 15 * time.Second
	cfg.Server.WriteTimeout = 15 * time.Second
	cfg.Server.IdleTimeout = 60 * time.Second
	cfg.Grpc.Addr = "9090"
	cfg.Database.Type = "sqlite"
	cfg.Database.DBNAME = "nearbyu.db"
	cfg.Database.SSLMode = "disable"
	cfg.Database.Timezone = "UTC"
	cfg.Redis.Addr = "127.0.0.1:6379"
	cfg.Redis.PoolSize = 10
	cfg.Redis.PoolTimeout = 5 * time.Second
	cfg.Store.Backend = "gorm"
	cfg.Store.CallTimeout = 5 * time.Second
	cfg.Store.MaxTxRetries = 5
	cfg.Store.KeyPrefix = "nearbyu"
	cfg.Coin.WindowDays = 30
	cfg.Coin.RedeemCoins = 10
	cfg.Coin.RedeemValue = 10
	cfg.Coin.PayoutQueue = "payout"
	cfg.Worker.Concurrency = 10
	return &cfg
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("APP_ENV", d.AppEnv)
	v.SetDefault("APP_NAME", d.AppName)
	v.SetDefault("NODE_ID", d.NodeID)
	v.SetDefault("LOG_LEVEL", d.LogLevel)
	v.SetDefault("HTTP_SERVER.ADDR", d.Server.Addr)
	v.SetDefault("HTTP_SERVER.READ_TIMEOUT", d.Server.ReadTimeout)
	v.SetDefault("HTTP_SERVER.WRITE_TIMEOUT", d.Server.WriteTimeout)
	v.SetDefault("HTTP_SERVER.IDLE_TIMEOUT", d.Server.IdleTimeout)
	v.SetDefault("GRPC_SERVER.ADDR", d.Grpc.Addr)
	v.SetDefault("DATABASE.TYPE", d.Database.Type)
	v.SetDefault("DATABASE.DBNAME", d.Database.DBNAME)
	v.SetDefault("DATABASE.SSLMODE", d.Database.SSLMode)
	v.SetDefault("DATABASE.TIMEZONE", d.Database.Timezone)
	v.SetDefault("REDIS.ADDR", d.Redis.Addr)
	v.SetDefault("REDIS.POOL_SIZE", d.Redis.PoolSize)
	v.SetDefault("REDIS.POOL_TIMEOUT", d.Redis.PoolTimeout)
	v.SetDefault("STORE.BACKEND", d.Store.Backend)
	v.SetDefault("STORE.CALL_TIMEOUT", d.Store.CallTimeout)
	v.SetDefault("STORE.MAX_TX_RETRIES", d.Store.MaxTxRetries)
	v.SetDefault("STORE.KEY_PREFIX", d.Store.KeyPrefix)
	v.SetDefault("COIN.WINDOW_DAYS", d.Coin.WindowDays)
	v.SetDefault("COIN.REDEEM_COINS", d.Coin.RedeemCoins)
	v.SetDefault("COIN.REDEEM_VALUE", d.Coin.RedeemValue)
	v.SetDefault("COIN.PAYOUT_QUEUE", d.Coin.PayoutQueue)
	v.SetDefault("WORKER.CONCURRENCY", d.Worker.Concurrency)
}

// Load reads config.yaml from the given paths, overlaid with environment
// variables (HTTP_SERVER.ADDR is read from HTTP_SERVER_ADDR).
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType(configType)
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func LoadConfig() *Config {
	cfg, err := Load()
	if err != nil {
		zap.L().Error("failed to load config", zap.Error(err))
		os.Exit(1)
	}
	return cfg
}

// Window is the length of one award cycle.
func (c *Config) Window() time.Duration {
	days := c.Coin.WindowDays
	if days <= 0 {
		days = 30
	}
	return time.Duration(days) * 24 * time.Hour
}
