package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

const configFilePathENV = "CONFIG_FILE"

// TrendFlowConfig — параметры одного трендового фильтра (быстрого или медленного).
type TrendFlowConfig struct {
	Main   int     `mapstructure:"main" yaml:"main"`
	Smooth int     `mapstructure:"smooth" yaml:"smooth"`
	Sens   float64 `mapstructure:"sens" yaml:"sens"`
}

// StrategyConfig — все параметры движка. Никаких глобальных синглтонов:
// конфиг передаётся в конструкторы явно.
type StrategyConfig struct {
	Symbol    string `mapstructure:"symbol" yaml:"symbol"`
	PrimaryTF string `mapstructure:"primary_tf" yaml:"primary_tf"`
	SlowTF    string `mapstructure:"slow_tf" yaml:"slow_tf"`

	MaxBars int `mapstructure:"max_bars" yaml:"max_bars"` // ёмкость буфера свечей
	MinBars int `mapstructure:"min_bars" yaml:"min_bars"` // до этого числа закрытий движок молчит

	TrendFast TrendFlowConfig `mapstructure:"trend_fast" yaml:"trend_fast"`
	TrendSlow TrendFlowConfig `mapstructure:"trend_slow" yaml:"trend_slow"`

	PivotLeft  int `mapstructure:"pivot_left" yaml:"pivot_left"`
	PivotRight int `mapstructure:"pivot_right" yaml:"pivot_right"`

	BBLength int     `mapstructure:"bb_length" yaml:"bb_length"`
	BBMult   float64 `mapstructure:"bb_mult" yaml:"bb_mult"`
	KCLength int     `mapstructure:"kc_length" yaml:"kc_length"`
	KCMult   float64 `mapstructure:"kc_mult" yaml:"kc_mult"`

	SMASlow int `mapstructure:"sma_slow" yaml:"sma_slow"`

	// BreakTolerance — минимальный пробой уровня в долях цены, 0.001 => 0.1%
	BreakTolerance float64 `mapstructure:"break_tolerance" yaml:"break_tolerance"`

	MomentumWindow int `mapstructure:"momentum_window" yaml:"momentum_window"` // свечей на подтверждение
	ConfluenceMin  int `mapstructure:"confluence_min" yaml:"confluence_min"`   // минимум факторов из пяти
}

type BrokerConfig struct {
	WSURL     string `mapstructure:"ws_url" yaml:"ws_url"`
	RESTURL   string `mapstructure:"rest_url" yaml:"rest_url"`
	APIKey    string `mapstructure:"api_key" yaml:"-"`
	APISecret string `mapstructure:"api_secret" yaml:"-"`

	// RateLimit — запросов в секунду на REST, Burst — разрешённый всплеск.
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
	Burst     int     `mapstructure:"burst" yaml:"burst"`
}

type TelegramConfig struct {
	Token  string `mapstructure:"token" yaml:"-"`
	ChatID int64  `mapstructure:"chat_id" yaml:"chat_id"`
}

type DashboardConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

type TracingConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Host    string `mapstructure:"host" yaml:"host"`
	Port    int    `mapstructure:"port" yaml:"port"`
}

// Config ...
type Config struct {
	Broker    BrokerConfig    `mapstructure:"broker" yaml:"broker"`
	Strategy  StrategyConfig  `mapstructure:"strategy" yaml:"strategy"`
	Telegram  TelegramConfig  `mapstructure:"telegram" yaml:"telegram"`
	Dashboard DashboardConfig `mapstructure:"dashboard" yaml:"dashboard"`
	Tracing   TracingConfig   `mapstructure:"tracing" yaml:"tracing"`

	// AutoTrade — отправлять ли ордера по сигналам; без него бот только сигналит.
	AutoTrade bool `mapstructure:"auto_trade" yaml:"auto_trade"`
	OrderSize int  `mapstructure:"order_size" yaml:"order_size"`
}

func NewConfig() (*Config, error) {
	// .env опционален, живёт рядом с бинарём
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// CONFIG_FILE — полный путь к yaml; без него берём файл рядом с бинарём
	configPath := os.Getenv(configFilePathENV)
	if configPath == "" {
		configPath = "configs/values_local.yaml"
	}
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		// без файла работаем на дефолтах и env
		if !os.IsNotExist(errors.Cause(err)) {
			return nil, errors.Wrap(err, "read config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("broker.ws_url", "ws://127.0.0.1:7497/ws")
	v.SetDefault("broker.rest_url", "http://127.0.0.1:7496")
	v.SetDefault("broker.rate_limit", 5.0)
	v.SetDefault("broker.burst", 10)

	// секреты задаются только через env; пустой дефолт нужен, чтобы viper
	// знал ключ — иначе Unmarshal не увидит BOT_BROKER_API_KEY и прочие
	v.SetDefault("broker.api_key", "")
	v.SetDefault("broker.api_secret", "")
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.chat_id", 0)

	v.SetDefault("strategy.symbol", "NQ")
	v.SetDefault("strategy.primary_tf", "1m")
	v.SetDefault("strategy.slow_tf", "15m")
	v.SetDefault("strategy.max_bars", 200)
	v.SetDefault("strategy.min_bars", 50)

	v.SetDefault("strategy.trend_fast.main", 6)
	v.SetDefault("strategy.trend_fast.smooth", 14)
	v.SetDefault("strategy.trend_fast.sens", 2.0)
	v.SetDefault("strategy.trend_slow.main", 10)
	v.SetDefault("strategy.trend_slow.smooth", 14)
	v.SetDefault("strategy.trend_slow.sens", 2.0)

	v.SetDefault("strategy.pivot_left", 10)
	v.SetDefault("strategy.pivot_right", 5)

	v.SetDefault("strategy.bb_length", 20)
	v.SetDefault("strategy.bb_mult", 2.0)
	v.SetDefault("strategy.kc_length", 20)
	v.SetDefault("strategy.kc_mult", 1.5)

	v.SetDefault("strategy.sma_slow", 200)
	v.SetDefault("strategy.break_tolerance", 0.001)
	v.SetDefault("strategy.momentum_window", 6)
	v.SetDefault("strategy.confluence_min", 4)

	v.SetDefault("dashboard.addr", ":8080")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.host", "127.0.0.1")
	v.SetDefault("tracing.port", 6831)

	v.SetDefault("auto_trade", false)
	v.SetDefault("order_size", 1)
}

// Render отдаёт эффективный конфиг в yaml — для стартового лога и /configz.
// Секреты наружу не попадают (yaml:"-").
func (c *Config) Render() string {
	bs, err := yaml.Marshal(c)
	if err != nil {
		return ""
	}
	return string(bs)
}
