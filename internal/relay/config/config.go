package config

import (
	"fmt"
	"strings"

	"nft-relay/pkg/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config 定义整个配置的结构
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Server    ServerConfig    `mapstructure:"server"`
	Discord   DiscordConfig   `mapstructure:"discord"`
	Helius    HeliusConfig    `mapstructure:"helius"`
	Filter    FilterConfig    `mapstructure:"filter"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Queue     QueueConfig     `mapstructure:"queue"`
	Dedup     DedupConfig     `mapstructure:"dedup"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Monitor   MonitorConfig   `mapstructure:"monitor"`
}

// LogConfig Log 日志配置
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// ServerConfig 入站 webhook 服务配置
type ServerConfig struct {
	Addr          string `mapstructure:"addr"`
	WebhookSecret string `mapstructure:"webhook_secret"` // 为空时不校验签名
}

// DiscordConfig 下游 Discord webhook 配置
type DiscordConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
	Timeout    int    `mapstructure:"timeout"` // 秒
}

// HeliusConfig Helius API 配置
type HeliusConfig struct {
	APIKey          string `mapstructure:"api_key"`
	APIURL          string `mapstructure:"api_url"`
	BaseURL         string `mapstructure:"base_url"` // 本服务对外地址，用于 webhook 自注册
	AuthToken       string `mapstructure:"auth_token"`
	RegisterWebhook bool   `mapstructure:"register_webhook"`
}

// TraitFilter 目标特征，trait_type 与 value 精确匹配
type TraitFilter struct {
	TraitType string `mapstructure:"trait_type"`
	Value     string `mapstructure:"value"`
}

// FilterConfig 销售过滤配置
type FilterConfig struct {
	MerkleTree   string            `mapstructure:"merkle_tree"`
	MinSolValue  float64           `mapstructure:"min_sol_value"`
	TraitFilters []TraitFilter     `mapstructure:"trait_filters"`
	Marketplaces map[string]string `mapstructure:"marketplaces"`
}

// RateLimitConfig 出站令牌桶配置
type RateLimitConfig struct {
	WindowMs    int `mapstructure:"window_ms"`
	MaxRequests int `mapstructure:"max_requests"`
}

// QueueConfig 投递队列配置
type QueueConfig struct {
	Size                 int `mapstructure:"size"`
	ThrottleRetryMs      int `mapstructure:"throttle_retry_ms"`       // 本地令牌耗尽后的重试间隔
	DefaultRetryAfterSec int `mapstructure:"default_retry_after_sec"` // 429 未带提示时的默认等待
	MaxRateLimitRetries  int `mapstructure:"max_rate_limit_retries"`
	SendTimeoutSec       int `mapstructure:"send_timeout_sec"`
}

// DedupConfig 去重窗口配置
type DedupConfig struct {
	ClearIntervalSec int `mapstructure:"clear_interval_sec"`
}

// KafkaConfig 可选的分类结果外发配置，brokers 为空时关闭
type KafkaConfig struct {
	Brokers       string `mapstructure:"brokers"`
	TopicOutcomes string `mapstructure:"topic_outcomes"`
}

type MonitorConfig struct {
	Enable         bool   `mapstructure:"enable"`
	PrometheusAddr string `mapstructure:"prometheus_addr"`
}

func InitConfig() Config {
	var config Config

	viper.SetConfigName("config.relay")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config/")

	setDefaults()
	bindEnv()

	if err := viper.ReadInConfig(); err != nil {
		// 允许纯环境变量启动，文件缺失不致命
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			panic(fmt.Errorf("fatal error config file: %s", err))
		}
	}

	// 环境变量注入的值全是字符串，弱类型解码才能落到数值字段
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &config,
	})
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %s", err))
	}
	if err := decoder.Decode(viper.AllSettings()); err != nil {
		panic(fmt.Errorf("fatal error config file: %s", err))
	}

	if err := config.Validate(); err != nil {
		panic(err)
	}

	return config
}

// Validate 校验必填项，缺失时启动即失败
func (c Config) Validate() error {
	if c.Discord.WebhookURL == "" {
		return fmt.Errorf("config: discord.webhook_url is required")
	}
	if c.Filter.MerkleTree == "" {
		return fmt.Errorf("config: filter.merkle_tree is required")
	}
	if c.Filter.MinSolValue < 0 {
		return fmt.Errorf("config: filter.min_sol_value must be >= 0")
	}
	if c.RateLimit.WindowMs <= 0 || c.RateLimit.MaxRequests <= 0 {
		return fmt.Errorf("config: rate_limit window_ms and max_requests must be positive")
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("log.level", "info")
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("discord.timeout", 8)
	viper.SetDefault("helius.api_url", "https://api.helius.xyz")
	viper.SetDefault("filter.min_sol_value", 0.0)
	viper.SetDefault("rate_limit.window_ms", 60000)
	viper.SetDefault("rate_limit.max_requests", 8)
	viper.SetDefault("queue.size", 1024)
	viper.SetDefault("queue.throttle_retry_ms", 1000)
	viper.SetDefault("queue.default_retry_after_sec", 5)
	viper.SetDefault("queue.max_rate_limit_retries", 3)
	viper.SetDefault("queue.send_timeout_sec", 8)
	viper.SetDefault("dedup.clear_interval_sec", 60)
	viper.SetDefault("kafka.topic_outcomes", "nft.sale.outcomes")
	viper.SetDefault("monitor.enable", false)
	viper.SetDefault("monitor.prometheus_addr", ":9091")
}

// bindEnv 让关键配置可以直接从环境变量注入（部署时不落盘密钥）
func bindEnv() {
	viper.SetEnvPrefix("RELAY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	_ = viper.BindEnv("discord.webhook_url", "DISCORD_WEBHOOK_URL")
	_ = viper.BindEnv("server.webhook_secret", "WEBHOOK_SECRET")
	_ = viper.BindEnv("helius.api_key", "HELIUS_API_KEY")
	_ = viper.BindEnv("helius.api_url", "HELIUS_API_URL")
	_ = viper.BindEnv("helius.base_url", "BASE_URL")
	_ = viper.BindEnv("helius.auth_token", "AUTH_TOKEN")
	_ = viper.BindEnv("filter.merkle_tree", "MERKLE_TREE")
	_ = viper.BindEnv("filter.min_sol_value", "MIN_SOL_VALUE")
	_ = viper.BindEnv("rate_limit.window_ms", "RATE_LIMIT_WINDOW_MS")
	_ = viper.BindEnv("rate_limit.max_requests", "RATE_LIMIT_MAX_REQUESTS")
	_ = viper.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	_ = viper.BindEnv("server.addr", "PORT_ADDR")
}

func WatchConfig(config *Config) {
	viper.WatchConfig()
	viper.OnConfigChange(func(e fsnotify.Event) {
		newConfig := InitConfig()
		*config = newConfig
		logger.SetLogLevel(config.Log.Level)
	})
}
