package config

import (
	"fmt"
	"strings"

	"github.com/checkout-core/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server      ServerConfig     `mapstructure:"server"`
	Log         LogConfig        `mapstructure:"log"`
	Database    DatabaseConfig   `mapstructure:"database"`
	UserJWT     JWTConfig        `mapstructure:"user_jwt"`
	OperatorJWT JWTConfig        `mapstructure:"operator_jwt"`
	Redis       RedisConfig      `mapstructure:"redis"`
	Queue       QueueConfig      `mapstructure:"queue"`
	CORS        CORSConfig       `mapstructure:"cors"`
	Security    SecurityConfig   `mapstructure:"security"`
	Settlement  SettlementConfig `mapstructure:"settlement"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release
	// 超时（秒），0 使用默认值
	ReadTimeoutSeconds  int `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int `mapstructure:"write_timeout_seconds"`
	IdleTimeoutSeconds  int `mapstructure:"idle_timeout_seconds"`
}

// LogConfig 日志配置
type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

// DatabasePoolConfig 数据库连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver string             `mapstructure:"driver"` // 数据库驱动（sqlite/postgres）
	DSN    string             `mapstructure:"dsn"`    // 数据库连接串
	Pool   DatabasePoolConfig `mapstructure:"pool"`
}

// JWTConfig JWT 校验配置
// 令牌由外部身份服务签发，这里只负责验签。
type JWTConfig struct {
	SecretKey string `mapstructure:"secret"`
	Issuer    string `mapstructure:"issuer"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// QueueConfig 异步队列配置
type QueueConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Host        string         `mapstructure:"host"`
	Port        int            `mapstructure:"port"`
	Password    string         `mapstructure:"password"`
	DB          int            `mapstructure:"db"`
	Concurrency int            `mapstructure:"concurrency"`
	Queues      map[string]int `mapstructure:"queues"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	OrderRateLimit RateLimitConfig `mapstructure:"order_rate_limit"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxRequests   int `mapstructure:"max_requests"`
	BlockSeconds  int `mapstructure:"block_seconds"`
}

// SettlementConfig 结算配置
type SettlementConfig struct {
	SettingsCacheTTLSeconds int                     `mapstructure:"settings_cache_ttl_seconds"`
	RecentTransactionsLimit int                     `mapstructure:"recent_transactions_limit"`
	DefaultSettings         SettlementDefaultConfig `mapstructure:"default_settings"`
}

// SettlementDefaultConfig 首次启动写入数据库的默认结算参数
type SettlementDefaultConfig struct {
	StoreLat              float64                   `mapstructure:"store_lat"`
	StoreLng              float64                   `mapstructure:"store_lng"`
	DeliveryFreeKm        float64                   `mapstructure:"delivery_free_km"`
	DeliveryRatePerKm     int64                     `mapstructure:"delivery_rate_per_km"`
	MembershipGraceDays   int                       `mapstructure:"membership_grace_days"`
	MembershipThresholds  MembershipThresholdConfig `mapstructure:"membership_thresholds"`
	PointsPerAmount       int64                     `mapstructure:"points_per_amount"`
	RewardThresholdPoints int64                     `mapstructure:"reward_threshold_points"`
	RewardValue           int64                     `mapstructure:"reward_value"`
}

// MembershipThresholdConfig 会员等级累计余额门槛
type MembershipThresholdConfig struct {
	Silver   int64 `mapstructure:"silver"`
	Gold     int64 `mapstructure:"gold"`
	Platinum int64 `mapstructure:"platinum"`
	Diamond  int64 `mapstructure:"diamond"`
}

// Load 从 config.yml 加载配置
func Load() *Config {
	// .env 可选，存在时先注入进程环境变量，再由 viper 读取
	if err := godotenv.Load(); err == nil {
		logger.Infow("config_dotenv_loaded", "file", ".env")
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")     // 从当前目录查找
	viper.AddConfigPath("./")    // 备用路径
	viper.AddConfigPath("../")   // 如果从 cmd/server 运行
	viper.AddConfigPath("./etc") // etc 文件夹

	setDefaults(viper.GetViper())

	// 环境变量支持
	viper.AutomaticEnv()                                   // 自动读取环境变量
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // 将 . 替换为 _ (例如 server.port -> SERVER_PORT)

	// 读取配置文件
	if err := viper.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", viper.ConfigFileUsed())
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("配置解析失败: %w", err))
	}

	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 30)
	v.SetDefault("server.idle_timeout_seconds", 60)
	v.SetDefault("log.dir", "")
	v.SetDefault("log.filename", "app.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./db/checkout.db")
	v.SetDefault("database.pool.max_open_conns", 1)
	v.SetDefault("database.pool.max_idle_conns", 1)
	v.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	v.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	v.SetDefault("user_jwt.secret", "user-change-me-in-production")
	v.SetDefault("user_jwt.issuer", "")
	v.SetDefault("operator_jwt.secret", "operator-change-me-in-production")
	v.SetDefault("operator_jwt.issuer", "")
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "ck")
	v.SetDefault("queue.enabled", true)
	v.SetDefault("queue.host", "127.0.0.1")
	v.SetDefault("queue.port", 6379)
	v.SetDefault("queue.password", "")
	v.SetDefault("queue.db", 1)
	v.SetDefault("queue.concurrency", 10)
	v.SetDefault("queue.queues", map[string]int{
		"default":  10,
		"critical": 5,
	})
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Authorization",
		"Cache-Control",
		"X-Requested-With",
		"X-Request-ID",
	})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", 600)
	v.SetDefault("security.order_rate_limit.window_seconds", 60)
	v.SetDefault("security.order_rate_limit.max_requests", 10)
	v.SetDefault("security.order_rate_limit.block_seconds", 120)
	v.SetDefault("settlement.settings_cache_ttl_seconds", 60)
	v.SetDefault("settlement.recent_transactions_limit", 10)
	v.SetDefault("settlement.default_settings.store_lat", 0)
	v.SetDefault("settlement.default_settings.store_lng", 0)
	v.SetDefault("settlement.default_settings.delivery_free_km", 1)
	v.SetDefault("settlement.default_settings.delivery_rate_per_km", 5000)
	v.SetDefault("settlement.default_settings.membership_grace_days", 14)
	v.SetDefault("settlement.default_settings.membership_thresholds.silver", 1000000)
	v.SetDefault("settlement.default_settings.membership_thresholds.gold", 2000000)
	v.SetDefault("settlement.default_settings.membership_thresholds.platinum", 4000000)
	v.SetDefault("settlement.default_settings.membership_thresholds.diamond", 6000000)
	v.SetDefault("settlement.default_settings.points_per_amount", 10000)
	v.SetDefault("settlement.default_settings.reward_threshold_points", 100)
	v.SetDefault("settlement.default_settings.reward_value", 80000)
}
