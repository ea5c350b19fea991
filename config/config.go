package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	OAuth    OAuthConfig    `mapstructure:"oauth"`
	CORS     CORSConfig     `mapstructure:"cors"`
	AI       AIConfig       `mapstructure:"ai"`
	VCS      VCSConfig      `mapstructure:"vcs"`
	Crypto   CryptoConfig   `mapstructure:"crypto"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"` // mysql, postgres, sqlite
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type OAuthConfig struct {
	Github GithubOAuthConfig `mapstructure:"github"`
}

type GithubOAuthConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURI  string `mapstructure:"redirect_uri"`
	// 账号关联完成后跳回的前端地址
	FrontendURI string `mapstructure:"frontend_uri"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

// AIConfig 外部 AI 分析服务
type AIConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	CallbackSecret string `mapstructure:"callback_secret"` // AI 回调进度时携带的内部令牌
}

type VCSConfig struct {
	GithubAPIURL          string `mapstructure:"github_api_url"` // 为空时使用 api.github.com
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds"`
	FilesTimeoutSeconds   int    `mapstructure:"files_timeout_seconds"`
}

type CryptoConfig struct {
	// 32 字节密钥的 hex 编码，用于加密存储的第三方 access token
	TokenKey string `mapstructure:"token_key"`
}

type AnalysisConfig struct {
	JobTTLSeconds   int `mapstructure:"job_ttl_seconds"`
	SaveLockSeconds int `mapstructure:"save_lock_seconds"`
	LOCConcurrency  int `mapstructure:"loc_concurrency"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// JobTTL 分析任务在 Redis 中的存活时间，默认 24 小时
func (c AnalysisConfig) JobTTL() time.Duration {
	if c.JobTTLSeconds <= 0 {
		return 86400 * time.Second
	}
	return time.Duration(c.JobTTLSeconds) * time.Second
}

// SaveLockTTL 保存分析结果时单任务锁的过期时间
func (c AnalysisConfig) SaveLockTTL() time.Duration {
	if c.SaveLockSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.SaveLockSeconds) * time.Second
}

func (c AnalysisConfig) Concurrency() int {
	if c.LOCConcurrency <= 0 {
		return 4
	}
	return c.LOCConcurrency
}

func (c VCSConfig) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return 20 * time.Second
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func (c VCSConfig) FilesTimeout() time.Duration {
	if c.FilesTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.FilesTimeoutSeconds) * time.Second
}

func (c AIConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 20 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func Load(configPath string) (*Config, error) {
	// 优先尝试读取 config.local.yaml（包含真实密钥，不提交到git）
	dir := filepath.Dir(configPath)
	localConfigPath := filepath.Join(dir, "config.local.yaml")

	if _, err := os.Stat(localConfigPath); err == nil {
		configPath = localConfigPath
	}

	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	// 环境变量覆盖
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("database.driver", "mysql")
	viper.SetDefault("analysis.job_ttl_seconds", 86400)
	viper.SetDefault("metrics.path", "/metrics")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
