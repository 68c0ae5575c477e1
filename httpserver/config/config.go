package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// 可通过环境变量覆盖的敏感配置
const (
	EnvCookieHashKey  = "LOGIN_COOKIE_HASH_KEY"
	EnvCookieBlockKey = "LOGIN_COOKIE_BLOCK_KEY"
	EnvJWTSecret      = "LOGIN_JWT_SECRET"
	EnvRedisPassword  = "LOGIN_REDIS_PASSWORD"
)

// Config 全局配置
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	GraphQL GraphQLConfig `yaml:"graphql"`
	Auth    AuthConfig    `yaml:"auth"`
	Session SessionConfig `yaml:"session"`
	Redis   RedisConfig   `yaml:"redis"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig HTTP Server 配置
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	Mode           string   `yaml:"mode"`
	AllowedOrigins []string `yaml:"allowed_origins"` // JSON API 的跨域白名单
}

// GetHTTPAddr 获取 HTTP Server 地址
func (s *ServerConfig) GetHTTPAddr() string {
	return s.Host + ":" + strconv.Itoa(s.Port)
}

// GraphQLConfig 认证 API（GraphQL）配置
type GraphQLConfig struct {
	Endpoint string `yaml:"endpoint"`
	Timeout  int    `yaml:"timeout"` // 秒
}

// GetTimeout 获取单次 mutation 超时时间，未配置时为 3 秒
func (g *GraphQLConfig) GetTimeout() time.Duration {
	if g.Timeout <= 0 {
		return 3 * time.Second
	}
	return time.Duration(g.Timeout) * time.Second
}

// AuthConfig Token 与 Cookie 配置
type AuthConfig struct {
	JWTSecret      string `yaml:"jwt_secret"`
	CookieHashKey  string `yaml:"cookie_hash_key"`
	CookieBlockKey string `yaml:"cookie_block_key"`
	CookieSecure   bool   `yaml:"cookie_secure"`
	CookieMaxAge   int    `yaml:"cookie_max_age"` // 秒
}

// SessionConfig 会话存储配置
type SessionConfig struct {
	Backend string `yaml:"backend"` // memory, redis
	TTL     int    `yaml:"ttl"`     // 秒
}

// GetTTL 获取会话有效期，未配置时为 2 小时
func (s *SessionConfig) GetTTL() time.Duration {
	if s.TTL <= 0 {
		return 2 * time.Hour
	}
	return time.Duration(s.TTL) * time.Second
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Password     string `yaml:"password"`
	DB           int    `yaml:"db"`
	PoolSize     int    `yaml:"pool_size"`
	MinIdleConns int    `yaml:"min_idle_conns"`
	MaxRetries   int    `yaml:"max_retries"`
	DialTimeout  int    `yaml:"dial_timeout"`  // 秒
	ReadTimeout  int    `yaml:"read_timeout"`  // 秒
	WriteTimeout int    `yaml:"write_timeout"` // 秒
}

// GetAddr 获取Redis地址
func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// GetDialTimeout 获取连接超时时间
func (r *RedisConfig) GetDialTimeout() time.Duration {
	return time.Duration(r.DialTimeout) * time.Second
}

// GetReadTimeout 获取读超时时间
func (r *RedisConfig) GetReadTimeout() time.Duration {
	return time.Duration(r.ReadTimeout) * time.Second
}

// GetWriteTimeout 获取写超时时间
func (r *RedisConfig) GetWriteTimeout() time.Duration {
	return time.Duration(r.WriteTimeout) * time.Second
}

// LogConfig 日志配置
type LogConfig struct {
	Level    string `yaml:"level"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

var globalConfig *Config

// Load 加载配置文件
// 配置文件同目录下的 .env 文件（可选）与进程环境变量会覆盖密钥类配置，进程环境变量优先
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("加载 .env 失败: %w", err)
	}
	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	globalConfig = &config
	return &config, nil
}

// applyEnv 使用环境变量覆盖密钥
func (c *Config) applyEnv() {
	if v := os.Getenv(EnvCookieHashKey); v != "" {
		c.Auth.CookieHashKey = v
	}
	if v := os.Getenv(EnvCookieBlockKey); v != "" {
		c.Auth.CookieBlockKey = v
	}
	if v := os.Getenv(EnvJWTSecret); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv(EnvRedisPassword); v != "" {
		c.Redis.Password = v
	}
}

// Validate 校验必填配置
func (c *Config) Validate() error {
	if c.GraphQL.Endpoint == "" {
		return errors.New("配置错误: graphql.endpoint 不能为空")
	}
	if c.Auth.CookieHashKey == "" {
		return errors.New("配置错误: auth.cookie_hash_key 不能为空")
	}
	switch n := len(c.Auth.CookieBlockKey); n {
	case 0, 16, 24, 32:
	default:
		return fmt.Errorf("配置错误: auth.cookie_block_key 长度必须为 16/24/32，当前 %d", n)
	}
	switch c.Session.Backend {
	case "", "memory", "redis":
	default:
		return fmt.Errorf("配置错误: 不支持的 session.backend: %s", c.Session.Backend)
	}
	return nil
}

// Get 获取全局配置
func Get() *Config {
	if globalConfig == nil {
		panic("配置未初始化，请先调用 Load()")
	}
	return globalConfig
}
