package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestLoad 测试加载配置文件
func TestLoad(t *testing.T) {
	cfg, err := Load("config.yaml")
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host 期望 '0.0.0.0', 实际 '%s'", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port 期望 8080, 实际 %d", cfg.Server.Port)
	}
	if cfg.GraphQL.Endpoint != "http://127.0.0.1:4000/graphql" {
		t.Errorf("GraphQL.Endpoint 不正确: %s", cfg.GraphQL.Endpoint)
	}
	if cfg.Session.Backend != "redis" {
		t.Errorf("Session.Backend 期望 'redis', 实际 '%s'", cfg.Session.Backend)
	}
	if cfg.Redis.Port != 6379 {
		t.Errorf("Redis.Port 期望 6379, 实际 %d", cfg.Redis.Port)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level 期望 'info', 实际 '%s'", cfg.Log.Level)
	}
}

// TestLoadFileNotExist 测试加载不存在的配置文件
func TestLoadFileNotExist(t *testing.T) {
	_, err := Load("not_exist.yaml")
	if err == nil {
		t.Error("期望返回错误，但没有返回")
	}
}

// TestLoadInvalidYAML 测试加载无效的YAML文件
func TestLoadInvalidYAML(t *testing.T) {
	invalidYAML := `
server:
  host: "localhost"
  port: invalid_port
`
	path := writeTemp(t, invalidYAML)

	if _, err := Load(path); err == nil {
		t.Error("期望返回错误，但没有返回")
	}
}

// TestLoadMissingEndpoint 测试缺少 GraphQL 地址
func TestLoadMissingEndpoint(t *testing.T) {
	path := writeTemp(t, `
auth:
  cookie_hash_key: "k"
`)

	if _, err := Load(path); err == nil {
		t.Error("期望返回错误，但没有返回")
	}
}

// TestLoadEnvOverride 测试环境变量覆盖密钥
func TestLoadEnvOverride(t *testing.T) {
	t.Setenv(EnvJWTSecret, "env-secret")
	t.Setenv(EnvCookieHashKey, "env-hash-key")

	cfg, err := Load("config.yaml")
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}
	if cfg.Auth.JWTSecret != "env-secret" {
		t.Errorf("JWTSecret 期望 'env-secret', 实际 '%s'", cfg.Auth.JWTSecret)
	}
	if cfg.Auth.CookieHashKey != "env-hash-key" {
		t.Errorf("CookieHashKey 期望 'env-hash-key', 实际 '%s'", cfg.Auth.CookieHashKey)
	}
}

// TestLoadDotEnvBesideConfig 测试读取配置文件同目录下的 .env，进程环境变量优先
func TestLoadDotEnvBesideConfig(t *testing.T) {
	// t.Setenv 负责在测试结束时恢复原值，这里先清掉让 .env 生效
	t.Setenv(EnvJWTSecret, "")
	os.Unsetenv(EnvJWTSecret)
	t.Setenv(EnvCookieHashKey, "process-hash-key")

	path := writeTemp(t, `
graphql:
  endpoint: "http://localhost/graphql"
auth:
  cookie_hash_key: "yaml-hash-key"
`)
	env := "LOGIN_JWT_SECRET=dotenv-secret\nLOGIN_COOKIE_HASH_KEY=dotenv-hash-key\n"
	if err := os.WriteFile(filepath.Join(filepath.Dir(path), ".env"), []byte(env), 0o600); err != nil {
		t.Fatalf("写入 .env 失败: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}
	if cfg.Auth.JWTSecret != "dotenv-secret" {
		t.Errorf("JWTSecret 期望 'dotenv-secret', 实际 '%s'", cfg.Auth.JWTSecret)
	}
	if cfg.Auth.CookieHashKey != "process-hash-key" {
		t.Errorf("CookieHashKey 期望 'process-hash-key', 实际 '%s'", cfg.Auth.CookieHashKey)
	}
}

// TestValidateBlockKey 测试 Cookie 加密密钥长度校验
func TestValidateBlockKey(t *testing.T) {
	cfg := Config{
		GraphQL: GraphQLConfig{Endpoint: "http://localhost/graphql"},
		Auth:    AuthConfig{CookieHashKey: "hash", CookieBlockKey: "short"},
	}
	if err := cfg.Validate(); err == nil {
		t.Error("期望返回错误，但没有返回")
	}

	cfg.Auth.CookieBlockKey = "0123456789abcdef"
	if err := cfg.Validate(); err != nil {
		t.Errorf("期望校验通过, 实际: %v", err)
	}
}

// TestDefaults 测试超时与 TTL 默认值
func TestDefaults(t *testing.T) {
	var g GraphQLConfig
	if g.GetTimeout() != 3*time.Second {
		t.Errorf("GraphQL 超时默认值期望 3s, 实际 %v", g.GetTimeout())
	}

	var s SessionConfig
	if s.GetTTL() != 2*time.Hour {
		t.Errorf("Session TTL 默认值期望 2h, 实际 %v", s.GetTTL())
	}

	r := RedisConfig{Host: "127.0.0.1", Port: 6379, DialTimeout: 5}
	if r.GetAddr() != "127.0.0.1:6379" {
		t.Errorf("Redis地址不匹配: %s", r.GetAddr())
	}
	if r.GetDialTimeout() != 5*time.Second {
		t.Errorf("DialTimeout 期望 5s, 实际 %v", r.GetDialTimeout())
	}
}

// TestGetGlobalConfig 测试全局配置
func TestGetGlobalConfig(t *testing.T) {
	globalConfig = nil

	defer func() {
		if r := recover(); r == nil {
			t.Error("期望panic，但没有发生")
		}
	}()

	Get()
}

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("写入临时文件失败: %v", err)
	}
	return path
}
