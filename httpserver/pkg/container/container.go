package container

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"login-portal/httpserver/config"
	"login-portal/httpserver/internal/handler"
	"login-portal/httpserver/internal/login"
	"login-portal/httpserver/internal/router"
	"login-portal/httpserver/pkg/graphql"
	log "login-portal/httpserver/pkg/logger"
	"login-portal/httpserver/pkg/redis"
	"login-portal/httpserver/pkg/session"
	"login-portal/httpserver/pkg/storage"
	"login-portal/httpserver/pkg/token"
)

// Container 全局依赖注入容器
var Container *dig.Container

// closers 退出时需要释放的资源
var closers []func() error

// Init 初始化依赖注入容器
func Init(cfg *config.Config) error {
	Container = dig.New()
	closers = nil

	if err := Container.Provide(func() *config.Config { return cfg }); err != nil {
		return err
	}

	// 注册所有依赖
	if err := registerBackend(cfg.Session.Backend); err != nil {
		return err
	}
	if err := registerProviders(); err != nil {
		return err
	}

	return nil
}

// registerBackend 根据 session.backend 注册会话存储与登录限制器
func registerBackend(backend string) error {
	if backend != "redis" {
		log.Info("使用内存会话存储", zap.String("backend", backend))
		providers := []interface{}{
			func(cfg *config.Config) session.Store {
				return session.NewMemoryStore(cfg.Session.GetTTL())
			},
			redis.NewMemoryLoginLimiter,
			func() map[string]handler.Pinger { return map[string]handler.Pinger{} },
		}
		return provideAll(providers)
	}

	providers := []interface{}{
		func(cfg *config.Config) (redis.Client, error) {
			client, err := redis.InitRedis(cfg)
			if err != nil {
				return nil, err
			}
			closers = append(closers, client.Close)
			return client, nil
		},
		func(cfg *config.Config, client redis.Client) session.Store {
			return session.NewRedisStore(client, cfg.Session.GetTTL())
		},
		redis.NewLoginLimiter,
		func(client redis.Client) map[string]handler.Pinger {
			return map[string]handler.Pinger{"redis": client}
		},
	}
	return provideAll(providers)
}

// registerProviders 注册所有提供者
func registerProviders() error {
	providers := []interface{}{
		func(cfg *config.Config) *graphql.Client {
			return graphql.NewClient(cfg.GraphQL.Endpoint, cfg.GraphQL.GetTimeout(), nil)
		},
		func(cfg *config.Config) *token.Decoder {
			return token.NewDecoder(cfg.Auth.JWTSecret)
		},
		func(cfg *config.Config) *storage.Codec {
			return storage.NewCodec(
				[]byte(cfg.Auth.CookieHashKey),
				[]byte(cfg.Auth.CookieBlockKey),
				cfg.Auth.CookieSecure,
				cfg.Auth.CookieMaxAge,
			)
		},
		func(client *graphql.Client, decoder *token.Decoder, store session.Store, limiter redis.LoginLimiter) *login.Controller {
			return login.NewController(login.Deps{
				Auth:      client,
				Registrar: client,
				Decoder:   decoder,
				Sessions:  store,
				Limiter:   limiter,
			})
		},
		handler.NewAuthHandler,
		handler.NewAPIHandler,
		handler.NewHealthHandler,
		func(cfg *config.Config, pages *handler.AuthHandler, api *handler.APIHandler, health *handler.HealthHandler) *gin.Engine {
			return router.SetupRouter(router.Handlers{
				Pages:  pages,
				API:    api,
				Health: health,
			}, cfg.Server.AllowedOrigins)
		},
	}
	return provideAll(providers)
}

func provideAll(providers []interface{}) error {
	for _, p := range providers {
		if err := Container.Provide(p); err != nil {
			return err
		}
	}
	return nil
}

// Invoke 调用函数，自动注入依赖
func Invoke(function interface{}) error {
	return Container.Invoke(function)
}

// Close 释放容器创建的资源（例如 Redis 连接）
func Close() {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			log.Warn("释放资源失败", zap.Error(err))
		}
	}
	closers = nil
}
