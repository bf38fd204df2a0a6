package api

import (
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/KlimSani4/hydrocalc/internal/auth"
	"github.com/KlimSani4/hydrocalc/internal/logger"
	"github.com/KlimSani4/hydrocalc/internal/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const APIPrefix = "/api/v1"

type RouterConfig struct {
	Log         *logger.Logger
	CORSOrigins []string
	TokenHeader string

	AuthHandler      *AuthHandler
	CalculateHandler *CalculateHandler
	HistoryHandler   *HistoryHandler
	HealthHandler    *HealthHandler
	AuthMiddleware   *AuthMiddleware
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	useJSONFieldNames()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLog(cfg.Log))
	r.Use(corsMiddleware(cfg.CORSOrigins, cfg.TokenHeader))

	if cfg.HealthHandler != nil {
		r.GET("/", cfg.HealthHandler.Info)
		r.GET("/health", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group(APIPrefix)
	{
		if cfg.AuthHandler != nil {
			api.POST("/auth/register", cfg.AuthHandler.Register)
			api.POST("/auth/login", cfg.AuthHandler.Login)
		}
		if cfg.CalculateHandler != nil {
			api.POST("/calculate", cfg.AuthMiddleware.OptionalAuth(), cfg.CalculateHandler.Calculate)
		}
	}

	protected := api.Group("/history")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	{
		if cfg.HistoryHandler != nil {
			protected.GET("", cfg.HistoryHandler.List)
			protected.GET("/:id", cfg.HistoryHandler.Get)
		}
	}

	return r
}

// Deps are the collaborators needed to serve the API.
type Deps struct {
	Log         *logger.Logger
	Store       *storage.Store
	Auth        *auth.Service
	TokenHeader string
	CORSOrigins []string
}

// NewHandler wires handlers and middleware into a ready router.
func NewHandler(d Deps) http.Handler {
	return NewRouter(RouterConfig{
		Log:              d.Log,
		CORSOrigins:      d.CORSOrigins,
		TokenHeader:      d.TokenHeader,
		AuthHandler:      NewAuthHandler(d.Log, d.Auth),
		CalculateHandler: NewCalculateHandler(d.Log, d.Store),
		HistoryHandler:   NewHistoryHandler(d.Log, d.Store),
		HealthHandler:    NewHealthHandler(),
		AuthMiddleware:   NewAuthMiddleware(d.Log, d.Auth, d.TokenHeader),
	})
}

func corsMiddleware(origins []string, tokenHeader string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", tokenHeader, requestIDHeader},
		ExposeHeaders: []string{requestIDHeader},
	}
	allowAll := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
	}
	if allowAll {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

var fieldNamesOnce sync.Once

// useJSONFieldNames makes validation errors name fields the way clients send them.
func useJSONFieldNames() {
	fieldNamesOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return f.Name
		})
	})
}
