package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSConfig CORS 配置
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// CORS 跨域中间件
// 浏览器端阅读器直接调用本服务，SSE 与图片接口都要求放行跨域
func CORS(cfg CORSConfig) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins: orDefault(cfg.AllowedOrigins, []string{"*"}),
		AllowMethods: orDefault(cfg.AllowedMethods,
			[]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		AllowHeaders: orDefault(cfg.AllowedHeaders,
			[]string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}),
		ExposeHeaders:    []string{"X-Request-ID", "X-Trace-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

func orDefault(values, fallback []string) []string {
	if len(values) == 0 {
		return fallback
	}
	return values
}
