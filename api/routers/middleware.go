package routers

import (
	"strings"

	"exchange-ledger/pkg/httputil"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var jwtSecret []byte

// SetJWTSecret 设置JWT密钥
func SetJWTSecret(secret string) {
	jwtSecret = []byte(secret)
}

// AuthMiddleware 操作员JWT认证中间件
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httputil.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			return jwtSecret, nil
		})
		if err != nil || !token.Valid {
			httputil.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			httputil.Unauthorized(c, "invalid token claims")
			c.Abort()
			return
		}

		operatorID, ok := claims["operator_id"].(float64)
		if !ok {
			httputil.Unauthorized(c, "invalid token claims")
			c.Abort()
			return
		}
		c.Set("operator_id", uint(operatorID))
		c.Set("operator_uuid", claims["uuid"])
		c.Set("operator_email", claims["email"])
		c.Set("operator_role", claims["role"])

		c.Next()
	}
}

// GetOperatorID 从上下文获取操作员ID
func GetOperatorID(c *gin.Context) uint {
	if v, exists := c.Get("operator_id"); exists {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}

// AdminOnlyMiddleware 仅admin角色可访问
func AdminOnlyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get("operator_role")
		if role != "admin" {
			httputil.Forbidden(c, "admin role required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CORSMiddleware CORS中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// LoggerMiddleware 日志中间件
func LoggerMiddleware() gin.HandlerFunc {
	return gin.Logger()
}

// RecoveryMiddleware 恢复中间件
func RecoveryMiddleware() gin.HandlerFunc {
	return gin.Recovery()
}
