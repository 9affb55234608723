package router

import (
	"strconv"
	"strings"
	"time"

	"github.com/checkout-core/internal/authz"
	"github.com/checkout-core/internal/cache"
	"github.com/checkout-core/internal/config"
	"github.com/checkout-core/internal/constants"
	"github.com/checkout-core/internal/http/handlers/shared"
	"github.com/checkout-core/internal/http/response"
	"github.com/checkout-core/internal/logger"
	"github.com/checkout-core/internal/repository"
	"github.com/checkout-core/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDKey = response.RequestIDKey
const requestIDHeader = "X-Request-ID"

// UserClaims 外部身份服务签发的用户令牌，sub 为用户 ID
type UserClaims struct {
	jwt.RegisteredClaims
}

// OperatorClaims 运营人员令牌，sub 为运营人员 ID，roles 为令牌携带的角色
type OperatorClaims struct {
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// CORSMiddleware 跨域中间件
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	allowedMethods := cfg.AllowedMethods
	if len(allowedMethods) == 0 {
		allowedMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	}
	allowedHeaders := cfg.AllowedHeaders
	if len(allowedHeaders) == 0 {
		allowedHeaders = []string{"Content-Type", "Authorization", requestIDHeader}
	}
	methodsHeader := strings.Join(allowedMethods, ", ")
	headersHeader := strings.Join(allowedHeaders, ", ")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowedOrigin := resolveAllowedOrigin(origin, allowedOrigins, cfg.AllowCredentials)
		if allowedOrigin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			if allowedOrigin != "*" {
				c.Writer.Header().Add("Vary", "Origin")
			}
		}
		if cfg.AllowCredentials {
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", headersHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", methodsHeader)
		if cfg.MaxAge > 0 {
			c.Writer.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func resolveAllowedOrigin(origin string, allowedOrigins []string, allowCredentials bool) string {
	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			if allowCredentials && origin != "" {
				return origin
			}
			return "*"
		}
	}
	if origin == "" {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

// RequestIDMiddleware 请求 ID 中间件
// 请求 ID 同时写入 gin 上下文与 request context，供日志与审计记录关联。
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)

		ctx := service.WithRequestID(c.Request.Context(), requestID)
		ctx = logger.ContextWithRequestID(ctx, requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// LoggerMiddleware 结构化请求日志中间件
func LoggerMiddleware(log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.L()
	}
	sugar := log.Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := sugar.With(
			"request_id", c.GetString(requestIDKey),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
		if len(c.Errors) > 0 {
			entry.Errorw("request", "errors", c.Errors.String())
			return
		}
		entry.Infow("request")
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func parseHS256(tokenString string, cfg config.JWTConfig, claims jwt.Claims) error {
	options := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer := strings.TrimSpace(cfg.Issuer); issuer != "" {
		options = append(options, jwt.WithIssuer(issuer))
	}
	_, err := jwt.NewParser(options...).ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(cfg.SecretKey), nil
	})
	return err
}

func subjectID(claims jwt.RegisteredClaims) uint {
	id, err := strconv.ParseUint(strings.TrimSpace(claims.Subject), 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}

// UserJWTAuthMiddleware 用户 JWT 鉴权中间件
// 令牌只做验签；用户状态优先读缓存，未命中时查库并回写。
func UserJWTAuthMiddleware(cfg config.JWTConfig, userRepo repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.SecretKey == "" || userRepo == nil {
			response.Unauthorized(c, "user authentication unavailable")
			c.Abort()
			return
		}
		tokenString, ok := bearerToken(c)
		if !ok {
			response.Unauthorized(c, "missing or malformed authorization header")
			c.Abort()
			return
		}
		claims := &UserClaims{}
		if err := parseHS256(tokenString, cfg, claims); err != nil {
			response.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}
		userID := subjectID(claims.RegisteredClaims)
		if userID == 0 {
			response.Unauthorized(c, "invalid token subject")
			c.Abort()
			return
		}

		status, err := resolveUserStatus(c, userRepo, userID)
		if err != nil {
			logger.FromContext(c.Request.Context()).Warnw("auth_user_status_lookup_failed", "user_id", userID, "error", err)
			response.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}
		if status == "" {
			response.Unauthorized(c, "user not found")
			c.Abort()
			return
		}
		if !isActiveUserStatus(status) {
			response.Unauthorized(c, "user disabled")
			c.Abort()
			return
		}

		c.Set(shared.ContextKeyUserID, userID)
		c.Next()
	}
}

func resolveUserStatus(c *gin.Context, userRepo repository.UserRepository, userID uint) (string, error) {
	ctx := c.Request.Context()
	if cached, hit, err := cache.GetUserStatus(ctx, userID); err == nil && hit && cached != nil {
		return cached.Status, nil
	}
	user, err := userRepo.GetByID(userID)
	if err != nil || user == nil {
		return "", err
	}
	if err := cache.SetUserStatus(ctx, cache.BuildUserStatusState(user)); err != nil {
		logger.FromContext(ctx).Debugw("auth_user_status_cache_set_failed", "user_id", userID, "error", err)
	}
	return user.Status, nil
}

func isActiveUserStatus(status string) bool {
	return strings.ToLower(strings.TrimSpace(status)) == constants.UserStatusActive
}

// OperatorJWTAuthMiddleware 运营人员 JWT 鉴权中间件
func OperatorJWTAuthMiddleware(cfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.SecretKey == "" {
			response.Unauthorized(c, "operator authentication unavailable")
			c.Abort()
			return
		}
		tokenString, ok := bearerToken(c)
		if !ok {
			response.Unauthorized(c, "missing or malformed authorization header")
			c.Abort()
			return
		}
		claims := &OperatorClaims{}
		if err := parseHS256(tokenString, cfg, claims); err != nil {
			response.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}
		operatorID := subjectID(claims.RegisteredClaims)
		if operatorID == 0 {
			response.Unauthorized(c, "invalid token subject")
			c.Abort()
			return
		}
		c.Set(shared.ContextKeyOperatorID, operatorID)
		c.Set(shared.ContextKeyOperatorRoles, claims.Roles)
		c.Next()
	}
}

// OperatorRBACMiddleware 运营端 RBAC 鉴权中间件
func OperatorRBACMiddleware(authzService *authz.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authzService == nil {
			logger.Errorw("operator_rbac_service_unavailable")
			response.Unauthorized(c, "authorization unavailable")
			c.Abort()
			return
		}
		operatorID := c.GetUint(shared.ContextKeyOperatorID)
		if operatorID == 0 {
			response.Unauthorized(c, "unauthorized")
			c.Abort()
			return
		}
		roles := c.GetStringSlice(shared.ContextKeyOperatorRoles)

		resource := c.FullPath()
		if strings.TrimSpace(resource) == "" {
			resource = c.Request.URL.Path
		}

		allowed, err := authzService.EnforceOperator(operatorID, roles, resource, c.Request.Method)
		if err != nil {
			logger.Errorw("operator_rbac_enforce_failed",
				"operator_id", operatorID,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"error", err,
			)
			response.Unauthorized(c, "unauthorized")
			c.Abort()
			return
		}
		if !allowed {
			logger.Warnw("operator_rbac_permission_denied",
				"operator_id", operatorID,
				"roles", roles,
				"method", c.Request.Method,
				"resource", authz.NormalizeObject(resource),
			)
			response.Forbidden(c, "forbidden")
			c.Abort()
			return
		}

		c.Next()
	}
}
