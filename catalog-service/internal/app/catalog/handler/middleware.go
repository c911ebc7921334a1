package handler

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"tgshop/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/time/rate"
)

// ownerKey - ключ gin-контекста с Telegram ID владельца
const ownerKey = "owner_user_id"

// JWTClaims - токен владельца магазинов, выпускается сервисом авторизации бота
type JWTClaims struct {
	OwnerUserID int64 `json:"owner_user_id"`
	jwt.RegisteredClaims
}

type AuthMiddleware struct {
	jwtSecret string
}

func NewAuthMiddleware(jwtSecret string) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret: jwtSecret,
	}
}

// Authenticate проверяет Bearer токен и кладет owner_user_id в контекст
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			respondError(c, http.StatusUnauthorized, "Authorization header required")
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			respondError(c, http.StatusUnauthorized, "Invalid authorization header format")
			c.Abort()
			return
		}

		token, err := jwt.ParseWithClaims(parts[1], &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
			return []byte(m.jwtSecret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

		if err != nil || !token.Valid {
			respondError(c, http.StatusUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}

		claims, ok := token.Claims.(*JWTClaims)
		if !ok || claims.OwnerUserID == 0 {
			respondError(c, http.StatusUnauthorized, "Invalid token claims")
			c.Abort()
			return
		}

		c.Set(ownerKey, claims.OwnerUserID)
		c.Next()
	}
}

// OwnerRateLimiter ограничивает частоту запросов отдельно для каждого владельца.
// Используется для POST /products/sync-all: полная сверка тяжелая.
// Лимитер владельца удаляется, когда его корзина успела бы наполниться
// целиком, поэтому в памяти остаются только недавно активные владельцы.
type OwnerRateLimiter struct {
	mu        sync.Mutex
	limiters  map[int64]*ownerLimiter
	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type ownerLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewOwnerRateLimiter создает лимитер; perSecond <= 0 отключает ограничение
func NewOwnerRateLimiter(perSecond float64, burst int) *OwnerRateLimiter {
	if burst < 1 {
		burst = 1
	}
	l := &OwnerRateLimiter{
		limiters: make(map[int64]*ownerLimiter),
		limit:    rate.Inf,
		burst:    burst,
		now:      time.Now,
	}
	if perSecond > 0 {
		l.limit = rate.Limit(perSecond)
		l.idleTTL = time.Duration(float64(burst) / perSecond * float64(time.Second))
	}
	l.lastSweep = l.now()
	return l
}

func (l *OwnerRateLimiter) allow(ownerID int64) bool {
	if l.limit == rate.Inf {
		return true
	}

	l.mu.Lock()
	now := l.now()
	l.evictIdle(now)

	entry, ok := l.limiters[ownerID]
	if !ok {
		entry = &ownerLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[ownerID] = entry
	}
	entry.lastSeen = now
	l.mu.Unlock()

	return entry.limiter.AllowN(now, 1)
}

// evictIdle вызывается под l.mu не чаще раза в idleTTL
func (l *OwnerRateLimiter) evictIdle(now time.Time) {
	if now.Sub(l.lastSweep) < l.idleTTL {
		return
	}
	for ownerID, entry := range l.limiters {
		if now.Sub(entry.lastSeen) >= l.idleTTL {
			delete(l.limiters, ownerID)
		}
	}
	l.lastSweep = now
}

func (l *OwnerRateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// Middleware должен стоять после Authenticate
func (l *OwnerRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerID := c.GetInt64(ownerKey)
		if !l.allow(ownerID) {
			logger.Warn().Int64("owner_user_id", ownerID).Str("path", c.FullPath()).Msg("Rate limit exceeded")
			respondError(c, http.StatusTooManyRequests, "Too many sync requests, try again later")
			c.Abort()
			return
		}
		c.Next()
	}
}
