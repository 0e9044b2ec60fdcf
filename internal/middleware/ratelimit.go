package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/mackey55555/ceo-club-app-sub000/pkg/logger"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RedisRateLimitStore is a fixed-window counter shared by every replica. It
// implements echo's RateLimiterStore and fails open when Redis is unreachable.
type RedisRateLimitStore struct {
	client  goredis.Cmdable
	limit   int64
	window  time.Duration
	prefix  string
	timeout time.Duration
	now     func() time.Time
	log     *logger.Logger
}

const defaultRateWindow = time.Minute

// NewRedisRateLimitStore allows limit requests per window. A window <= 0
// falls back to one minute.
func NewRedisRateLimitStore(client goredis.Cmdable, limit int, window time.Duration, log *logger.Logger) *RedisRateLimitStore {
	if log == nil {
		log = logger.Nop()
	}
	if window <= 0 {
		window = defaultRateWindow
	}
	return &RedisRateLimitStore{
		client:  client,
		limit:   int64(limit),
		window:  window,
		prefix:  "ratelimit:guest:",
		timeout: 500 * time.Millisecond,
		now:     time.Now,
		log:     log,
	}
}

func (s *RedisRateLimitStore) Allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	bucket := s.now().UnixNano() / int64(s.window)
	key := fmt.Sprintf("%s%s:%d", s.prefix, identifier, bucket)

	var incr *goredis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, s.window)
		return nil
	})
	if err != nil {
		s.log.Warn("rate limit store unavailable, allowing request",
			zap.String("identifier", identifier),
			zap.Error(err),
		)
		return true, nil
	}
	return incr.Val() <= s.limit, nil
}

// NewMemoryRateLimitStore spreads limit requests over window, with the full
// limit available as burst. Counts are per process.
func NewMemoryRateLimitStore(limit int, window time.Duration) echoMw.RateLimiterStore {
	if window <= 0 {
		window = defaultRateWindow
	}
	return echoMw.NewRateLimiterMemoryStoreWithConfig(echoMw.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(limit) / window.Seconds()),
		Burst:     limit,
		ExpiresIn: window,
	})
}

// GuestRateLimit limits the public guest surface per client IP.
func GuestRateLimit(store echoMw.RateLimiterStore) echo.MiddlewareFunc {
	return echoMw.RateLimiterWithConfig(echoMw.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return NewHTTPError(http.StatusForbidden, "FORBIDDEN", "could not identify client")
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return NewHTTPError(http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "too many requests, please retry later")
		},
	})
}
