package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/expohub/expo-reservation/internal/config"
)

// bucketScript implements a token bucket in Redis. State lives in a hash
// per key; refill is computed lazily from the elapsed time, one token
// per interval. Running it as a script keeps read-refill-take atomic
// across server instances.
var bucketScript = redis.NewScript(`
	local key = KEYS[1]
	local now_ms = tonumber(ARGV[1])
	local burst = tonumber(ARGV[2])
	local interval_ms = tonumber(ARGV[3])
	local ttl_s = tonumber(ARGV[4])

	local state = redis.call('HMGET', key, 'tokens', 'refilled_ms')
	local tokens = tonumber(state[1])
	local refilled = tonumber(state[2])
	if tokens == nil or refilled == nil then
		tokens = burst
		refilled = now_ms
	end

	local elapsed = now_ms - refilled
	if elapsed > 0 then
		local gained = math.floor(elapsed / interval_ms)
		if gained > 0 then
			tokens = math.min(burst, tokens + gained)
			refilled = refilled + gained * interval_ms
		end
	end

	local allowed = 0
	local wait_ms = 0
	if tokens > 0 then
		allowed = 1
		tokens = tokens - 1
	else
		wait_ms = interval_ms - (now_ms - refilled)
		if wait_ms < 0 then wait_ms = 0 end
	end

	redis.call('HMSET', key, 'tokens', tokens, 'refilled_ms', refilled)
	redis.call('EXPIRE', key, ttl_s)
	return { allowed, tokens, wait_ms }
`)

// RateLimit returns a token-bucket middleware backed by Redis. Each key
// (built per KeyStrategy) owns a bucket of cfg.Burst tokens refilled at
// one token per cfg.RefillInterval; a request with no token available
// is answered 429 with a Retry-After hint. The limiter fails open: when
// Redis is unavailable the request proceeds. With a nil client or the
// limiter disabled it is a pass-through.
func RateLimit(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passthrough
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			key := rateKey(cfg, c)

			res, err := bucketScript.Run(ctx, rdb, []string{key},
				time.Now().UnixMilli(),
				cfg.Burst,
				cfg.RefillInterval.Milliseconds(),
				int64(cfg.TTL/time.Second),
			).Int64Slice()
			if err != nil || len(res) != 3 {
				c.Logger().Warnf("rate limiter unavailable, allowing request: %v", err)
				return next(c)
			}

			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Burst))
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res[1], 10))

			if res[0] != 1 {
				retry := int(math.Ceil(float64(res[2]) / 1000))
				c.Response().Header().Set("Retry-After", strconv.Itoa(retry))
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error":       "too many requests",
					"retry_after": retry,
				})
			}
			return next(c)
		}
	}
}

func passthrough(next echo.HandlerFunc) echo.HandlerFunc {
	return next
}

// rateKey scopes the bucket per the configured strategy. The default
// "user_route" gives every principal an independent budget per
// operation, which keeps a booking storm on one session from starving
// an unrelated endpoint.
func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
	var parts []string
	for _, dim := range strings.Split(strings.ToLower(cfg.KeyStrategy), "_") {
		switch dim {
		case "ip":
			parts = append(parts, c.RealIP())
		case "user":
			if uid, ok := c.Get(CtxUserID).(uint64); ok {
				parts = append(parts, strconv.FormatUint(uid, 10))
			} else {
				parts = append(parts, "anon")
			}
		case "route":
			parts = append(parts, c.Request().Method, c.Path())
		}
	}
	if len(parts) == 0 {
		parts = append(parts, c.RealIP())
	}
	return cfg.Prefix + ":" + strings.Join(parts, ":")
}
