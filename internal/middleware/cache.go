package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/expohub/expo-reservation/internal/config"
)

// cachedResponse is the stored form of a cacheable response. Headers
// are kept so a HIT serves byte-identical output.
type cachedResponse struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

// bodyRecorder tees the response body into a buffer up to a size cap
// while writing through to the client.
type bodyRecorder struct {
	http.ResponseWriter
	status  int
	buf     bytes.Buffer
	written int
	cap     int
}

func (r *bodyRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	if room := r.cap - r.written; room > 0 {
		if len(b) > room {
			r.buf.Write(b[:room])
		} else {
			r.buf.Write(b)
		}
	}
	r.written += len(b)
	return r.ResponseWriter.Write(b)
}

// overflowed reports whether the body outgrew the cap; such responses
// are never cached.
func (r *bodyRecorder) overflowed() bool { return r.written > r.cap }

// ResponseCache caches successful GET responses in Redis for cfg.TTL.
// It is meant for the public browse endpoints, where availability
// listings tolerate a few seconds of staleness. With a nil client or
// the cache disabled it is a pass-through.
func ResponseCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passthrough
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodGet {
				return next(c)
			}

			ctx := c.Request().Context()
			key := cacheKey(cfg.Prefix, c)

			if raw, err := rdb.Get(ctx, key).Bytes(); err == nil {
				var stored cachedResponse
				if json.Unmarshal(raw, &stored) == nil {
					return serveCached(c, stored)
				}
			}

			rec := &bodyRecorder{
				ResponseWriter: c.Response().Writer,
				status:         http.StatusOK,
				cap:            cfg.MaxBodyBytes,
			}
			c.Response().Writer = rec
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}

			if rec.status == http.StatusOK && !rec.overflowed() {
				stored := cachedResponse{
					Status: rec.status,
					Header: cloneHeader(c.Response().Header()),
					Body:   rec.buf.Bytes(),
				}
				if raw, err := json.Marshal(stored); err == nil {
					// Detached context: the store must not be cancelled
					// with the request.
					_ = rdb.Set(context.Background(), key, raw, cfg.TTL).Err()
				}
			}
			return nil
		}
	}
}

func serveCached(c echo.Context, stored cachedResponse) error {
	h := c.Response().Header()
	for k, vals := range stored.Header {
		if strings.EqualFold(k, "Content-Length") {
			continue
		}
		for _, v := range vals {
			h.Add(k, v)
		}
	}
	h.Set("X-Cache", "HIT")
	c.Response().WriteHeader(stored.Status)
	_, err := c.Response().Write(stored.Body)
	return err
}

func cloneHeader(h http.Header) http.Header {
	out := make(http.Header, len(h))
	for k, vals := range h {
		out[k] = append([]string(nil), vals...)
	}
	return out
}

// cacheKey hashes route + query so arbitrary query strings cannot grow
// unbounded key names in Redis.
func cacheKey(prefix string, c echo.Context) string {
	sum := sha1.Sum([]byte(c.Path() + "?" + c.Request().URL.RawQuery))
	return fmt.Sprintf("%s:%x", prefix, sum)
}
