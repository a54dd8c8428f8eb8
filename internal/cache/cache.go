// Package cache provides a response cache for public GET endpoints.
package cache

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Store is the key/value backend of the response cache.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// ResponseCache caches successful GET responses per group. A nil *ResponseCache is valid and caches nothing.
type ResponseCache struct {
	store  Store
	ttl    time.Duration
	prefix string
	log    *zap.Logger
}

const maxCachedBody = 1 << 20

func New(store Store, ttl time.Duration, log *zap.Logger) *ResponseCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ResponseCache{store: store, ttl: ttl, prefix: "cache", log: log}
}

type entry struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// captureWriter tees the response body so it can be stored after the handler returns.
type captureWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	if w.buf.Len() <= maxCachedBody {
		w.buf.Write(b)
	}
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	if w.buf.Len() <= maxCachedBody {
		w.buf.WriteString(s)
	}
	return w.ResponseWriter.WriteString(s)
}

func (rc *ResponseCache) groupPrefix(group string) string {
	return rc.prefix + ":" + group + ":"
}

func (rc *ResponseCache) key(group string, r *http.Request) string {
	sum := sha1.Sum([]byte(r.URL.Path + "?" + r.URL.RawQuery))
	return fmt.Sprintf("%s%x", rc.groupPrefix(group), sum[:])
}

// Middleware serves cached responses for GET requests and stores 200 responses under group.
func (rc *ResponseCache) Middleware(group string) gin.HandlerFunc {
	if rc == nil {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := rc.key(group, c.Request)

		if raw, ok, err := rc.store.Get(ctx, key); err != nil {
			rc.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		} else if ok {
			var e entry
			if err := json.Unmarshal(raw, &e); err == nil {
				c.Header("X-Cache", "HIT")
				c.Data(e.Status, e.ContentType, e.Body)
				c.Abort()
				return
			}
		}

		cw := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = cw
		c.Header("X-Cache", "MISS")

		c.Next()

		if cw.Status() != http.StatusOK || cw.buf.Len() > maxCachedBody {
			return
		}
		payload, err := json.Marshal(entry{
			Status:      cw.Status(),
			ContentType: cw.Header().Get("Content-Type"),
			Body:        cw.buf.Bytes(),
		})
		if err != nil {
			return
		}
		// Request context may already be cancelled once the client got its bytes.
		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		if err := rc.store.Set(writeCtx, key, payload, rc.ttl); err != nil {
			rc.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
}

// Invalidate drops every cached response of group. Failures are logged.
func (rc *ResponseCache) Invalidate(ctx context.Context, group string) {
	if rc == nil {
		return
	}
	if err := rc.store.DeletePrefix(ctx, rc.groupPrefix(group)); err != nil {
		rc.log.Warn("cache invalidation failed", zap.String("group", group), zap.Error(err))
	}
}
