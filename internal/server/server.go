// Package server exposes a []byte cache over HTTP.
package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/IvanBrykalov/tiercache/cache"
)

// Options configures the HTTP surface.
type Options struct {
	Logger logrus.FieldLogger
	Cache  cache.Cache[[]byte]
	// Metrics serves GET /metrics. Nil means promhttp.Handler().
	Metrics http.Handler
	// Timeout bounds how long a request waits for the cache (default 10s).
	Timeout time.Duration
}

const contextKeyRequestID = "_tiercache_request_id"

// NewApp builds the Fiber application:
//
//	GET    /cache/:key  200 with the value, 404 when absent
//	PUT    /cache/:key  204, body is the value
//	DELETE /cache/:key  204
//	DELETE /cache       204, clears every tier
//	GET    /metrics     Prometheus exposition
func NewApp(opts Options) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Cache == nil {
		return nil, errors.New("cache is required")
	}
	if opts.Metrics == nil {
		opts.Metrics = promhttp.Handler()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	h := &handlers{log: opts.Logger, cache: opts.Cache, timeout: opts.Timeout}

	app := fiber.New(fiber.Config{CaseSensitive: true})
	app.Use(recover.New())
	app.Use(requestID)

	app.Get("/metrics", adaptor.HTTPHandler(opts.Metrics))
	app.Get("/cache/:key", h.get)
	app.Put("/cache/:key", h.put)
	app.Delete("/cache/:key", h.remove)
	app.Delete("/cache", h.clear)

	return app, nil
}

// RequestID returns the identifier assigned to the current request.
func RequestID(c fiber.Ctx) string {
	if v, ok := c.Locals(contextKeyRequestID).(string); ok {
		return v
	}
	return ""
}

func requestID(c fiber.Ctx) error {
	id := uuid.NewString()
	c.Locals(contextKeyRequestID, id)
	c.Set("X-Request-ID", id)
	return c.Next()
}

type handlers struct {
	log     logrus.FieldLogger
	cache   cache.Cache[[]byte]
	timeout time.Duration
}

func (h *handlers) get(c fiber.Ctx) error {
	key, err := keyParam(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	v, ok, err := cache.Load(ctx, h.cache, key)
	if err != nil {
		return h.fail(c, "get", key, err)
	}
	h.entry(c, "get", key).WithField("hit", ok).Debug("lookup")
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found"})
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
	return c.Status(fiber.StatusOK).Send(v)
}

func (h *handlers) put(c fiber.Ctx) error {
	key, err := keyParam(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	// The request body is only valid for the handler's lifetime.
	value := bytes.Clone(c.Body())
	if value == nil {
		value = []byte{}
	}
	if err := cache.Store(ctx, h.cache, key, value); err != nil {
		return h.fail(c, "set", key, err)
	}
	h.entry(c, "set", key).WithField("bytes", len(value)).Debug("stored")
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handlers) remove(c fiber.Ctx) error {
	key, err := keyParam(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	if err := cache.Delete(ctx, h.cache, key); err != nil {
		return h.fail(c, "remove", key, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handlers) clear(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	if err := cache.Purge(ctx, h.cache); err != nil {
		return h.fail(c, "clear", "", err)
	}
	h.entry(c, "clear", "").Info("cache cleared")
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handlers) entry(c fiber.Ctx, action, key string) *logrus.Entry {
	return h.log.WithFields(logrus.Fields{
		"action":     action,
		"key":        key,
		"request_id": RequestID(c),
	})
}

func (h *handlers) fail(c fiber.Ctx, action, key string, err error) error {
	h.entry(c, action, key).Warn(err.Error())
	return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{"error": "cache_timeout"})
}

// keyParam returns the unescaped :key segment.
func keyParam(c fiber.Ctx) (string, error) {
	key, err := url.PathUnescape(c.Params("key"))
	if err != nil || key == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "invalid key")
	}
	return key, nil
}
