package gateway

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// LogSamplingConfig bounds request-log volume: at most one sampled line
// per Tick, but anything slower than After (or any failure) always logs.
type LogSamplingConfig struct {
	Tick  time.Duration
	After time.Duration
}

type logSampler struct {
	tick  time.Duration
	after time.Duration
	next  time.Time
	mu    sync.Mutex
}

func newLogSampler(cfg LogSamplingConfig) *logSampler {
	return &logSampler{tick: cfg.Tick, after: cfg.After}
}

func (s *logSampler) Allow(duration time.Duration) bool {
	if s.after > 0 && duration >= s.after {
		return true
	}
	if s.tick <= 0 {
		return true
	}
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next.IsZero() || now.After(s.next) {
		s.next = now.Add(s.tick)
		return true
	}
	return false
}

// RequestLogger logs each request with its route, status, duration and
// request id, sampled per cfg. Errors and 5xx responses always log.
func RequestLogger(logger *logrus.Logger, cfg LogSamplingConfig) fiber.Handler {
	sampler := newLogSampler(cfg)
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		duration := time.Since(start)

		status := c.Response().StatusCode()
		routePath := c.Path()
		if r := c.Route(); r != nil && r.Path != "" {
			routePath = r.Path
		}

		shouldLog := status >= fiber.StatusInternalServerError || err != nil
		if !shouldLog {
			shouldLog = sampler.Allow(duration)
		}
		if shouldLog {
			entry := logger.WithFields(logrus.Fields{
				"method":      c.Method(),
				"route":       routePath,
				"status":      status,
				"duration_ms": duration.Milliseconds(),
				"request_id":  RequestIDFromCtx(c),
			})
			if err != nil {
				entry.WithError(err).Warn("request failed")
			} else if status >= fiber.StatusInternalServerError {
				entry.Error("request errored")
			} else {
				entry.Info("request")
			}
		}
		return err
	}
}
