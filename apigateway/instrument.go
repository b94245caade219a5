package gateway

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
)

// Instrumentation registers request counters and latency/size histograms
// and returns the middleware feeding them. Must only be called once per
// process (prometheus registration panics on duplicates).
func Instrumentation() fiber.Handler {
	counterVec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "paddock",
		Subsystem: "request",
		Name:      "requests_count",
		Help:      "Number of requests per each endpoint",
	}, []string{"code", "method", "route"})

	resTime := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "paddock",
		Subsystem: "response",
		Name:      "response_time_hist",
		Help:      "paddock response duration in milliseconds",
	})

	resSize := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "paddock",
		Subsystem: "response",
		Name:      "size_histogram",
		Help:      "paddock response size",
	})

	reqSize := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "paddock",
		Subsystem: "request",
		Name:      "size_hist",
		Help:      "Request size instrumenter",
	})

	colls := []prometheus.Collector{counterVec, resTime, resSize, reqSize}
	for _, coll := range colls {
		if err := prometheus.Register(coll); err != nil {
			panic(err)
		}
	}

	return func(c *fiber.Ctx) error {
		if c.Path() == "/metrics" {
			return c.Next()
		}
		start := time.Now()
		err := c.Next()
		duration := float64(time.Since(start)) * 1e-6 // to millisecond

		route := c.Path()
		if r := c.Route(); r != nil && r.Path != "" {
			route = r.Path
		}
		status := strconv.Itoa(c.Response().StatusCode())
		counterVec.WithLabelValues(status, c.Method(), route).Inc()
		resTime.Observe(duration)
		resSize.Observe(float64(len(c.Response().Body())))
		if size := c.Request().Header.ContentLength(); size > 0 {
			reqSize.Observe(float64(size))
		}
		return err
	}
}
