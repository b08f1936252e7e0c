package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/jaivikTh/nest-microsrv-kit/internal/model"
)

type HealthHandler struct {
	service     string
	version     string
	environment string
	started     time.Time
	now         func() time.Time
}

func NewHealthHandler(service, version, environment string) *HealthHandler {
	return &HealthHandler{
		service:     service,
		version:     version,
		environment: environment,
		started:     time.Now(),
		now:         time.Now,
	}
}

// Health answers 200 whenever the process can serve HTTP.
func (h *HealthHandler) Health(_ *http.Request) (Result, error) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	now := h.now()
	return OK("Service is healthy", model.HealthStatus{
		Status:      "ok",
		Timestamp:   now.UTC().Format(time.RFC3339Nano),
		Service:     h.service,
		Uptime:      now.Sub(h.started).Seconds(),
		Version:     h.version,
		Environment: h.environment,
		Goroutines:  runtime.NumGoroutine(),
		HeapAllocMB: float64(mem.HeapAlloc) / (1 << 20),
	}), nil
}
