package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"recipe-finder/internal/core/cache"
	"recipe-finder/internal/core/recognition"
	"recipe-finder/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 儲存後端檢查的逾時
const pingTimeout = 2 * time.Second

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime"`
	Store     StoreStatus            `json:"store"`
	Runtime   map[string]interface{} `json:"runtime"`
	Queue     *recognition.Status    `json:"queue,omitempty"`
	Cache     *cache.Stats           `json:"cache,omitempty"`
}

// StoreStatus 儲存後端狀態
type StoreStatus struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Pinger 可檢查連線的依賴
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies 健康檢查所需的元件，Queue 與 Cache 可為 nil
type Dependencies struct {
	Version string
	Store   Pinger
	Queue   *recognition.Queue
	Cache   func() cache.Stats
}

// Handler 健康檢查處理程序
type Handler struct {
	deps    Dependencies
	started time.Time
}

// NewHandler 創建健康檢查處理程序
func NewHandler(deps Dependencies) *Handler {
	return &Handler{deps: deps, started: time.Now()}
}

// Register 註冊健康檢查路由
func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/health", h.HealthCheck)
	r.GET("/ready", h.ReadinessCheck)
	r.GET("/live", h.LivenessCheck)
}

func (h *Handler) pingStore(ctx context.Context) StoreStatus {
	if h.deps.Store == nil {
		return StoreStatus{OK: true}
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := h.deps.Store.Ping(ctx); err != nil {
		return StoreStatus{OK: false, Error: err.Error()}
	}
	return StoreStatus{OK: true}
}

// HealthCheck 健康檢查處理器
func (h *Handler) HealthCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	store := h.pingStore(c.Request.Context())
	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.deps.Version,
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Store:     store,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}
	if !store.OK {
		response.Status = "degraded"
	}
	if h.deps.Queue != nil {
		status := h.deps.Queue.GetQueueStatus()
		response.Queue = &status
	}
	if h.deps.Cache != nil {
		stats := h.deps.Cache()
		response.Cache = &stats
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("status", response.Status),
	)
	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查，儲存後端無法連線時回傳 503
func (h *Handler) ReadinessCheck(c *gin.Context) {
	store := h.pingStore(c.Request.Context())
	if !store.OK {
		common.LogWarn("服務尚未就緒", zap.String("error", store.Error))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"store":  store,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// LivenessCheck 存活檢查處理器
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
