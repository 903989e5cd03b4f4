package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"recipe-finder/internal/infrastructure/config"
	"recipe-finder/internal/pkg/common"
	"recipe-finder/internal/pkg/metrics"

	"go.uber.org/zap"
)

// Manager 記憶體快取，超過容量時淘汰最少使用的項目
// nil Manager 代表快取停用，所有查詢皆未命中
type Manager[V any] struct {
	name  string
	cfg   config.CacheConfig
	mu    sync.Mutex
	store map[string]entry[V]
	stats Stats
	now   func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// entry 快取條目
type entry[V any] struct {
	value       V
	expiresAt   time.Time
	createdAt   time.Time
	lastAccess  time.Time
	accessCount int
}

// Stats 快取統計
type Stats struct {
	Size      int     `json:"size"`
	MaxSize   int     `json:"maxSize"`
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	HitRatio  float64 `json:"hitRatio"`
}

// NewManager 建立快取，設定停用時回傳 nil
func NewManager[V any](name string, cfg config.CacheConfig) *Manager[V] {
	if !cfg.Enabled {
		common.LogInfo("Cache disabled", zap.String("cache", name))
		return nil
	}

	m := &Manager[V]{
		name:  name,
		cfg:   cfg,
		store: make(map[string]entry[V]),
		now:   time.Now,
		stop:  make(chan struct{}),
	}

	if cfg.CleanupInterval > 0 {
		go m.startCleanup()
	}

	common.LogInfo("快取管理員已初始化",
		zap.String("cache", name),
		zap.Int("最大容量", cfg.MaxSize),
		zap.Duration("存活時間", cfg.TTL),
		zap.Duration("清理間隔", cfg.CleanupInterval),
	)

	return m
}

// Key 將多個片段組成固定長度的快取鍵
func Key(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(hash[:])
}

// Get 取得快取值，未命中或過期時回傳 ErrCacheMiss
func (m *Manager[V]) Get(key string) (V, error) {
	var zero V
	if m == nil {
		return zero, common.ErrCacheMiss
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.store[key]
	if !ok {
		m.miss()
		return zero, common.ErrCacheMiss
	}

	now := m.now()
	if now.After(e.expiresAt) {
		delete(m.store, key)
		m.evicted(1)
		m.miss()
		return zero, common.ErrCacheMiss
	}

	e.lastAccess = now
	e.accessCount++
	m.store[key] = e
	m.stats.Hits++
	metrics.CacheRequests.WithLabelValues(m.name, "hit").Inc()
	common.LogCacheHit(m.name)

	return e.value, nil
}

// Set 寫入快取，滿了會先清除過期項目再淘汰最少使用者
func (m *Manager[V]) Set(key string, value V) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.store[key]; !exists && len(m.store) >= m.cfg.MaxSize {
		m.cleanup()
		if len(m.store) >= m.cfg.MaxSize {
			m.evictLFU()
		}
		if len(m.store) >= m.cfg.MaxSize {
			common.LogWarn("快取已滿", zap.String("cache", m.name), zap.Int("目前容量", len(m.store)))
			return common.ErrCacheFull
		}
	}

	now := m.now()
	m.store[key] = entry[V]{
		value:      value,
		expiresAt:  now.Add(m.cfg.TTL),
		createdAt:  now,
		lastAccess: now,
	}
	metrics.CacheEntries.WithLabelValues(m.name).Set(float64(len(m.store)))

	return nil
}

// Len 目前條目數
func (m *Manager[V]) Len() int {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.store)
}

func (m *Manager[V]) miss() {
	m.stats.Misses++
	metrics.CacheRequests.WithLabelValues(m.name, "miss").Inc()
	common.LogCacheMiss(m.name)
}

func (m *Manager[V]) evicted(n int) {
	m.stats.Evictions += int64(n)
	metrics.CacheEvictions.WithLabelValues(m.name).Add(float64(n))
	metrics.CacheEntries.WithLabelValues(m.name).Set(float64(len(m.store)))
}

// startCleanup 定期清除過期項目
func (m *Manager[V]) startCleanup() {
	ticker := time.NewTicker(m.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.mu.Lock()
			m.cleanup()
			m.mu.Unlock()
		case <-m.stop:
			return
		}
	}
}

// cleanup 清除過期項目，呼叫前須持有鎖
func (m *Manager[V]) cleanup() int {
	now := m.now()
	count := 0

	for key, e := range m.store {
		if now.After(e.expiresAt) {
			delete(m.store, key)
			count++
		}
	}

	if count > 0 {
		m.evicted(count)
		common.LogDebug("Cleaned up expired cache entries",
			zap.String("cache", m.name),
			zap.Int("count", count),
			zap.Int("remaining_size", len(m.store)),
		)
	}

	return count
}

// evictLFU 淘汰存取次數最少的項目，次數相同時淘汰最久未存取者
func (m *Manager[V]) evictLFU() {
	var victim string
	var oldest time.Time
	lowest := -1

	for key, e := range m.store {
		if lowest < 0 ||
			e.accessCount < lowest ||
			(e.accessCount == lowest && e.lastAccess.Before(oldest)) {
			victim = key
			oldest = e.lastAccess
			lowest = e.accessCount
		}
	}

	if victim != "" {
		delete(m.store, victim)
		m.evicted(1)
	}
}

// GetStats 取得快取統計
func (m *Manager[V]) GetStats() Stats {
	if m == nil {
		return Stats{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.stats
	s.Size = len(m.store)
	s.MaxSize = m.cfg.MaxSize
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRatio = float64(s.Hits) / float64(total)
	}
	return s
}

// Close 停止清理協程並清空快取
func (m *Manager[V]) Close() error {
	if m == nil {
		return nil
	}
	m.stopOnce.Do(func() { close(m.stop) })

	m.mu.Lock()
	defer m.mu.Unlock()

	m.store = make(map[string]entry[V])
	common.LogInfo("快取管理員已關閉",
		zap.String("cache", m.name),
		zap.Int64("命中次數", m.stats.Hits),
		zap.Int64("未命中次數", m.stats.Misses),
		zap.Int64("淘汰次數", m.stats.Evictions),
	)
	return nil
}
