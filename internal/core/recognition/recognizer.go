package recognition

import (
	"context"
	"time"

	"recipe-finder/internal/infrastructure/config"
	"recipe-finder/internal/pkg/common"
	"recipe-finder/internal/pkg/metrics"
)

// Recognizer 由圖片辨識食材
type Recognizer interface {
	Recognize(ctx context.Context, imageData string) (*common.RecognitionResult, error)
	Name() string
}

// BreakerState 回傳辨識器的斷路器狀態，沒有斷路器時為空字串
func BreakerState(r Recognizer) string {
	if s, ok := r.(interface{ State() string }); ok {
		return s.State()
	}
	return ""
}

// New 依設定建立辨識器
// openrouter 模式下遠端失敗時改用模擬辨識
func New(cfg *config.Config) Recognizer {
	mock := NewMockRecognizer(cfg.Recognition.MinDelay, cfg.Recognition.MaxDelay, nil)
	if cfg.Recognition.Provider != config.RecognitionOpenRouter {
		return mock
	}
	return NewFallbackRecognizer(NewOpenRouterRecognizer(cfg.OpenRouter), mock)
}

// observe 記錄辨識耗時
func observe(provider string, start time.Time, result *common.RecognitionResult, err error) {
	d := time.Since(start)
	status := "ok"
	detected := 0
	if err != nil {
		status = "error"
	} else if result != nil {
		detected = len(result.Ingredients)
	}
	metrics.RecognitionDuration.WithLabelValues(provider, status).Observe(d.Seconds())
	common.LogRecognition(provider, d, detected, err)
}
