package recognition

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"recipe-finder/internal/infrastructure/config"
	"recipe-finder/internal/pkg/common"
	"recipe-finder/internal/pkg/metrics"

	"go.uber.org/zap"
)

// ErrQueueClosed 隊列已關閉
var ErrQueueClosed = errors.New("recognition queue is closed")

// job 隊列請求
type job struct {
	ctx       context.Context
	imageData string
	result    chan jobResult
}

// jobResult 處理結果
type jobResult struct {
	result *common.RecognitionResult
	err    error
}

// Status 隊列狀態
type Status struct {
	QueueLength    int    `json:"queueLength"`
	ProcessedCount int64  `json:"processedCount"`
	FailedCount    int64  `json:"failedCount"`
	MaxQueueSize   int    `json:"maxQueueSize"`
	Workers        int    `json:"workers"`
	Provider       string `json:"provider"`
	Breaker        string `json:"breaker,omitempty"`
}

// Queue 以固定數量 worker 處理辨識請求，滿載時立即拒絕
type Queue struct {
	recognizer Recognizer
	workers    int
	maxSize    int

	jobs      chan *job
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once

	processed atomic.Int64
	failed    atomic.Int64
	pending   atomic.Int64
}

// NewQueue 建立隊列並啟動 worker
func NewQueue(recognizer Recognizer, cfg config.QueueConfig) *Queue {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	maxSize := cfg.MaxSize
	if maxSize <= 0 {
		maxSize = 1
	}

	q := &Queue{
		recognizer: recognizer,
		workers:    workers,
		maxSize:    maxSize,
		jobs:       make(chan *job, maxSize),
		done:       make(chan struct{}),
	}

	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}

	common.LogInfo("辨識隊列已啟動",
		zap.Int("workers", workers),
		zap.Int("max_queue_size", maxSize),
		zap.String("provider", recognizer.Name()),
	)
	return q
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for {
		select {
		case j := <-q.jobs:
			q.run(j)
		case <-q.done:
			return
		}
	}
}

func (q *Queue) run(j *job) {
	defer func() {
		q.pending.Add(-1)
		metrics.QueueDepth.Set(float64(q.pending.Load()))
	}()

	// 呼叫端已放棄則不處理
	if err := j.ctx.Err(); err != nil {
		j.result <- jobResult{err: err}
		return
	}

	res, err := q.recognizer.Recognize(j.ctx, j.imageData)
	if err != nil {
		q.failed.Add(1)
	} else {
		q.processed.Add(1)
	}
	j.result <- jobResult{result: res, err: err}
}

// Submit 送出辨識請求並等待結果，隊列已滿時回傳 ErrQueueFull
func (q *Queue) Submit(ctx context.Context, imageData string) (*common.RecognitionResult, error) {
	select {
	case <-q.done:
		return nil, ErrQueueClosed
	default:
	}

	j := &job{ctx: ctx, imageData: imageData, result: make(chan jobResult, 1)}

	q.pending.Add(1)
	select {
	case q.jobs <- j:
		metrics.QueueDepth.Set(float64(q.pending.Load()))
	default:
		q.pending.Add(-1)
		metrics.QueueRejected.Inc()
		common.LogWarn("Recognition queue full", zap.Int("max_queue_size", q.maxSize))
		return nil, common.ErrQueueFull
	}

	select {
	case r := <-j.result:
		return r.result, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-q.done:
		return nil, ErrQueueClosed
	}
}

// GetQueueStatus 取得隊列狀態
func (q *Queue) GetQueueStatus() Status {
	return Status{
		QueueLength:    len(q.jobs),
		ProcessedCount: q.processed.Load(),
		FailedCount:    q.failed.Load(),
		MaxQueueSize:   q.maxSize,
		Workers:        q.workers,
		Provider:       q.recognizer.Name(),
		Breaker:        BreakerState(q.recognizer),
	}
}

// Close 停止接受請求並等待 worker 結束
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		close(q.done)
		q.wg.Wait()
		common.LogInfo("辨識隊列已關閉",
			zap.Int64("processed", q.processed.Load()),
			zap.Int64("failed", q.failed.Load()),
		)
	})
}
