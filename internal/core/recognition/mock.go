package recognition

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"recipe-finder/internal/pkg/common"
)

// MockIngredients 模擬辨識的候選食材
var MockIngredients = []string{
	"tomato", "onion", "garlic", "bell pepper", "carrot", "broccoli",
	"chicken", "beef", "fish", "eggs", "cheese", "milk", "butter",
	"potato", "spinach", "mushroom", "lemon", "lime", "basil",
	"rice", "pasta", "bread", "olive oil", "salt", "pepper",
}

const (
	mockMinItems      = 3
	mockMaxItems      = 6
	mockMinConfidence = 0.70
	mockMaxConfidence = 1.00
)

// MockRecognizer 隨機抽取食材模擬辨識結果
type MockRecognizer struct {
	minDelay time.Duration
	maxDelay time.Duration

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewMockRecognizer 建立模擬辨識器，rnd 為 nil 時使用時間種子
func NewMockRecognizer(minDelay, maxDelay time.Duration, rnd *rand.Rand) *MockRecognizer {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &MockRecognizer{minDelay: minDelay, maxDelay: maxDelay, rnd: rnd}
}

func (m *MockRecognizer) Name() string { return "mock" }

// Recognize 抽取 3–6 個食材，並模擬處理延遲
func (m *MockRecognizer) Recognize(ctx context.Context, _ string) (*common.RecognitionResult, error) {
	start := time.Now()
	result, delay := m.sample()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			observe(m.Name(), start, nil, ctx.Err())
			return nil, ctx.Err()
		}
	}

	observe(m.Name(), start, result, nil)
	return result, nil
}

func (m *MockRecognizer) sample() (*common.RecognitionResult, time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := mockMinItems + m.rnd.Intn(mockMaxItems-mockMinItems+1)
	perm := m.rnd.Perm(len(MockIngredients))
	ingredients := make([]string, n)
	for i := 0; i < n; i++ {
		ingredients[i] = MockIngredients[perm[i]]
	}

	confidence := mockMinConfidence + m.rnd.Float64()*(mockMaxConfidence-mockMinConfidence)
	confidence = math.Round(confidence*100) / 100

	delay := m.minDelay
	if span := m.maxDelay - m.minDelay; span > 0 {
		delay += time.Duration(m.rnd.Int63n(int64(span) + 1))
	}

	return &common.RecognitionResult{
		Ingredients: ingredients,
		Confidence:  confidence,
		Message:     fmt.Sprintf("Detected %d ingredients with %d%% confidence", n, int(math.Round(confidence*100))),
		Provider:    m.Name(),
	}, delay
}
