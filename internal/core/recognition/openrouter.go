package recognition

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"recipe-finder/internal/infrastructure/config"
	"recipe-finder/internal/pkg/common"
	"recipe-finder/internal/pkg/metrics"

	"github.com/go-resty/resty/v2"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

const recognitionPrompt = `List the food ingredients visible in this image.
Reply with compact JSON only: {"ingredients":["name",...],"confidence":0.0-1.0}.
Use lowercase English singular names, no quantities, no cookware.`

// 模型未回傳信心值時使用
const defaultRemoteConfidence = 0.9

// OpenRouterRecognizer 透過 OpenRouter 視覺模型辨識食材
type OpenRouterRecognizer struct {
	cfg     config.OpenRouterConfig
	client  *resty.Client
	breaker *gobreaker.CircuitBreaker[*common.RecognitionResult]
}

// NewOpenRouterRecognizer 建立 OpenRouter 辨識器
func NewOpenRouterRecognizer(cfg config.OpenRouterConfig) *OpenRouterRecognizer {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.APIKey)).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Title", "Recipe Finder")

	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 3
	}

	breaker := gobreaker.NewCircuitBreaker[*common.RecognitionResult](gobreaker.Settings{
		Name:    "openrouter",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// 呼叫端中斷不算上游失敗
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			common.LogWarn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	common.LogInfo("OpenRouter 辨識器已初始化",
		zap.String("model", cfg.Model),
		zap.String("api_key", config.MaskAPIKey(cfg.APIKey)),
	)

	return &OpenRouterRecognizer{cfg: cfg, client: client, breaker: breaker}
}

func (r *OpenRouterRecognizer) Name() string { return "openrouter" }

// State 斷路器狀態
func (r *OpenRouterRecognizer) State() string {
	return r.breaker.State().String()
}

// Recognize 呼叫遠端模型，連續失敗後斷路器會直接拒絕
func (r *OpenRouterRecognizer) Recognize(ctx context.Context, imageData string) (*common.RecognitionResult, error) {
	start := time.Now()
	result, err := r.breaker.Execute(func() (*common.RecognitionResult, error) {
		return r.call(ctx, imageData)
	})
	observe(r.Name(), start, result, err)
	return result, err
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (r *OpenRouterRecognizer) call(ctx context.Context, imageData string) (*common.RecognitionResult, error) {
	req := map[string]interface{}{
		"model": r.cfg.Model,
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]interface{}{
					{"type": "text", "text": recognitionPrompt},
					{"type": "image_url", "image_url": map[string]string{"url": imageData}},
				},
			},
		},
		"max_tokens": r.cfg.MaxTokens,
	}

	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("failed to send request to OpenRouter: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("OpenRouter API returned status %d", resp.StatusCode())
	}

	var chat chatResponse
	if err := common.ParseJSONBytes(resp.Body(), &chat); err != nil {
		return nil, fmt.Errorf("failed to parse OpenRouter response: %w", err)
	}
	if chat.Error != nil {
		return nil, fmt.Errorf("OpenRouter error: %s", chat.Error.Message)
	}
	if len(chat.Choices) == 0 {
		return nil, errors.New("no choices in OpenRouter response")
	}

	return parseRecognition(chat.Choices[0].Message.Content)
}

// parseRecognition 解析模型回覆，接受物件或純陣列
func parseRecognition(content string) (*common.RecognitionResult, error) {
	raw := common.ExtractJSON(content)

	var payload struct {
		Ingredients []string `json:"ingredients"`
		Confidence  float64  `json:"confidence"`
	}
	if strings.HasPrefix(raw, "[") {
		if err := common.ParseJSON(raw, &payload.Ingredients); err != nil {
			return nil, fmt.Errorf("failed to parse ingredient list: %w", err)
		}
	} else if err := common.ParseJSON(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse ingredient list: %w", err)
	}

	seen := make(map[string]bool)
	ingredients := []string{}
	for _, ing := range payload.Ingredients {
		ing = strings.ToLower(strings.TrimSpace(ing))
		if ing == "" || seen[ing] {
			continue
		}
		seen[ing] = true
		ingredients = append(ingredients, ing)
	}
	if len(ingredients) == 0 {
		return nil, errors.New("model returned no ingredients")
	}

	confidence := payload.Confidence
	if confidence <= 0 || confidence > 1 {
		confidence = defaultRemoteConfidence
	}
	confidence = math.Round(confidence*100) / 100

	return &common.RecognitionResult{
		Ingredients: ingredients,
		Confidence:  confidence,
		Message:     fmt.Sprintf("Detected %d ingredients with %d%% confidence", len(ingredients), int(math.Round(confidence*100))),
		Provider:    "openrouter",
	}, nil
}

// FallbackRecognizer 主要辨識器失敗時改用備援
type FallbackRecognizer struct {
	primary  Recognizer
	fallback Recognizer
}

// NewFallbackRecognizer 建立具備援的辨識器
func NewFallbackRecognizer(primary, fallback Recognizer) *FallbackRecognizer {
	return &FallbackRecognizer{primary: primary, fallback: fallback}
}

func (f *FallbackRecognizer) Name() string { return f.primary.Name() }

// State 主要辨識器的斷路器狀態
func (f *FallbackRecognizer) State() string { return BreakerState(f.primary) }

func (f *FallbackRecognizer) Recognize(ctx context.Context, imageData string) (*common.RecognitionResult, error) {
	result, err := f.primary.Recognize(ctx, imageData)
	if err == nil {
		return result, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	common.LogWarn("Primary recognizer failed, using fallback",
		zap.String("primary", f.primary.Name()),
		zap.String("fallback", f.fallback.Name()),
		zap.Error(err),
	)
	metrics.RecognitionFallbacks.Inc()
	return f.fallback.Recognize(ctx, imageData)
}
