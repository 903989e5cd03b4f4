package recognition

import (
	"context"
	"errors"
	"net/http"
	"time"

	"recipe-finder/internal/api/handlers"
	recognitionService "recipe-finder/internal/core/recognition"
	"recipe-finder/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecognizeRequest 食材辨識請求
type RecognizeRequest struct {
	ImageData string `json:"imageData"`
}

// Handler 食材辨識處理程序
type Handler struct {
	queue     *recognitionService.Queue
	validator *recognitionService.ImageValidator
}

// NewHandler 創建新的食材辨識處理程序
func NewHandler(queue *recognitionService.Queue, validator *recognitionService.ImageValidator) *Handler {
	return &Handler{queue: queue, validator: validator}
}

// Register 註冊辨識路由
func (h *Handler) Register(api *gin.RouterGroup) {
	api.POST("/recognize-ingredients", h.HandleRecognize)
}

// HandleRecognize 處理食材辨識請求
func (h *Handler) HandleRecognize(c *gin.Context) {
	requestID := handlers.RequestID(c)
	start := time.Now()

	var req RecognizeRequest
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		if err := common.DecodeJSON(c.Request.Body, &req); err != nil {
			common.LogWarn("請求格式無效",
				zap.String("request_id", requestID),
				zap.Error(err),
			)
			handlers.RespondError(c, common.ErrInvalidRequest.Wrap(err))
			return
		}
	}

	format, err := h.validator.Validate(req.ImageData)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	common.LogInfo("開始處理食材辨識請求",
		zap.String("request_id", requestID),
		zap.String("format", format),
		zap.Int("image_length", len(req.ImageData)),
	)

	result, err := h.queue.Submit(c.Request.Context(), req.ImageData)
	if err != nil {
		handlers.RespondError(c, recognitionError(err))
		return
	}

	common.LogInfo("食材辨識完成",
		zap.String("request_id", requestID),
		zap.Int("detected", len(result.Ingredients)),
		zap.Float64("confidence", result.Confidence),
		zap.Duration("duration", time.Since(start)),
	)
	c.JSON(http.StatusOK, result)
}

// recognitionError 將辨識錯誤轉為對外錯誤，逾時與隊列滿載保留原本的狀態碼
func recognitionError(err error) error {
	switch {
	case errors.Is(err, common.ErrQueueFull),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, recognitionService.ErrQueueClosed):
		return common.ErrServiceUnavailable.Wrap(err)
	default:
		return common.ErrRecognitionFailed.Wrap(err)
	}
}
