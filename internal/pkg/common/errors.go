package common

import (
	"context"
	"errors"
	"net/http"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Message string `json:"message"`           // 錯誤信息
	Code    string `json:"code"`              // 錯誤代碼
	Details string `json:"details,omitempty"` // 詳細信息（僅在開發模式顯示）
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 錯誤信息
	Err     error  // 原始錯誤
	Status  int    // HTTP 狀態碼
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap 讓 errors.Is/As 可以看到原始錯誤
func (e *CustomError) Unwrap() error {
	return e.Err
}

// Is 以錯誤代碼比對，使包裝過的預定義錯誤仍可被辨識
func (e *CustomError) Is(target error) bool {
	t, ok := target.(*CustomError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// Wrap 以預定義錯誤包裝原始錯誤
func (e *CustomError) Wrap(err error) *CustomError {
	return NewError(e.Code, e.Message, e.Status, err)
}

// WithMessage 複製錯誤並替換對外訊息
func (e *CustomError) WithMessage(message string) *CustomError {
	return NewError(e.Code, message, e.Status, e.Err)
}

// ValidationError 表示驗證錯誤
type ValidationError struct {
	message string
}

// Error 實現 error 介面
func (e *ValidationError) Error() string {
	return e.message
}

// NewValidationError 創建新的驗證錯誤
func NewValidationError(message string) error {
	return &ValidationError{
		message: message,
	}
}

// IsValidationError 檢查是否為驗證錯誤
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// AsCustomError 取得錯誤鏈上的 CustomError
func AsCustomError(err error) (*CustomError, bool) {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeInvalidRequest   = "INVALID_REQUEST"    // 400
	ErrCodeNotFound         = "NOT_FOUND"          // 404
	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED" // 405
	ErrCodeRequestTooLarge  = "REQUEST_TOO_LARGE"  // 413
	ErrCodeTooManyRequests  = "TOO_MANY_REQUESTS"  // 429

	// 服務器錯誤 (5xx)
	ErrCodeInternalError      = "INTERNAL_ERROR"      // 500
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE" // 503
	ErrCodeGatewayTimeout     = "GATEWAY_TIMEOUT"     // 504
)

// 預定義錯誤
var (
	// 客戶端錯誤
	ErrInvalidRequest   = NewError(ErrCodeInvalidRequest, "Invalid request.", http.StatusBadRequest, nil)
	ErrNotFound         = NewError(ErrCodeNotFound, "Resource not found.", http.StatusNotFound, nil)
	ErrMethodNotAllowed = NewError(ErrCodeMethodNotAllowed, "Method not allowed.", http.StatusMethodNotAllowed, nil)
	ErrRequestTooLarge  = NewError(ErrCodeRequestTooLarge, "Request body too large.", http.StatusRequestEntityTooLarge, nil)
	ErrTooManyRequests  = NewError(ErrCodeTooManyRequests, "Too many requests.", http.StatusTooManyRequests, nil)

	// 服務器錯誤
	ErrInternalError      = NewError(ErrCodeInternalError, "Server error occurred.", http.StatusInternalServerError, nil)
	ErrServiceUnavailable = NewError(ErrCodeServiceUnavailable, "Service temporarily unavailable.", http.StatusServiceUnavailable, nil)
	ErrGatewayTimeout     = NewError(ErrCodeGatewayTimeout, "Request timeout.", http.StatusGatewayTimeout, nil)

	// 業務錯誤
	ErrNoIngredients     = NewError("NO_INGREDIENTS", "Please provide ingredients.", http.StatusBadRequest, nil)
	ErrInvalidFilter     = NewError("INVALID_FILTER", "Invalid search filter.", http.StatusBadRequest, nil)
	ErrRecipeNotFound    = NewError("RECIPE_NOT_FOUND", "Recipe not found.", http.StatusNotFound, nil)
	ErrInvalidRating     = NewError("INVALID_RATING", "Rating must be between 1 and 5.", http.StatusBadRequest, nil)
	ErrInvalidServings   = NewError("INVALID_SERVINGS", "Servings must be a positive integer.", http.StatusBadRequest, nil)
	ErrNoImageData       = NewError("NO_IMAGE_DATA", "No image data provided.", http.StatusBadRequest, nil)
	ErrInvalidImage      = NewError("INVALID_IMAGE", "Invalid image data.", http.StatusBadRequest, nil)
	ErrImageTooLarge     = NewError("IMAGE_TOO_LARGE", "Image exceeds size limit.", http.StatusRequestEntityTooLarge, nil)
	ErrQueueFull         = NewError("QUEUE_FULL", "Recognition queue is full, try again later.", http.StatusServiceUnavailable, nil)
	ErrRecognitionFailed = NewError("RECOGNITION_FAILED", "Image processing failed.", http.StatusInternalServerError, nil)
	ErrStoreUnavailable  = NewError("STORE_UNAVAILABLE", "Preference store unavailable.", http.StatusServiceUnavailable, nil)
	ErrCacheFull         = NewError("CACHE_FULL", "Cache is full.", http.StatusServiceUnavailable, nil)
	ErrCacheMiss         = NewError("CACHE_MISS", "Cache miss.", http.StatusNotFound, nil)
)

// ToResponse 將錯誤轉換為 HTTP 狀態碼與回應內容，未知錯誤一律視為 500
// withDetails 為 true 時附上原始錯誤訊息
func ToResponse(err error, withDetails bool) (int, ErrorResponse) {
	ce, ok := AsCustomError(err)
	if !ok {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			ce = ErrGatewayTimeout
		case IsValidationError(err):
			ce = ErrInvalidRequest.WithMessage(err.Error())
		default:
			ce = ErrInternalError
		}
	}

	resp := ErrorResponse{Message: ce.Message, Code: ce.Code}
	if withDetails && err != nil && err.Error() != ce.Message {
		resp.Details = err.Error()
	}
	return ce.Status, resp
}
