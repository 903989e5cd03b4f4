package handlers

import (
	"recipe-finder/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestID 取得請求 ID，沒有時產生一個並寫回回應標頭
func RequestID(c *gin.Context) string {
	if id := requestid.Get(c); id != "" {
		return id
	}
	id := common.GenerateUUID()
	c.Header("X-Request-ID", id)
	return id
}

// RespondError 將錯誤轉換為 JSON 回應，5xx 會記錄錯誤日誌
func RespondError(c *gin.Context, err error) {
	status, resp := common.ToResponse(err, gin.IsDebugging())
	if status >= 500 {
		common.LogError("Request failed",
			zap.String("request_id", RequestID(c)),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, resp)
}

// Message 簡單訊息回應
type Message struct {
	Message string `json:"message"`
}
